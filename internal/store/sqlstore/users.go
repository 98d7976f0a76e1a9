package sqlstore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"harmony/internal/models"
	"harmony/internal/store"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		"INSERT INTO users (id, username, email, password, avatar_url, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.Password, user.AvatarURL, user.CreatedAt,
	)
	if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.Code == sqlite3.ErrConstraint {
		return store.ErrDuplicate
	}
	return errors.Wrap(err, "sqlstore.CreateUser")
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.AvatarURL, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.scanUser")
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(id string) (*models.User, error) {
	row := s.db.QueryRow(
		"SELECT id, username, email, password, avatar_url, created_at FROM users WHERE id = ?", id)
	return s.scanUser(row)
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	row := s.db.QueryRow(
		"SELECT id, username, email, password, avatar_url, created_at FROM users WHERE username = ?", username)
	return s.scanUser(row)
}

func (s *SQLStore) SearchUsers(query string) ([]models.User, error) {
	rows, err := s.db.Query(
		"SELECT id, username, email, password, avatar_url, created_at FROM users WHERE username LIKE ? ORDER BY username LIMIT 10",
		"%"+query+"%")
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.SearchUsers")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.AvatarURL, &user.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "sqlstore.SearchUsers.Scan")
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
