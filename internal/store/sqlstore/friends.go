package sqlstore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"harmony/internal/models"
	"harmony/internal/store"
)

// AddFriendship stores both directions of the friendship in one transaction.
// Idempotent.
func (s *SQLStore) AddFriendship(userID, friendID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "sqlstore.AddFriendship.Begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO friendships (id, user_id, friend_id, created_at) VALUES (?, ?, ?, ?)",
			uuid.NewString(), pair[0], pair[1], now)
		if err != nil {
			return errors.Wrap(err, "sqlstore.AddFriendship")
		}
	}
	return errors.Wrap(tx.Commit(), "sqlstore.AddFriendship.Commit")
}

// RemoveFriendship deletes both directions. Idempotent.
func (s *SQLStore) RemoveFriendship(userID, friendID string) error {
	_, err := s.db.Exec(
		"DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userID, friendID, friendID, userID)
	return errors.Wrap(err, "sqlstore.RemoveFriendship")
}

func (s *SQLStore) AreFriends(userID, friendID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = ? AND friend_id = ?)",
		userID, friendID).Scan(&exists)
	return exists, errors.Wrap(err, "sqlstore.AreFriends")
}

func (s *SQLStore) GetFriendships(userID string) ([]models.Friendship, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, friend_id, created_at FROM friendships WHERE user_id = ? ORDER BY created_at, id",
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetFriendships")
	}
	defer rows.Close()

	var friendships []models.Friendship
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "sqlstore.GetFriendships.Scan")
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (s *SQLStore) CreateFriendRequest(req *models.FriendRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.FriendRequestPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		"INSERT INTO friend_requests (id, requester_id, receiver_id, status, created_at) VALUES (?, ?, ?, ?, ?)",
		req.ID, req.RequesterID, req.ReceiverID, req.Status, req.CreatedAt)
	return errors.Wrap(err, "sqlstore.CreateFriendRequest")
}

func (s *SQLStore) GetPendingFriendRequest(requesterID, receiverID string) (*models.FriendRequest, error) {
	row := s.db.QueryRow(
		"SELECT id, requester_id, receiver_id, status, created_at FROM friend_requests WHERE requester_id = ? AND receiver_id = ? AND status = ?",
		requesterID, receiverID, models.FriendRequestPending)
	var req models.FriendRequest
	err := row.Scan(&req.ID, &req.RequesterID, &req.ReceiverID, &req.Status, &req.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetPendingFriendRequest")
	}
	return &req, nil
}

func (s *SQLStore) GetPendingFriendRequestsReceived(userID string) ([]models.FriendRequest, error) {
	return s.pendingFriendRequests("receiver_id", userID)
}

func (s *SQLStore) GetPendingFriendRequestsSent(userID string) ([]models.FriendRequest, error) {
	return s.pendingFriendRequests("requester_id", userID)
}

func (s *SQLStore) pendingFriendRequests(column, userID string) ([]models.FriendRequest, error) {
	rows, err := s.db.Query(
		"SELECT id, requester_id, receiver_id, status, created_at FROM friend_requests WHERE "+column+" = ? AND status = ? ORDER BY created_at, id",
		userID, models.FriendRequestPending)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.pendingFriendRequests")
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.ReceiverID, &req.Status, &req.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "sqlstore.pendingFriendRequests.Scan")
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *SQLStore) UpdateFriendRequestStatus(requestID, status string) error {
	res, err := s.db.Exec(
		"UPDATE friend_requests SET status = ? WHERE id = ?", status, requestID)
	if err != nil {
		return errors.Wrap(err, "sqlstore.UpdateFriendRequestStatus")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlstore.UpdateFriendRequestStatus.RowsAffected")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) GetBlockedUsers(userID string) ([]models.BlockedUser, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, blocked_user_id, created_at FROM blocked_users WHERE user_id = ? ORDER BY created_at, id",
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetBlockedUsers")
	}
	defer rows.Close()

	var blocked []models.BlockedUser
	for rows.Next() {
		var b models.BlockedUser
		if err := rows.Scan(&b.ID, &b.UserID, &b.BlockedUserID, &b.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "sqlstore.GetBlockedUsers.Scan")
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}
