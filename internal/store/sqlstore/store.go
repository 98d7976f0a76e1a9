package sqlstore

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"
)

type SQLStore struct {
	db *sql.DB
}

func New(driver, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.New.Open")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "sqlstore.New.Ping")
	}

	// database/sql would otherwise open one connection per goroutine and an
	// in-memory sqlite database exists per connection. A single connection
	// also serializes every read-modify-write sequence.
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		avatar_url TEXT DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS direct_messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		sender_id TEXT NOT NULL REFERENCES users(id),
		receiver_id TEXT NOT NULL REFERENCES users(id),
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME,
		reply_to_id TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS message_reactions (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		emoji TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (message_id, user_id, emoji)
	);

	CREATE TABLE IF NOT EXISTS hidden_conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		hidden_user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, hidden_user_id)
	);

	CREATE TABLE IF NOT EXISTS conversation_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		other_user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, other_user_id)
	);

	CREATE TABLE IF NOT EXISTS blocked_users (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		blocked_user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, blocked_user_id)
	);

	CREATE TABLE IF NOT EXISTS friendships (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		friend_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, friend_id)
	);

	CREATE TABLE IF NOT EXISTS friend_requests (
		id TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(query)
	return errors.Wrap(err, "sqlstore.createTables")
}
