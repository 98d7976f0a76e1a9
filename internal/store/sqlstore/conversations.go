package sqlstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"harmony/internal/models"
)

// HideConversation is an idempotent no-op if the marker already exists.
func (s *SQLStore) HideConversation(userID, hiddenUserID string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO hidden_conversations (id, user_id, hidden_user_id, created_at) VALUES (?, ?, ?, ?)",
		uuid.NewString(), userID, hiddenUserID, time.Now().UTC())
	return errors.Wrap(err, "sqlstore.HideConversation")
}

// UnhideConversation is an idempotent no-op if no marker exists.
func (s *SQLStore) UnhideConversation(userID, hiddenUserID string) error {
	_, err := s.db.Exec(
		"DELETE FROM hidden_conversations WHERE user_id = ? AND hidden_user_id = ?",
		userID, hiddenUserID)
	return errors.Wrap(err, "sqlstore.UnhideConversation")
}

func (s *SQLStore) GetHiddenUserIDs(userID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT hidden_user_id FROM hidden_conversations WHERE user_id = ?", userID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetHiddenUserIDs")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "sqlstore.GetHiddenUserIDs.Scan")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateConversationEntry is an idempotent no-op if the entry already exists.
func (s *SQLStore) CreateConversationEntry(userID, otherUserID string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO conversation_entries (id, user_id, other_user_id, created_at) VALUES (?, ?, ?, ?)",
		uuid.NewString(), userID, otherUserID, time.Now().UTC())
	return errors.Wrap(err, "sqlstore.CreateConversationEntry")
}

func (s *SQLStore) GetConversationEntries(userID string) ([]models.ConversationEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, other_user_id, created_at FROM conversation_entries WHERE user_id = ? ORDER BY created_at, id",
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetConversationEntries")
	}
	defer rows.Close()

	var entries []models.ConversationEntry
	for rows.Next() {
		var e models.ConversationEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.OtherUserID, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "sqlstore.GetConversationEntries.Scan")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) BlockUser(userID, blockedUserID string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO blocked_users (id, user_id, blocked_user_id, created_at) VALUES (?, ?, ?, ?)",
		uuid.NewString(), userID, blockedUserID, time.Now().UTC())
	return errors.Wrap(err, "sqlstore.BlockUser")
}

func (s *SQLStore) UnblockUser(userID, blockedUserID string) error {
	_, err := s.db.Exec(
		"DELETE FROM blocked_users WHERE user_id = ? AND blocked_user_id = ?",
		userID, blockedUserID)
	return errors.Wrap(err, "sqlstore.UnblockUser")
}

// IsBlocked reports whether userID has blocked byUserID.
func (s *SQLStore) IsBlocked(userID, byUserID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM blocked_users WHERE user_id = ? AND blocked_user_id = ?)",
		userID, byUserID).Scan(&exists)
	return exists, errors.Wrap(err, "sqlstore.IsBlocked")
}
