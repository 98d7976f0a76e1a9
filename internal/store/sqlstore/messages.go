package sqlstore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"harmony/internal/models"
	"harmony/internal/store"
)

const messageColumns = "seq, id, sender_id, receiver_id, content, created_at, updated_at, reply_to_id"

// SaveDirectMessage persists msg, assigning its id, created_at and the
// monotonic seq that orders the conversation ahead of wall-clock time.
func (s *SQLStore) SaveDirectMessage(msg *models.DirectMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		"INSERT INTO direct_messages (id, sender_id, receiver_id, content, created_at, reply_to_id) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.CreatedAt, msg.ReplyToID,
	)
	if err != nil {
		return errors.Wrap(err, "sqlstore.SaveDirectMessage")
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "sqlstore.SaveDirectMessage.LastInsertId")
	}
	msg.Seq = seq
	return nil
}

func scanMessage(scan func(dest ...any) error) (models.DirectMessage, error) {
	var msg models.DirectMessage
	var updatedAt sql.NullTime
	err := scan(&msg.Seq, &msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt, &updatedAt, &msg.ReplyToID)
	if err != nil {
		return msg, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		msg.UpdatedAt = &t
	}
	return msg, nil
}

// GetConversation returns every message exchanged between the two users in
// insertion order.
func (s *SQLStore) GetConversation(userID, otherUserID string) ([]models.DirectMessage, error) {
	rows, err := s.db.Query(
		"SELECT "+messageColumns+" FROM direct_messages WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?) ORDER BY seq",
		userID, otherUserID, otherUserID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetConversation")
	}
	defer rows.Close()
	return collectMessages(rows)
}

// GetMessagesInvolving returns every message the user sent or received, in
// insertion order.
func (s *SQLStore) GetMessagesInvolving(userID string) ([]models.DirectMessage, error) {
	rows, err := s.db.Query(
		"SELECT "+messageColumns+" FROM direct_messages WHERE sender_id = ? OR receiver_id = ? ORDER BY seq",
		userID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetMessagesInvolving")
	}
	defer rows.Close()
	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]models.DirectMessage, error) {
	var messages []models.DirectMessage
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "sqlstore.collectMessages")
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLStore) GetMessageByID(id string) (*models.DirectMessage, error) {
	row := s.db.QueryRow("SELECT "+messageColumns+" FROM direct_messages WHERE id = ?", id)
	msg, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetMessageByID")
	}
	return &msg, nil
}

// UpdateMessageContent replaces the content in place and stamps updated_at,
// returning the updated row.
func (s *SQLStore) UpdateMessageContent(id, content string) (*models.DirectMessage, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		"UPDATE direct_messages SET content = ?, updated_at = ? WHERE id = ?",
		content, now, id)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.UpdateMessageContent")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.UpdateMessageContent.RowsAffected")
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetMessageByID(id)
}
