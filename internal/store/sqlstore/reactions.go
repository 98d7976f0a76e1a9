package sqlstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"harmony/internal/models"
)

func (s *SQLStore) AddReaction(messageID, userID, emoji string) error {
	_, err := s.db.Exec(
		"INSERT INTO message_reactions (id, message_id, user_id, emoji, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), messageID, userID, emoji, time.Now().UTC())
	return errors.Wrap(err, "sqlstore.AddReaction")
}

// ToggleReaction removes the reaction if it exists, otherwise adds it, in one
// transaction so two racing toggles resolve to opposite actions instead of a
// constraint error.
func (s *SQLStore) ToggleReaction(messageID, userID, emoji string) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", errors.Wrap(err, "sqlstore.ToggleReaction.Begin")
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?",
		messageID, userID, emoji)
	if err != nil {
		return "", errors.Wrap(err, "sqlstore.ToggleReaction.Delete")
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return "", errors.Wrap(err, "sqlstore.ToggleReaction.RowsAffected")
	}

	action := "removed"
	if removed == 0 {
		action = "added"
		_, err = tx.Exec(
			"INSERT INTO message_reactions (id, message_id, user_id, emoji, created_at) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), messageID, userID, emoji, time.Now().UTC())
		if err != nil {
			return "", errors.Wrap(err, "sqlstore.ToggleReaction.Insert")
		}
	}
	return action, errors.Wrap(tx.Commit(), "sqlstore.ToggleReaction.Commit")
}

func (s *SQLStore) RemoveReaction(messageID, userID, emoji string) error {
	_, err := s.db.Exec(
		"DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?",
		messageID, userID, emoji)
	return errors.Wrap(err, "sqlstore.RemoveReaction")
}

func (s *SQLStore) GetMessageReactions(messageID string) ([]models.MessageReaction, error) {
	rows, err := s.db.Query(
		"SELECT id, message_id, user_id, emoji, created_at FROM message_reactions WHERE message_id = ? ORDER BY created_at, id",
		messageID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.GetMessageReactions")
	}
	defer rows.Close()

	var reactions []models.MessageReaction
	for rows.Next() {
		var r models.MessageReaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "sqlstore.GetMessageReactions.Scan")
		}
		reactions = append(reactions, r)
	}
	return reactions, rows.Err()
}
