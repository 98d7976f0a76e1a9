package dm

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"harmony/internal/apperr"
	"harmony/internal/models"
	"harmony/internal/store"
)

// MaxContentLength is the message size limit in code points.
const MaxContentLength = 2000

// Events delivered to live connections.
const (
	EventNewDM          = "new_dm"
	EventReactionUpdate = "reaction_update"
	EventMessageEdit    = "message_edit"
)

// Deliverer is the live-delivery surface the router needs. Delivery is best
// effort: an offline recipient is a normal branch, never an error.
type Deliverer interface {
	// DeliverTo sends the event to the user's live connection, reporting
	// whether one was present.
	DeliverTo(userID, event string, payload any) bool
	// BroadcastConversation sends the event to every connection joined to the
	// two users' conversation room, excluding exceptUserID's connection.
	BroadcastConversation(userID, otherUserID, exceptUserID, event string, payload any)
}

// Router validates send/react/edit intents, persists them and routes the
// result to whichever participants are online.
type Router struct {
	store     store.Store
	deliverer Deliverer
	log       zerolog.Logger
}

func NewRouter(s store.Store, d Deliverer, log zerolog.Logger) *Router {
	return &Router{store: s, deliverer: d, log: log}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.InvalidArg("message content required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", apperr.InvalidArg("message too long")
	}
	return content, nil
}

// Send persists a new direct message and delivers it to the receiver if they
// are online. The persisted view is returned to the sender regardless of
// delivery outcome.
func (r *Router) Send(sender *models.User, receiverID, content, replyToID string) (*models.DirectMessageView, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	receiver, err := r.store.GetUserByID(receiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to look up receiver", err)
	}

	blocked, err := r.store.IsBlocked(receiver.ID, sender.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to check block list", err)
	}
	if blocked {
		return nil, apperr.Forbidden("cannot message this user")
	}

	msg := &models.DirectMessage{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Content:    content,
		ReplyToID:  replyToID,
	}
	if err := r.store.SaveDirectMessage(msg); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to save message", err)
	}

	// An incoming message always resurfaces the conversation for the
	// receiver, even if they had hidden it.
	if err := r.store.UnhideConversation(receiver.ID, sender.ID); err != nil {
		r.log.Error().Err(err).Str("receiver_id", receiver.ID).Msg("auto-unhide failed")
	}

	view := &models.DirectMessageView{
		DirectMessage: *msg,
		Sender:        sender.Profile(),
		ReplyTo:       r.resolveReply(replyToID, sender.ID, receiver.ID),
	}

	// Single delivery path: the registry lookup wins, the room broadcast is
	// the fallback for a recipient that joined the room on a connection the
	// registry no longer tracks.
	if !r.deliverer.DeliverTo(receiver.ID, EventNewDM, view) {
		r.deliverer.BroadcastConversation(sender.ID, receiver.ID, sender.ID, EventNewDM, view)
	}

	return view, nil
}

// React toggles the caller's reaction on a message in their conversation with
// counterpartID and returns the recomputed aggregate plus "added"/"removed".
func (r *Router) React(caller *models.User, counterpartID, messageID, emoji string) (models.ReactionAggregate, string, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, "", apperr.InvalidArg("emoji required")
	}

	msg, err := r.lookupConversationMessage(messageID, caller.ID, counterpartID)
	if err != nil {
		return nil, "", err
	}

	action, err := r.store.ToggleReaction(msg.ID, caller.ID, emoji)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.CodeInternal, "failed to toggle reaction", err)
	}

	aggregate, err := r.Aggregate(msg.ID)
	if err != nil {
		return nil, "", err
	}

	// Full-aggregate notification, direct lookup only. No room fallback for
	// reactions.
	r.deliverer.DeliverTo(counterpartID, EventReactionUpdate, map[string]any{
		"messageId":      msg.ID,
		"emoji":          emoji,
		"userId":         caller.ID,
		"username":       caller.Username,
		"action":         action,
		"reactions":      aggregate,
		"conversationId": caller.ID,
	})

	return aggregate, action, nil
}

// Edit replaces the content of a message the caller sent. A message owned by
// someone else reports the same NotFound as a missing one so existence is
// not leaked.
func (r *Router) Edit(caller *models.User, counterpartID, messageID, content string) (*models.DirectMessageView, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	msg, err := r.lookupConversationMessage(messageID, caller.ID, counterpartID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != caller.ID {
		return nil, apperr.NotFound("message not found or not authorized")
	}

	updated, err := r.store.UpdateMessageContent(msg.ID, content)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to update message", err)
	}

	aggregate, err := r.Aggregate(updated.ID)
	if err != nil {
		return nil, err
	}

	view := &models.DirectMessageView{
		DirectMessage: *updated,
		Sender:        caller.Profile(),
		ReplyTo:       r.resolveReply(updated.ReplyToID, updated.SenderID, updated.ReceiverID),
		Reactions:     aggregate,
	}

	r.deliverer.DeliverTo(counterpartID, EventMessageEdit, map[string]any{
		"messageId":      updated.ID,
		"content":        updated.Content,
		"userId":         caller.ID,
		"username":       caller.Username,
		"conversationId": caller.ID,
		"updated_at":     updated.UpdatedAt,
	})

	return view, nil
}

// lookupConversationMessage is a point lookup by id, constrained to the
// conversation between the two users.
func (r *Router) lookupConversationMessage(messageID, userID, otherUserID string) (*models.DirectMessage, error) {
	msg, err := r.store.GetMessageByID(messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to look up message", err)
	}
	if !betweenUsers(msg, userID, otherUserID) {
		return nil, apperr.NotFound("message not found")
	}
	return msg, nil
}

func betweenUsers(msg *models.DirectMessage, a, b string) bool {
	return (msg.SenderID == a && msg.ReceiverID == b) ||
		(msg.SenderID == b && msg.ReceiverID == a)
}

// Aggregate recomputes the full emoji -> reacting-users mapping for a message.
func (r *Router) Aggregate(messageID string) (models.ReactionAggregate, error) {
	reactions, err := r.store.GetMessageReactions(messageID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load reactions", err)
	}
	aggregate := models.ReactionAggregate{}
	for _, reaction := range reactions {
		group := aggregate[reaction.Emoji]
		group.Count++
		group.Users = append(group.Users, reaction.UserID)
		aggregate[reaction.Emoji] = group
	}
	return aggregate, nil
}

// resolveReply rebuilds the reply snapshot from the current state of the
// referenced message. Snapshots are never persisted, so an edit of the
// original is reflected on the next read. A dangling or out-of-conversation
// reference yields no snapshot rather than an error.
func (r *Router) resolveReply(replyToID, userID, otherUserID string) *models.ReplySnapshot {
	if replyToID == "" {
		return nil
	}
	original, err := r.store.GetMessageByID(replyToID)
	if err != nil || !betweenUsers(original, userID, otherUserID) {
		return nil
	}
	sender, err := r.store.GetUserByID(original.SenderID)
	if err != nil {
		return nil
	}
	return &models.ReplySnapshot{
		ID:      original.ID,
		Content: original.Content,
		Sender:  sender.Profile(),
	}
}
