package dm

import (
	"errors"
	"sort"

	"harmony/internal/apperr"
	"harmony/internal/models"
	"harmony/internal/store"
)

// entryPlaceholder is the content shown for a conversation that exists only
// as an entry marker, before any message has been exchanged.
const entryPlaceholder = "Conversation started"

// Conversations reconciles three independently-mutated signal sources into
// one ordered list: latest message per counterpart, entry markers for
// message-less conversations, and hidden-counterpart suppression. Read-only.
func (r *Router) Conversations(caller *models.User) ([]models.ConversationSummary, error) {
	hiddenIDs, err := r.store.GetHiddenUserIDs(caller.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load hidden conversations", err)
	}
	hidden := make(map[string]bool, len(hiddenIDs))
	for _, id := range hiddenIDs {
		hidden[id] = true
	}

	messages, err := r.store.GetMessagesInvolving(caller.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load messages", err)
	}

	// Messages arrive in seq order, so the last one seen per counterpart is
	// the latest, deterministically even under equal timestamps.
	latest := make(map[string]models.DirectMessage)
	for _, msg := range messages {
		other := msg.ReceiverID
		if other == caller.ID {
			other = msg.SenderID
		}
		if hidden[other] {
			continue
		}
		latest[other] = msg
	}

	entries, err := r.store.GetConversationEntries(caller.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load conversation entries", err)
	}

	summaries := make([]models.ConversationSummary, 0, len(latest)+len(entries))
	for other, msg := range latest {
		view := models.DirectMessageView{DirectMessage: msg}
		if sender, err := r.store.GetUserByID(msg.SenderID); err == nil {
			view.Sender = sender.Profile()
		}
		view.ReplyTo = r.resolveReply(msg.ReplyToID, msg.SenderID, msg.ReceiverID)
		if aggregate, err := r.Aggregate(msg.ID); err == nil && len(aggregate) > 0 {
			view.Reactions = aggregate
		}
		summary, ok := r.summarize(other, view)
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}

	// A message-derived summary takes precedence over the entry placeholder
	// for the same counterpart.
	for _, entry := range entries {
		if hidden[entry.OtherUserID] {
			continue
		}
		if _, ok := latest[entry.OtherUserID]; ok {
			continue
		}
		placeholder := models.DirectMessageView{
			DirectMessage: models.DirectMessage{
				SenderID:   caller.ID,
				ReceiverID: entry.OtherUserID,
				Content:    entryPlaceholder,
				CreatedAt:  entry.CreatedAt,
			},
			Sender: caller.Profile(),
		}
		summary, ok := r.summarize(entry.OtherUserID, placeholder)
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Seq != b.Seq {
			return a.Seq > b.Seq
		}
		return summaries[i].OtherUser.ID < summaries[j].OtherUser.ID
	})

	return summaries, nil
}

// summarize resolves the counterpart profile. A counterpart that no longer
// resolves is a data-integrity skip, not an error.
func (r *Router) summarize(otherUserID string, last models.DirectMessageView) (models.ConversationSummary, bool) {
	other, err := r.store.GetUserByID(otherUserID)
	if err != nil {
		return models.ConversationSummary{}, false
	}
	return models.ConversationSummary{
		OtherUser:   other.Profile(),
		LastMessage: last,
	}, true
}

// Conversation returns the full ordered message view between the caller and
// the counterpart, with reply snapshots and reaction aggregates recomputed
// from current state.
func (r *Router) Conversation(caller *models.User, otherUserID string) ([]models.DirectMessageView, *models.User, error) {
	other, err := r.store.GetUserByID(otherUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.NotFound("user not found")
		}
		return nil, nil, apperr.Wrap(apperr.CodeInternal, "failed to look up user", err)
	}

	blocked, err := r.store.IsBlocked(other.ID, caller.ID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeInternal, "failed to check block list", err)
	}
	if blocked {
		return nil, nil, apperr.Forbidden("cannot message this user")
	}

	messages, err := r.store.GetConversation(caller.ID, other.ID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeInternal, "failed to load conversation", err)
	}

	profiles := map[string]models.PublicProfile{
		caller.ID: caller.Profile(),
		other.ID:  other.Profile(),
	}

	views := make([]models.DirectMessageView, 0, len(messages))
	for _, msg := range messages {
		view := models.DirectMessageView{
			DirectMessage: msg,
			Sender:        profiles[msg.SenderID],
			ReplyTo:       r.resolveReply(msg.ReplyToID, caller.ID, other.ID),
		}
		if aggregate, err := r.Aggregate(msg.ID); err == nil && len(aggregate) > 0 {
			view.Reactions = aggregate
		}
		views = append(views, view)
	}
	return views, other, nil
}

// Hide suppresses the counterpart from the caller's conversation list.
// Idempotent.
func (r *Router) Hide(caller *models.User, otherUserID string) error {
	if err := r.store.HideConversation(caller.ID, otherUserID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to hide conversation", err)
	}
	return nil
}

// Unhide removes the suppression marker if present. Idempotent.
func (r *Router) Unhide(caller *models.User, otherUserID string) error {
	if err := r.store.UnhideConversation(caller.ID, otherUserID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to unhide conversation", err)
	}
	return nil
}

// CreateEntry records that the conversation exists in the caller's list and
// unhides it, so explicitly opening a conversation always makes it visible.
func (r *Router) CreateEntry(caller *models.User, otherUserID string) error {
	if _, err := r.store.GetUserByID(otherUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Wrap(apperr.CodeInternal, "failed to look up user", err)
	}
	if err := r.store.CreateConversationEntry(caller.ID, otherUserID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to create conversation entry", err)
	}
	if err := r.store.UnhideConversation(caller.ID, otherUserID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to unhide conversation", err)
	}
	return nil
}
