package dm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmony/internal/apperr"
	"harmony/internal/models"
)

func summaryFor(summaries []models.ConversationSummary, otherUserID string) *models.ConversationSummary {
	for i := range summaries {
		if summaries[i].OtherUser.ID == otherUserID {
			return &summaries[i]
		}
	}
	return nil
}

func TestConversationsBothSidesSeeLatest(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	_, err := router.Send(alice, bob.ID, "hello", "")
	require.NoError(t, err)

	for _, user := range []*models.User{alice, bob} {
		summaries, err := router.Conversations(user)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "hello", summaries[0].LastMessage.Content)
	}

	aliceSummaries, _ := router.Conversations(alice)
	assert.Equal(t, bob.ID, aliceSummaries[0].OtherUser.ID)
	bobSummaries, _ := router.Conversations(bob)
	assert.Equal(t, alice.ID, bobSummaries[0].OtherUser.ID)
}

func TestConversationsLatestMessageWins(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	_, err := router.Send(alice, bob.ID, "older", "")
	require.NoError(t, err)
	_, err = router.Send(bob, alice.ID, "newer", "")
	require.NoError(t, err)

	summaries, err := router.Conversations(alice)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "newer", summaries[0].LastMessage.Content)
}

func TestConversationsHideAndAutoUnhide(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	_, err := router.Send(alice, bob.ID, "hello", "")
	require.NoError(t, err)

	require.NoError(t, router.Hide(alice, bob.ID))
	summaries, err := router.Conversations(alice)
	require.NoError(t, err)
	assert.Nil(t, summaryFor(summaries, bob.ID))

	// An incoming message resurfaces the conversation without an explicit
	// unhide call.
	_, err = router.Send(bob, alice.ID, "ping", "")
	require.NoError(t, err)

	summaries, err = router.Conversations(alice)
	require.NoError(t, err)
	summary := summaryFor(summaries, bob.ID)
	require.NotNil(t, summary)
	assert.Equal(t, "ping", summary.LastMessage.Content)

	hidden, err := s.GetHiddenUserIDs(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

func TestConversationsEntryPlaceholder(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	require.NoError(t, router.CreateEntry(alice, bob.ID))

	summaries, err := router.Conversations(alice)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, bob.ID, summaries[0].OtherUser.ID)
	assert.Equal(t, entryPlaceholder, summaries[0].LastMessage.Content)
	// Renders as "conversation started by me".
	assert.Equal(t, alice.ID, summaries[0].LastMessage.SenderID)

	// Entries are unidirectional: bob sees nothing.
	summaries, err = router.Conversations(bob)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestConversationsMessageTakesPrecedenceOverEntry(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	require.NoError(t, router.CreateEntry(alice, bob.ID))
	_, err := router.Send(alice, bob.ID, "actual message", "")
	require.NoError(t, err)

	summaries, err := router.Conversations(alice)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "actual message", summaries[0].LastMessage.Content)
}

func TestConversationsSortedByLatestFirst(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	_, err := router.Send(alice, bob.ID, "earlier", "")
	require.NoError(t, err)
	_, err = router.Send(alice, carol.ID, "later", "")
	require.NoError(t, err)

	summaries, err := router.Conversations(alice)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, carol.ID, summaries[0].OtherUser.ID)
	assert.Equal(t, bob.ID, summaries[1].OtherUser.ID)
}

func TestConversationsSkipsUnresolvableCounterpart(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")

	// Entry pointing at a user that no longer resolves is skipped, not an
	// error.
	require.NoError(t, s.CreateConversationEntry(alice.ID, "ghost"))

	summaries, err := router.Conversations(alice)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestCreateEntryValidatesCounterpart(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")

	err := router.CreateEntry(alice, "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCreateEntryUnhides(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	require.NoError(t, router.Hide(alice, bob.ID))
	require.NoError(t, router.CreateEntry(alice, bob.ID))

	hidden, err := s.GetHiddenUserIDs(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

func TestConversationViewRecomputesReplySnapshot(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	original, err := router.Send(bob, alice.ID, "first", "")
	require.NoError(t, err)
	_, err = router.Send(alice, bob.ID, "reply", original.ID)
	require.NoError(t, err)

	// Editing the original changes what later reads embed in the snapshot.
	_, err = router.Edit(bob, alice.ID, original.ID, "first, edited")
	require.NoError(t, err)

	views, other, err := router.Conversation(alice, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, other.ID)
	require.Len(t, views, 2)
	require.NotNil(t, views[1].ReplyTo)
	assert.Equal(t, "first, edited", views[1].ReplyTo.Content)
}

func TestConversationViewIncludesReactions(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	msg, err := router.Send(alice, bob.ID, "hello", "")
	require.NoError(t, err)
	_, _, err = router.React(bob, alice.ID, msg.ID, "👍")
	require.NoError(t, err)

	views, _, err := router.Conversation(alice, bob.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Contains(t, views[0].Reactions, "👍")
	assert.Equal(t, 1, views[0].Reactions["👍"].Count)
}

func TestConversationBlockedIsForbidden(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	require.NoError(t, s.BlockUser(bob.ID, alice.ID))

	_, _, err := router.Conversation(alice, bob.ID)
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))
}

func TestConversationCounterpartNotFound(t *testing.T) {
	router, s, _ := newTestRouter(t)
	alice := createUser(t, s, "alice")

	_, _, err := router.Conversation(alice, "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
