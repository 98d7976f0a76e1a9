package sqlstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRemoveReaction(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	msg := saveMessage(t, s, alice, bob, "hello")

	require.NoError(t, s.AddReaction(msg.ID, bob.ID, "👍"))

	reactions, err := s.GetMessageReactions(msg.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, bob.ID, reactions[0].UserID)
	assert.Equal(t, "👍", reactions[0].Emoji)

	require.NoError(t, s.RemoveReaction(msg.ID, bob.ID, "👍"))

	reactions, err = s.GetMessageReactions(msg.ID)
	require.NoError(t, err)
	assert.Empty(t, reactions)
}

func TestDuplicateReactionRejected(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	msg := saveMessage(t, s, alice, bob, "hello")

	require.NoError(t, s.AddReaction(msg.ID, bob.ID, "👍"))
	assert.Error(t, s.AddReaction(msg.ID, bob.ID, "👍"))

	// A different emoji from the same user is a separate row.
	require.NoError(t, s.AddReaction(msg.ID, bob.ID, "🎉"))
}

func TestToggleReaction(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	msg := saveMessage(t, s, alice, bob, "hello")

	action, err := s.ToggleReaction(msg.ID, bob.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, "added", action)

	action, err = s.ToggleReaction(msg.ID, bob.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, "removed", action)

	reactions, err := s.GetMessageReactions(msg.ID)
	require.NoError(t, err)
	assert.Empty(t, reactions)

	action, err = s.ToggleReaction(msg.ID, bob.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, "added", action)
}

func TestToggleReactionConcurrent(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	msg := saveMessage(t, s, alice, bob, "hello")

	// Racing toggles on the same (message, user, emoji) must each resolve to
	// a clean added/removed, never a constraint error.
	const rounds = 100
	var wg sync.WaitGroup
	results := make(chan string, 2*rounds)
	for i := 0; i < 2*rounds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			action, err := s.ToggleReaction(msg.ID, bob.ID, "👍")
			assert.NoError(t, err)
			results <- action
		}()
	}
	wg.Wait()
	close(results)

	var added, removed int
	for action := range results {
		switch action {
		case "added":
			added++
		case "removed":
			removed++
		}
	}
	assert.Equal(t, 2*rounds, added+removed)

	// An even number of toggles nets out to no reaction.
	reactions, err := s.GetMessageReactions(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, added-removed, len(reactions))
	assert.LessOrEqual(t, len(reactions), 1)
}
