package store

import (
	"errors"

	"harmony/internal/models"
)

// ErrNotFound is returned by point lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by inserts that violate a uniqueness rule.
var ErrDuplicate = errors.New("duplicate")

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	SearchUsers(query string) ([]models.User, error)

	// Direct message operations
	SaveDirectMessage(msg *models.DirectMessage) error
	GetConversation(userID, otherUserID string) ([]models.DirectMessage, error)
	GetMessageByID(id string) (*models.DirectMessage, error)
	UpdateMessageContent(id, content string) (*models.DirectMessage, error)
	GetMessagesInvolving(userID string) ([]models.DirectMessage, error)

	// Reaction operations
	AddReaction(messageID, userID, emoji string) error
	RemoveReaction(messageID, userID, emoji string) error
	// ToggleReaction atomically adds the reaction if absent or removes it if
	// present, reporting "added" or "removed".
	ToggleReaction(messageID, userID, emoji string) (string, error)
	GetMessageReactions(messageID string) ([]models.MessageReaction, error)

	// Hidden conversation markers
	HideConversation(userID, hiddenUserID string) error
	UnhideConversation(userID, hiddenUserID string) error
	GetHiddenUserIDs(userID string) ([]string, error)

	// Conversation entries
	CreateConversationEntry(userID, otherUserID string) error
	GetConversationEntries(userID string) ([]models.ConversationEntry, error)

	// Block list
	BlockUser(userID, blockedUserID string) error
	UnblockUser(userID, blockedUserID string) error
	IsBlocked(userID, byUserID string) (bool, error)
	GetBlockedUsers(userID string) ([]models.BlockedUser, error)

	// Friendships (mutual; both directions are stored)
	AddFriendship(userID, friendID string) error
	RemoveFriendship(userID, friendID string) error
	AreFriends(userID, friendID string) (bool, error)
	GetFriendships(userID string) ([]models.Friendship, error)

	// Friend requests
	CreateFriendRequest(req *models.FriendRequest) error
	GetPendingFriendRequest(requesterID, receiverID string) (*models.FriendRequest, error)
	GetPendingFriendRequestsReceived(userID string) ([]models.FriendRequest, error)
	GetPendingFriendRequestsSent(userID string) ([]models.FriendRequest, error)
	UpdateFriendRequestStatus(requestID, status string) error
}
