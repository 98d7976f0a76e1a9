package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicProfile is the subset of User embedded in views and summaries.
type PublicProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (u *User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

type DirectMessage struct {
	ID         string     `json:"id"`
	Seq        int64      `json:"-"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	ReplyToID  string     `json:"reply_to_id,omitempty"`
}

type MessageReaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationEntry marks that a conversation exists in UserID's list even
// before any message has been exchanged. Unidirectional.
type ConversationEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	OtherUserID string    `json:"other_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type BlockedUser struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	BlockedUserID string    `json:"blocked_user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// BlockedUserView is a block row with the blocked user's profile resolved.
type BlockedUserView struct {
	BlockedUser
	Blocked PublicProfile `json:"blocked_user"`
}

// Friendship is one direction of a mutual friendship. Accepting a friend
// request creates both directions; removal deletes both.
type Friendship struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FriendID  string    `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendView is a friendship row with the counterpart's profile resolved.
type FriendView struct {
	Friendship
	Friend PublicProfile `json:"friend"`
}

// Friend request lifecycle states.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

type FriendRequest struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	ReceiverID  string    `json:"receiver_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// FriendRequestView carries the profile of whichever side the reader is not:
// Requester on received requests, Receiver on sent ones.
type FriendRequestView struct {
	FriendRequest
	Requester *PublicProfile `json:"requester,omitempty"`
	Receiver  *PublicProfile `json:"receiver,omitempty"`
}

// ReactionGroup aggregates one emoji on one message. Aggregates are always
// delivered whole, never as deltas.
type ReactionGroup struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

type ReactionAggregate map[string]ReactionGroup

// ReplySnapshot is the denormalized view of a replied-to message, recomputed
// from current message state at read time and never persisted.
type ReplySnapshot struct {
	ID      string        `json:"id"`
	Content string        `json:"content"`
	Sender  PublicProfile `json:"sender"`
}

type DirectMessageView struct {
	DirectMessage
	Sender    PublicProfile     `json:"sender"`
	ReplyTo   *ReplySnapshot    `json:"reply_to,omitempty"`
	Reactions ReactionAggregate `json:"reactions,omitempty"`
}

type ConversationSummary struct {
	OtherUser   PublicProfile     `json:"other_user"`
	LastMessage DirectMessageView `json:"lastMessage"`
	HasUnread   bool              `json:"hasUnread"`
}
