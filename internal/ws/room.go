package ws

// ConversationRoom derives the canonical room name for a two-party
// conversation. Both participants compute the same name regardless of who
// initiates.
func ConversationRoom(userID, otherUserID string) string {
	a, b := userID, otherUserID
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}
