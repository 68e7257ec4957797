package domain

import "fmt"

// IdentityKey identifies one independent session. The same sender holds a
// separate session in every conversation they talk to the bot from.
type IdentityKey struct {
	ConversationID int64
	SenderID       int64
}

// NewIdentityKey builds the key for a (conversation, sender) pair
func NewIdentityKey(conversationID, senderID int64) IdentityKey {
	return IdentityKey{
		ConversationID: conversationID,
		SenderID:       senderID,
	}
}

// String returns "conversation:sender", used for log fields
func (k IdentityKey) String() string {
	return fmt.Sprintf("%d:%d", k.ConversationID, k.SenderID)
}
