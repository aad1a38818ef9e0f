package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thread is the conversation document for one unordered pair of users
// (collection "threads"). Its _id is derived from the pair via ThreadID, so
// the same two users always land on the same document without a lookup.
// LastMessageText/LastMessageAt are a denormalized preview for the contact
// list; they are updated on every send and may briefly lag the message
// collection if the summary write fails.
type Thread struct {
	ID              string   `bson:"_id" json:"id"`
	Participants    []string `bson:"participants" json:"participants"`
	CreatedAt       int64    `bson:"created_at" json:"created_at"`
	LastMessageText string   `bson:"last_message_text,omitempty" json:"last_message_text,omitempty"`
	LastMessageAt   int64    `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
}

// Message is one chat message (collection "thread_messages", flat with a
// thread_id field and a compound (thread_id, created_at) index). Immutable
// after insert except for ReadBy, which only ever grows. CreatedAt is epoch
// milliseconds from the sender's clock and is the canonical display order.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ThreadID  string             `bson:"thread_id" json:"thread_id"`
	SenderID  string             `bson:"sender_id" json:"sender_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt int64              `bson:"created_at" json:"created_at"`
	ReadBy    []string           `bson:"read_by" json:"read_by"`
}

// ThreadID derives the canonical thread id for a pair of users: the two uids
// sorted lexicographically and joined with "_". Commutative, so both sides of
// a conversation compute the same id regardless of argument order. Uids are
// opaque tokens (UUIDs) and never contain "_" ambiguity in practice.
func ThreadID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, "_")
}
