package models

// PresenceStatus is the coarse online/offline indicator shown next to a contact.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// User is the profile document stored in MongoDB (collection "users", keyed by uid).
// The uid is assigned at sign-up and never changes; credentials live in PostgreSQL,
// everything the chat UI needs lives here. Timestamps are epoch milliseconds.
type User struct {
	UID         string         `bson:"_id" json:"uid"`
	DisplayName string         `bson:"display_name" json:"display_name"`
	Email       string         `bson:"email" json:"email"`
	Status      PresenceStatus `bson:"status" json:"status"`
	LastSeen    int64          `bson:"last_seen" json:"last_seen"`
	CreatedAt   int64          `bson:"created_at" json:"created_at"`
	AvatarURL   string         `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
}
