package services

import (
	"context"
	"log"
	"time"

	"github.com/nevalis/whispr-backend/internal/database"
	"github.com/nevalis/whispr-backend/internal/models"
	"github.com/nevalis/whispr-backend/internal/timefmt"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	presenceKeyPrefix = "presence:"
	// PresenceTTL is how long an "online" mark survives without a refresh;
	// gateway pings refresh it.
	PresenceTTL = 2 * time.Minute
)

// SetUserPresence records presence in two places: a Redis TTL key that decays
// on its own when the connection dies silently, and the durable status/
// last_seen fields on the profile document. Presence is cosmetic: either
// write failing is logged and swallowed, never surfaced to the caller.
func SetUserPresence(ctx context.Context, uid string, status models.PresenceStatus) {
	key := presenceKeyPrefix + uid

	var redisErr error
	if status == models.StatusOnline {
		redisErr = database.RedisClient.Set(ctx, key, string(status), PresenceTTL).Err()
	} else {
		redisErr = database.RedisClient.Del(ctx, key).Err()
	}
	if redisErr != nil {
		log.Printf("presence: redis write failed for %s: %v", uid, redisErr)
	}

	update := bson.M{"$set": bson.M{
		"status":    status,
		"last_seen": timefmt.ToMillis(time.Now()),
	}}
	if _, err := usersCol().UpdateByID(ctx, uid, update); err != nil {
		log.Printf("presence: profile update failed for %s: %v", uid, err)
	}
}

// LivePresence returns the effective status for a uid: online only while the
// Redis TTL key is alive, otherwise offline regardless of the stored doc.
func LivePresence(ctx context.Context, uid string) models.PresenceStatus {
	val, err := database.RedisClient.Get(ctx, presenceKeyPrefix+uid).Result()
	if err != nil || val == "" {
		return models.StatusOffline
	}
	return models.StatusOnline
}
