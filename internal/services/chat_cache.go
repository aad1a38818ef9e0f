package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/nevalis/whispr-backend/internal/database"
	"github.com/nevalis/whispr-backend/internal/models"
)

const (
	recentKeyPrefix = "chat:recent:"
	recentMaxLen    = 50
	recentTTL       = 1 * time.Hour
)

func recentKey(threadID string) string {
	return recentKeyPrefix + threadID
}

// PushMessageToRecentCache adds a message to the Redis recent cache (newest at
// head). Called after the Mongo insert. LPUSH + LTRIM keeps the last 50.
func PushMessageToRecentCache(msg models.Message) {
	if database.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	key := recentKey(msg.ThreadID)
	pipe := database.RedisClient.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, recentMaxLen-1)
	pipe.Expire(ctx, key, recentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: push failed for thread %s: %v", msg.ThreadID, err)
	}
}

// RecentMessagesFromCache returns the cached tail of a thread (oldest-first).
// Returns (messages, true) on hit, (nil, false) on miss. A hit is only used
// for the fast first paint; the live subscription immediately follows with an
// authoritative snapshot from Mongo.
func RecentMessagesFromCache(ctx context.Context, threadID string) ([]models.Message, bool) {
	if database.RedisClient == nil {
		return nil, false
	}

	raw, err := database.RedisClient.LRange(ctx, recentKey(threadID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var msgs []models.Message
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.Message
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// InvalidateRecentCache drops a thread's cached tail. Used after read-receipt
// sweeps so cached copies do not serve stale read-by sets for long.
func InvalidateRecentCache(ctx context.Context, threadID string) {
	if database.RedisClient == nil {
		return
	}
	if err := database.RedisClient.Del(ctx, recentKey(threadID)).Err(); err != nil {
		log.Printf("chat_cache: invalidate failed for thread %s: %v", threadID, err)
	}
}
