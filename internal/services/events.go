package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/nevalis/whispr-backend/internal/database"
	"github.com/nevalis/whispr-backend/internal/models"
)

// Event types broadcast over Redis and fanned out to WebSocket subscribers.
const (
	EventTypeMessage     = "message"
	EventTypeRead        = "read"
	EventTypeTypingStart = "typing_start"
	EventTypeTypingStop  = "typing_stop"
	EventTypeError       = "error"
)

// ChatEvent is the payload published on a thread or inbox channel. Events are
// change notifications: subscribers react by re-fetching a full snapshot, so a
// viewer never depends on receiving every individual event in order.
type ChatEvent struct {
	Type      string          `json:"type"`
	ThreadID  string          `json:"thread_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Message   *models.Message `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

func threadChannel(threadID string) string { return "chat:thread:" + threadID }
func inboxChannel(uid string) string       { return "chat:inbox:" + uid }

var subscriberStarted sync.Once

// PublishChatEvent publishes an event to a Redis channel. Every instance's
// subscriber picks it up and fans it out to its local WebSocket connections.
func PublishChatEvent(ctx context.Context, channel string, event ChatEvent) error {
	if database.RedisClient == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, channel, data).Err()
}

// publishMessageEvents announces a new message on its thread channel and pokes
// both participants' inbox channels so their thread lists refresh.
func publishMessageEvents(ctx context.Context, msg *models.Message, sender, recipient string) {
	evt := ChatEvent{Type: EventTypeMessage, ThreadID: msg.ThreadID, UserID: sender, Message: msg}
	if err := PublishChatEvent(ctx, threadChannel(msg.ThreadID), evt); err != nil {
		log.Printf("publish message event failed for thread %s: %v", msg.ThreadID, err)
	}

	inboxEvt := ChatEvent{Type: EventTypeMessage, ThreadID: msg.ThreadID, UserID: sender}
	for _, uid := range []string{sender, recipient} {
		if err := PublishChatEvent(ctx, inboxChannel(uid), inboxEvt); err != nil {
			log.Printf("publish inbox event failed for %s: %v", uid, err)
		}
	}
}

// PublishTyping announces a typing on/off transition on the pair's thread
// channel. Typing is ephemeral and never persisted.
func PublishTyping(ctx context.Context, uid, peerUID string, started bool) error {
	evtType := EventTypeTypingStop
	if started {
		evtType = EventTypeTypingStart
	}
	threadID := models.ThreadID(uid, peerUID)
	return PublishChatEvent(ctx, threadChannel(threadID), ChatEvent{
		Type:     evtType,
		ThreadID: threadID,
		UserID:   uid,
	})
}

// publishReadEvents announces that reader has caught up on a thread, so the
// other side's message snapshot (read ticks) refreshes.
func publishReadEvents(ctx context.Context, threadID, reader string) {
	evt := ChatEvent{Type: EventTypeRead, ThreadID: threadID, UserID: reader}
	if err := PublishChatEvent(ctx, threadChannel(threadID), evt); err != nil {
		log.Printf("publish read event failed for thread %s: %v", threadID, err)
	}
}

// StartRedisChatSubscriber ensures a single shared Redis listener per instance.
func StartRedisChatSubscriber(ctx context.Context) {
	subscriberStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; chat subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "chat:thread:*", "chat:inbox:*")
			defer pubsub.Close()

			log.Println("✅ Chat Redis subscriber started (patterns: chat:thread:*, chat:inbox:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event ChatEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal chat event: %v", err)
					continue
				}

				// The Redis channel name doubles as the local hub topic.
				defaultHub.publish(msg.Channel, event)
			}
		}()
	}
}
