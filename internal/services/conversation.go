package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/nevalis/whispr-backend/internal/database"
	"github.com/nevalis/whispr-backend/internal/models"
	"github.com/nevalis/whispr-backend/internal/timefmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	threadsCollection  = "threads"
	messagesCollection = "thread_messages"
)

func usersCol() *mongo.Collection    { return database.DB.Collection(usersCollection) }
func threadsCol() *mongo.Collection  { return database.DB.Collection(threadsCollection) }
func messagesCol() *mongo.Collection { return database.DB.Collection(messagesCollection) }

// EnsureChatIndexes configures the indexes backing thread and message queries.
// Called on startup from main after Mongo has connected.
func EnsureChatIndexes(ctx context.Context) error {
	type colIndexes struct {
		col    *mongo.Collection
		models []mongo.IndexModel
	}

	all := []colIndexes{
		{messagesCol(), []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "thread_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_thread_created"),
		}}},
		{threadsCol(), []mongo.IndexModel{{
			Keys:    bson.D{{Key: "participants", Value: 1}},
			Options: options.Index().SetName("idx_participants"),
		}}},
		{usersCol(), []mongo.IndexModel{{
			Keys:    bson.D{{Key: "display_name", Value: 1}},
			Options: options.Index().SetName("idx_display_name"),
		}}},
	}

	for _, ci := range all {
		for _, m := range ci.models {
			if _, err := ci.col.Indexes().CreateOne(ctx, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// EnsureThread creates the thread document for the pair if it does not exist
// yet and returns its id. Implemented as a single $setOnInsert upsert at the
// derived id, so concurrent calls from both participants cannot create
// duplicates and repeat calls are no-ops.
func EnsureThread(ctx context.Context, a, b string) (string, error) {
	id := models.ThreadID(a, b)

	update := bson.M{"$setOnInsert": bson.M{
		"participants": []string{a, b},
		"created_at":   timefmt.ToMillis(time.Now()),
	}}

	_, err := threadsCol().UpdateByID(ctx, id, update, options.Update().SetUpsert(true))
	if err != nil {
		return "", mapStoreErr("ensure thread", err)
	}
	return id, nil
}

// SendMessage trims and validates the text, ensures the thread exists, appends
// the message (read by its sender only), then updates the thread's preview
// summary. The summary is a second, separate write: when it fails the message
// is already durable and the stale preview heals on the next successful send.
func SendMessage(ctx context.Context, sender, recipient, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message text", ErrValidation)
	}

	threadID, err := EnsureThread(ctx, sender, recipient)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ThreadID:  threadID,
		SenderID:  sender,
		Text:      text,
		CreatedAt: timefmt.ToMillis(time.Now()),
		ReadBy:    []string{sender},
	}

	res, err := messagesCol().InsertOne(ctx, msg)
	if err != nil {
		return nil, mapStoreErr("send message", err)
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)

	// Summary update is last-writer-wins between concurrent senders; losing
	// the race only affects the contact-list preview, never the message.
	summary := bson.M{"$set": bson.M{
		"last_message_text": msg.Text,
		"last_message_at":   msg.CreatedAt,
	}}
	if _, err := threadsCol().UpdateByID(ctx, threadID, summary); err != nil {
		log.Printf("thread %s summary update failed after send: %v", threadID, err)
	}

	PushMessageToRecentCache(*msg)
	publishMessageEvents(ctx, msg, sender, recipient)

	return msg, nil
}

// LoadThreadMessages returns the full conversation between two users, ordered
// ascending by creation time with the message id as tie-break so equal
// timestamps render in a stable order. An absent thread is an empty slice,
// not an error.
func LoadThreadMessages(ctx context.Context, a, b string) ([]models.Message, error) {
	threadID := models.ThreadID(a, b)

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cur, err := messagesCol().Find(ctx, bson.M{"thread_id": threadID}, opts)
	if err != nil {
		return nil, mapStoreErr("load messages", err)
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, mapStoreErr("load messages", err)
	}

	// Re-sort locally: the view must never depend on delivery order.
	sortMessagesAsc(msgs)
	return msgs, nil
}

// ListThreadSummaries returns every thread the user participates in, newest
// conversation first. Threads with no messages yet sort last.
func ListThreadSummaries(ctx context.Context, selfUID string) ([]models.Thread, error) {
	cur, err := threadsCol().Find(ctx, bson.M{"participants": selfUID})
	if err != nil {
		return nil, mapStoreErr("list threads", err)
	}
	defer cur.Close(ctx)

	var threads []models.Thread
	if err := cur.All(ctx, &threads); err != nil {
		return nil, mapStoreErr("list threads", err)
	}

	sortThreadsByRecency(threads)
	return threads, nil
}

// MarkThreadRead adds selfUID to the read-by set of every message in the pair's
// thread that was sent by the other side and not yet read. One write per
// qualifying message; a failed write is logged and skipped, never surfaced,
// since read receipts are best-effort bookkeeping.
func MarkThreadRead(ctx context.Context, selfUID, otherUID string) error {
	threadID := models.ThreadID(selfUID, otherUID)

	filter := bson.M{
		"thread_id": threadID,
		"sender_id": bson.M{"$ne": selfUID},
		"read_by":   bson.M{"$ne": selfUID},
	}

	cur, err := messagesCol().Find(ctx, filter)
	if err != nil {
		return mapStoreErr("mark read", err)
	}
	defer cur.Close(ctx)

	var unread []models.Message
	if err := cur.All(ctx, &unread); err != nil {
		return mapStoreErr("mark read", err)
	}
	if len(unread) == 0 {
		return nil
	}

	marked := 0
	for _, m := range unread {
		// $addToSet keeps the set monotonic even if the same receipt races in
		// from two devices.
		update := bson.M{"$addToSet": bson.M{"read_by": selfUID}}
		if _, err := messagesCol().UpdateByID(ctx, m.ID, update); err != nil {
			log.Printf("mark read failed for message %s: %v", m.ID.Hex(), err)
			continue
		}
		marked++
	}

	if marked > 0 {
		InvalidateRecentCache(ctx, threadID)
		publishReadEvents(ctx, threadID, selfUID)
	}
	return nil
}

// ListUsers returns the full directory ordered by display name ascending.
// Filtering out the caller is the caller's job.
func ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "display_name", Value: 1}})

	cur, err := usersCol().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapStoreErr("list users", err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, mapStoreErr("list users", err)
	}
	return users, nil
}

// GetUser loads one profile document. Returns ErrNotFound for an absent uid.
func GetUser(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	err := usersCol().FindOne(ctx, bson.M{"_id": uid}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, mapStoreErr("get user", err)
	}
	return &u, nil
}

// sortMessagesAsc sorts by creation timestamp ascending, breaking ties on the
// message id so a snapshot renders the same way every time.
func sortMessagesAsc(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt != msgs[j].CreatedAt {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		}
		return msgs[i].ID.Hex() < msgs[j].ID.Hex()
	})
}

// sortThreadsByRecency sorts descending by last-message timestamp; a thread
// that has never seen a message carries 0 and sinks to the bottom.
func sortThreadsByRecency(threads []models.Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastMessageAt > threads[j].LastMessageAt
	})
}
