package services

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nevalis/whispr-backend/internal/database"
	"github.com/nevalis/whispr-backend/internal/models"
)

func TestSendMessageRejectsEmptyText(t *testing.T) {
	// Validation happens before any store access, so no database is needed.
	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := SendMessage(context.Background(), "u1", "u2", text)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestSortMessagesAsc(t *testing.T) {
	idA := primitive.NewObjectID()
	idB := primitive.NewObjectID()
	low, high := idA, idB
	if high.Hex() < low.Hex() {
		low, high = high, low
	}

	msgs := []models.Message{
		{ID: primitive.NewObjectID(), CreatedAt: 300},
		{ID: high, CreatedAt: 100},
		{ID: primitive.NewObjectID(), CreatedAt: 200},
		{ID: low, CreatedAt: 100},
	}

	sortMessagesAsc(msgs)

	assert.Equal(t, int64(100), msgs[0].CreatedAt)
	assert.Equal(t, int64(100), msgs[1].CreatedAt)
	assert.Equal(t, int64(200), msgs[2].CreatedAt)
	assert.Equal(t, int64(300), msgs[3].CreatedAt)

	// Equal timestamps break the tie on the message id.
	assert.Equal(t, low, msgs[0].ID)
	assert.Equal(t, high, msgs[1].ID)
}

func TestSortThreadsByRecency(t *testing.T) {
	threads := []models.Thread{
		{ID: "a_b", LastMessageAt: 0},
		{ID: "c_d", LastMessageAt: 500},
		{ID: "e_f", LastMessageAt: 900},
		{ID: "g_h", LastMessageAt: 0},
	}

	sortThreadsByRecency(threads)

	assert.Equal(t, "e_f", threads[0].ID)
	assert.Equal(t, "c_d", threads[1].ID)
	// Threads without messages sink to the bottom, keeping their relative order.
	assert.Equal(t, "a_b", threads[2].ID)
	assert.Equal(t, "g_h", threads[3].ID)
}

// setupMongo connects the package globals to a live MongoDB for integration
// tests. Skips when MONGODB_URI is not set.
func setupMongo(t *testing.T) {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}
	if database.DB == nil {
		require.NoError(t, database.Connect(uri))
	}
}

func TestEnsureThreadIdempotent(t *testing.T) {
	setupMongo(t)
	ctx := context.Background()

	a := uuid.New().String()
	b := uuid.New().String()

	id1, err := EnsureThread(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, models.ThreadID(a, b), id1)

	// Same pair from the other side resolves to the same thread.
	id2, err := EnsureThread(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	threads, err := ListThreadSummaries(ctx, a)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.ElementsMatch(t, []string{a, b}, threads[0].Participants)
}

func TestSendMessageAndSummary(t *testing.T) {
	setupMongo(t)
	ctx := context.Background()

	sender := uuid.New().String()
	recipient := uuid.New().String()

	msg, err := SendMessage(ctx, sender, recipient, "  hello there  ")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Text)
	assert.Equal(t, sender, msg.SenderID)
	assert.False(t, msg.ID.IsZero())
	// A fresh message is read by its sender only.
	assert.Equal(t, []string{sender}, msg.ReadBy)

	msgs, err := LoadThreadMessages(ctx, recipient, sender)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)

	// The thread summary reflects the latest message.
	threads, err := ListThreadSummaries(ctx, recipient)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "hello there", threads[0].LastMessageText)
	assert.Equal(t, msg.CreatedAt, threads[0].LastMessageAt)
}

func TestMarkThreadRead(t *testing.T) {
	setupMongo(t)
	ctx := context.Background()

	sender := uuid.New().String()
	reader := uuid.New().String()

	_, err := SendMessage(ctx, sender, reader, "one")
	require.NoError(t, err)
	_, err = SendMessage(ctx, sender, reader, "two")
	require.NoError(t, err)

	require.NoError(t, MarkThreadRead(ctx, reader, sender))

	msgs, err := LoadThreadMessages(ctx, reader, sender)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.ElementsMatch(t, []string{sender, reader}, m.ReadBy)
	}

	// Repeating the sweep finds nothing unread and changes nothing.
	require.NoError(t, MarkThreadRead(ctx, reader, sender))
	again, err := LoadThreadMessages(ctx, reader, sender)
	require.NoError(t, err)
	for _, m := range again {
		assert.Len(t, m.ReadBy, 2)
	}

	// The sender's own messages never become unread for the sender.
	require.NoError(t, MarkThreadRead(ctx, sender, reader))
}
