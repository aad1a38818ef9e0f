package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan ChatEvent) ChatEvent {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ChatEvent{}
	}
}

func TestHubSubscribeAndPublish(t *testing.T) {
	hub := newSubscriptionHub()

	chA, releaseA := hub.subscribe("chat:thread:u1_u2")
	defer releaseA()
	chB, releaseB := hub.subscribe("chat:thread:u1_u2")
	defer releaseB()

	hub.publish("chat:thread:u1_u2", ChatEvent{Type: EventTypeMessage, ThreadID: "u1_u2"})

	assert.Equal(t, EventTypeMessage, recvEvent(t, chA).Type)
	assert.Equal(t, EventTypeMessage, recvEvent(t, chB).Type)
}

func TestHubTopicsAreIsolated(t *testing.T) {
	hub := newSubscriptionHub()

	ch, release := hub.subscribe("chat:thread:u1_u2")
	defer release()

	hub.publish("chat:thread:u1_u3", ChatEvent{Type: EventTypeMessage, ThreadID: "u1_u3"})

	select {
	case evt := <-ch:
		t.Fatalf("received event for foreign topic: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubReleaseStopsDelivery(t *testing.T) {
	hub := newSubscriptionHub()

	ch, release := hub.subscribe("chat:inbox:u1")
	release()

	// Release closes the channel and removes the subscriber; a publish after
	// release must not panic and the channel must read as closed.
	hub.publish("chat:inbox:u1", ChatEvent{Type: EventTypeMessage})

	_, ok := <-ch
	assert.False(t, ok)
}

func TestHubReleaseIsIdempotent(t *testing.T) {
	hub := newSubscriptionHub()

	_, release := hub.subscribe("chat:inbox:u1")
	release()
	release()
}

func TestHubFullBufferDropsNotBlocks(t *testing.T) {
	hub := newSubscriptionHub()

	ch, release := hub.subscribe("chat:thread:u1_u2")
	defer release()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.publish("chat:thread:u1_u2", ChatEvent{Type: EventTypeMessage})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}

	// The subscriber still has wake-ups pending.
	assert.Equal(t, EventTypeMessage, recvEvent(t, ch).Type)
}
