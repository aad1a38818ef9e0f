package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nevalis/whispr-backend/internal/models"
	"github.com/nevalis/whispr-backend/internal/services"
	"github.com/nevalis/whispr-backend/internal/timefmt"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatClientFrame represents frames coming from the frontend over WebSocket.
type ChatClientFrame struct {
	Type    string `json:"type"` // "select", "message", "read", "typing_start", "typing_stop", "ping"
	PeerUID string `json:"peer_uid,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Server frame types pushed to the client. Snapshots are full re-deliveries:
// the client replaces its state wholesale rather than patching diffs.
const (
	frameMessages = "messages" // full conversation snapshot for the selected peer
	frameThreads  = "threads"  // full thread-list snapshot
	frameTyping   = "typing"   // peer typing on/off
	frameError    = "error"
)

type serverFrame struct {
	Type     string                 `json:"type"`
	PeerUID  string                 `json:"peer_uid,omitempty"`
	Typing   bool                   `json:"typing,omitempty"`
	Threads  []models.Thread        `json:"threads,omitempty"`
	Messages []models.Message       `json:"messages,omitempty"`
	Groups   []timefmt.MessageGroup `json:"groups,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// chatSocket wraps a connection with a write lock: the event pump and the
// reader's direct error replies both write to the same conn.
type chatSocket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *chatSocket) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// gateway is the per-connection state. The pump goroutine is the only owner
// of the conversation subscription, so the "one live conversation
// subscription per view" rule cannot race.
type gateway struct {
	sock *chatSocket
	uid  string

	// Conversation subscription; nil channel means no contact selected.
	peerUID  string
	threadCh <-chan services.ChatEvent
	release  func()
}

// ChatWebSocket is the live-subscription gateway. One connection carries the
// caller's thread-list subscription for its whole lifetime plus at most one
// conversation subscription at a time: selecting a contact ensures the thread
// exists and swaps the subscription, and every exit path releases whatever is
// held. Authentication uses the session token (Authorization header or token
// query parameter).
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}
	uid, ok := services.ValidateSession(r.Context(), token)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services.SetUserPresence(ctx, uid, models.StatusOnline)

	inboxCh, releaseInbox := services.SubscribeInbox(uid)
	defer releaseInbox()

	g := &gateway{sock: &chatSocket{conn: conn}, uid: uid}
	frames := make(chan ChatClientFrame)
	go g.pump(ctx, inboxCh, frames)

	// Initial thread-list snapshot so the contact pane paints immediately.
	g.sendThreadsSnapshot(ctx)

	// Reader loop: decode client frames and hand them to the pump. On
	// disconnect the deferred cancel stops the pump, which releases the
	// conversation subscription; presence then decays via its TTL.
	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var frame ChatClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (g *gateway) pump(ctx context.Context, inboxCh <-chan services.ChatEvent, frames <-chan ChatClientFrame) {
	defer g.releaseThread()

	for {
		select {
		case <-ctx.Done():
			return

		case frame := <-frames:
			g.handleFrame(ctx, frame)

		case _, ok := <-inboxCh:
			if !ok {
				return
			}
			g.sendThreadsSnapshot(ctx)

		case evt, ok := <-g.threadCh:
			if !ok {
				return
			}
			g.handleThreadEvent(ctx, evt)
		}
	}
}

func (g *gateway) handleFrame(ctx context.Context, frame ChatClientFrame) {
	switch frame.Type {
	case "select":
		g.selectContact(ctx, frame.PeerUID)
	case "message":
		g.sendMessage(ctx, frame)
	case "read":
		if frame.PeerUID != "" {
			if err := services.MarkThreadRead(ctx, g.uid, frame.PeerUID); err != nil {
				log.Printf("gateway: mark read failed for %s: %v", g.uid, err)
			}
		}
	case "typing_start", "typing_stop":
		if frame.PeerUID != "" {
			if err := services.PublishTyping(ctx, g.uid, frame.PeerUID, frame.Type == "typing_start"); err != nil {
				log.Printf("gateway: typing publish failed: %v", err)
			}
		}
	case "ping":
		// Refresh the presence TTL.
		services.SetUserPresence(ctx, g.uid, models.StatusOnline)
	default:
		// Ignore unknown types.
	}
}

func (g *gateway) handleThreadEvent(ctx context.Context, evt services.ChatEvent) {
	switch evt.Type {
	case services.EventTypeTypingStart, services.EventTypeTypingStop:
		if evt.UserID != g.uid {
			_ = g.sock.writeJSON(serverFrame{
				Type:    frameTyping,
				PeerUID: evt.UserID,
				Typing:  evt.Type == services.EventTypeTypingStart,
			})
		}
	default:
		// Message inserts and read-by mutations both land here; the reaction
		// is the same either way: re-deliver the full snapshot.
		g.sendMessagesSnapshot(ctx)
	}
}

// selectContact drives the contact-selection state machine: release whatever
// was held, ensure the pair's thread, then subscribe. On ensure failure the
// view stays unselected and the client gets a visible error.
func (g *gateway) selectContact(ctx context.Context, peerUID string) {
	peerUID = strings.TrimSpace(peerUID)
	if peerUID == "" || peerUID == g.uid {
		_ = g.sock.writeJSON(serverFrame{Type: frameError, Error: "invalid contact"})
		return
	}

	g.releaseThread()

	if _, err := services.GetUser(ctx, peerUID); err != nil {
		_ = g.sock.writeJSON(serverFrame{Type: frameError, Error: "contact not found"})
		return
	}

	threadID, err := services.EnsureThread(ctx, g.uid, peerUID)
	if err != nil {
		log.Printf("gateway: ensure thread failed for %s/%s: %v", g.uid, peerUID, err)
		_ = g.sock.writeJSON(serverFrame{Type: frameError, Error: "unable to open conversation"})
		return
	}

	g.threadCh, g.release = services.SubscribeThread(threadID)
	g.peerUID = peerUID

	// Fast first paint from the recent cache; the authoritative Mongo
	// snapshot below replaces it.
	if cached, ok := services.RecentMessagesFromCache(ctx, threadID); ok {
		_ = g.sock.writeJSON(serverFrame{
			Type:     frameMessages,
			PeerUID:  peerUID,
			Messages: cached,
			Groups:   timefmt.GroupByDay(cached, time.Now()),
		})
	}

	// Opening a conversation reads it.
	if err := services.MarkThreadRead(ctx, g.uid, peerUID); err != nil {
		log.Printf("gateway: mark read failed for %s: %v", g.uid, err)
	}

	g.sendMessagesSnapshot(ctx)
}

func (g *gateway) sendMessage(ctx context.Context, frame ChatClientFrame) {
	if frame.PeerUID == "" {
		return
	}
	if _, err := services.SendMessage(ctx, g.uid, frame.PeerUID, frame.Text); err != nil {
		log.Printf("gateway: send failed for %s: %v", g.uid, err)
		_ = g.sock.writeJSON(serverFrame{Type: frameError, Error: "failed to send message"})
	}
	// No direct echo: the thread subscription delivers the new message back
	// to every viewer, sender included.
}

func (g *gateway) releaseThread() {
	if g.release != nil {
		g.release()
		g.release = nil
		g.threadCh = nil
		g.peerUID = ""
	}
}

func (g *gateway) sendThreadsSnapshot(ctx context.Context) {
	threads, err := services.ListThreadSummaries(ctx, g.uid)
	if err != nil {
		log.Printf("gateway: thread snapshot failed for %s: %v", g.uid, err)
		return
	}
	_ = g.sock.writeJSON(serverFrame{Type: frameThreads, Threads: threads})
}

func (g *gateway) sendMessagesSnapshot(ctx context.Context) {
	if g.peerUID == "" {
		return
	}
	msgs, err := services.LoadThreadMessages(ctx, g.uid, g.peerUID)
	if err != nil {
		log.Printf("gateway: message snapshot failed for %s: %v", g.uid, err)
		_ = g.sock.writeJSON(serverFrame{Type: frameError, PeerUID: g.peerUID, Error: "unable to load messages"})
		return
	}
	_ = g.sock.writeJSON(serverFrame{
		Type:     frameMessages,
		PeerUID:  g.peerUID,
		Messages: msgs,
		Groups:   timefmt.GroupByDay(msgs, time.Now()),
	})
}
