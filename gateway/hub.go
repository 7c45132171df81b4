package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
	"github.com/StanleyRoberts/Nix-Bot-sub000/game"
)

const eventTimeout = time.Second * 10

// inboundFrame is what a client sends over its socket.
type inboundFrame struct {
	Kind    string `json:"kind"` // "message" | "button" | "command"
	Payload string `json:"payload"`
}

// outboundFrame is one rendered effect.
type outboundFrame struct {
	Type     string           `json:"type"` // "text" | "private" | "edit" | "reaction"
	Text     string           `json:"text,omitempty"`
	Emoji    string           `json:"emoji,omitempty"`
	Controls []domain.Control `json:"controls,omitempty"`
}

type client struct {
	id      string
	roomID  string
	userID  string
	conn    Connection
	outbox  chan []byte
	limiter *rate.Limiter
}

// Hub fans effects out to connected clients and feeds their input into the
// engine. Implements game.EffectSink for timer-driven effects.
type Hub struct {
	locker sync.RWMutex
	rooms  map[string]map[*client]struct{}
	byUser map[string]map[*client]struct{}
	engine *game.Engine
	log    zerolog.Logger
}

func NewHub(engine *game.Engine, log zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*client]struct{}),
		byUser: make(map[string]map[*client]struct{}),
		engine: engine,
		log:    log.With().Str("component", "hub").Logger(),
	}
}

// Serve runs a client's pumps until its socket drops. Blocks.
func (h *Hub) Serve(roomID, userID string, conn Connection) {
	c := &client{
		id:      uuid.NewString(),
		roomID:  roomID,
		userID:  userID,
		conn:    conn,
		outbox:  make(chan []byte, 64),
		limiter: rate.NewLimiter(1, 5),
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	h.readPump(c)
	c.conn.Close("session closed")
}

func (h *Hub) register(c *client) {
	h.locker.Lock()
	defer h.locker.Unlock()
	if h.rooms[c.roomID] == nil {
		h.rooms[c.roomID] = make(map[*client]struct{})
	}
	h.rooms[c.roomID][c] = struct{}{}
	if h.byUser[c.userID] == nil {
		h.byUser[c.userID] = make(map[*client]struct{})
	}
	h.byUser[c.userID][c] = struct{}{}
	h.log.Debug().Str("room", c.roomID).Str("user", c.userID).Msg("client connected")
}

func (h *Hub) unregister(c *client) {
	h.locker.Lock()
	delete(h.rooms[c.roomID], c)
	if len(h.rooms[c.roomID]) == 0 {
		delete(h.rooms, c.roomID)
	}
	delete(h.byUser[c.userID], c)
	if len(h.byUser[c.userID]) == 0 {
		delete(h.byUser, c.userID)
	}
	h.locker.Unlock()
	close(c.outbox)
	h.log.Debug().Str("room", c.roomID).Str("user", c.userID).Msg("client disconnected")
}

func (h *Hub) readPump(c *client) {
	for {
		data, err := c.conn.Read()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		ev := domain.InboundEvent{
			RoomID:  c.roomID,
			UserID:  c.userID,
			Payload: frame.Payload,
		}
		switch frame.Kind {
		case "button":
			ev.Kind = domain.KindButton
		case "command":
			ev.Kind = domain.KindCommand
		default:
			ev.Kind = domain.KindMessage
		}

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		effects := h.engine.HandleEvent(ctx, ev)
		cancel()

		h.Apply(context.Background(), c.roomID, effects)
	}
}

func (c *client) writePump() {
	for data := range c.outbox {
		if err := c.conn.Write(data); err != nil {
			return
		}
	}
}

// Apply renders effects: room-wide effects go to every client in the room,
// private ones only to the addressed user's connections.
func (h *Hub) Apply(_ context.Context, roomID string, effects []domain.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case domain.SendText:
			h.broadcast(e.RoomID, outboundFrame{Type: "text", Text: e.Text})
		case domain.SendPrivate:
			h.whisper(e.UserID, outboundFrame{Type: "private", Text: e.Text})
		case domain.EditLastMessage:
			h.broadcast(e.RoomID, outboundFrame{Type: "edit", Text: e.Text, Controls: e.Controls})
		case domain.AddReaction:
			h.broadcast(e.RoomID, outboundFrame{Type: "reaction", Emoji: e.Emoji})
		default:
			h.log.Error().Str("room", roomID).Msgf("unhandled effect %T", effect)
		}
	}
}

func (h *Hub) broadcast(roomID string, frame outboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	h.locker.RLock()
	defer h.locker.RUnlock()
	for c := range h.rooms[roomID] {
		select {
		case c.outbox <- data:
		default: // slow client, drop rather than stall the room
		}
	}
}

func (h *Hub) whisper(userID string, frame outboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	h.locker.RLock()
	defer h.locker.RUnlock()
	for c := range h.byUser[userID] {
		select {
		case c.outbox <- data:
		default:
		}
	}
}

// PingAll keeps idle sockets alive. Run from a ticker by the server.
func (h *Hub) PingAll() {
	h.locker.RLock()
	defer h.locker.RUnlock()
	for _, clients := range h.rooms {
		for c := range clients {
			_ = c.conn.Ping()
		}
	}
}
