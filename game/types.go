package game

import (
	"context"
	"time"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// Phase is one discrete state of a session's state machine.
type Phase int

const (
	PHASE_LOBBY Phase = iota
	PHASE_IN_PROGRESS
	PHASE_VOTING
	PHASE_GUESSING
	PHASE_LEADERBOARD
)

// Provider pulls one batch of questions from an external content source.
// A transport or non-success failure comes back as an error the cache
// treats as zero items.
type Provider interface {
	FetchBatch(ctx context.Context, minCount int) ([]domain.Question, error)
}

// Rand is the source of game randomness. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Session is one live game instance, keyed by room. Implementations
// serialize all mutations behind an internal lock; events for one room are
// applied in arrival order.
type Session interface {
	// Handle applies one inbound chat event. The second return is true when
	// the session has completed and must be evicted.
	Handle(ctx context.Context, ev domain.InboundEvent) ([]domain.Effect, bool)

	// Tick advances time-driven transitions (phase windows, inactivity).
	// Same completion contract as Handle.
	Tick(now time.Time) ([]domain.Effect, bool)

	Describe() SessionInfo
}

// SessionInfo is a point-in-time snapshot for the ops surface.
type SessionInfo struct {
	RoomID  string `json:"roomId"`
	Game    string `json:"game"`
	Players int    `json:"players"`
}

// Player is one participant. The vote fields are only meaningful inside a
// charlatan round.
type Player struct {
	ID            string
	Score         int
	Votee         string // id of the currently-voted player, "" for none
	TimesVotedFor int
	IsCharlatan   bool
}
