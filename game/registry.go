package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// Registry maps room ids to at most one active session each. Its lock only
// covers insert, lookup and remove; game-rule evaluation always happens
// outside it, under the session's own lock.
type Registry struct {
	locker   sync.RWMutex
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// GetOrCreate returns the room's session, constructing it via factory if
// the room has none. The second return reports whether a session was
// created. Two concurrent starts for one room yield one session; the
// second caller attaches to the first's.
func (r *Registry) GetOrCreate(roomID string, factory func() Session) (Session, bool) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if s, ok := r.sessions[roomID]; ok {
		return s, false
	}
	s := factory()
	r.sessions[roomID] = s
	return s, true
}

func (r *Registry) Get(roomID string) (Session, bool) {
	r.locker.RLock()
	defer r.locker.RUnlock()
	s, ok := r.sessions[roomID]
	return s, ok
}

// Remove evicts unconditionally and is idempotent: removing a room that
// has no session is a no-op, never an error.
func (r *Registry) Remove(roomID string) {
	r.locker.Lock()
	defer r.locker.Unlock()
	delete(r.sessions, roomID)
}

// RemoveIf evicts the room only while it still holds s. A completion
// signal from a session that was already replaced leaves the successor
// untouched.
func (r *Registry) RemoveIf(roomID string, s Session) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if cur, ok := r.sessions[roomID]; ok && cur == s {
		delete(r.sessions, roomID)
	}
}

func (r *Registry) List() []SessionInfo {
	r.locker.RLock()
	snapshot := make(map[string]Session, len(r.sessions))
	for id, s := range r.sessions {
		snapshot[id] = s
	}
	r.locker.RUnlock()

	// Describe takes each session's lock, so it must not run under ours.
	infos := make([]SessionInfo, 0, len(snapshot))
	for _, s := range snapshot {
		infos = append(infos, s.Describe())
	}
	return infos
}

// EffectSink receives effects produced outside a request path, i.e. by
// timer-driven transitions.
type EffectSink interface {
	Apply(ctx context.Context, roomID string, effects []domain.Effect)
}

// Supervisor drives every session's time-based transitions and evicts
// completed ones. A completion signal only removes the session it came
// from; the ops surface may have swapped the room's entry between the
// snapshot and the removal.
type Supervisor struct {
	registry *Registry
	interval time.Duration
	sink     EffectSink
	log      zerolog.Logger
}

func NewSupervisor(registry *Registry, interval time.Duration, sink EffectSink, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		registry: registry,
		interval: interval,
		sink:     sink,
		log:      log.With().Str("component", "supervisor").Logger(),
	}
}

func (sv *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(sv.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sv.tickAll(ctx, now)
		}
	}
}

func (sv *Supervisor) tickAll(ctx context.Context, now time.Time) {
	sv.registry.locker.RLock()
	snapshot := make(map[string]Session, len(sv.registry.sessions))
	for id, s := range sv.registry.sessions {
		snapshot[id] = s
	}
	sv.registry.locker.RUnlock()

	for roomID, sess := range snapshot {
		effects, done := sess.Tick(now)
		if done {
			sv.registry.RemoveIf(roomID, sess)
			sv.log.Info().Str("room", roomID).Msg("session evicted")
		}
		if len(effects) > 0 && sv.sink != nil {
			sv.sink.Apply(ctx, roomID, effects)
		}
	}
}
