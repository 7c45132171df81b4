package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// TRIVIA_BATCH_SIZE is how many questions one provider call asks for.
const TRIVIA_BATCH_SIZE = 20

// SettingsSource supplies per-room configuration. Implemented by the
// postgres repository; failures fall back to defaults.
type SettingsSource interface {
	GetRoomSettings(ctx context.Context, roomID string) (domain.RoomSettings, error)
}

// ProviderFactory builds a question provider tuned to one room's settings.
type ProviderFactory func(settings domain.RoomSettings) Provider

// PostSource serves ranked posts for the /post command.
type PostSource interface {
	Top(ctx context.Context, limit int) ([]domain.Post, error)
}

// WordSource resolves a named wordlist pack.
type WordSource interface {
	Pack(name string) ([]string, error)
}

// Engine routes inbound chat events to sessions. The two game commands
// create sessions through the registry; everything else goes to the room's
// existing session, in arrival order, under that session's lock.
type Engine struct {
	registry  *Registry
	settings  SettingsSource
	providers ProviderFactory
	posts     PostSource
	words     WordSource
	newRand   func() Rand
	log       zerolog.Logger
}

func NewEngine(registry *Registry, settings SettingsSource, providers ProviderFactory, posts PostSource, words WordSource, log zerolog.Logger) *Engine {
	return &Engine{
		registry:  registry,
		settings:  settings,
		providers: providers,
		posts:     posts,
		words:     words,
		newRand:   func() Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
		log:       log.With().Str("component", "engine").Logger(),
	}
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

// HandleEvent applies one inbound event and returns the effects to render.
func (e *Engine) HandleEvent(ctx context.Context, ev domain.InboundEvent) []domain.Effect {
	var (
		sess    Session
		created bool
	)

	if ev.Kind == domain.KindCommand && ev.Payload == "post" {
		return e.topPost(ctx, ev.RoomID)
	}

	if ev.Kind == domain.KindCommand && (ev.Payload == "charlatan" || ev.Payload == "trivia") {
		var ok bool
		sess, ok = e.registry.Get(ev.RoomID)
		if !ok {
			// Built outside the registry lock: session construction may hit
			// the settings store, and the registry's critical section stays
			// insert/lookup/remove only. A concurrent builder loses the
			// GetOrCreate race and attaches to the winner's session.
			built := e.buildSession(ctx, ev.RoomID, ev.Payload)
			sess, created = e.registry.GetOrCreate(ev.RoomID, func() Session { return built })
		}
		if created {
			e.log.Info().Str("room", ev.RoomID).Str("game", ev.Payload).Msg("session created")
		}
	} else {
		var ok bool
		sess, ok = e.registry.Get(ev.RoomID)
		if !ok {
			if ev.Kind == domain.KindCommand {
				return []domain.Effect{domain.SendText{
					RoomID: ev.RoomID,
					Text:   "No game running here. Start one with /charlatan or /trivia.",
				}}
			}
			// Ordinary chatter in a room with no session.
			return nil
		}
	}

	effects, done := sess.Handle(ctx, ev)
	if done {
		e.registry.RemoveIf(ev.RoomID, sess)
		e.log.Info().Str("room", ev.RoomID).Msg("session completed")
	}
	return effects
}

// topPost serves the highest-ranked post the room's mature-content setting
// allows. Source trouble degrades the output, it never fails the command.
func (e *Engine) topPost(ctx context.Context, roomID string) []domain.Effect {
	settings, err := e.settings.GetRoomSettings(ctx, roomID)
	if err != nil {
		settings = domain.DefaultRoomSettings(roomID)
	}

	posts, err := e.posts.Top(ctx, 5)
	if err != nil {
		e.log.Warn().Err(err).Str("room", roomID).Msg("post source unavailable")
		posts = nil
	}
	for _, p := range posts {
		if p.Mature && !settings.AllowMature {
			continue
		}
		return []domain.Effect{domain.SendText{RoomID: roomID, Text: p.Title + "\n" + p.URL}}
	}
	return []domain.Effect{domain.SendText{RoomID: roomID, Text: "No posts available right now."}}
}

func (e *Engine) buildSession(ctx context.Context, roomID, game string) Session {
	settings, err := e.settings.GetRoomSettings(ctx, roomID)
	if err != nil {
		if ctx.Err() == nil {
			e.log.Warn().Err(err).Str("room", roomID).Msg("falling back to default room settings")
		}
		settings = domain.DefaultRoomSettings(roomID)
	}

	rng := e.newRand()
	now := time.Now()

	if game == "trivia" {
		filter := func(q domain.Question) bool {
			return settings.AllowMature || q.Category != "Adult"
		}
		cache := NewQuestionCache(e.providers(settings), TRIVIA_BATCH_SIZE, filter, rng, e.log)
		return NewTriviaSession(roomID, cache, e.log, now)
	}

	wordlist, err := e.words.Pack(settings.WordlistPack)
	if err != nil {
		e.log.Warn().Err(err).Str("pack", settings.WordlistPack).Msg("unknown wordlist pack, using standard")
		wordlist, _ = e.words.Pack("standard")
	}
	return NewCharlatanSession(roomID, wordlist, rng, e.log, now)
}
