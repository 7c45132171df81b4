package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// MAX_POINTS is the trivia win threshold.
const MAX_POINTS = 5

// TRIVIA_IDLE_DURATION evicts a trivia session nobody is answering.
const TRIVIA_IDLE_DURATION = time.Second * 300

// guessResult classifies one processed guess.
type guessResult int

const (
	guessWrong guessResult = iota
	guessCorrect
	guessWon
)

// TriviaSession runs a free-for-all quiz: every plain message in the room
// is treated as a guess at the current question.
type TriviaSession struct {
	locker sync.Mutex

	roomID  string
	scores  map[string]int
	current *domain.Question // nil before the first question or when the provider ran dry
	cache   *QuestionCache

	idleDeadline time.Time

	log zerolog.Logger
}

func NewTriviaSession(roomID string, cache *QuestionCache, log zerolog.Logger, now time.Time) *TriviaSession {
	return &TriviaSession{
		roomID:       roomID,
		scores:       make(map[string]int),
		cache:        cache,
		idleDeadline: now.Add(TRIVIA_IDLE_DURATION),
		log:          log.With().Str("game", "trivia").Str("room", roomID).Logger(),
	}
}

func (s *TriviaSession) Describe() SessionInfo {
	s.locker.Lock()
	defer s.locker.Unlock()
	return SessionInfo{RoomID: s.roomID, Game: "trivia", Players: len(s.scores)}
}

func (s *TriviaSession) Handle(ctx context.Context, ev domain.InboundEvent) ([]domain.Effect, bool) {
	s.locker.Lock()
	defer s.locker.Unlock()

	switch {
	case ev.Kind == domain.KindCommand && ev.Payload == "trivia":
		// A second start in the same room attaches to the running session
		// and just re-posts the question.
		if s.current != nil {
			return []domain.Effect{s.questionEffect()}, false
		}
		return s.newQuestion(ctx), false

	case ev.Payload == "skip" && ev.Kind != domain.KindMessage:
		return s.skip(ctx, ev.UserID), false

	case ev.Kind == domain.KindMessage:
		return s.checkGuess(ctx, ev.Payload, ev.UserID)

	default:
		return nil, false
	}
}

func (s *TriviaSession) Tick(now time.Time) ([]domain.Effect, bool) {
	s.locker.Lock()
	defer s.locker.Unlock()

	if now.After(s.idleDeadline) {
		s.log.Info().Msg("session expired on inactivity")
		return []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   "Trivia timed out. Start a new game whenever you like.",
		}}, true
	}
	return nil, false
}

// newQuestion pulls the next item from the cache. Exhaustion degrades the
// output instead of failing: the session stays alive with no question.
func (s *TriviaSession) newQuestion(ctx context.Context) []domain.Effect {
	q, err := s.cache.Get(ctx)
	if err != nil {
		s.current = nil
		s.log.Warn().Err(err).Msg("no question available")
		return []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   "No questions available right now. Try /skip in a bit.",
		}}
	}

	s.current = &q
	s.log.Info().Str("answer", q.Answer).Str("category", q.Category).Msg("new question")
	return []domain.Effect{s.questionEffect()}
}

func (s *TriviaSession) questionEffect() domain.Effect {
	return domain.SendText{
		RoomID: s.roomID,
		Text:   fmt.Sprintf("[%s] %s", s.current.Category, s.current.Text),
	}
}

// checkGuess arbitrates one guess. Wrong guesses only produce a cosmetic
// signal, never a state change.
func (s *TriviaSession) checkGuess(ctx context.Context, content, userID string) ([]domain.Effect, bool) {
	if s.current == nil {
		return nil, false
	}
	if !MatchAnswer(content, s.current.Answer) {
		return []domain.Effect{domain.AddReaction{RoomID: s.roomID, Emoji: "❌"}}, false
	}

	answer := s.current.Answer
	switch s.handleCorrect(userID) {
	case guessWon:
		s.log.Info().Str("user", userID).Msg("game won")
		return []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   fmt.Sprintf("%q is right! %s reaches %d points and wins the game!", answer, userID, MAX_POINTS),
		}}, true
	default:
		effects := []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   fmt.Sprintf("%q is right! %s is on %d point(s).", answer, userID, s.scores[userID]),
		}}
		return append(effects, s.newQuestion(ctx)...), false
	}
}

// handleCorrect bumps the guesser's score, creating their entry on first
// blood, and reports whether the win threshold was reached.
func (s *TriviaSession) handleCorrect(userID string) guessResult {
	s.scores[userID]++
	s.touch(time.Now())
	if s.scores[userID] >= MAX_POINTS {
		return guessWon
	}
	return guessCorrect
}

// skip advances past the current question. With more than one scored
// participant only participants may skip; a disallowed skip is a silent
// no-op.
func (s *TriviaSession) skip(ctx context.Context, userID string) []domain.Effect {
	if s.current == nil {
		return s.newQuestion(ctx)
	}
	if _, scored := s.scores[userID]; !scored && len(s.scores) > 1 {
		return nil
	}

	superseded := s.current.Answer
	s.touch(time.Now())
	effects := []domain.Effect{domain.SendText{
		RoomID: s.roomID,
		Text:   fmt.Sprintf("Skipped. The answer was %q.", superseded),
	}}
	return append(effects, s.newQuestion(ctx)...)
}

func (s *TriviaSession) touch(now time.Time) {
	s.idleDeadline = now.Add(TRIVIA_IDLE_DURATION)
}
