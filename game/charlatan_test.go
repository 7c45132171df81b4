package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

func testWordlist() []string {
	words := make([]string, 20)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	return words
}

func joinAll(t *testing.T, s *CharlatanSession, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		_, done := s.Handle(ctx, domain.InboundEvent{RoomID: "room1", UserID: id, Kind: domain.KindCommand, Payload: "charlatan"})
		require.False(t, done)
	}
}

// startedSession builds a four-player session mid-round with a scripted
// charlatan and secret word, already in the voting phase.
func startedSession(t *testing.T, charlatanIdx, secretIdx int) (*CharlatanSession, time.Time) {
	t.Helper()
	rng := &MockRand{}
	rng.On("Intn", 4).Return(charlatanIdx).Once()
	rng.On("Intn", CHARLATAN_WORD_COUNT).Return(secretIdx).Once()

	now := time.Now()
	s := NewCharlatanSession("room1", testWordlist(), rng, zerolog.Nop(), now)
	joinAll(t, s, "p1", "p2", "p3", "p4")

	_, done := s.Handle(context.Background(), domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "start"})
	require.False(t, done)
	require.Equal(t, PHASE_IN_PROGRESS, s.phase)

	votingAt := now.Add(DISCUSSION_DURATION + time.Second)
	effects, done := s.Tick(votingAt)
	require.False(t, done)
	require.Equal(t, PHASE_VOTING, s.phase)
	require.NotEmpty(t, effects)

	return s, votingAt
}

func vote(t *testing.T, s *CharlatanSession, voter string, targetIdx int) {
	t.Helper()
	_, done := s.Handle(context.Background(), domain.InboundEvent{
		RoomID: "room1", UserID: voter, Kind: domain.KindButton,
		Payload: fmt.Sprintf("vote:%d", targetIdx),
	})
	require.False(t, done)
}

func TestCharlatanLobby(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Join Order Is Stable", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1", "p2", "p3")
		require.Len(t, s.players, 3)
		assert.Equal(t, "p1", s.players[0].ID)
		assert.Equal(t, "p2", s.players[1].ID)
		assert.Equal(t, "p3", s.players[2].ID)
	})

	t.Run("Duplicate Join Signals Without Mutating", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1")

		effects, done := s.Handle(ctx, domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "join"})
		assert.False(t, done)
		require.Len(t, effects, 1)
		assert.IsType(t, domain.SendPrivate{}, effects[0])
		assert.Len(t, s.players, 1)
	})

	t.Run("Start Needs Minimum Players", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1", "p2")

		_, done := s.Handle(ctx, domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "start"})
		assert.False(t, done)
		assert.Equal(t, PHASE_LOBBY, s.phase)
	})

	t.Run("Short Wordlist Refuses To Start", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist()[:10], &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1", "p2", "p3")

		effects, done := s.Handle(ctx, domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "start"})
		assert.False(t, done)
		assert.Equal(t, PHASE_LOBBY, s.phase)
		require.Len(t, effects, 1)
		assert.Contains(t, effects[0].(domain.SendText).Text, "wordlist")
	})

	t.Run("Rejoin Restores Carried Score", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1", "p2")
		s.players[0].Score = 3

		_, done := s.Handle(ctx, domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "leave"})
		require.False(t, done)
		joinAll(t, s, "p1")

		assert.Equal(t, 3, s.findPlayer("p1").Score)
	})

	t.Run("Last Leave Completes Session", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1")

		_, done := s.Handle(ctx, domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "leave"})
		assert.True(t, done)
	})

	t.Run("Chat Message Matching An Action Is Ignored", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1", "p2", "p3")

		for _, text := range []string{"start", "leave", "lobby", "vote:0"} {
			effects, done := s.Handle(ctx, domain.InboundEvent{
				RoomID: "room1", UserID: "p1", Kind: domain.KindMessage, Payload: text,
			})
			assert.False(t, done)
			assert.Empty(t, effects, "message %q must be table talk, not an action", text)
		}
		assert.Equal(t, PHASE_LOBBY, s.phase)
		assert.Len(t, s.players, 3)
	})

	t.Run("Idle Lobby Expires", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), now)
		joinAll(t, s, "p1")

		_, done := s.Tick(now.Add(CHARLATAN_IDLE_DURATION - time.Second))
		assert.False(t, done)

		effects, done := s.Tick(now.Add(CHARLATAN_IDLE_DURATION + time.Hour))
		assert.True(t, done)
		require.NotEmpty(t, effects)
	})
}

func TestCharlatanRoundStart(t *testing.T) {
	t.Parallel()

	s, _ := startedSession(t, 1, 5)

	var charlatans int
	for _, p := range s.players {
		if p.IsCharlatan {
			charlatans++
		}
	}
	assert.Equal(t, 1, charlatans)
	assert.True(t, s.players[1].IsCharlatan)
	assert.Equal(t, 5, s.secret)
}

func TestCharlatanPrivateWordlists(t *testing.T) {
	t.Parallel()
	rng := &MockRand{}
	rng.On("Intn", 3).Return(0).Once()
	rng.On("Intn", CHARLATAN_WORD_COUNT).Return(2).Once()

	s := NewCharlatanSession("room1", testWordlist(), rng, zerolog.Nop(), time.Now())
	joinAll(t, s, "p1", "p2", "p3")
	effects, _ := s.Handle(context.Background(), domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "start"})

	privates := map[string]string{}
	for _, e := range effects {
		if p, ok := e.(domain.SendPrivate); ok {
			privates[p.UserID] = p.Text
		}
	}
	require.Len(t, privates, 3)

	// p1 is the charlatan: their copy must not mark the secret.
	assert.NotContains(t, privates["p1"], "⭐")
	assert.Contains(t, privates["p2"], "⭐")
	assert.Contains(t, privates["p3"], "⭐")
	// Everyone sees the same words.
	for _, text := range privates {
		assert.Contains(t, text, "word02")
		assert.NotContains(t, text, "word16", "only the first 16 words are in play")
	}
}

func TestCharlatanVoting(t *testing.T) {
	t.Parallel()

	t.Run("Revote Moves Instead Of Accumulating", func(t *testing.T) {
		t.Parallel()
		s, _ := startedSession(t, 1, 5)

		vote(t, s, "p1", 2)
		require.Equal(t, 1, s.players[2].TimesVotedFor)

		vote(t, s, "p1", 3)
		assert.Equal(t, 0, s.players[2].TimesVotedFor, "old target must drop back")
		assert.Equal(t, 1, s.players[3].TimesVotedFor, "new target gains exactly one")
		assert.Equal(t, "p4", s.findPlayer("p1").Votee)
	})

	t.Run("Unknown Voter Rejected Without Mutation", func(t *testing.T) {
		t.Parallel()
		s, _ := startedSession(t, 1, 5)

		effects, done := s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "stranger", Kind: domain.KindButton, Payload: "vote:0",
		})
		assert.False(t, done)
		require.Len(t, effects, 1)
		assert.IsType(t, domain.SendPrivate{}, effects[0])
		for _, p := range s.players {
			assert.Zero(t, p.TimesVotedFor)
		}
	})

	t.Run("Vote Outside Voting Phase Rejected", func(t *testing.T) {
		t.Parallel()
		s := NewCharlatanSession("room1", testWordlist(), &MockRand{}, zerolog.Nop(), time.Now())
		joinAll(t, s, "p1", "p2", "p3")

		effects, _ := s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "vote:1",
		})
		require.Len(t, effects, 1)
		assert.IsType(t, domain.SendPrivate{}, effects[0])
	})

	t.Run("Voting Controls List Every Player", func(t *testing.T) {
		t.Parallel()
		rng := &MockRand{}
		rng.On("Intn", 3).Return(0).Once()
		rng.On("Intn", CHARLATAN_WORD_COUNT).Return(0).Once()
		now := time.Now()
		s := NewCharlatanSession("room1", testWordlist(), rng, zerolog.Nop(), now)
		joinAll(t, s, "p1", "p2", "p3")
		s.Handle(context.Background(), domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "start"})

		effects, _ := s.Tick(now.Add(DISCUSSION_DURATION + time.Second))
		require.Len(t, effects, 1)
		edit := effects[0].(domain.EditLastMessage)

		want := []domain.Control{
			{Label: "p1", Action: "vote:0"},
			{Label: "p2", Action: "vote:1"},
			{Label: "p3", Action: "vote:2"},
		}
		assert.Empty(t, cmp.Diff(want, edit.Controls))
	})
}

func TestCharlatanArbitration(t *testing.T) {
	t.Parallel()

	t.Run("Charlatan Escapes Vote", func(t *testing.T) {
		t.Parallel()
		s, votingAt := startedSession(t, 1, 5) // charlatan is p2

		vote(t, s, "p1", 2)
		vote(t, s, "p2", 2)
		vote(t, s, "p4", 2)

		effects, done := s.Tick(votingAt.Add(VOTING_DURATION + time.Second))
		assert.False(t, done)
		assert.Equal(t, PHASE_LEADERBOARD, s.phase)
		assert.Equal(t, 2, s.players[1].Score, "escaped charlatan takes 2")
		for i, p := range s.players {
			if i != 1 {
				assert.Zero(t, p.Score)
			}
		}
		require.NotEmpty(t, effects)
		assert.Contains(t, effects[0].(domain.SendText).Text, "p2")
	})

	t.Run("Tie Including Charlatan Counts As Found", func(t *testing.T) {
		t.Parallel()
		s, votingAt := startedSession(t, 1, 5)

		vote(t, s, "p1", 1) // charlatan
		vote(t, s, "p2", 2)

		_, done := s.Tick(votingAt.Add(VOTING_DURATION + time.Second))
		assert.False(t, done)
		assert.Equal(t, PHASE_GUESSING, s.phase)
	})

	t.Run("Win Path Correct Guess", func(t *testing.T) {
		t.Parallel()
		s, votingAt := startedSession(t, 1, 5)
		vote(t, s, "p1", 1)
		vote(t, s, "p3", 1)
		s.Tick(votingAt.Add(VOTING_DURATION + time.Second))
		require.Equal(t, PHASE_GUESSING, s.phase)

		_, done := s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p2", Kind: domain.KindButton, Payload: "guess:5",
		})
		assert.False(t, done)
		assert.Equal(t, PHASE_LEADERBOARD, s.phase)
		assert.Equal(t, 1, s.players[1].Score)
		assert.Zero(t, s.players[0].Score)
		assert.Zero(t, s.players[2].Score)
		assert.Zero(t, s.players[3].Score)
	})

	t.Run("Loss Path Wrong Guess", func(t *testing.T) {
		t.Parallel()
		s, votingAt := startedSession(t, 1, 5)
		vote(t, s, "p1", 1)
		s.Tick(votingAt.Add(VOTING_DURATION + time.Second))
		require.Equal(t, PHASE_GUESSING, s.phase)

		s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p2", Kind: domain.KindButton, Payload: "guess:7",
		})
		assert.Zero(t, s.players[1].Score)
		assert.Equal(t, 1, s.players[0].Score)
		assert.Equal(t, 1, s.players[2].Score)
		assert.Equal(t, 1, s.players[3].Score)
	})

	t.Run("Second Guess Rejected Without Score Change", func(t *testing.T) {
		t.Parallel()
		s, votingAt := startedSession(t, 1, 5)
		vote(t, s, "p1", 1)
		s.Tick(votingAt.Add(VOTING_DURATION + time.Second))

		s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p2", Kind: domain.KindButton, Payload: "guess:5",
		})
		require.Equal(t, 1, s.players[1].Score)

		effects, _ := s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p2", Kind: domain.KindButton, Payload: "guess:5",
		})
		require.Len(t, effects, 1)
		assert.IsType(t, domain.SendPrivate{}, effects[0])
		assert.Equal(t, 1, s.players[1].Score, "second guess must not re-score")
	})

	t.Run("Only Charlatan May Guess", func(t *testing.T) {
		t.Parallel()
		s, votingAt := startedSession(t, 1, 5)
		vote(t, s, "p1", 1)
		s.Tick(votingAt.Add(VOTING_DURATION + time.Second))

		s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p3", Kind: domain.KindButton, Payload: "guess:5",
		})
		assert.Equal(t, PHASE_GUESSING, s.phase)
		assert.Zero(t, s.players[1].Score)
	})

	t.Run("Guess Window Expiry Counts As Incorrect", func(t *testing.T) {
		t.Parallel()
		s, votingAt := startedSession(t, 1, 5)
		vote(t, s, "p1", 1)
		guessAt := votingAt.Add(VOTING_DURATION + time.Second)
		s.Tick(guessAt)
		require.Equal(t, PHASE_GUESSING, s.phase)

		_, done := s.Tick(guessAt.Add(GUESS_DURATION + time.Second))
		assert.False(t, done)
		assert.Equal(t, PHASE_LEADERBOARD, s.phase)
		assert.Zero(t, s.players[1].Score)
		assert.Equal(t, 1, s.players[0].Score)
	})
}

func TestCharlatanLeaderboardActions(t *testing.T) {
	t.Parallel()

	// Drives a full round to the leaderboard with p2 as charlatan.
	finishedRound := func(t *testing.T, rng *MockRand) *CharlatanSession {
		t.Helper()
		rng.On("Intn", 4).Return(1).Once()
		rng.On("Intn", CHARLATAN_WORD_COUNT).Return(5).Once()

		now := time.Now()
		s := NewCharlatanSession("room1", testWordlist(), rng, zerolog.Nop(), now)
		joinAll(t, s, "p1", "p2", "p3", "p4")
		s.Handle(context.Background(), domain.InboundEvent{RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "start"})
		votingAt := now.Add(DISCUSSION_DURATION + time.Second)
		s.Tick(votingAt)
		vote(t, s, "p1", 1)
		s.Tick(votingAt.Add(VOTING_DURATION + time.Second))
		s.Handle(context.Background(), domain.InboundEvent{RoomID: "room1", UserID: "p2", Kind: domain.KindButton, Payload: "guess:5"})
		require.Equal(t, PHASE_LEADERBOARD, s.phase)
		return s
	}

	t.Run("Play Again Keeps Scores", func(t *testing.T) {
		t.Parallel()
		rng := &MockRand{}
		s := finishedRound(t, rng)
		rng.On("Intn", 4).Return(2).Once()
		rng.On("Intn", CHARLATAN_WORD_COUNT).Return(9).Once()

		_, done := s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "again",
		})
		assert.False(t, done)
		assert.Equal(t, PHASE_IN_PROGRESS, s.phase)
		assert.Equal(t, 1, s.players[1].Score, "scores survive a replay")
		assert.True(t, s.players[2].IsCharlatan, "fresh charlatan chosen")
		assert.False(t, s.players[1].IsCharlatan)
		assert.Equal(t, 9, s.secret)
		for _, p := range s.players {
			assert.Zero(t, p.TimesVotedFor)
			assert.Empty(t, p.Votee)
		}
	})

	t.Run("New Lobby Zeroes Scores", func(t *testing.T) {
		t.Parallel()
		s := finishedRound(t, &MockRand{})

		_, done := s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "lobby",
		})
		assert.False(t, done)
		assert.Equal(t, PHASE_LOBBY, s.phase)
		for _, p := range s.players {
			assert.Zero(t, p.Score)
		}
	})

	t.Run("Replay Below Minimum Rejected", func(t *testing.T) {
		t.Parallel()
		s := finishedRound(t, &MockRand{})
		for _, id := range []string{"p2", "p3", "p4"} {
			_, done := s.Handle(context.Background(), domain.InboundEvent{
				RoomID: "room1", UserID: id, Kind: domain.KindButton, Payload: "leave",
			})
			require.False(t, done)
		}
		require.Len(t, s.players, 1)

		effects, done := s.Handle(context.Background(), domain.InboundEvent{
			RoomID: "room1", UserID: "p1", Kind: domain.KindButton, Payload: "again",
		})
		assert.False(t, done)
		assert.Equal(t, PHASE_LEADERBOARD, s.phase, "a shrunken lobby must not start a round")
		assert.False(t, s.players[0].IsCharlatan)
		require.Len(t, effects, 1)
		assert.Contains(t, effects[0].(domain.SendText).Text, "Need at least")
	})

	t.Run("Idle Leaderboard Expires", func(t *testing.T) {
		t.Parallel()
		s := finishedRound(t, &MockRand{})

		effects, done := s.Tick(time.Now().Add(CHARLATAN_IDLE_DURATION + GUESS_DURATION + VOTING_DURATION + DISCUSSION_DURATION + time.Minute))
		assert.True(t, done)
		require.NotEmpty(t, effects)
	})
}
