package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

const (
	// CHARLATAN_WORD_COUNT is how many words are shown each round; the
	// secret is one of these.
	CHARLATAN_WORD_COUNT = 16
	// CHARLATAN_MIN_PLAYERS is the floor for a round; with fewer players
	// there is nobody to hide among.
	CHARLATAN_MIN_PLAYERS = 3

	DISCUSSION_DURATION     = time.Second * 90
	VOTING_DURATION         = time.Second * 60
	GUESS_DURATION          = time.Second * 30
	CHARLATAN_IDLE_DURATION = time.Second * 300
)

const (
	actionJoin     = "join"
	actionStart    = "start"
	actionVote     = "vote"
	actionGuess    = "guess"
	actionAgain    = "again"
	actionNewLobby = "lobby"
	actionLeave    = "leave"
)

// CharlatanSession runs one room's social deduction game. One player per
// round is the charlatan and does not know the secret word; the rest vote
// on who is blending in.
type CharlatanSession struct {
	locker sync.Mutex

	roomID   string
	phase    Phase
	players  []*Player
	wordlist []string
	secret   int // index into wordlist, -1 outside a round

	// A player who leaves keeps their score here so rejoining restores it.
	leftScores map[string]int

	phaseDeadline time.Time // discussion / voting / guessing windows
	idleDeadline  time.Time // armed only in lobby and leaderboard phases

	rng Rand
	log zerolog.Logger
}

func NewCharlatanSession(roomID string, wordlist []string, rng Rand, log zerolog.Logger, now time.Time) *CharlatanSession {
	return &CharlatanSession{
		roomID:       roomID,
		phase:        PHASE_LOBBY,
		wordlist:     wordlist,
		secret:       -1,
		leftScores:   make(map[string]int),
		idleDeadline: now.Add(CHARLATAN_IDLE_DURATION),
		rng:          rng,
		log:          log.With().Str("game", "charlatan").Str("room", roomID).Logger(),
	}
}

func (s *CharlatanSession) Describe() SessionInfo {
	s.locker.Lock()
	defer s.locker.Unlock()
	return SessionInfo{RoomID: s.roomID, Game: "charlatan", Players: len(s.players)}
}

func (s *CharlatanSession) Handle(ctx context.Context, ev domain.InboundEvent) ([]domain.Effect, bool) {
	s.locker.Lock()
	defer s.locker.Unlock()

	if ev.Kind == domain.KindCommand && ev.Payload == "charlatan" {
		return s.addPlayer(ev.UserID), false
	}
	if ev.Kind == domain.KindMessage {
		// Table talk during discussion. A message is never an action, even
		// when its text matches an action name.
		return nil, false
	}

	action, arg := ev.Payload, ""
	if cut, rest, ok := strings.Cut(ev.Payload, ":"); ok {
		action, arg = cut, rest
	}

	switch action {
	case actionJoin:
		return s.addPlayer(ev.UserID), false
	case actionStart:
		return s.startRound(ev.UserID, time.Now()), false
	case actionVote:
		return s.castVote(ev.UserID, arg), false
	case actionGuess:
		return s.charlatanGuess(ev.UserID, arg)
	case actionAgain:
		return s.playAgain(ev.UserID, time.Now()), false
	case actionNewLobby:
		return s.newLobby(ev.UserID, time.Now()), false
	case actionLeave:
		return s.removePlayer(ev.UserID)
	default:
		return nil, false
	}
}

func (s *CharlatanSession) Tick(now time.Time) ([]domain.Effect, bool) {
	s.locker.Lock()
	defer s.locker.Unlock()

	switch s.phase {
	case PHASE_LOBBY, PHASE_LEADERBOARD:
		if !s.idleDeadline.IsZero() && now.After(s.idleDeadline) {
			s.log.Info().Msg("session expired on inactivity")
			return []domain.Effect{domain.SendText{
				RoomID: s.roomID,
				Text:   "The charlatan game went quiet and has been packed away.",
			}}, true
		}
	case PHASE_IN_PROGRESS:
		if now.After(s.phaseDeadline) {
			return s.openVoting(now), false
		}
	case PHASE_VOTING:
		if now.After(s.phaseDeadline) {
			return s.tallyVotes(now), false
		}
	case PHASE_GUESSING:
		if now.After(s.phaseDeadline) {
			s.log.Info().Msg("guess window expired, counts as incorrect")
			return s.resolveGuess(-1, now), false
		}
	}
	return nil, false
}

// addPlayer appends a new player in join order. Outside the lobby it is a
// descriptive rejection; a duplicate join only produces a signal.
func (s *CharlatanSession) addPlayer(userID string) []domain.Effect {
	if s.phase != PHASE_LOBBY {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "A round is already running, wait for the lobby."}}
	}
	if s.findPlayer(userID) != nil {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "You have already joined this lobby."}}
	}

	p := &Player{ID: userID}
	if carried, ok := s.leftScores[userID]; ok {
		p.Score = carried
		delete(s.leftScores, userID)
	}
	s.players = append(s.players, p)
	s.touch(time.Now())
	s.log.Info().Str("user", userID).Int("players", len(s.players)).Msg("player joined lobby")

	return []domain.Effect{domain.EditLastMessage{
		RoomID:   s.roomID,
		Text:     s.lobbyText(),
		Controls: lobbyControls(),
	}}
}

func (s *CharlatanSession) removePlayer(userID string) ([]domain.Effect, bool) {
	p := s.findPlayer(userID)
	if p == nil {
		return nil, false
	}
	if s.phase != PHASE_LOBBY && s.phase != PHASE_LEADERBOARD {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "You cannot leave mid-round."}}, false
	}

	s.leftScores[userID] = p.Score
	for i, q := range s.players {
		if q == p {
			s.players = append(s.players[:i], s.players[i+1:]...)
			break
		}
	}
	s.touch(time.Now())

	if len(s.players) == 0 {
		s.log.Info().Msg("lobby emptied, session complete")
		return []domain.Effect{domain.SendText{RoomID: s.roomID, Text: "Everyone left, the charlatan game is over."}}, true
	}
	return []domain.Effect{domain.EditLastMessage{
		RoomID:   s.roomID,
		Text:     s.lobbyText(),
		Controls: lobbyControls(),
	}}, false
}

// startRound moves Lobby -> InProgress: fresh charlatan, fresh secret word,
// a private copy of the wordlist for every player.
func (s *CharlatanSession) startRound(userID string, now time.Time) []domain.Effect {
	if s.phase != PHASE_LOBBY {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "The round has already started."}}
	}
	if s.findPlayer(userID) == nil {
		return nil
	}
	if len(s.players) < CHARLATAN_MIN_PLAYERS {
		return []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   fmt.Sprintf("Need at least %d players to start.", CHARLATAN_MIN_PLAYERS),
		}}
	}
	if len(s.wordlist) < CHARLATAN_WORD_COUNT {
		s.log.Error().Int("words", len(s.wordlist)).Msg("wordlist below round size, refusing to start")
		return []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   fmt.Sprintf("This room's wordlist has fewer than %d words, the round cannot start.", CHARLATAN_WORD_COUNT),
		}}
	}

	return s.beginRound(now)
}

// beginRound assumes validation already happened. Shared between the first
// start and "play again".
func (s *CharlatanSession) beginRound(now time.Time) []domain.Effect {
	for _, p := range s.players {
		p.IsCharlatan = false
		p.Votee = ""
		p.TimesVotedFor = 0
	}
	charlatan := s.players[s.rng.Intn(len(s.players))]
	charlatan.IsCharlatan = true
	s.secret = s.rng.Intn(CHARLATAN_WORD_COUNT)

	s.phase = PHASE_IN_PROGRESS
	s.phaseDeadline = now.Add(DISCUSSION_DURATION)
	s.idleDeadline = time.Time{}
	s.log.Info().Str("charlatan", charlatan.ID).Int("secret", s.secret).Msg("round started")

	effects := []domain.Effect{domain.SendText{
		RoomID: s.roomID,
		Text:   "The round has begun! Check your private word list and start talking. Votes open soon.",
	}}
	for _, p := range s.players {
		effects = append(effects, domain.SendPrivate{
			UserID: p.ID,
			Text:   s.wordlistText(!p.IsCharlatan),
		})
	}
	return effects
}

// wordlistText renders the first CHARLATAN_WORD_COUNT words; markSecret
// controls whether the secret word is flagged. The charlatan's copy never
// marks it.
func (s *CharlatanSession) wordlistText(markSecret bool) string {
	var b strings.Builder
	b.WriteString("This round's words:\n")
	for i, w := range s.wordlist[:CHARLATAN_WORD_COUNT] {
		if markSecret && i == s.secret {
			fmt.Fprintf(&b, "%2d. %s  ⭐\n", i+1, w)
		} else {
			fmt.Fprintf(&b, "%2d. %s\n", i+1, w)
		}
	}
	if markSecret {
		b.WriteString("The starred word is the secret. One of you has no star: find them.")
	} else {
		b.WriteString("You are the charlatan. Blend in.")
	}
	return b.String()
}

func (s *CharlatanSession) openVoting(now time.Time) []domain.Effect {
	s.phase = PHASE_VOTING
	s.phaseDeadline = now.Add(VOTING_DURATION)

	controls := make([]domain.Control, 0, len(s.players))
	for i, p := range s.players {
		controls = append(controls, domain.Control{Label: p.ID, Action: fmt.Sprintf("%s:%d", actionVote, i)})
	}
	return []domain.Effect{domain.EditLastMessage{
		RoomID:   s.roomID,
		Text:     "Discussion over. Vote for the player you think is the charlatan. You can change your vote until time runs out.",
		Controls: controls,
	}}
}

// castVote applies or moves a vote. Re-voting moves the vote, it never
// accumulates: the previous target's count drops before the new one rises.
func (s *CharlatanSession) castVote(voterID, arg string) []domain.Effect {
	if s.phase != PHASE_VOTING {
		return []domain.Effect{domain.SendPrivate{UserID: voterID, Text: "Votes are not open right now."}}
	}
	voter := s.findPlayer(voterID)
	if voter == nil {
		s.log.Debug().Str("user", voterID).Msg("vote from non-participant ignored")
		return []domain.Effect{domain.SendPrivate{UserID: voterID, Text: "You are not part of this round."}}
	}
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 || idx >= len(s.players) {
		return nil
	}
	target := s.players[idx]

	if voter.Votee != "" {
		if prev := s.findPlayer(voter.Votee); prev != nil {
			prev.TimesVotedFor--
		}
	}
	voter.Votee = target.ID
	target.TimesVotedFor++

	return []domain.Effect{domain.SendPrivate{
		UserID: voterID,
		Text:   fmt.Sprintf("Your vote is on %s.", target.ID),
	}}
}

// tallyVotes closes the vote window. The charlatan being among the tied
// leaders counts as found, even in a multi-way tie.
func (s *CharlatanSession) tallyVotes(now time.Time) []domain.Effect {
	leaders := Tally(s.players)

	var charlatan *Player
	for _, p := range s.players {
		if p.IsCharlatan {
			charlatan = p
		}
	}

	found := false
	for _, p := range leaders {
		if p.IsCharlatan {
			found = true
		}
	}

	if !found {
		// The charlatan slipped through: +2 for them, nothing for anyone else.
		charlatan.Score += 2
		s.log.Info().Str("charlatan", charlatan.ID).Msg("charlatan escaped the vote")
		effects := []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   fmt.Sprintf("Nobody pinned the charlatan down. It was %s, who takes 2 points!", charlatan.ID),
		}}
		return append(effects, s.showLeaderboard(now)...)
	}

	s.phase = PHASE_GUESSING
	s.phaseDeadline = now.Add(GUESS_DURATION)
	s.log.Info().Str("charlatan", charlatan.ID).Msg("charlatan found by vote")

	controls := make([]domain.Control, 0, CHARLATAN_WORD_COUNT)
	for i, w := range s.wordlist[:CHARLATAN_WORD_COUNT] {
		controls = append(controls, domain.Control{Label: w, Action: fmt.Sprintf("%s:%d", actionGuess, i)})
	}
	return []domain.Effect{domain.EditLastMessage{
		RoomID:   s.roomID,
		Text:     fmt.Sprintf("Caught! %s is the charlatan. %s, pick the secret word to steal a point back.", charlatan.ID, charlatan.ID),
		Controls: controls,
	}}
}

// charlatanGuess accepts exactly one guess per round, and only from the
// charlatan. Resolving a guess leaves the guessing phase, so a second
// press is rejected by the phase check without touching scores.
func (s *CharlatanSession) charlatanGuess(userID, arg string) ([]domain.Effect, bool) {
	if s.phase != PHASE_GUESSING {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "There is nothing to guess right now."}}, false
	}
	p := s.findPlayer(userID)
	if p == nil || !p.IsCharlatan {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "Only the charlatan gets to guess."}}, false
	}
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 || idx >= CHARLATAN_WORD_COUNT {
		return nil, false
	}
	return s.resolveGuess(idx, time.Now()), false
}

// resolveGuess scores the round's guess. idx == -1 means the window ran
// out, which counts as incorrect.
func (s *CharlatanSession) resolveGuess(idx int, now time.Time) []domain.Effect {
	var charlatan *Player
	for _, p := range s.players {
		if p.IsCharlatan {
			charlatan = p
		}
	}

	var verdict string
	if idx == s.secret {
		charlatan.Score++
		verdict = fmt.Sprintf("%s sniffed out the secret word (%q) and takes a point!", charlatan.ID, s.wordlist[s.secret])
	} else {
		for _, p := range s.players {
			if !p.IsCharlatan {
				p.Score++
			}
		}
		verdict = fmt.Sprintf("Wrong! The secret word was %q. Everyone else takes a point.", s.wordlist[s.secret])
	}
	s.log.Info().Bool("correct", idx == s.secret).Msg("charlatan guess resolved")

	effects := []domain.Effect{domain.SendText{RoomID: s.roomID, Text: verdict}}
	return append(effects, s.showLeaderboard(now)...)
}

func (s *CharlatanSession) showLeaderboard(now time.Time) []domain.Effect {
	s.phase = PHASE_LEADERBOARD
	s.phaseDeadline = time.Time{}
	s.idleDeadline = now.Add(CHARLATAN_IDLE_DURATION)

	var b strings.Builder
	b.WriteString("Scores so far:\n")
	for _, p := range s.players {
		fmt.Fprintf(&b, "%s: %d\n", p.ID, p.Score)
	}

	return []domain.Effect{domain.EditLastMessage{
		RoomID: s.roomID,
		Text:   b.String(),
		Controls: []domain.Control{
			{Label: "Play again", Action: actionAgain},
			{Label: "New lobby", Action: actionNewLobby},
		},
	}}
}

// playAgain keeps scores and goes straight into a new round with a fresh
// charlatan and secret word. Players can leave at the leaderboard, so the
// minimum is re-checked here.
func (s *CharlatanSession) playAgain(userID string, now time.Time) []domain.Effect {
	if s.phase != PHASE_LEADERBOARD {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "There is no finished round to replay."}}
	}
	if s.findPlayer(userID) == nil {
		return nil
	}
	if len(s.players) < CHARLATAN_MIN_PLAYERS {
		return []domain.Effect{domain.SendText{
			RoomID: s.roomID,
			Text:   fmt.Sprintf("Need at least %d players to start.", CHARLATAN_MIN_PLAYERS),
		}}
	}
	return s.beginRound(now)
}

// newLobby zeroes every score and returns to the lobby so the group can
// change before the next run.
func (s *CharlatanSession) newLobby(userID string, now time.Time) []domain.Effect {
	if s.phase != PHASE_LEADERBOARD {
		return []domain.Effect{domain.SendPrivate{UserID: userID, Text: "There is no finished round to reset."}}
	}
	if s.findPlayer(userID) == nil {
		return nil
	}

	for _, p := range s.players {
		p.Score = 0
		p.IsCharlatan = false
		p.Votee = ""
		p.TimesVotedFor = 0
	}
	s.leftScores = make(map[string]int)
	s.phase = PHASE_LOBBY
	s.secret = -1
	s.touch(now)

	return []domain.Effect{domain.EditLastMessage{
		RoomID:   s.roomID,
		Text:     s.lobbyText(),
		Controls: lobbyControls(),
	}}
}

func (s *CharlatanSession) findPlayer(userID string) *Player {
	for _, p := range s.players {
		if p.ID == userID {
			return p
		}
	}
	return nil
}

// touch re-arms the inactivity window after an accepted mutation so an
// actively-used lobby never expires under its players.
func (s *CharlatanSession) touch(now time.Time) {
	if s.phase == PHASE_LOBBY || s.phase == PHASE_LEADERBOARD {
		s.idleDeadline = now.Add(CHARLATAN_IDLE_DURATION)
	}
}

func (s *CharlatanSession) lobbyText() string {
	names := make([]string, 0, len(s.players))
	for _, p := range s.players {
		names = append(names, p.ID)
	}
	return fmt.Sprintf("Charlatan lobby (%d): %s", len(s.players), strings.Join(names, ", "))
}

func lobbyControls() []domain.Control {
	return []domain.Control{
		{Label: "Join", Action: actionJoin},
		{Label: "Start", Action: actionStart},
		{Label: "Leave", Action: actionLeave},
	}
}
