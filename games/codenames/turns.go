package codenames

import (
	"strings"
	"time"
)

// Start deals a fresh deck, assigns roles and begins the game.
func (m *Manager) Start(handle string) (*Session, error) {
	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if s.Phase != PhaseWaiting {
			return ErrWrongPhase
		}
		if err := startGame(s, m.wordsFor(s), m.rng, m.now()); err != nil {
			return err
		}
		m.logf("GAMES: Started game in %s, %s moves first", s.RoomID, s.CurrentTeam)
		return nil
	})
}

// Restart begins a new game with the same players and seats once the
// previous one has ended. With too few seated players left to play, the room
// goes back to waiting instead so seats can be filled again.
func (m *Manager) Restart(handle string) (*Session, error) {
	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if s.Phase != PhaseEnded {
			return ErrNotEnded
		}
		if len(s.seatedPlayers()) < MinPlayers {
			resetToWaiting(s)
			m.logf("GAMES: Reopened %s for seating", s.RoomID)
			return nil
		}
		if err := startGame(s, m.wordsFor(s), m.rng, m.now()); err != nil {
			return err
		}
		m.logf("GAMES: Restarted game in %s, %s moves first", s.RoomID, s.CurrentTeam)
		return nil
	})
}

// GiveClue records a clue from the active team's spymaster. The count is
// informational only; guessing is never capped by it.
func (m *Manager) GiveClue(handle, word string, count int) (*Session, error) {
	return m.withPlayer(handle, func(s *Session, p *Player) error {
		return giveClue(s, p, word, count, m.now())
	})
}

// GuessCard reveals a card on behalf of the caller's effective team.
func (m *Manager) GuessCard(handle string, cardIndex int) (*Session, GuessResult, error) {
	var result GuessResult
	s, err := m.withPlayer(handle, func(s *Session, p *Player) error {
		var err error
		result, err = guessCard(s, p, cardIndex, m.rng, m.now())
		if err != nil {
			return err
		}
		if result.GameEnded {
			m.logf("GAMES: %s won in %s (%s)", result.Winner, s.RoomID, result.Reason)
		}
		return nil
	})
	return s, result, err
}

// EndTurn passes the turn on behalf of the caller's effective team. It
// reports the index of any card auto-revealed by the switch, or -1.
func (m *Manager) EndTurn(handle string) (*Session, int, error) {
	revealed := -1
	s, err := m.withPlayer(handle, func(s *Session, p *Player) error {
		var err error
		revealed, err = endTurn(s, p, m.rng, m.now())
		return err
	})
	return s, revealed, err
}

func (m *Manager) wordsFor(s *Session) WordSource {
	if len(s.CustomWords) >= GridSize {
		return StaticWords(s.CustomWords)
	}
	return m.words
}

// startGame validates and then resets s into a freshly dealt playing state.
// Seats and players are preserved; spectators are left without a role.
func startGame(s *Session, words WordSource, rng Source, now time.Time) error {
	seated := s.seatedPlayers()
	if len(seated) < MinPlayers {
		return ErrNotEnoughSeat
	}

	cards, first, err := BuildDeck(words, rng)
	if err != nil {
		return err
	}

	for _, p := range s.Players {
		clearRoles(p)
	}
	AssignRoles(seated, s.MaxPlayers)

	// both seats are red in a two-seat room, so red always opens
	if s.MaxPlayers == 2 {
		first = Red
	}

	s.Phase = PhasePlaying
	s.Cards = cards
	s.CurrentTeam = first
	s.CurrentClue = nil
	s.RedScore = 0
	s.BlueScore = 0
	s.RedTotal = countColor(cards, ColorRed)
	s.BlueTotal = countColor(cards, ColorBlue)
	s.Winner = NoTeam
	s.EndReason = ""
	s.GuessHistory = []GuessRecord{}
	s.ClueHistory = []Clue{}
	started := now
	s.StartedAt = &started
	s.EndedAt = nil
	return nil
}

func giveClue(s *Session, p *Player, word string, count int, now time.Time) error {
	if s.Phase != PhasePlaying {
		return ErrNotPlaying
	}
	if p.Team == NoTeam {
		return ErrNoTeam
	}
	if !p.IsSpymaster {
		return ErrNotSpymaster
	}
	if p.Team != s.CurrentTeam {
		return ErrNotYourTurn
	}
	word = strings.TrimSpace(word)
	if word == "" || count < 0 {
		return ErrInvalidClue
	}

	clue := Clue{
		Word:      word,
		Count:     count,
		Team:      p.Team,
		Timestamp: now,
	}
	s.CurrentClue = &clue
	s.ClueHistory = append(s.ClueHistory, clue)
	return nil
}

// guessCard reveals one card and resolves it by color. Spymasters are not
// barred from guessing.
func guessCard(s *Session, p *Player, cardIndex int, rng Source, now time.Time) (GuessResult, error) {
	if s.Phase != PhasePlaying {
		return GuessResult{}, ErrNotPlaying
	}
	if p.Team == NoTeam {
		return GuessResult{}, ErrNoTeam
	}
	team := effectiveTeam(s, p)
	if team != s.CurrentTeam {
		return GuessResult{}, ErrNotYourTurn
	}
	if cardIndex < 0 || cardIndex >= len(s.Cards) {
		return GuessResult{}, ErrInvalidCard
	}
	card := &s.Cards[cardIndex]
	if card.Revealed {
		return GuessResult{}, ErrAlreadyRevealed
	}

	card.Revealed = true
	s.GuessHistory = append(s.GuessHistory, GuessRecord{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		CardIndex:  cardIndex,
		CardWord:   card.Word,
		CardColor:  card.Color,
		Team:       team,
		HomeTeam:   p.Team,
		Timestamp:  now,
	})

	result := GuessResult{
		Color:      card.Color,
		Word:       card.Word,
		AutoReveal: -1,
	}

	switch card.Color {
	case ColorAssassin:
		endGame(s, team.Other(), ReasonAssassin, now)
	case colorOf(team):
		s.addScore(team)
		if s.score(team) >= s.total(team) {
			endGame(s, team, ReasonAllWords, now)
		} else {
			result.ContinueTurn = true
		}
	case colorOf(team.Other()):
		other := team.Other()
		s.addScore(other)
		if s.score(other) >= s.total(other) {
			endGame(s, other, ReasonAllWords, now)
		} else {
			result.AutoReveal = switchTurn(s, rng, now)
		}
	default:
		result.AutoReveal = switchTurn(s, rng, now)
	}

	if s.Phase == PhaseEnded {
		result.GameEnded = true
		result.ContinueTurn = false
		result.Winner = s.Winner
		result.Reason = s.EndReason
	}
	return result, nil
}

func endTurn(s *Session, p *Player, rng Source, now time.Time) (int, error) {
	if s.Phase != PhasePlaying {
		return -1, ErrNotPlaying
	}
	if p.Team == NoTeam {
		return -1, ErrNoTeam
	}
	if effectiveTeam(s, p) != s.CurrentTeam {
		return -1, ErrNotYourTurn
	}
	return switchTurn(s, rng, now), nil
}

// switchTurn hands the turn to the other team. When nobody can guess for the
// other team, one of its cards is revealed at random on its behalf and the
// current team keeps the turn. It returns the auto-revealed index, or -1.
func switchTurn(s *Session, rng Source, now time.Time) int {
	next := s.CurrentTeam.Other()
	s.CurrentClue = nil

	if hasGuesser(s, next) {
		s.CurrentTeam = next
		return -1
	}

	var candidates []int
	for i, c := range s.Cards {
		if !c.Revealed && c.Color == colorOf(next) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}

	idx := candidates[rng.IntN(len(candidates))]
	card := &s.Cards[idx]
	card.Revealed = true
	s.GuessHistory = append(s.GuessHistory, GuessRecord{
		CardIndex: idx,
		CardWord:  card.Word,
		CardColor: card.Color,
		Team:      next,
		Auto:      true,
		Timestamp: now,
	})

	s.addScore(next)
	if s.score(next) >= s.total(next) {
		endGame(s, next, ReasonAllWords, now)
	}
	return idx
}

// resetToWaiting clears the finished game but keeps players, seats and the
// room's word settings.
func resetToWaiting(s *Session) {
	for _, p := range s.Players {
		clearRoles(p)
	}
	s.Phase = PhaseWaiting
	s.Cards = []Card{}
	s.CurrentTeam = Red
	s.CurrentClue = nil
	s.RedScore = 0
	s.BlueScore = 0
	s.RedTotal = FirstTeamCards
	s.BlueTotal = SecondTeamCards
	s.Winner = NoTeam
	s.EndReason = ""
	s.GuessHistory = []GuessRecord{}
	s.ClueHistory = []Clue{}
	s.StartedAt = nil
	s.EndedAt = nil
}

func endGame(s *Session, winner Team, reason EndReason, now time.Time) {
	s.Phase = PhaseEnded
	s.Winner = winner
	s.EndReason = reason
	s.CurrentClue = nil
	ended := now
	s.EndedAt = &ended
}
