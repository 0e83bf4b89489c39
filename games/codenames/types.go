/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package codenames implements the server-side session engine for a two-team
// word-guessing party game: rooms, players and seats, the card deck, and the
// turn state machine. Transport and presentation live elsewhere.
package codenames

import (
	"slices"
	"time"
)

const (
	// GridSize is the number of cards on the board.
	GridSize = 25

	FirstTeamCards  = 9
	SecondTeamCards = 8
	NeutralCards    = 7
	AssassinCards   = 1

	MinPlayers     = 2
	MaxPlayers     = 8
	DefaultPlayers = 4

	MaxNameLength = 4
	MaxWordLength = 10
)

// Phase is the lifecycle stage of a session.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// Team is one of the two competing sides.
type Team string

const (
	NoTeam Team = ""
	Red    Team = "red"
	Blue   Team = "blue"
)

// Other returns the opposing team.
func (t Team) Other() Team {
	switch t {
	case Red:
		return Blue
	case Blue:
		return Red
	default:
		return NoTeam
	}
}

// Color is the hidden affiliation of a card.
type Color string

const (
	ColorRed      Color = "red"
	ColorBlue     Color = "blue"
	ColorNeutral  Color = "neutral"
	ColorAssassin Color = "assassin"
	ColorHidden   Color = "hidden"
)

func colorOf(t Team) Color {
	switch t {
	case Red:
		return ColorRed
	case Blue:
		return ColorBlue
	default:
		return ColorNeutral
	}
}

// EndReason explains why a game ended.
type EndReason string

const (
	ReasonAssassin EndReason = "assassin"
	ReasonAllWords EndReason = "all-words"
)

// Player is a participant in one room. ID is stable for the life of the room,
// IdentityKey survives reconnects, ConnectionHandle changes with every
// connection and is empty while the player is offline.
type Player struct {
	ID               string `json:"id"`
	IdentityKey      string `json:"-"`
	ConnectionHandle string `json:"-"`
	Name             string `json:"name"`
	SeatIndex        *int   `json:"seatIndex"`
	IsHost           bool   `json:"isHost"`
	Team             Team   `json:"team,omitempty"`
	IsSpymaster      bool   `json:"isSpymaster"`
	IsDoubleAgent    bool   `json:"isDoubleAgent"`
	IsOnline         bool   `json:"isOnline"`
}

// Seated reports whether the player occupies a seat.
func (p *Player) Seated() bool {
	return p.SeatIndex != nil
}

// Card is one tile of the grid. Only Revealed changes after the deck is built.
type Card struct {
	Index    int    `json:"index"`
	Word     string `json:"word"`
	Color    Color  `json:"color"`
	Revealed bool   `json:"revealed"`
}

type Clue struct {
	Word      string    `json:"word"`
	Count     int       `json:"count"`
	Team      Team      `json:"team"`
	Timestamp time.Time `json:"timestamp"`
}

// GuessRecord logs one revealed card. Auto records come from the turn switch
// revealing a card for a team with nobody to guess for it.
//
// Team is the side the guess counted for. HomeTeam is the guesser's own team,
// which differs from Team only for a double agent.
type GuessRecord struct {
	PlayerID   string    `json:"playerId,omitempty"`
	PlayerName string    `json:"playerName,omitempty"`
	CardIndex  int       `json:"cardIndex"`
	CardWord   string    `json:"cardWord"`
	CardColor  Color     `json:"cardColor"`
	Team       Team      `json:"team"`
	HomeTeam   Team      `json:"homeTeam,omitempty"`
	Auto       bool      `json:"auto,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// GuessResult is the per-guess outcome reported to the caller.
type GuessResult struct {
	Color        Color     `json:"color"`
	Word         string    `json:"word"`
	ContinueTurn bool      `json:"continueTurn"`
	GameEnded    bool      `json:"gameEnded"`
	Winner       Team      `json:"winner,omitempty"`
	Reason       EndReason `json:"reason,omitempty"`
	AutoReveal   int       `json:"autoReveal"`
}

// Session is the authoritative state of one room.
type Session struct {
	RoomID       string        `json:"roomId"`
	Phase        Phase         `json:"phase"`
	Players      []*Player     `json:"players"`
	Cards        []Card        `json:"cards"`
	CurrentTeam  Team          `json:"currentTeam"`
	CurrentClue  *Clue         `json:"currentClue"`
	RedScore     int           `json:"redScore"`
	BlueScore    int           `json:"blueScore"`
	RedTotal     int           `json:"redTotal"`
	BlueTotal    int           `json:"blueTotal"`
	Winner       Team          `json:"winner,omitempty"`
	EndReason    EndReason     `json:"endReason,omitempty"`
	MaxPlayers   int           `json:"maxPlayers"`
	GuessHistory []GuessRecord `json:"guessHistory"`
	ClueHistory  []Clue        `json:"clueHistory"`
	CreatedAt    time.Time     `json:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt"`
	EndedAt      *time.Time    `json:"endedAt"`
	CustomWords  []string      `json:"customWords"`
	WordTheme    string        `json:"wordTheme,omitempty"`
}

func newSession(roomID string, now time.Time) *Session {
	return &Session{
		RoomID:       roomID,
		Phase:        PhaseWaiting,
		Players:      []*Player{},
		Cards:        []Card{},
		CurrentTeam:  Red,
		RedTotal:     FirstTeamCards,
		BlueTotal:    SecondTeamCards,
		MaxPlayers:   DefaultPlayers,
		GuessHistory: []GuessRecord{},
		ClueHistory:  []Clue{},
		CreatedAt:    now,
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		if p.SeatIndex != nil {
			seat := *p.SeatIndex
			cp.SeatIndex = &seat
		}
		c.Players[i] = &cp
	}
	c.Cards = slices.Clone(s.Cards)
	if s.CurrentClue != nil {
		clue := *s.CurrentClue
		c.CurrentClue = &clue
	}
	c.GuessHistory = slices.Clone(s.GuessHistory)
	c.ClueHistory = slices.Clone(s.ClueHistory)
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	c.CustomWords = slices.Clone(s.CustomWords)
	return &c
}

// ViewFor returns a copy of the session as seen by the given player.
// Guessers see unrevealed cards as hidden until the game ends; spymasters
// and spectators see every color.
func (s *Session) ViewFor(playerID string) *Session {
	v := s.Clone()
	if v.Phase == PhaseEnded {
		return v
	}

	viewer := v.playerByID(playerID)
	if viewer == nil || viewer.Team == NoTeam || viewer.IsSpymaster {
		return v
	}

	for i := range v.Cards {
		if !v.Cards[i].Revealed {
			v.Cards[i].Color = ColorHidden
		}
	}
	return v
}

func (s *Session) playerByID(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) playerByHandle(handle string) *Player {
	if handle == "" {
		return nil
	}
	for _, p := range s.Players {
		if p.ConnectionHandle == handle {
			return p
		}
	}
	return nil
}

func (s *Session) playerByIdentity(key string) *Player {
	if key == "" {
		return nil
	}
	for _, p := range s.Players {
		if p.IdentityKey == key {
			return p
		}
	}
	return nil
}

func (s *Session) playerAtSeat(seat int) *Player {
	for _, p := range s.Players {
		if p.SeatIndex != nil && *p.SeatIndex == seat {
			return p
		}
	}
	return nil
}

// seatedPlayers returns the seated players ordered by seat index.
func (s *Session) seatedPlayers() []*Player {
	seated := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Seated() {
			seated = append(seated, p)
		}
	}
	slices.SortFunc(seated, func(a, b *Player) int {
		return *a.SeatIndex - *b.SeatIndex
	})
	return seated
}

func (s *Session) onlineNameTaken(name string, except *Player) bool {
	for _, p := range s.Players {
		if p != except && p.IsOnline && p.Name == name {
			return true
		}
	}
	return false
}

func (s *Session) score(t Team) int {
	if t == Red {
		return s.RedScore
	}
	return s.BlueScore
}

func (s *Session) total(t Team) int {
	if t == Red {
		return s.RedTotal
	}
	return s.BlueTotal
}

func (s *Session) addScore(t Team) {
	if t == Red {
		s.RedScore++
	} else {
		s.BlueScore++
	}
}

func seat(i int) *int {
	return &i
}
