package codenames

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Options configures a Manager. Zero values select production defaults.
type Options struct {
	Now   func() time.Time
	Rand  Source
	Words WordSource
	Theme ThemeGenerator
	Logf  func(format string, args ...any)
}

// Manager is the entry point for every room operation. Each operation
// locks exactly one room for its duration, so rooms proceed in parallel while
// requests against the same room are applied one at a time.
type Manager struct {
	rooms      *Registry
	identities *KeyLock

	now   func() time.Time
	rng   Source
	words WordSource
	theme ThemeGenerator
	logf  func(format string, args ...any)
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		identities: NewKeyLock(),
		now:        opts.Now,
		rng:        opts.Rand,
		words:      opts.Words,
		theme:      opts.Theme,
		logf:       opts.Logf,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.rng == nil {
		m.rng = NewSeededSource()
	}
	if m.words == nil {
		m.words = DefaultWords()
	}
	if m.logf == nil {
		m.logf = func(string, ...any) {}
	}
	m.rooms = NewRegistry(m.now)
	return m
}

// Registry exposes the room registry.
func (m *Manager) Registry() *Registry {
	return m.rooms
}

// ThemeEnabled reports whether theme word generation is configured.
func (m *Manager) ThemeEnabled() bool {
	return m.theme != nil
}

// NewRoomID returns a random room id that is not currently in use.
func (m *Manager) NewRoomID() string {
	for {
		id := randomRoomID(m.rng)
		if !m.rooms.Exists(id) {
			return id
		}
	}
}

// RoomInfo is the public summary of a room.
type RoomInfo struct {
	RoomID      string `json:"roomId"`
	Phase       Phase  `json:"phase"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

func (m *Manager) Info(roomID string) (RoomInfo, error) {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return RoomInfo{}, ErrRoomNotFound
	}
	return RoomInfo{
		RoomID:      room.session.RoomID,
		Phase:       room.session.Phase,
		PlayerCount: len(room.session.Players),
		MaxPlayers:  room.session.MaxPlayers,
	}, nil
}

// Snapshot returns a copy of a room's session.
func (m *Manager) Snapshot(roomID string) (*Session, error) {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return nil, ErrRoomNotFound
	}
	return room.session.Clone(), nil
}

// Run sweeps expired rooms every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, lifetime time.Duration) {
	m.rooms.RunSweeper(ctx, interval, lifetime, func(removed []string) {
		m.logf("GAMES: Swept %d expired room(s): %s", len(removed), strings.Join(removed, ", "))
	})
}

// withPlayer locks the room the handle belongs to and runs fn against the
// handle's player. When fn succeeds the indices are rebuilt and a copy of the
// updated session is returned.
func (m *Manager) withPlayer(handle string, fn func(s *Session, p *Player) error) (*Session, error) {
	room, p, unlock, err := m.lockPlayer(handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := fn(room.session, p); err != nil {
		return nil, err
	}

	m.rooms.reindex(room)
	return room.session.Clone(), nil
}

func (m *Manager) lockPlayer(handle string) (*Room, *Player, func(), error) {
	if handle == "" {
		return nil, nil, nil, ErrNotInRoom
	}

	roomID, ok := m.rooms.ResolveByHandle(handle)
	if !ok {
		return nil, nil, nil, ErrNotInRoom
	}
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return nil, nil, nil, ErrNotInRoom
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return nil, nil, nil, ErrNotInRoom
	}
	p := room.session.playerByHandle(handle)
	if p == nil || !p.IsOnline {
		room.mu.Unlock()
		return nil, nil, nil, ErrNotInRoom
	}
	return room, p, room.mu.Unlock, nil
}

func newPlayerID() string {
	return uuid.NewString()
}

// normalizeName trims and NFC-normalises a display name.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= MaxNameLength
}
