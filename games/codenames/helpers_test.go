package codenames

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeTheme struct {
	words []string
	err   error
	calls int
}

func (f *fakeTheme) Generate(_ context.Context, _ string, _ int) ([]string, error) {
	f.calls++
	return f.words, f.err
}

func newTestManager(t *testing.T, seed uint64) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	m := NewManager(Options{
		Now:  clock.Now,
		Rand: NewSource(rand.New(rand.NewPCG(seed, seed+1))),
	})
	return m, clock
}

func handleOf(name string) string {
	return "conn-" + name
}

func identityOf(name string) string {
	return "id-" + name
}

// seatRoom joins every name into roomID, sets the seat count as host and
// seats the players in join order.
func seatRoom(t *testing.T, m *Manager, roomID string, maxPlayers int, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := m.Join(roomID, handleOf(name), name, identityOf(name))
		require.NoError(t, err)
	}
	_, err := m.UpdateMaxPlayers(handleOf(names[0]), maxPlayers)
	require.NoError(t, err)
	for i, name := range names {
		_, err := m.TakeSeat(handleOf(name), i)
		require.NoError(t, err)
	}
}

// startRoom seats the players and starts the game as the first of them.
func startRoom(t *testing.T, m *Manager, roomID string, maxPlayers int, names ...string) *Session {
	t.Helper()
	seatRoom(t, m, roomID, maxPlayers, names...)
	s, err := m.Start(handleOf(names[0]))
	require.NoError(t, err)
	return s
}

// mutate edits a room's session in place under its lock.
func mutate(t *testing.T, m *Manager, roomID string, fn func(s *Session)) {
	t.Helper()
	room, ok := m.Registry().Get(roomID)
	require.True(t, ok)
	room.mu.Lock()
	defer room.mu.Unlock()
	fn(room.session)
}

func firstCard(s *Session, c Color) int {
	for i, card := range s.Cards {
		if !card.Revealed && card.Color == c {
			return i
		}
	}
	return -1
}

func playerNamed(s *Session, name string) *Player {
	for _, p := range s.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func seatedAt(s *Session, seat int) *Player {
	return s.playerAtSeat(seat)
}
