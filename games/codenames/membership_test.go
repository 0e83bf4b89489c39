package codenames

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_FirstPlayerIsHost(t *testing.T) {
	m, _ := newTestManager(t, 1)

	first, err := m.Join("ABCD", handleOf("ann"), " ann ", identityOf("ann"))
	require.NoError(t, err)
	assert.True(t, first.Player.IsHost)
	assert.Equal(t, "ann", first.Player.Name)
	assert.Equal(t, "abcd", first.Session.RoomID)
	assert.False(t, first.Rejoined)
	assert.NotEmpty(t, first.Player.ID)

	second, err := m.Join("abcd", handleOf("bob"), "bob", identityOf("bob"))
	require.NoError(t, err)
	assert.False(t, second.Player.IsHost)
	assert.NotEqual(t, first.Player.ID, second.Player.ID)
	assert.Len(t, second.Session.Players, 2)
}

func TestJoin_Validation(t *testing.T) {
	m, _ := newTestManager(t, 1)

	_, err := m.Join("abc", handleOf("ann"), "ann", identityOf("ann"))
	assert.ErrorIs(t, err, ErrInvalidRoomID)

	_, err = m.Join("ab-d", handleOf("ann"), "ann", identityOf("ann"))
	assert.ErrorIs(t, err, ErrInvalidRoomID)

	_, err = m.Join("abcd", handleOf("ann"), "   ", identityOf("ann"))
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = m.Join("abcd", handleOf("ann"), "alexander", identityOf("ann"))
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.Zero(t, m.Registry().Len())
}

func TestJoin_NameTaken(t *testing.T) {
	m, _ := newTestManager(t, 1)
	_, err := m.Join("abcd", handleOf("ann"), "ann", identityOf("ann"))
	require.NoError(t, err)

	_, err = m.Join("abcd", "conn-other", "ann", "id-other")
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.Equal(t, KindConflict, KindOf(err))

	s, err := m.Snapshot("abcd")
	require.NoError(t, err)
	assert.Len(t, s.Players, 1)

	// an offline player's name can be reused
	require.NotNil(t, m.Disconnect(handleOf("ann")))
	_, err = m.Join("abcd", "conn-other", "ann", "id-other")
	assert.NoError(t, err)
}

func TestJoin_SameIdentityReattaches(t *testing.T) {
	m, _ := newTestManager(t, 1)
	first, err := m.Join("abcd", handleOf("ann"), "ann", identityOf("ann"))
	require.NoError(t, err)
	_, err = m.TakeSeat(handleOf("ann"), 2)
	require.NoError(t, err)

	again, err := m.Join("abcd", "conn-new", "anna", identityOf("ann"))
	require.NoError(t, err)

	assert.True(t, again.Rejoined)
	assert.Equal(t, first.Player.ID, again.Player.ID)
	assert.Equal(t, "anna", again.Player.Name)
	assert.Equal(t, 2, *again.Player.SeatIndex)
	assert.Len(t, again.Session.Players, 1)

	_, err = m.Rename(handleOf("ann"), "old")
	assert.ErrorIs(t, err, ErrNotInRoom)
	_, err = m.Rename("conn-new", "new")
	assert.NoError(t, err)
}

func TestJoin_SameHandleIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t, 1)
	first, err := m.Join("abcd", handleOf("ann"), "ann", identityOf("ann"))
	require.NoError(t, err)

	again, err := m.Join("abcd", handleOf("ann"), "ann", identityOf("ann"))
	require.NoError(t, err)
	assert.Equal(t, first.Player.ID, again.Player.ID)
	assert.Len(t, again.Session.Players, 1)
}

func TestJoin_DuringGameSpectates(t *testing.T) {
	m, _ := newTestManager(t, 1)
	startRoom(t, m, "abcd", 2, "ann", "bob")

	res, err := m.Join("abcd", handleOf("eve"), "eve", identityOf("eve"))
	require.NoError(t, err)
	assert.False(t, res.Player.Seated())
	assert.Equal(t, NoTeam, res.Player.Team)
	assert.Equal(t, PhasePlaying, res.Session.Phase)

	_, err = m.TakeSeat(handleOf("eve"), 1)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestJoin_MovesIdentityBetweenRooms(t *testing.T) {
	m, _ := newTestManager(t, 1)
	_, err := m.Join("aaaa", handleOf("ann"), "ann", identityOf("ann"))
	require.NoError(t, err)
	_, err = m.Join("aaaa", handleOf("bob"), "bob", identityOf("bob"))
	require.NoError(t, err)

	res, err := m.Join("bbbb", "conn-ann-2", "ann", identityOf("ann"))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa"}, res.Left)

	roomID, ok := m.Registry().ResolveByIdentity(identityOf("ann"))
	require.True(t, ok)
	assert.Equal(t, "bbbb", roomID)

	old, err := m.Snapshot("aaaa")
	require.NoError(t, err)
	require.Len(t, old.Players, 1)
	assert.True(t, old.Players[0].IsHost)
	assert.Equal(t, "bob", old.Players[0].Name)
}

func TestJoin_RejectedMoveKeepsPreviousRoom(t *testing.T) {
	m, _ := newTestManager(t, 1)
	seatRoom(t, m, "aaaa", 4, "ann", "bob")

	// someone else already holds the name in the target room
	_, err := m.Join("bbbb", "conn-other", "ann", "id-other")
	require.NoError(t, err)

	before, err := m.Snapshot("aaaa")
	require.NoError(t, err)
	target, err := m.Snapshot("bbbb")
	require.NoError(t, err)

	_, err = m.Join("bbbb", handleOf("ann"), "ann", identityOf("ann"))
	require.ErrorIs(t, err, ErrNameTaken)

	after, err := m.Snapshot("aaaa")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	ann := playerNamed(after, "ann")
	require.NotNil(t, ann)
	assert.True(t, ann.IsHost)
	assert.Equal(t, 0, *ann.SeatIndex)

	roomID, ok := m.Registry().ResolveByIdentity(identityOf("ann"))
	require.True(t, ok)
	assert.Equal(t, "aaaa", roomID)
	roomID, ok = m.Registry().ResolveByHandle(handleOf("ann"))
	require.True(t, ok)
	assert.Equal(t, "aaaa", roomID)

	unchanged, err := m.Snapshot("bbbb")
	require.NoError(t, err)
	assert.Equal(t, target, unchanged)
}

func TestJoin_RejectedMoveKeepsLastPlayersRoom(t *testing.T) {
	m, _ := newTestManager(t, 1)
	_, err := m.Join("aaaa", handleOf("ann"), "ann", identityOf("ann"))
	require.NoError(t, err)
	_, err = m.Join("bbbb", "conn-other", "ann", "id-other")
	require.NoError(t, err)

	_, err = m.Join("bbbb", handleOf("ann"), "ann", identityOf("ann"))
	require.ErrorIs(t, err, ErrNameTaken)

	assert.True(t, m.Registry().Exists("aaaa"))
	s, err := m.Snapshot("aaaa")
	require.NoError(t, err)
	require.Len(t, s.Players, 1)
	assert.True(t, s.Players[0].IsOnline)
}

// holder returns the name of the player with the given team and role.
func holder(t *testing.T, s *Session, team Team, spymaster bool) string {
	t.Helper()
	for _, p := range s.Players {
		if p.Team == team && p.IsSpymaster == spymaster && !p.IsDoubleAgent {
			return p.Name
		}
	}
	require.FailNow(t, "no such player", "%s spymaster=%v", team, spymaster)
	return ""
}

func TestRejectedOperationsLeaveSessionUnchanged(t *testing.T) {
	waiting := func(t *testing.T, m *Manager) {
		seatRoom(t, m, "abcd", 4, "ann", "bob")
	}
	playing := func(t *testing.T, m *Manager) {
		startRoom(t, m, "abcd", 4, "ann", "bob", "cat", "dan")
	}

	tests := []struct {
		name  string
		setup func(t *testing.T, m *Manager)
		op    func(t *testing.T, m *Manager, s *Session) error
		want  error
	}{
		{"join with a taken name", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.Join("abcd", "conn-x", "bob", "id-x")
			return err
		}, ErrNameTaken},
		{"join with a long name", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.Join("abcd", "conn-x", "alexander", "id-x")
			return err
		}, ErrInvalidName},
		{"take an occupied seat", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.TakeSeat(handleOf("bob"), 0)
			return err
		}, ErrSeatTaken},
		{"take a seat out of range", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.TakeSeat(handleOf("bob"), MaxPlayers)
			return err
		}, ErrInvalidSeat},
		{"switch to a seat out of range", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.SwitchSeat(handleOf("bob"), MaxPlayers)
			return err
		}, ErrInvalidSeat},
		{"max players from a guest", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.UpdateMaxPlayers(handleOf("bob"), 2)
			return err
		}, ErrNotHost},
		{"max players out of range", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.UpdateMaxPlayers(handleOf("ann"), MaxPlayers+1)
			return err
		}, ErrInvalidPlayerCap},
		{"start from a guest", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.Start(handleOf("bob"))
			return err
		}, ErrNotHost},
		{"rename to a taken name", waiting, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.Rename(handleOf("bob"), "ann")
			return err
		}, ErrNameTaken},
		{"seat change mid game", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.LeaveSeat(handleOf("ann"))
			return err
		}, ErrWrongPhase},
		{"max players mid game", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.UpdateMaxPlayers(handleOf("ann"), 6)
			return err
		}, ErrWrongPhase},
		{"clue from a guesser", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.GiveClue(handleOf(holder(t, s, s.CurrentTeam, false)), "tide", 1)
			return err
		}, ErrNotSpymaster},
		{"clue with a negative count", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.GiveClue(handleOf(holder(t, s, s.CurrentTeam, true)), "tide", -1)
			return err
		}, ErrInvalidClue},
		{"clue out of turn", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.GiveClue(handleOf(holder(t, s, s.CurrentTeam.Other(), true)), "tide", 1)
			return err
		}, ErrNotYourTurn},
		{"guess out of turn", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, _, err := m.GuessCard(handleOf(holder(t, s, s.CurrentTeam.Other(), false)), 0)
			return err
		}, ErrNotYourTurn},
		{"guess out of range", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, _, err := m.GuessCard(handleOf(holder(t, s, s.CurrentTeam, false)), GridSize)
			return err
		}, ErrInvalidCard},
		{"guess a revealed card", func(t *testing.T, m *Manager) {
			s := startRoom(t, m, "abcd", 4, "ann", "bob", "cat", "dan")
			_, _, err := m.GuessCard(handleOf(holder(t, s, s.CurrentTeam, false)), firstCard(s, colorOf(s.CurrentTeam)))
			require.NoError(t, err)
		}, func(t *testing.T, m *Manager, s *Session) error {
			revealed := s.GuessHistory[0].CardIndex
			_, _, err := m.GuessCard(handleOf(holder(t, s, s.CurrentTeam, false)), revealed)
			return err
		}, ErrAlreadyRevealed},
		{"end turn out of turn", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, _, err := m.EndTurn(handleOf(holder(t, s, s.CurrentTeam.Other(), false)))
			return err
		}, ErrNotYourTurn},
		{"restart mid game", playing, func(t *testing.T, m *Manager, s *Session) error {
			_, err := m.Restart(handleOf("ann"))
			return err
		}, ErrNotEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t, 3)
			tt.setup(t, m)

			before, err := m.Snapshot("abcd")
			require.NoError(t, err)

			err = tt.op(t, m, before)
			require.ErrorIs(t, err, tt.want)

			after, err := m.Snapshot("abcd")
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestDisconnectAndReconnect(t *testing.T) {
	m, _ := newTestManager(t, 1)
	seatRoom(t, m, "abcd", 4, "ann", "bob")

	s := m.Disconnect(handleOf("bob"))
	require.NotNil(t, s)
	bob := playerNamed(s, "bob")
	assert.False(t, bob.IsOnline)
	assert.Equal(t, 1, *bob.SeatIndex)

	assert.Nil(t, m.Disconnect(handleOf("bob")))
	_, ok := m.Registry().ResolveByHandle(handleOf("bob"))
	assert.False(t, ok)

	_, err := m.LeaveSeat(handleOf("bob"))
	assert.ErrorIs(t, err, ErrNotInRoom)

	res, err := m.Reconnect(identityOf("bob"), "conn-bob-2")
	require.NoError(t, err)
	assert.True(t, res.Rejoined)
	assert.True(t, res.Player.IsOnline)
	assert.Equal(t, bob.ID, res.Player.ID)
	assert.Equal(t, 1, *res.Player.SeatIndex)
	assert.Equal(t, "abcd", res.Session.RoomID)

	_, err = m.LeaveSeat("conn-bob-2")
	assert.NoError(t, err)
}

func TestReconnect_UnknownIdentity(t *testing.T) {
	m, _ := newTestManager(t, 1)

	_, err := m.Reconnect("id-ghost", "conn-ghost")
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	_, err = m.Reconnect("", "conn-ghost")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestReconnect_MidGameKeepsRole(t *testing.T) {
	m, _ := newTestManager(t, 1)
	startRoom(t, m, "abcd", 2, "ann", "bob")

	require.NotNil(t, m.Disconnect(handleOf("bob")))
	res, err := m.Reconnect(identityOf("bob"), "conn-bob-2")
	require.NoError(t, err)
	assert.Equal(t, Red, res.Player.Team)

	_, _, err = m.EndTurn("conn-bob-2")
	assert.NoError(t, err)
}

func TestLeave_HostTransfer(t *testing.T) {
	m, _ := newTestManager(t, 1)
	for _, name := range []string{"ann", "bob", "cat"} {
		_, err := m.Join("abcd", handleOf(name), name, identityOf(name))
		require.NoError(t, err)
	}
	require.NotNil(t, m.Disconnect(handleOf("bob")))

	res, err := m.Leave(handleOf("ann"))
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, "abcd", res.RoomID)

	assert.False(t, playerNamed(res.Session, "bob").IsHost)
	assert.True(t, playerNamed(res.Session, "cat").IsHost)
	assert.Nil(t, playerNamed(res.Session, "ann"))

	_, ok := m.Registry().ResolveByIdentity(identityOf("ann"))
	assert.False(t, ok)
}

func TestLeave_HostFallsBackToOffline(t *testing.T) {
	m, _ := newTestManager(t, 1)
	for _, name := range []string{"ann", "bob"} {
		_, err := m.Join("abcd", handleOf(name), name, identityOf(name))
		require.NoError(t, err)
	}
	require.NotNil(t, m.Disconnect(handleOf("bob")))

	res, err := m.Leave(handleOf("ann"))
	require.NoError(t, err)
	assert.True(t, playerNamed(res.Session, "bob").IsHost)
}

func TestLeave_LastPlayerDeletesRoom(t *testing.T) {
	m, _ := newTestManager(t, 1)
	_, err := m.Join("abcd", handleOf("ann"), "ann", identityOf("ann"))
	require.NoError(t, err)

	res, err := m.Leave(handleOf("ann"))
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Nil(t, res.Session)
	assert.False(t, m.Registry().Exists("abcd"))

	_, err = m.Info("abcd")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = m.Leave(handleOf("ann"))
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestRename(t *testing.T) {
	m, _ := newTestManager(t, 1)
	for _, name := range []string{"ann", "bob"} {
		_, err := m.Join("abcd", handleOf(name), name, identityOf(name))
		require.NoError(t, err)
	}

	_, err := m.Rename(handleOf("ann"), "")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = m.Rename(handleOf("ann"), "annabel")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = m.Rename(handleOf("ann"), "bob")
	assert.ErrorIs(t, err, ErrNameTaken)

	s, err := m.Rename(handleOf("ann"), " ánn ")
	require.NoError(t, err)
	assert.NotNil(t, playerNamed(s, "ánn"))

	s, err = m.Rename(handleOf("ann"), "ánn")
	require.NoError(t, err, "keeping one's own name is allowed")
	assert.Len(t, s.Players, 2)
}

func TestSeats(t *testing.T) {
	m, _ := newTestManager(t, 1)
	for _, name := range []string{"ann", "bob", "cat"} {
		_, err := m.Join("abcd", handleOf(name), name, identityOf(name))
		require.NoError(t, err)
	}

	_, err := m.TakeSeat(handleOf("ann"), 4)
	assert.ErrorIs(t, err, ErrInvalidSeat)
	_, err = m.TakeSeat(handleOf("ann"), -1)
	assert.ErrorIs(t, err, ErrInvalidSeat)

	_, err = m.TakeSeat(handleOf("ann"), 0)
	require.NoError(t, err)
	_, err = m.TakeSeat(handleOf("bob"), 0)
	assert.ErrorIs(t, err, ErrSeatTaken)
	_, err = m.TakeSeat(handleOf("ann"), 0)
	assert.ErrorIs(t, err, ErrSeatTaken)

	s, err := m.TakeSeat(handleOf("ann"), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, *playerNamed(s, "ann").SeatIndex)
	assert.Nil(t, s.playerAtSeat(0))

	_, err = m.SwitchSeat(handleOf("cat"), 1)
	assert.ErrorIs(t, err, ErrNotSeated)

	_, err = m.TakeSeat(handleOf("bob"), 1)
	require.NoError(t, err)
	s, err = m.SwitchSeat(handleOf("ann"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, *playerNamed(s, "ann").SeatIndex)
	assert.Equal(t, 3, *playerNamed(s, "bob").SeatIndex)

	s, err = m.SwitchSeat(handleOf("ann"), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, *playerNamed(s, "ann").SeatIndex)

	s, err = m.LeaveSeat(handleOf("ann"))
	require.NoError(t, err)
	assert.False(t, playerNamed(s, "ann").Seated())
}

func TestTakeSeat_Concurrent(t *testing.T) {
	m, _ := newTestManager(t, 1)
	names := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8"}
	for _, name := range names {
		_, err := m.Join("abcd", handleOf(name), name, identityOf(name))
		require.NoError(t, err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []string
	)
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.TakeSeat(handleOf(name), 0); err == nil {
				mu.Lock()
				wins = append(wins, name)
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrSeatTaken)
			}
		}()
	}
	wg.Wait()

	require.Len(t, wins, 1)
	s, err := m.Snapshot("abcd")
	require.NoError(t, err)
	assert.Equal(t, wins[0], s.playerAtSeat(0).Name)
}

func TestUpdateMaxPlayers(t *testing.T) {
	m, _ := newTestManager(t, 1)
	seatRoom(t, m, "abcd", 6, "ann", "bob")
	_, err := m.SwitchSeat(handleOf("bob"), 5)
	require.NoError(t, err)

	_, err = m.UpdateMaxPlayers(handleOf("bob"), 3)
	assert.ErrorIs(t, err, ErrNotHost)
	_, err = m.UpdateMaxPlayers(handleOf("ann"), 1)
	assert.ErrorIs(t, err, ErrInvalidPlayerCap)
	_, err = m.UpdateMaxPlayers(handleOf("ann"), 9)
	assert.ErrorIs(t, err, ErrInvalidPlayerCap)

	s, err := m.UpdateMaxPlayers(handleOf("ann"), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.MaxPlayers)
	assert.Equal(t, 0, *playerNamed(s, "ann").SeatIndex)
	assert.Equal(t, 1, *playerNamed(s, "bob").SeatIndex)

	_, err = m.Join("abcd", handleOf("cat"), "cat", identityOf("cat"))
	require.NoError(t, err)
	_, err = m.TakeSeat(handleOf("cat"), 2)
	require.NoError(t, err)

	_, err = m.UpdateMaxPlayers(handleOf("ann"), 2)
	assert.ErrorIs(t, err, ErrTooManySeated)
}

func TestSetWords(t *testing.T) {
	m, _ := newTestManager(t, 1)
	seatRoom(t, m, "abcd", 4, "ann", "bob")

	words := make([]string, 0, GridSize)
	for i := range GridSize {
		words = append(words, fmt.Sprintf("w%02d", i))
	}

	_, err := m.SetWords(handleOf("bob"), words, "")
	assert.ErrorIs(t, err, ErrNotHost)
	_, err = m.SetWords(handleOf("ann"), words[:GridSize-1], "")
	assert.ErrorIs(t, err, ErrNotEnoughWords)
	_, err = m.SetWords(handleOf("ann"), append(words[:GridSize-1:GridSize-1], words[0]), "")
	assert.ErrorIs(t, err, ErrNotEnoughWords)
	_, err = m.SetWords(handleOf("ann"), append(words[:GridSize:GridSize], "averyverylongword"), "")
	assert.ErrorIs(t, err, ErrInvalidWord)

	s, err := m.SetWords(handleOf("ann"), words, " digits ")
	require.NoError(t, err)
	assert.Equal(t, words, s.CustomWords)
	assert.Equal(t, "digits", s.WordTheme)

	s, err = m.SetWords(handleOf("ann"), nil, "ignored")
	require.NoError(t, err)
	assert.Nil(t, s.CustomWords)
	assert.Empty(t, s.WordTheme)
}

func TestGenerateWords(t *testing.T) {
	words := make([]string, 0, 30)
	for i := range 30 {
		words = append(words, fmt.Sprintf("sea%02d", i))
	}

	t.Run("disabled", func(t *testing.T) {
		m, _ := newTestManager(t, 1)
		_, err := m.GenerateWords(context.Background(), handleOf("ann"), "ocean")
		assert.ErrorIs(t, err, ErrThemeDisabled)
		assert.Equal(t, KindUnavailable, KindOf(err))
	})

	newManager := func(t *testing.T, gen ThemeGenerator) *Manager {
		m := NewManager(Options{Theme: gen})
		seatRoom(t, m, "abcd", 4, "ann", "bob")
		return m
	}

	t.Run("installs words", func(t *testing.T) {
		gen := &fakeTheme{words: words}
		m := newManager(t, gen)

		s, err := m.GenerateWords(context.Background(), handleOf("ann"), " ocean ")
		require.NoError(t, err)
		assert.Equal(t, words[:GridSize], s.CustomWords)
		assert.Equal(t, "ocean", s.WordTheme)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("rejects before calling out", func(t *testing.T) {
		gen := &fakeTheme{words: words}
		m := newManager(t, gen)

		_, err := m.GenerateWords(context.Background(), handleOf("ann"), "  ")
		assert.ErrorIs(t, err, ErrEmptyTheme)
		_, err = m.GenerateWords(context.Background(), handleOf("ann"), "Nazi Germany")
		assert.ErrorIs(t, err, ErrUnsafeTheme)
		_, err = m.GenerateWords(context.Background(), handleOf("bob"), "ocean")
		assert.ErrorIs(t, err, ErrNotHost)
		assert.Zero(t, gen.calls)
	})

	t.Run("generator failure", func(t *testing.T) {
		cause := errors.New("upstream down")
		m := newManager(t, &fakeTheme{err: cause})

		_, err := m.GenerateWords(context.Background(), handleOf("ann"), "ocean")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, KindUnavailable, KindOf(err))

		s, err := m.Snapshot("abcd")
		require.NoError(t, err)
		assert.Nil(t, s.CustomWords)
	})

	t.Run("too few words", func(t *testing.T) {
		m := newManager(t, &fakeTheme{words: words[:10]})

		_, err := m.GenerateWords(context.Background(), handleOf("ann"), "ocean")
		assert.Equal(t, KindUnavailable, KindOf(err))
	})
}

func TestInfo(t *testing.T) {
	m, _ := newTestManager(t, 1)
	seatRoom(t, m, "abcd", 5, "ann", "bob")

	info, err := m.Info("abcd")
	require.NoError(t, err)
	assert.Equal(t, RoomInfo{RoomID: "abcd", Phase: PhaseWaiting, PlayerCount: 2, MaxPlayers: 5}, info)

	_, err = m.Info("zzzz")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestNewRoomID(t *testing.T) {
	m, _ := newTestManager(t, 1)
	for range 50 {
		id := m.NewRoomID()
		assert.True(t, ValidRoomID(id), id)
		assert.False(t, m.Registry().Exists(id))
	}
}
