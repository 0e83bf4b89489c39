package codenames

import (
	"context"
	"slices"
	"strings"
)

// JoinResult is returned by Join and Reconnect.
type JoinResult struct {
	Player   *Player
	Session  *Session
	Rejoined bool

	// Left lists the rooms the caller was moved out of by this join.
	Left []string
}

// LeaveResult describes a completed leave. Session is nil when the room was
// deleted because it became empty.
type LeaveResult struct {
	RoomID   string
	PlayerID string
	Session  *Session
	Deleted  bool
}

var ErrInvalidRoomID = newError(KindValidation, "invalid room id")

// Join adds a connection to a room, creating the room on first reference.
// A player whose identity key is already in the room is re-attached instead of
// duplicated. Outside the waiting phase newcomers join as spectators.
//
// A connection or identity lives in one room at a time. The caller is removed
// from any previous room only once the join has been committed, so a rejected
// join leaves every room as it was.
func (m *Manager) Join(roomID, handle, name, identityKey string) (*JoinResult, error) {
	roomID = strings.ToLower(strings.TrimSpace(roomID))
	if !ValidRoomID(roomID) {
		return nil, ErrInvalidRoomID
	}
	if handle == "" {
		return nil, ErrNotInRoom
	}
	name = normalizeName(name)
	if !validName(name) {
		return nil, ErrInvalidName
	}

	if identityKey != "" {
		release := m.identities.Lock(identityKey)
		defer release()
	}

	// resolved before the commit, which repoints both indices at roomID
	prevByHandle, _ := m.rooms.ResolveByHandle(handle)
	prevByIdentity := ""
	if identityKey != "" {
		prevByIdentity, _ = m.rooms.ResolveByIdentity(identityKey)
	}

	res, err := m.joinRoom(roomID, handle, name, identityKey)
	if err != nil {
		return nil, err
	}

	if prevByHandle != "" && prevByHandle != roomID {
		if m.evict(prevByHandle, func(p *Player) bool { return p.ConnectionHandle == handle }) {
			res.Left = append(res.Left, prevByHandle)
		}
	}
	if prevByIdentity != "" && prevByIdentity != roomID {
		if m.evict(prevByIdentity, func(p *Player) bool { return p.IdentityKey == identityKey }) {
			res.Left = append(res.Left, prevByIdentity)
		}
	}

	return res, nil
}

// joinRoom validates and commits a join against the target room only.
func (m *Manager) joinRoom(roomID, handle, name, identityKey string) (*JoinResult, error) {
	var room *Room
	for {
		room = m.rooms.GetOrCreate(roomID)
		room.mu.Lock()
		if !room.closed {
			break
		}
		room.mu.Unlock()
	}
	defer room.mu.Unlock()

	s := room.session

	if p := s.playerByHandle(handle); p != nil && p.IsOnline {
		return &JoinResult{Player: clonePlayer(p), Session: s.Clone(), Rejoined: true}, nil
	}

	if p := s.playerByIdentity(identityKey); p != nil {
		p.ConnectionHandle = handle
		p.IsOnline = true
		if name != p.Name && !s.onlineNameTaken(name, p) {
			p.Name = name
		}
		m.rooms.reindex(room)
		m.logf("GAMES: Player %q rejoined %s", p.Name, roomID)
		return &JoinResult{Player: clonePlayer(p), Session: s.Clone(), Rejoined: true}, nil
	}

	if s.Phase == PhaseWaiting && s.onlineNameTaken(name, nil) {
		return nil, ErrNameTaken
	}

	p := &Player{
		ID:               newPlayerID(),
		IdentityKey:      identityKey,
		ConnectionHandle: handle,
		Name:             name,
		IsHost:           len(s.Players) == 0,
		IsOnline:         true,
	}
	s.Players = append(s.Players, p)
	m.rooms.reindex(room)

	if s.Phase == PhaseWaiting {
		m.logf("GAMES: Player %q joined %s", name, roomID)
	} else {
		m.logf("GAMES: Player %q is spectating %s", name, roomID)
	}

	return &JoinResult{Player: clonePlayer(p), Session: s.Clone()}, nil
}

// Reconnect re-attaches a new connection to the player holding identityKey,
// wherever that player is. It does not need a room id.
func (m *Manager) Reconnect(identityKey, handle string) (*JoinResult, error) {
	if identityKey == "" || handle == "" {
		return nil, ErrIdentityNotFound
	}

	release := m.identities.Lock(identityKey)
	defer release()

	roomID, ok := m.rooms.ResolveByIdentity(identityKey)
	if !ok {
		return nil, ErrIdentityNotFound
	}
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return nil, ErrIdentityNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return nil, ErrIdentityNotFound
	}
	p := room.session.playerByIdentity(identityKey)
	if p == nil {
		return nil, ErrIdentityNotFound
	}

	p.ConnectionHandle = handle
	p.IsOnline = true
	m.rooms.reindex(room)

	m.logf("GAMES: Player %q reconnected to %s", p.Name, roomID)

	return &JoinResult{Player: clonePlayer(p), Session: room.session.Clone(), Rejoined: true}, nil
}

// Disconnect marks the handle's player offline. The player keeps their record
// and seat so a later Reconnect can resume. It returns the updated session, or
// nil when the handle was not in a room.
func (m *Manager) Disconnect(handle string) *Session {
	s, err := m.withPlayer(handle, func(s *Session, p *Player) error {
		p.IsOnline = false
		p.ConnectionHandle = ""
		m.logf("GAMES: Player %q disconnected from %s", p.Name, s.RoomID)
		return nil
	})
	if err != nil {
		return nil
	}
	return s
}

// Leave removes the handle's player from their room. Host passes to the first
// remaining online player, or failing that the first remaining player. An
// emptied room is deleted.
func (m *Manager) Leave(handle string) (*LeaveResult, error) {
	room, p, unlock, err := m.lockPlayer(handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res := &LeaveResult{RoomID: room.id, PlayerID: p.ID}
	if m.removePlayer(room, p) {
		res.Deleted = true
		return res, nil
	}
	res.Session = room.session.Clone()
	return res, nil
}

// evict removes the first player matching match from roomID and reports
// whether anyone was removed.
func (m *Manager) evict(roomID string, match func(*Player) bool) bool {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return false
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return false
	}
	i := slices.IndexFunc(room.session.Players, match)
	if i < 0 {
		return false
	}
	m.removePlayer(room, room.session.Players[i])
	return true
}

// removePlayer deletes p from the room, reassigning host if needed, and
// reports whether the room was deleted. Must be called with the room lock held.
func (m *Manager) removePlayer(room *Room, p *Player) bool {
	s := room.session
	s.Players = slices.DeleteFunc(s.Players, func(q *Player) bool {
		return q == p
	})

	m.logf("GAMES: Player %q left %s", p.Name, room.id)

	if len(s.Players) == 0 {
		m.rooms.remove(room)
		m.logf("GAMES: Deleted empty room %s", room.id)
		return true
	}

	if p.IsHost {
		next := s.Players[0]
		for _, q := range s.Players {
			if q.IsOnline {
				next = q
				break
			}
		}
		next.IsHost = true
	}

	m.rooms.reindex(room)
	return false
}

// Rename changes the handle's player name.
func (m *Manager) Rename(handle, newName string) (*Session, error) {
	name := normalizeName(newName)
	if !validName(name) {
		return nil, ErrInvalidName
	}

	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if s.onlineNameTaken(name, p) {
			return ErrNameTaken
		}
		p.Name = name
		return nil
	})
}

// TakeSeat seats the player at an empty seat, moving them if already seated.
func (m *Manager) TakeSeat(handle string, seatIndex int) (*Session, error) {
	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if s.Phase != PhaseWaiting {
			return ErrWrongPhase
		}
		if seatIndex < 0 || seatIndex >= s.MaxPlayers {
			return ErrInvalidSeat
		}
		if s.playerAtSeat(seatIndex) != nil {
			return ErrSeatTaken
		}
		p.SeatIndex = seat(seatIndex)
		return nil
	})
}

// LeaveSeat turns the player into a spectator.
func (m *Manager) LeaveSeat(handle string) (*Session, error) {
	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if s.Phase != PhaseWaiting {
			return ErrWrongPhase
		}
		p.SeatIndex = nil
		return nil
	})
}

// SwitchSeat moves a seated player to another seat, swapping with its
// occupant if there is one.
func (m *Manager) SwitchSeat(handle string, seatIndex int) (*Session, error) {
	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if s.Phase != PhaseWaiting {
			return ErrWrongPhase
		}
		if seatIndex < 0 || seatIndex >= s.MaxPlayers {
			return ErrInvalidSeat
		}
		if !p.Seated() {
			return ErrNotSeated
		}
		if occupant := s.playerAtSeat(seatIndex); occupant != nil && occupant != p {
			occupant.SeatIndex = seat(*p.SeatIndex)
		}
		p.SeatIndex = seat(seatIndex)
		return nil
	})
}

// UpdateMaxPlayers changes the number of seats. Players sitting beyond the
// new limit are moved to the lowest free seats.
func (m *Manager) UpdateMaxPlayers(handle string, n int) (*Session, error) {
	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if s.Phase != PhaseWaiting {
			return ErrWrongPhase
		}
		if n < MinPlayers || n > MaxPlayers {
			return ErrInvalidPlayerCap
		}
		seated := s.seatedPlayers()
		if len(seated) > n {
			return ErrTooManySeated
		}

		s.MaxPlayers = n
		for _, q := range seated {
			if *q.SeatIndex < n {
				continue
			}
			for i := 0; i < n; i++ {
				if s.playerAtSeat(i) == nil {
					q.SeatIndex = seat(i)
					break
				}
			}
		}
		return nil
	})
}

// SetWords replaces the room's word list, or restores the default list when
// words is nil.
func (m *Manager) SetWords(handle string, words []string, theme string) (*Session, error) {
	var custom []string
	if words != nil {
		var err error
		custom, err = normalizeCustomWords(words)
		if err != nil {
			return nil, err
		}
	}

	return m.withPlayer(handle, func(s *Session, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if s.Phase != PhaseWaiting {
			return ErrWrongPhase
		}
		s.CustomWords = custom
		s.WordTheme = ""
		if custom != nil {
			s.WordTheme = strings.TrimSpace(theme)
		}
		return nil
	})
}

// GenerateWords asks the theme generator for a word list and installs it.
// The room is not locked while the generator runs; the result is only
// committed if the caller is still host of a waiting room.
func (m *Manager) GenerateWords(ctx context.Context, handle, theme string) (*Session, error) {
	if m.theme == nil {
		return nil, ErrThemeDisabled
	}
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, ErrEmptyTheme
	}
	if containsSensitiveContent(theme) {
		return nil, ErrUnsafeTheme
	}

	var playerID, roomID string
	_, err := m.withPlayer(handle, func(s *Session, p *Player) error {
		if !p.IsHost {
			return ErrNotHost
		}
		if s.Phase != PhaseWaiting {
			return ErrWrongPhase
		}
		playerID, roomID = p.ID, s.RoomID
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logf("GAMES: Generating words for %s with theme %q", roomID, theme)

	generated, err := m.theme.Generate(ctx, theme, GridSize)
	if err != nil {
		return nil, wrapError(KindUnavailable, "word generation failed, please try again", err)
	}
	words := filterGeneratedWords(generated)
	if len(words) < GridSize {
		return nil, newError(KindUnavailable, "not enough words were generated for that theme, please try another")
	}

	room, ok := m.rooms.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return nil, ErrRoomNotFound
	}
	s := room.session
	p := s.playerByID(playerID)
	if p == nil {
		return nil, ErrNotInRoom
	}
	if !p.IsHost {
		return nil, ErrNotHost
	}
	if s.Phase != PhaseWaiting {
		return nil, ErrWrongPhase
	}

	s.CustomWords = words[:GridSize]
	s.WordTheme = theme
	return s.Clone(), nil
}

func clonePlayer(p *Player) *Player {
	c := *p
	if p.SeatIndex != nil {
		c.SeatIndex = seat(*p.SeatIndex)
	}
	return &c
}
