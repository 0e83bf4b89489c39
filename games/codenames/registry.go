package codenames

import (
	"context"
	"sync"
	"time"
)

// Room owns one session. All reads and writes of the session happen with mu
// held, so operations on a room are applied one at a time in arrival order.
type Room struct {
	mu      sync.Mutex
	session *Session
	closed  bool

	id        string
	createdAt time.Time
}

func (r *Room) ID() string {
	return r.id
}

// Snapshot returns a deep copy of the room's current session.
func (r *Room) Snapshot() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Clone()
}

type roomKeys struct {
	handles    []string
	identities []string
}

// Registry holds every live room plus two derived lookup tables:
// connection handle -> room and identity key -> room. The tables are caches
// rebuilt from a room's player list after each membership change; the player
// list is the source of truth.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	handles    map[string]string
	identities map[string]string
	indexed    map[string]roomKeys

	now func() time.Time
}

func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		handles:    make(map[string]string),
		identities: make(map[string]string),
		indexed:    make(map[string]roomKeys),
		now:        now,
	}
}

// GetOrCreate returns the room with the given id, creating it if needed.
func (reg *Registry) GetOrCreate(roomID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, ok := reg.rooms[roomID]; ok {
		return room
	}

	now := reg.now()
	room := &Room{
		id:        roomID,
		createdAt: now,
		session:   newSession(roomID, now),
	}
	reg.rooms[roomID] = room
	return room
}

func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[roomID]
	return room, ok
}

// Exists reports whether a room id is in use.
func (reg *Registry) Exists(roomID string) bool {
	_, ok := reg.Get(roomID)
	return ok
}

// Delete removes a room and every index entry that points at it.
func (reg *Registry) Delete(roomID string) {
	room, ok := reg.Get(roomID)
	if !ok {
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	reg.remove(room)
}

// remove deletes room if it is still registered. Must be called with the
// room's lock held.
func (reg *Registry) remove(room *Room) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.rooms[room.id] != room {
		return false
	}
	delete(reg.rooms, room.id)
	reg.dropKeysLocked(room.id)
	room.closed = true
	return true
}

// ResolveByIdentity returns the room id an identity key is currently in.
func (reg *Registry) ResolveByIdentity(identityKey string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	id, ok := reg.identities[identityKey]
	return id, ok
}

// ResolveByHandle returns the room id a live connection handle is in.
func (reg *Registry) ResolveByHandle(handle string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	id, ok := reg.handles[handle]
	return id, ok
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// reindex rebuilds the index entries of one room from its player list.
// Offline players keep their identity entry but have no handle entry.
// Must be called with the room's lock held.
func (reg *Registry) reindex(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room.closed {
		return
	}

	reg.dropKeysLocked(room.id)

	var keys roomKeys
	for _, p := range room.session.Players {
		if p.IdentityKey != "" {
			reg.identities[p.IdentityKey] = room.id
			keys.identities = append(keys.identities, p.IdentityKey)
		}
		if p.IsOnline && p.ConnectionHandle != "" {
			reg.handles[p.ConnectionHandle] = room.id
			keys.handles = append(keys.handles, p.ConnectionHandle)
		}
	}
	reg.indexed[room.id] = keys
}

func (reg *Registry) dropKeysLocked(roomID string) {
	keys := reg.indexed[roomID]
	for _, h := range keys.handles {
		if reg.handles[h] == roomID {
			delete(reg.handles, h)
		}
	}
	for _, k := range keys.identities {
		if reg.identities[k] == roomID {
			delete(reg.identities, k)
		}
	}
	delete(reg.indexed, roomID)
}

// Sweep deletes every room older than lifetime, whatever its phase, and
// returns the ids it removed.
func (reg *Registry) Sweep(lifetime time.Duration) []string {
	cutoff := reg.now().Add(-lifetime)

	reg.mu.Lock()
	var expired []*Room
	for _, room := range reg.rooms {
		if room.createdAt.Before(cutoff) {
			expired = append(expired, room)
		}
	}
	reg.mu.Unlock()

	removed := make([]string, 0, len(expired))
	for _, room := range expired {
		room.mu.Lock()
		if reg.remove(room) {
			removed = append(removed, room.id)
		}
		room.mu.Unlock()
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (reg *Registry) RunSweeper(ctx context.Context, interval, lifetime time.Duration, onSweep func([]string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := reg.Sweep(lifetime)
			if onSweep != nil && len(removed) > 0 {
				onSweep(removed)
			}
		}
	}
}
