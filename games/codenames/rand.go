package codenames

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source is the randomness used for decks, first movers, auto-reveals and
// room ids. Implementations must be safe for concurrent use.
type Source interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource wraps r for concurrent use.
func NewSource(r *rand.Rand) Source {
	return &lockedSource{r: r}
}

// NewSeededSource returns a Source seeded from crypto/rand.
func NewSeededSource() Source {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return NewSource(rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(b[:8]),
		binary.LittleEndian.Uint64(b[8:]),
	)))
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}

const roomIDChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// RoomIDLength is the length of generated room ids.
const RoomIDLength = 4

func randomRoomID(src Source) string {
	out := make([]byte, RoomIDLength)
	for i := range out {
		out[i] = roomIDChars[src.IntN(len(roomIDChars))]
	}
	return string(out)
}

// ValidRoomID reports whether id has the shape of a generated room id.
func ValidRoomID(id string) bool {
	if len(id) != RoomIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
