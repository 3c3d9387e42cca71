package game

import (
	"math/rand"
	"strings"
	"sync"
)

// Alphabet without easily-confused characters, codes are read out loud
// or typed from another screen.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Registry owns the mapping from room code to room. The registry lock
// only guards the map; each room serializes its own mutations.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create allocates a fresh code and a room led by the given player. A
// generated code that is already taken is retried, never overwritten.
func (reg *Registry) Create(mode Mode, leader Player) (string, *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code := randomCode(codeLength)
	for reg.rooms[code] != nil {
		code = randomCode(codeLength)
	}
	room := newRoom(code, mode, leader)
	reg.rooms[code] = room
	return code, room
}

func (reg *Registry) Get(code string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room := reg.rooms[strings.ToUpper(code)]
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Departure is one room a disconnected player was removed from.
type Departure struct {
	RoomID   string
	PlayerID string
	Room     RoomView
	Emptied  bool
}

// DropConnection removes the player behind a closed connection from
// every room holding it. A connection belongs to one room in practice,
// but the scan is deliberately exhaustive. Rooms left empty are deleted
// on the spot.
func (reg *Registry) DropConnection(connID string) []Departure {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var out []Departure
	for code, room := range reg.rooms {
		removed, empty, view := room.dropPlayer(connID)
		if !removed {
			continue
		}
		if empty {
			delete(reg.rooms, code)
		}
		out = append(out, Departure{
			RoomID:   code,
			PlayerID: connID,
			Room:     view,
			Emptied:  empty,
		})
	}
	return out
}

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
