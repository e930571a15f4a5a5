package registry

import (
	"sync"

	"github.com/samber/lo"
)

// Registry tracks which connections belong to which rooms. It holds only
// registry keys (room name, connection ID) — rooms have no existence apart
// from their members and are garbage-collected when membership hits zero.
//
// The registry is mutated by the gateway and read by the router; a single
// RWMutex over the whole registry is enough at workspace scale.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room -> set of connection IDs
	conns map[string]map[string]struct{} // connection ID -> set of rooms
}

// New creates an empty registry. The registry is an explicit service with an
// injected lifecycle, never a package-level singleton.
func New() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]struct{}),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join adds a connection to a room, creating the room on first join.
// Joining twice is a no-op, not an error.
func (r *Registry) Join(room, connID string) {
	if room == "" || connID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]struct{})
	}
	r.rooms[room][connID] = struct{}{}

	if r.conns[connID] == nil {
		r.conns[connID] = make(map[string]struct{})
	}
	r.conns[connID][room] = struct{}{}
}

// Leave removes a connection from a room. Leaving a room the connection is
// not in is a no-op. Empty rooms are deleted so the maps never leak keys.
func (r *Registry) Leave(room, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(room, connID)
}

func (r *Registry) leaveLocked(room, connID string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.conns[connID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.conns, connID)
		}
	}
}

// Members returns the connection IDs currently in a room.
func (r *Registry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.rooms[room])
}

// Rooms returns the rooms a connection currently belongs to.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.conns[connID])
}

// Contains reports whether a connection is in a room.
func (r *Registry) Contains(room, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[room][connID]
	return ok
}

// Remove drops a connection from every room it belongs to in one atomic
// step: no concurrent Members call can observe the connection in some rooms
// but not others. Returns the rooms the connection was removed from.
func (r *Registry) Remove(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := lo.Keys(r.conns[connID])
	for _, room := range rooms {
		r.leaveLocked(room, connID)
	}
	return rooms
}

// Clear empties the registry. Called on shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms = make(map[string]map[string]struct{})
	r.conns = make(map[string]map[string]struct{})
}

// Stats returns registry counters for the health endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"rooms":       len(r.rooms),
		"connections": len(r.conns),
	}
}
