// Package registry tracks live room membership entirely in memory. It is the
// authority on who is currently present in which room. A single Registry is
// constructed at process start and shared by every connection handler; it
// deliberately knows nothing about transports or persistence and announces
// membership changes through an injected Broadcaster.
//
// Ordering is significant: members are kept in join order, and the host after
// a departure is derived from that order (last remaining entry), never stored.
package registry

import "sync"

// Broadcaster delivers a named event with a JSON-serializable payload to
// every connection currently subscribed to a room. Delivery is best-effort;
// implementations must not block the caller on slow receivers.
type Broadcaster interface {
	Publish(roomCode, event string, payload any)
}

// Events emitted by the registry.
const (
	EventMemberUpdate  = "member_update"
	EventHostChanged   = "host_changed"
	EventForceLeaveAll = "force_leave_all"
)

// Roster is a consistent snapshot of a room's membership.
type Roster struct {
	Count   int      `json:"count"`
	Members []string `json:"members"`
}

// HostChange names the member promoted to host after a departure.
type HostChange struct {
	NewHost string `json:"new_host"`
}

// roomEntry holds one room's member list. Each entry carries its own mutex so
// unrelated rooms never contend; pruned marks entries that have been removed
// from the map and must not be mutated further.
type roomEntry struct {
	mu      sync.Mutex
	members []string
	pruned  bool
}

// Registry is the process-wide membership tracker. The map mutex guards only
// map lookups and insertions; list mutations are serialized per room by the
// entry mutex, and no lock is ever held across a broadcast.
type Registry struct {
	bc Broadcaster

	mu    sync.Mutex
	rooms map[string]*roomEntry
}

// New constructs a Registry that announces membership changes through bc.
func New(bc Broadcaster) *Registry {
	if bc == nil {
		panic("registry: Broadcaster must not be nil")
	}
	return &Registry{
		bc:    bc,
		rooms: make(map[string]*roomEntry),
	}
}

// entry returns the room's entry, creating it lazily. Join is optimistic: an
// entry may exist for a code that was never validated against the store.
func (r *Registry) entry(code string) *roomEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[code]
	if !ok {
		e = &roomEntry{}
		r.rooms[code] = e
	}
	return e
}

// lookup returns the room's entry or nil without creating one.
func (r *Registry) lookup(code string) *roomEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[code]
}

// prune removes e from the map if it is still the current entry for code.
func (r *Registry) prune(code string, e *roomEntry) {
	r.mu.Lock()
	if r.rooms[code] == e {
		delete(r.rooms, code)
	}
	r.mu.Unlock()
}

// Join appends guestName to the room's member list, creating the list if
// absent. Duplicate names are permitted and tracked as separate entries.
// It returns the updated roster and broadcasts a member_update to the room.
func (r *Registry) Join(roomCode, guestName string) Roster {
	var roster Roster
	for {
		e := r.entry(roomCode)
		e.mu.Lock()
		if e.pruned {
			// Entry was emptied and removed between lookup and lock; retry
			// against a fresh entry.
			e.mu.Unlock()
			continue
		}
		e.members = append(e.members, guestName)
		roster = snapshot(e.members)
		e.mu.Unlock()
		break
	}
	r.bc.Publish(roomCode, EventMemberUpdate, roster)
	return roster
}

// Leave removes the first occurrence of guestName from the room's list; it is
// a no-op if the room or the name is absent. When members remain, the last
// entry in join order is promoted to host and a host_changed event precedes
// the member_update. When the room becomes empty its entry is pruned and the
// final member_update reports an empty roster.
func (r *Registry) Leave(roomCode, guestName string) Roster {
	e := r.lookup(roomCode)
	if e == nil {
		return Roster{Members: []string{}}
	}

	e.mu.Lock()
	if e.pruned {
		e.mu.Unlock()
		return Roster{Members: []string{}}
	}
	idx := -1
	for i, m := range e.members {
		if m == guestName {
			idx = i
			break
		}
	}
	if idx < 0 {
		roster := snapshot(e.members)
		e.mu.Unlock()
		return roster
	}
	e.members = append(e.members[:idx], e.members[idx+1:]...)
	roster := snapshot(e.members)
	empty := len(e.members) == 0
	if empty {
		e.pruned = true
	}
	e.mu.Unlock()

	if empty {
		r.prune(roomCode, e)
	} else {
		// Host is derived state: the most recently joined remaining member.
		r.bc.Publish(roomCode, EventHostChanged, HostChange{NewHost: roster.Members[len(roster.Members)-1]})
	}
	r.bc.Publish(roomCode, EventMemberUpdate, roster)
	return roster
}

// ForceLeaveAll deletes the room's entire membership entry and broadcasts a
// force_leave_all event with no payload. Used when a host ends the session
// for everyone; the durable store is untouched.
func (r *Registry) ForceLeaveAll(roomCode string) {
	r.mu.Lock()
	e := r.rooms[roomCode]
	delete(r.rooms, roomCode)
	r.mu.Unlock()

	if e != nil {
		e.mu.Lock()
		e.pruned = true
		e.mu.Unlock()
	}
	r.bc.Publish(roomCode, EventForceLeaveAll, struct{}{})
}

// Roster returns a snapshot of the room's current membership without
// mutating it. An unknown room yields an empty roster.
func (r *Registry) Roster(roomCode string) Roster {
	e := r.lookup(roomCode)
	if e == nil {
		return Roster{Members: []string{}}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.members)
}

// snapshot copies the member list so callers never observe a partial
// mutation. Must be called with the entry mutex held.
func snapshot(members []string) Roster {
	out := make([]string, len(members))
	copy(out, members)
	return Roster{Count: len(out), Members: out}
}
