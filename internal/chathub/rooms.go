package chathub

import "slices"

type room struct {
	members []string
	// clients is the broadcast group; the value is the name the client joined with.
	clients map[Client]string
}

// RoomRegistry tracks pair-programming rooms: the broadcast group of each room
// and the ordered list of display names shown as "who's here".
// Like PresenceRegistry it is owned by the ManagerService loop.
type RoomRegistry struct {
	rooms  map[string]*room
	joined map[Client]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]*room),
		joined: make(map[Client]map[string]struct{}),
	}
}

// Join adds c to the room's broadcast group and name to its member list
// (no duplicates, first-join order kept). An empty name joins the group
// without appearing in the list. Returns the updated member list.
func (r *RoomRegistry) Join(roomID, name string, c Client) []string {
	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{clients: make(map[Client]string)}
		r.rooms[roomID] = rm
	}

	if prev, rejoin := rm.clients[c]; rejoin && prev != name {
		delete(rm.clients, c)
		rm.dropName(prev)
	}
	rm.clients[c] = name
	if name != "" && !slices.Contains(rm.members, name) {
		rm.members = append(rm.members, name)
	}

	if r.joined[c] == nil {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][roomID] = struct{}{}

	return r.MembersOf(roomID)
}

// MembersOf returns the room's member names, empty if never joined.
func (r *RoomRegistry) MembersOf(roomID string) []string {
	rm, ok := r.rooms[roomID]
	if !ok {
		return []string{}
	}
	return append([]string{}, rm.members...)
}

// InRoom reports whether c joined roomID.
func (r *RoomRegistry) InRoom(c Client, roomID string) bool {
	_, ok := r.joined[c][roomID]
	return ok
}

// Others returns the room's broadcast group without except.
func (r *RoomRegistry) Others(roomID string, except Client) []Client {
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Client, 0, len(rm.clients))
	for c := range rm.clients {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

// Leave removes c from every room it joined. A name disappears from a member
// list only when no remaining client joined under it. The result maps each
// affected room to its new member list. Rooms themselves are kept.
func (r *RoomRegistry) Leave(c Client) map[string][]string {
	rooms := r.joined[c]
	delete(r.joined, c)

	affected := make(map[string][]string, len(rooms))
	for roomID := range rooms {
		rm := r.rooms[roomID]
		name := rm.clients[c]
		delete(rm.clients, c)
		rm.dropName(name)
		affected[roomID] = r.MembersOf(roomID)
	}
	return affected
}

// dropName removes name unless another client in the room still uses it.
func (rm *room) dropName(name string) {
	if name == "" {
		return
	}
	for _, n := range rm.clients {
		if n == name {
			return
		}
	}
	rm.members = slices.DeleteFunc(rm.members, func(m string) bool { return m == name })
}
