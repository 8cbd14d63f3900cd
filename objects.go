package main

// SharedObject is one placed-object record, scoped to a room. Any room
// member may mutate it; the server copy is canonical and the id is the
// client-minted one so broadcast echoes match optimistic inserts.
type SharedObject struct {
	ID        string
	Type      string
	RoomID    string
	Position  Vec3
	Rotation  Vec3
	Scale     Vec3
	CreatedAt int64
}

// State returns the broadcast form of the object
func (o *SharedObject) State() ObjectState {
	return ObjectState{
		ID:        o.ID,
		Type:      o.Type,
		RoomID:    o.RoomID,
		Position:  o.Position,
		Rotation:  o.Rotation,
		Scale:     o.Scale,
		CreatedAt: o.CreatedAt,
	}
}

// ObjectStore tracks shared objects per room
type ObjectStore struct {
	byID   map[string]*SharedObject
	byRoom map[string]map[string]*SharedObject
}

// NewObjectStore creates an empty store
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		byID:   make(map[string]*SharedObject),
		byRoom: make(map[string]map[string]*SharedObject),
	}
}

// Add stores a new object. Re-adding an existing id is an idempotent no-op
// returning the already-stored object.
func (s *ObjectStore) Add(msg ObjectMsg, now int64) (*SharedObject, bool) {
	if existing, ok := s.byID[msg.ID]; ok {
		return existing, false
	}
	obj := &SharedObject{
		ID:        msg.ID,
		Type:      msg.Type,
		RoomID:    msg.RoomID,
		Position:  msg.Position,
		Rotation:  msg.Rotation,
		Scale:     msg.Scale,
		CreatedAt: now,
	}
	s.byID[obj.ID] = obj
	room, ok := s.byRoom[obj.RoomID]
	if !ok {
		room = make(map[string]*SharedObject)
		s.byRoom[obj.RoomID] = room
	}
	room[obj.ID] = obj
	return obj, true
}

// Update merges non-nil fields into an existing object; unknown ids return nil
func (s *ObjectStore) Update(id string, upd ObjectUpdates) *SharedObject {
	obj, ok := s.byID[id]
	if !ok {
		return nil
	}
	if upd.Position != nil {
		obj.Position = *upd.Position
	}
	if upd.Rotation != nil {
		obj.Rotation = *upd.Rotation
	}
	if upd.Scale != nil {
		obj.Scale = *upd.Scale
	}
	return obj
}

// Remove deletes an object; unknown ids are a no-op returning nil
func (s *ObjectStore) Remove(id string) *SharedObject {
	obj, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)
	if room, ok := s.byRoom[obj.RoomID]; ok {
		delete(room, id)
		if len(room) == 0 {
			delete(s.byRoom, obj.RoomID)
		}
	}
	return obj
}

// Snapshot returns all objects in a room
func (s *ObjectStore) Snapshot(roomID string) []ObjectState {
	room := s.byRoom[roomID]
	out := make([]ObjectState, 0, len(room))
	for _, obj := range room {
		out = append(out, obj.State())
	}
	return out
}

// RemoveRoom drops every object scoped to the room (room deletion cleanup)
func (s *ObjectStore) RemoveRoom(roomID string) {
	for id := range s.byRoom[roomID] {
		delete(s.byID, id)
	}
	delete(s.byRoom, roomID)
}

// Count returns the total number of stored objects
func (s *ObjectStore) Count() int {
	return len(s.byID)
}
