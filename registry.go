package main

// Player is the transient server-side record for one connected client.
// Owned exclusively by the SessionRegistry; everything else reads.
type Player struct {
	ID        string
	Position  Vec3
	Rotation  float64
	Color     string
	Emoji     string
	EmojiAt   int64 // unix ms of last emoji set, 0 = none
	Animation string
	Joined    bool // has sent an explicit join payload
}

// Snapshot returns the broadcast form of the player
func (p *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:        p.ID,
		Position:  p.Position,
		Rotation:  p.Rotation,
		Color:     p.Color,
		Emoji:     p.Emoji,
		Animation: p.Animation,
	}
}

// SessionRegistry tracks every connected client and the process-wide host
// designation. Operations on unknown ids are no-ops: client events may race
// the disconnect that removed them.
type SessionRegistry struct {
	players map[string]*Player
	order   []string // connection order, used for host reassignment
	hostID  string
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{players: make(map[string]*Player)}
}

// Connect registers a new connection with default spawn state. The first
// connected player becomes host. Returns the player and whether the host
// designation changed.
func (r *SessionRegistry) Connect(id string) (*Player, bool) {
	if p, ok := r.players[id]; ok {
		return p, false
	}
	p := &Player{ID: id}
	r.players[id] = p
	r.order = append(r.order, id)
	if r.hostID == "" {
		r.hostID = id
		return p, true
	}
	return p, false
}

// Join applies the client's first explicit state payload
func (r *SessionRegistry) Join(id string, msg JoinMsg) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	p.Position = msg.Position
	p.Rotation = msg.Rotation
	p.Color = msg.Color
	p.Animation = msg.Animation
	p.Joined = true
	return p
}

// UpdateTransient merges a move delta into the player's state
func (r *SessionRegistry) UpdateTransient(id string, msg MoveMsg) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	p.Position = msg.Position
	if msg.Rotation != nil {
		p.Rotation = *msg.Rotation
	}
	if msg.Animation != "" {
		p.Animation = msg.Animation
	}
	return p
}

// SetColor updates the cosmetic color
func (r *SessionRegistry) SetColor(id, color string) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	p.Color = color
	return p
}

// SetEmoji sets or clears the transient emoji
func (r *SessionRegistry) SetEmoji(id, emoji string, now int64) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	p.Emoji = emoji
	if emoji == "" {
		p.EmojiAt = 0
	} else {
		p.EmojiAt = now
	}
	return p
}

// Get returns the player record, or nil if not connected
func (r *SessionRegistry) Get(id string) *Player {
	return r.players[id]
}

// Host returns the current host id ("" when nobody is connected)
func (r *SessionRegistry) Host() string {
	return r.hostID
}

// Count returns the number of connected players
func (r *SessionRegistry) Count() int {
	return len(r.players)
}

// Snapshots returns the full roster in connection order
func (r *SessionRegistry) Snapshots() []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			out = append(out, p.Snapshot())
		}
	}
	return out
}

// Disconnect removes the player. If they were host, the oldest remaining
// connection becomes host. Returns whether the host changed (the new host id
// is read from Host; "" means no players remain).
func (r *SessionRegistry) Disconnect(id string) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.hostID != id {
		return false
	}
	r.hostID = ""
	if len(r.order) > 0 {
		r.hostID = r.order[0]
	}
	return true
}
