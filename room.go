package main

import (
	"fmt"
	"strconv"
	"time"
)

// RoomState is the lifecycle state of a room
type RoomState string

const (
	StatePreparing RoomState = "preparing"
	StatePlaying   RoomState = "playing"
	StateEnded     RoomState = "ended"
	// race rooms
	StateReady     RoomState = "ready"
	StateCountdown RoomState = "countdown"
	StateRunning   RoomState = "running"
	StateFinished  RoomState = "finished"
)

// Terminal reports whether the state admits no further transitions
func (s RoomState) Terminal() bool {
	return s == StateEnded || s == StateFinished
}

// RaceResult is one finisher's leaderboard entry
type RaceResult struct {
	PlayerID string  `json:"playerId"`
	Position int     `json:"position"`
	Time     float64 `json:"time"`
}

// Room is one ephemeral minigame instance. Members are kept in join order;
// the first member is the creator for tie-break purposes.
type Room struct {
	ID        string
	GameType  string
	Members   []string
	State     RoomState
	StartTime int64 // unix ms
	EndTime   int64 // unix ms, 0 = untimed

	// tag
	TaggedPlayerID string

	// race
	StartLine   Vec3
	Checkpoints []Vec3
	Progress    map[string]int // playerID -> next expected checkpoint index
	Results     []RaceResult
	finished    map[string]bool

	// retention handle, set when the room enters a terminal state
	retention *time.Timer
}

// HasMember reports whether the player is in the room
func (r *Room) HasMember(id string) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

// AllFinished reports whether every current member has crossed the finish
// line. Results left behind by players who quit the room do not count.
func (r *Room) AllFinished() bool {
	for _, id := range r.Members {
		if !r.finished[id] {
			return false
		}
	}
	return len(r.Members) > 0
}

// StateMsg returns the broadcast snapshot of the room
func (r *Room) StateMsg() *RoomStateMsg {
	msg := &RoomStateMsg{
		RoomID:         r.ID,
		GameType:       r.GameType,
		State:          string(r.State),
		Players:        append([]string(nil), r.Members...),
		TaggedPlayerID: r.TaggedPlayerID,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
	}
	if r.GameType == GameRace {
		msg.Results = append([]RaceResult(nil), r.Results...)
		if len(r.Progress) > 0 {
			msg.Progress = make(map[string]int, len(r.Progress))
			for k, v := range r.Progress {
				msg.Progress[k] = v
			}
		}
	}
	return msg
}

// MintRoomID builds the conventional room id for a game type
func MintRoomID(gameType string, now int64) string {
	return gameType + "-" + strconv.FormatInt(now, 10)
}

// RoomManager owns room lifecycle. Lookups by stale client ids fall back to
// a gameType secondary index instead of scanning id prefixes.
type RoomManager struct {
	rooms  map[string]*Room
	byType map[string]map[string]*Room
}

// NewRoomManager creates an empty manager
func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:  make(map[string]*Room),
		byType: make(map[string]map[string]*Room),
	}
}

// Create makes a new room with the given members. Duplicate ids are
// rejected rather than overwritten.
func (m *RoomManager) Create(gameType, roomID string, members []string) (*Room, error) {
	if roomID == "" {
		roomID = MintRoomID(gameType, time.Now().UnixMilli())
	}
	if _, exists := m.rooms[roomID]; exists {
		return nil, fmt.Errorf("room %s already exists", roomID)
	}
	state := StatePreparing
	if gameType == GameRace {
		state = StateReady
	}
	room := &Room{
		ID:       roomID,
		GameType: gameType,
		Members:  append([]string(nil), members...),
		State:    state,
	}
	if gameType == GameRace {
		room.Progress = make(map[string]int)
		room.finished = make(map[string]bool)
	}
	m.rooms[roomID] = room
	byType, ok := m.byType[gameType]
	if !ok {
		byType = make(map[string]*Room)
		m.byType[gameType] = byType
	}
	byType[roomID] = room
	return room, nil
}

// Get returns the room by exact id, or nil
func (m *RoomManager) Get(roomID string) *Room {
	return m.rooms[roomID]
}

// Resolve returns the room by exact id, falling back to any live room of the
// given game type. Clients cache room ids across restarts, so a stale id with
// a correct game type still finds the current room.
func (m *RoomManager) Resolve(gameType, roomID string) *Room {
	if room, ok := m.rooms[roomID]; ok {
		return room
	}
	for _, room := range m.byType[gameType] {
		return room
	}
	return nil
}

// RoomsFor returns all live rooms containing the player
func (m *RoomManager) RoomsFor(playerID string) []*Room {
	var out []*Room
	for _, room := range m.rooms {
		if room.HasMember(playerID) {
			out = append(out, room)
		}
	}
	return out
}

// AddMember appends a player unless already present
func (m *RoomManager) AddMember(roomID, playerID string) bool {
	room, ok := m.rooms[roomID]
	if !ok || room.HasMember(playerID) {
		return false
	}
	room.Members = append(room.Members, playerID)
	return true
}

// RemoveMember drops a player from the room. Returns whether the player was
// a member and whether the room is now empty.
func (m *RoomManager) RemoveMember(roomID, playerID string) (removed, emptied bool) {
	room, ok := m.rooms[roomID]
	if !ok {
		return false, false
	}
	for i, id := range room.Members {
		if id == playerID {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			removed = true
			break
		}
	}
	if room.GameType == GameRace && removed {
		delete(room.Progress, playerID)
	}
	return removed, removed && len(room.Members) == 0
}

// Transition moves a room to a new state. Re-entering the current state or
// transitioning out of a terminal state is an idempotent no-op.
func (m *RoomManager) Transition(roomID string, state RoomState) bool {
	room, ok := m.rooms[roomID]
	if !ok || room.State == state || room.State.Terminal() {
		return false
	}
	room.State = state
	return true
}

// Delete removes the room and cancels its retention timer
func (m *RoomManager) Delete(roomID string) *Room {
	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	if room.retention != nil {
		room.retention.Stop()
		room.retention = nil
	}
	delete(m.rooms, roomID)
	if byType, ok := m.byType[room.GameType]; ok {
		delete(byType, roomID)
		if len(byType) == 0 {
			delete(m.byType, room.GameType)
		}
	}
	return room
}

// Count returns the number of live rooms
func (m *RoomManager) Count() int {
	return len(m.rooms)
}

// ExpireIfDue transitions a timed room out of its active state once its
// end time has passed. Evaluated lazily on status queries, never by a timer.
func (m *RoomManager) ExpireIfDue(room *Room, now int64) bool {
	if room.EndTime == 0 || now < room.EndTime {
		return false
	}
	switch room.State {
	case StatePlaying:
		return m.Transition(room.ID, StateEnded)
	case StateRunning:
		return m.Transition(room.ID, StateFinished)
	}
	return false
}
