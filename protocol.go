package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin           = "join"
	MsgMove           = "move"
	MsgColor          = "color"
	MsgEmoji          = "emoji"
	MsgEmojiRemoved   = "emoji-removed"
	MsgTagPlayer      = "tagPlayer"
	MsgEnteredZone    = "playerEnteredZone"
	MsgExitedZone     = "playerExitedZone"
	MsgGetGameStatus  = "getGameStatus"
	MsgRaceCheckpoint = "raceCheckpoint"
	MsgRaceFinish     = "raceFinish"
	MsgAddObject      = "add-object"
	MsgUpdateObject   = "update-object"
	MsgDeleteObject   = "delete-object"
	MsgRequestObjects = "request-objects"
	MsgRegister       = "register"
	MsgLogin          = "login"
	MsgAuth           = "auth"
)

// Server -> Client message types
const (
	MsgWelcome       = "welcome"
	MsgPlayers       = "players"
	MsgPlayerJoined  = "player-joined"
	MsgPlayerMoved   = "player-moved"
	MsgPlayerColor   = "player-color"
	MsgPlayerEmoji   = "player-emoji"
	MsgPlayerUnEmoji = "player-emoji-removed"
	MsgHostAssigned  = "host-assigned"
	MsgJoinCountdown = "gameJoinCountdown"
	MsgGameStart     = "gameStart"
	MsgPlayerTagged  = "playerTagged"
	MsgGameState     = "gameStateUpdate"
	MsgGameEnded     = "gameEnded"
	MsgGameStatus    = "gameStatus"
	MsgObjectAdded   = "object-added"
	MsgObjectUpdated = "object-updated"
	MsgObjectDeleted = "object-deleted"
	MsgObjectsSync   = "objects-sync"
	MsgAuthOK        = "auth_ok"
	MsgError         = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is the client's first payload after connecting
type JoinMsg struct {
	Position  Vec3    `json:"position"`
	Rotation  float64 `json:"rotation"`
	Color     string  `json:"color"`
	Animation string  `json:"animation"`
}

// MoveMsg is the high-frequency transient state update. Binary frames carry
// the same struct msgpack-encoded; JSON is the fallback path.
type MoveMsg struct {
	Position  Vec3     `json:"position" msgpack:"p"`
	Rotation  *float64 `json:"rotation,omitempty" msgpack:"r,omitempty"`
	Animation string   `json:"animation,omitempty" msgpack:"a,omitempty"`
}

// ColorMsg updates a player's cosmetic color
type ColorMsg struct {
	Color string `json:"color"`
}

// EmojiMsg shows a transient emoji above a player
type EmojiMsg struct {
	Emoji string `json:"emoji"`
}

// TagMsg asks the server to validate and apply a tag
type TagMsg struct {
	GameType string `json:"gameType"`
	RoomID   string `json:"roomId"`
	TaggerID string `json:"taggerId"`
	TargetID string `json:"targetId"`
}

// ZoneMsg reports a player entering or leaving a join zone
type ZoneMsg struct {
	GameType string `json:"gameType"`
	RoomID   string `json:"roomId,omitempty"`
}

// GameStatusReq asks for the current state of a room
type GameStatusReq struct {
	GameType string `json:"gameType"`
	RoomID   string `json:"roomId"`
}

// CheckpointMsg reports a race checkpoint crossing
type CheckpointMsg struct {
	RoomID     string `json:"roomId"`
	Checkpoint int    `json:"checkpoint"`
}

// FinishMsg reports a race finish-line crossing
type FinishMsg struct {
	RoomID  string  `json:"roomId"`
	Elapsed float64 `json:"time"`
}

// ObjectMsg carries a placed-object descriptor. The id is minted client-side
// so the client can match the broadcast echo against its optimistic insert.
type ObjectMsg struct {
	ID       string `json:"objectId"`
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Scale    Vec3   `json:"scale"`
}

// ObjectUpdateMsg mutates fields of an existing object
type ObjectUpdateMsg struct {
	ID      string        `json:"objectId"`
	Updates ObjectUpdates `json:"updates"`
}

// ObjectUpdates lists the mutable object fields; nil means unchanged
type ObjectUpdates struct {
	Position *Vec3 `json:"position,omitempty"`
	Rotation *Vec3 `json:"rotation,omitempty"`
	Scale    *Vec3 `json:"scale,omitempty"`
}

// ObjectDeleteMsg removes an object
type ObjectDeleteMsg struct {
	ID string `json:"objectId"`
}

// ObjectsReq asks for a full object snapshot for a room
type ObjectsReq struct {
	RoomID string `json:"roomId"`
}

// WelcomeMsg tells a freshly connected client its connection id
type WelcomeMsg struct {
	ID   string `json:"id"`
	Host string `json:"host,omitempty"`
}

// PlayerSnapshot is one roster entry in the players broadcast
type PlayerSnapshot struct {
	ID        string  `json:"id"`
	Position  Vec3    `json:"position"`
	Rotation  float64 `json:"rotation"`
	Color     string  `json:"color,omitempty"`
	Emoji     string  `json:"emoji,omitempty"`
	Animation string  `json:"animation,omitempty"`
}

// MovedMsg is the incremental delta sent to everyone but the mover
type MovedMsg struct {
	ID        string  `json:"id"`
	Position  Vec3    `json:"position"`
	Rotation  float64 `json:"rotation"`
	Animation string  `json:"animation,omitempty"`
}

// PlayerColorMsg broadcasts a color change
type PlayerColorMsg struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// PlayerEmojiMsg broadcasts an emoji change
type PlayerEmojiMsg struct {
	ID    string `json:"id"`
	Emoji string `json:"emoji,omitempty"`
}

// HostAssignedMsg announces the current host (empty id = no players left)
type HostAssignedMsg struct {
	ID string `json:"id"`
}

// CountdownMsg announces a join countdown starting or being cancelled
type CountdownMsg struct {
	GameType  string `json:"gameType"`
	RoomID    string `json:"roomId"`
	StartTime int64  `json:"startTime"`
	Duration  int64  `json:"duration"`
	Action    string `json:"action,omitempty"` // "cancelled" on disarm
}

// GameStartMsg announces a room going live
type GameStartMsg struct {
	RoomID         string          `json:"roomId"`
	GameType       string          `json:"gameType"`
	Players        []string        `json:"players"`
	TaggedPlayerID string          `json:"taggedPlayerId,omitempty"`
	StartTime      int64           `json:"startTime"`
	EndTime        int64           `json:"endTime,omitempty"`
	SpawnPositions map[string]Vec3 `json:"spawnPositions,omitempty"`
}

// TaggedMsg broadcasts an accepted tag
type TaggedMsg struct {
	RoomID    string `json:"roomId"`
	GameType  string `json:"gameType"`
	TaggerID  string `json:"taggerId"`
	TargetID  string `json:"targetId"`
	Timestamp int64  `json:"timestamp"`
}

// RoomStateMsg carries a room snapshot (gameStateUpdate / gameStatus / gameEnded)
type RoomStateMsg struct {
	RoomID         string         `json:"roomId"`
	GameType       string         `json:"gameType"`
	State          string         `json:"state"`
	Players        []string       `json:"players"`
	TaggedPlayerID string         `json:"taggedPlayerId,omitempty"`
	StartTime      int64          `json:"startTime,omitempty"`
	EndTime        int64          `json:"endTime,omitempty"`
	Results        []RaceResult   `json:"results,omitempty"`
	Progress       map[string]int `json:"progress,omitempty"`
}

// GameStatusMsg answers a getGameStatus request; Room is nil when not found
type GameStatusMsg struct {
	RoomID string        `json:"roomId"`
	Found  bool          `json:"found"`
	Room   *RoomStateMsg `json:"room,omitempty"`
}

// ObjectState is the broadcast form of a shared object
type ObjectState struct {
	ID        string `json:"objectId"`
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	Position  Vec3   `json:"position"`
	Rotation  Vec3   `json:"rotation"`
	Scale     Vec3   `json:"scale"`
	CreatedAt int64  `json:"createdAt"`
}

// ObjectsSyncMsg answers a request-objects query
type ObjectsSyncMsg struct {
	RoomID  string        `json:"roomId"`
	Objects []ObjectState `json:"objects"`
}

// RegisterMsg creates a named account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates against an existing account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms register/login/auth
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"playerId"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
