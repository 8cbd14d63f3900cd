package main

// Game type identifiers. Room ids are prefixed with these by convention
// (e.g. "tag-1718000000000"), which the lenient lookup path relies on.
const (
	GameTag  = "tag"
	GameRace = "race"
)

const (
	// DefaultCountdownMs is how long the join countdown runs once a zone
	// queue reaches its player threshold.
	DefaultCountdownMs = 5000

	// RoomRetentionMs is how long a finished room is kept around so clients
	// can display results before it is deleted.
	RoomRetentionMs = 15000

	// TagCooldownMs rate-limits repeat tags between the same two players,
	// in both directions, so a fresh tag can't be instantly returned.
	TagCooldownMs = 3000

	// tagLagLeniency widens the server-side tag distance gate to absorb
	// network position lag. Tunable, not a gameplay contract.
	tagLagLeniency = 4.0
)

// GameConfig holds per-game-type tuning
type GameConfig struct {
	GameType    string
	MinPlayers  int
	CountdownMs int64
	RoundMs     int64   // round duration once playing/running; 0 = untimed
	TagDistance float64 // nominal tag reach before leniency
	SpawnRadius float64 // players are scattered on this ring at game start
	StartLine   Vec3
	Checkpoints []Vec3
}

// DefaultGameConfig returns default tuning for the given game type
func DefaultGameConfig(gameType string) GameConfig {
	switch gameType {
	case GameRace:
		return GameConfig{
			GameType:    GameRace,
			MinPlayers:  2,
			CountdownMs: DefaultCountdownMs,
			RoundMs:     0,
			SpawnRadius: 3,
			StartLine:   Vec3{40, 0, -20},
			Checkpoints: []Vec3{
				{55, 0, -35},
				{70, 0, -20},
				{55, 0, -5},
				{40, 0, -20},
			},
		}
	default:
		return GameConfig{
			GameType:    GameTag,
			MinPlayers:  2,
			CountdownMs: DefaultCountdownMs,
			RoundMs:     60000,
			TagDistance: 1.5,
			SpawnRadius: 5,
		}
	}
}
