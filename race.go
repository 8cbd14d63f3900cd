package main

// RecordCheckpoint advances a racer's progress cursor. Only accepted while
// the race is running and only for the player's next expected checkpoint —
// no skipping, no replays.
func RecordCheckpoint(room *Room, playerID string, checkpoint int) bool {
	if room == nil || room.GameType != GameRace || room.State != StateRunning {
		return false
	}
	if !room.HasMember(playerID) || room.finished[playerID] {
		return false
	}
	if checkpoint != room.Progress[playerID] || checkpoint >= len(room.Checkpoints) {
		return false
	}
	room.Progress[playerID] = checkpoint + 1
	return true
}

// RecordFinish records a racer crossing the finish line. Duplicate finishes
// for the same player are ignored so the leaderboard can't be corrupted by
// replayed events. Finishing position is assignment order. Returns the
// result entry and whether every member has now finished.
func RecordFinish(room *Room, playerID string, elapsed float64) (*RaceResult, bool) {
	if room == nil || room.GameType != GameRace || room.State != StateRunning {
		return nil, false
	}
	if !room.HasMember(playerID) || room.finished[playerID] {
		return nil, false
	}
	room.finished[playerID] = true
	result := RaceResult{
		PlayerID: playerID,
		Position: len(room.Results) + 1,
		Time:     elapsed,
	}
	room.Results = append(room.Results, result)
	return &room.Results[len(room.Results)-1], room.AllFinished()
}
