package main

import "testing"

func runningRaceRoom(members ...string) *Room {
	room := &Room{
		ID:          "race-1000",
		GameType:    GameRace,
		Members:     members,
		State:       StateRunning,
		Checkpoints: []Vec3{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
		Progress:    make(map[string]int),
		finished:    make(map[string]bool),
	}
	for _, m := range members {
		room.Progress[m] = 0
	}
	return room
}

func TestRecordCheckpointMonotonic(t *testing.T) {
	room := runningRaceRoom("a", "b")

	if !RecordCheckpoint(room, "a", 0) {
		t.Fatal("first checkpoint should be accepted")
	}
	if RecordCheckpoint(room, "a", 0) {
		t.Error("replayed checkpoint must be rejected")
	}
	if RecordCheckpoint(room, "a", 2) {
		t.Error("skipped checkpoint must be rejected")
	}
	if !RecordCheckpoint(room, "a", 1) {
		t.Error("next expected checkpoint should be accepted")
	}
	if room.Progress["a"] != 2 {
		t.Errorf("expected cursor 2, got %d", room.Progress["a"])
	}
	if room.Progress["b"] != 0 {
		t.Error("other players' progress must be untouched")
	}
}

func TestRecordCheckpointStateAndMembership(t *testing.T) {
	room := runningRaceRoom("a")
	if RecordCheckpoint(room, "ghost", 0) {
		t.Error("non-member checkpoint must be rejected")
	}
	room.State = StateReady
	if RecordCheckpoint(room, "a", 0) {
		t.Error("checkpoint outside running state must be rejected")
	}
	if RecordCheckpoint(nil, "a", 0) {
		t.Error("nil room must be rejected")
	}
}

func TestRecordFinishOrderingAndIdempotency(t *testing.T) {
	room := runningRaceRoom("a", "b", "c")

	r1, done := RecordFinish(room, "b", 42.5)
	if r1 == nil || done {
		t.Fatal("first finish should be accepted and not close the room")
	}
	if r1.Position != 1 || r1.Time != 42.5 {
		t.Errorf("unexpected first result %+v", r1)
	}

	// Duplicate finish is swallowed
	if dup, _ := RecordFinish(room, "b", 40.0); dup != nil {
		t.Error("duplicate finish must be ignored")
	}
	if len(room.Results) != 1 {
		t.Fatalf("leaderboard corrupted: %+v", room.Results)
	}

	r2, done := RecordFinish(room, "a", 43.1)
	if r2.Position != 2 || done {
		t.Error("second finisher should take position 2")
	}
	r3, done := RecordFinish(room, "c", 50.0)
	if r3.Position != 3 || !done {
		t.Error("final finisher should close the race")
	}
}

func TestRecordFinishIgnoresDepartedMembers(t *testing.T) {
	room := runningRaceRoom("a", "b", "c")

	RecordFinish(room, "a", 10)
	// a leaves the room; their leaderboard entry stays behind
	room.Members = []string{"b", "c"}

	if _, done := RecordFinish(room, "b", 12); done {
		t.Error("race must not close while c is still running")
	}
	if _, done := RecordFinish(room, "c", 14); !done {
		t.Error("race should close once every current member has finished")
	}
}

func TestRecordFinishRequiresRunning(t *testing.T) {
	room := runningRaceRoom("a")
	room.State = StateFinished
	if r, _ := RecordFinish(room, "a", 10); r != nil {
		t.Error("finish after the race ended must be rejected")
	}
}
