package main

import "testing"

func TestJoinQueueEnterDedupes(t *testing.T) {
	c := NewJoinCoordinator()
	c.Enter(GameTag, "a")
	q := c.Enter(GameTag, "a")
	if q.Size() != 1 {
		t.Errorf("re-entry must not duplicate, got size %d", q.Size())
	}
	c.Enter(GameTag, "b")
	if q.Size() != 2 || !q.Has("b") {
		t.Error("second entrant missing")
	}
}

func TestJoinQueueExit(t *testing.T) {
	c := NewJoinCoordinator()
	c.Enter(GameTag, "a")
	c.Enter(GameTag, "b")

	q := c.Exit(GameTag, "a")
	if q == nil || q.Size() != 1 || q.Has("a") {
		t.Error("exit did not remove the player")
	}
	if c.Exit(GameTag, "ghost") != nil {
		t.Error("exit of a non-queued player should return nil")
	}
	if c.Exit(GameRace, "b") != nil {
		t.Error("exit from the wrong game type should return nil")
	}
}

func TestJoinQueueArmDisarmGenerations(t *testing.T) {
	c := NewJoinCoordinator()
	q := c.Queue(GameTag)

	gen := q.Arm("tag-1")
	if !q.Armed() {
		t.Fatal("queue should be armed")
	}
	q.Disarm()
	if q.Armed() {
		t.Fatal("queue should be disarmed")
	}
	if q.gen == gen {
		t.Error("disarm must invalidate the armed generation")
	}
}

func TestJoinQueueRemoveEverywhere(t *testing.T) {
	c := NewJoinCoordinator()
	c.Enter(GameTag, "a")
	c.Enter(GameRace, "a")
	c.Enter(GameRace, "b")

	affected := c.RemoveEverywhere("a")
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected queues, got %d", len(affected))
	}
	if c.Queue(GameTag).Size() != 0 || c.Queue(GameRace).Size() != 1 {
		t.Error("player not removed from all queues")
	}
	if c.RemoveEverywhere("a") != nil {
		t.Error("second removal should affect nothing")
	}
}
