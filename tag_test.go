package main

import "testing"

func playingTagRoom(it string, members ...string) *Room {
	return &Room{
		ID:             "tag-1000",
		GameType:       GameTag,
		Members:        members,
		State:          StatePlaying,
		TaggedPlayerID: it,
	}
}

func TestTagCooldownSymmetry(t *testing.T) {
	cd := NewTagCooldowns(3000)
	cd.Stamp("a", "b", 1000)

	if !cd.Blocked("a", "b", 2000) {
		t.Error("repeat a->b within window must be blocked")
	}
	if !cd.Blocked("b", "a", 2000) {
		t.Error("retaliatory b->a within window must be blocked")
	}
	if cd.Blocked("a", "b", 4000) {
		t.Error("pair should be free after the window")
	}
	if cd.Blocked("a", "c", 2000) {
		t.Error("unrelated pair must not be blocked")
	}
}

func TestTagCooldownForget(t *testing.T) {
	cd := NewTagCooldowns(3000)
	cd.Stamp("a", "b", 1000)
	cd.Forget("a")
	if cd.Blocked("a", "b", 1001) || cd.Blocked("b", "a", 1001) {
		t.Error("forget must drop both pair directions")
	}
}

func TestValidateTagOnlyITMayTag(t *testing.T) {
	room := playingTagRoom("a", "a", "b", "c")
	cd := NewTagCooldowns(3000)
	pa := &Player{ID: "a"}
	pb := &Player{ID: "b"}

	if got := validateTag(room, cd, pb, pa, "b", "a", 1.5, 1000); got != tagNotIT {
		t.Errorf("non-IT tagger: expected tagNotIT, got %d", got)
	}
	if got := validateTag(room, cd, pa, pa, "a", "a", 1.5, 1000); got != tagNotIT {
		t.Errorf("self tag: expected tagNotIT, got %d", got)
	}
	if got := validateTag(room, cd, pa, pb, "a", "b", 1.5, 1000); got != tagAccepted {
		t.Errorf("IT tagging in range: expected accepted, got %d", got)
	}
}

func TestValidateTagRoomState(t *testing.T) {
	cd := NewTagCooldowns(3000)
	pa, pb := &Player{ID: "a"}, &Player{ID: "b"}

	if got := validateTag(nil, cd, pa, pb, "a", "b", 1.5, 1000); got != tagNoRoom {
		t.Errorf("missing room: expected tagNoRoom, got %d", got)
	}

	room := playingTagRoom("a", "a", "b")
	room.State = StateEnded
	if got := validateTag(room, cd, pa, pb, "a", "b", 1.5, 1000); got != tagNotPlaying {
		t.Errorf("ended room: expected tagNotPlaying, got %d", got)
	}

	room = playingTagRoom("a", "a")
	if got := validateTag(room, cd, pa, pb, "a", "b", 1.5, 1000); got != tagNoRoom {
		t.Errorf("target not a member: expected tagNoRoom, got %d", got)
	}
}

func TestValidateTagDistanceGate(t *testing.T) {
	room := playingTagRoom("a", "a", "b")
	cd := NewTagCooldowns(3000)
	pa := &Player{ID: "a", Position: Vec3{0, 0, 0}}

	// Within the lenient gate (1.5 * 4 = 6 units)
	pb := &Player{ID: "b", Position: Vec3{5.9, 0, 0}}
	if got := validateTag(room, cd, pa, pb, "a", "b", 1.5, 1000); got != tagAccepted {
		t.Errorf("within lenient range: expected accepted, got %d", got)
	}

	// Beyond it
	pb.Position = Vec3{6.1, 0, 0}
	if got := validateTag(room, cd, pa, pb, "a", "b", 1.5, 1000); got != tagTooFar {
		t.Errorf("beyond lenient range: expected tagTooFar, got %d", got)
	}

	// Vertical separation is ignored
	pb.Position = Vec3{1, 100, 0}
	if got := validateTag(room, cd, pa, pb, "a", "b", 1.5, 1000); got != tagAccepted {
		t.Errorf("vertical offset should not gate, got %d", got)
	}
}

func TestValidateTagMissingPositionFailsOpen(t *testing.T) {
	room := playingTagRoom("a", "a", "b")
	cd := NewTagCooldowns(3000)
	pa := &Player{ID: "a", Position: Vec3{0, 0, 0}}

	if got := validateTag(room, cd, pa, nil, "a", "b", 1.5, 1000); got != tagAccepted {
		t.Errorf("missing target position must skip the gate, got %d", got)
	}
}

func TestValidateTagCooldownBlocks(t *testing.T) {
	room := playingTagRoom("b", "a", "b")
	cd := NewTagCooldowns(3000)
	cd.Stamp("a", "b", 1000)
	pa, pb := &Player{ID: "a"}, &Player{ID: "b"}

	// b is now IT but the reverse pair is stamped
	if got := validateTag(room, cd, pb, pa, "b", "a", 1.5, 2000); got != tagOnCooldown {
		t.Errorf("tag-back within window: expected tagOnCooldown, got %d", got)
	}
	if got := validateTag(room, cd, pb, pa, "b", "a", 1.5, 4500); got != tagAccepted {
		t.Errorf("after window: expected accepted, got %d", got)
	}
}
