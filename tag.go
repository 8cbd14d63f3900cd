package main

// pairKey is an ordered (tagger, target) cooldown key
type pairKey struct {
	Tagger, Target string
}

// TagCooldowns rate-limits repeat tags between the same two players. Both
// pair directions are stamped on a successful tag, so a fresh tag cannot be
// instantly returned by the new IT.
type TagCooldowns struct {
	windowMs int64
	last     map[pairKey]int64
}

// NewTagCooldowns creates a cooldown table with the given window
func NewTagCooldowns(windowMs int64) *TagCooldowns {
	return &TagCooldowns{windowMs: windowMs, last: make(map[pairKey]int64)}
}

// Blocked reports whether either direction of the pair was stamped within
// the cooldown window.
func (t *TagCooldowns) Blocked(a, b string, now int64) bool {
	if at, ok := t.last[pairKey{a, b}]; ok && now-at < t.windowMs {
		return true
	}
	if at, ok := t.last[pairKey{b, a}]; ok && now-at < t.windowMs {
		return true
	}
	return false
}

// Stamp records a successful tag in both directions
func (t *TagCooldowns) Stamp(a, b string, now int64) {
	t.last[pairKey{a, b}] = now
	t.last[pairKey{b, a}] = now
}

// Forget drops every pair involving the player (disconnect cleanup)
func (t *TagCooldowns) Forget(id string) {
	for k := range t.last {
		if k.Tagger == id || k.Target == id {
			delete(t.last, k)
		}
	}
}

// tagRejection classifies why a tag attempt was refused; used for logging
// and tests, never sent to clients.
type tagRejection int

const (
	tagAccepted tagRejection = iota
	tagNoRoom
	tagNotPlaying
	tagNotIT
	tagOnCooldown
	tagTooFar
)

// validateTag applies the tag ruleset against a resolved room: only the
// current IT may tag, the pair must be off cooldown, and if both positions
// are known the ground-plane distance must be within the lenient gate.
// Missing positions skip the gate rather than rejecting.
func validateTag(room *Room, cooldowns *TagCooldowns, tagger, target *Player, taggerID, targetID string, tagDistance float64, now int64) tagRejection {
	if room == nil {
		return tagNoRoom
	}
	if room.State != StatePlaying {
		return tagNotPlaying
	}
	if room.TaggedPlayerID != taggerID || taggerID == targetID {
		return tagNotIT
	}
	if !room.HasMember(targetID) {
		return tagNoRoom
	}
	if cooldowns.Blocked(taggerID, targetID, now) {
		return tagOnCooldown
	}
	if tagger != nil && target != nil {
		if tagger.Position.DistXZ(target.Position) > tagDistance*tagLagLeniency {
			return tagTooFar
		}
	}
	return tagAccepted
}
