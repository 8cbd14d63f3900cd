package main

import "time"

// JoinQueue is the per-game-type set of players currently standing in a join
// zone, plus the armed-countdown state guarding launch.
type JoinQueue struct {
	members []string // zone entry order
	armed   bool
	roomID  string
	gen     int // bumps on every arm/disarm; stale timer fires are dropped
	timer   *time.Timer
}

// Size returns the queue length
func (q *JoinQueue) Size() int {
	return len(q.members)
}

// Has reports queue membership
func (q *JoinQueue) Has(id string) bool {
	for _, m := range q.members {
		if m == id {
			return true
		}
	}
	return false
}

// Snapshot copies the current membership
func (q *JoinQueue) Snapshot() []string {
	return append([]string(nil), q.members...)
}

// Armed reports whether a countdown is pending
func (q *JoinQueue) Armed() bool {
	return q.armed
}

// Arm marks a countdown pending for the given room and returns the
// generation a deferred fire must present to be honored.
func (q *JoinQueue) Arm(roomID string) int {
	q.gen++
	q.armed = true
	q.roomID = roomID
	return q.gen
}

// Disarm cancels any pending countdown and stops its timer
func (q *JoinQueue) Disarm() {
	q.gen++
	q.armed = false
	q.roomID = ""
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// JoinCoordinator tracks join-zone occupancy per game type. Countdown
// scheduling and launch live in the world loop; this owns only the queues.
type JoinCoordinator struct {
	queues map[string]*JoinQueue
}

// NewJoinCoordinator creates an empty coordinator
func NewJoinCoordinator() *JoinCoordinator {
	return &JoinCoordinator{queues: make(map[string]*JoinQueue)}
}

// Queue returns the queue for a game type, creating it on first use
func (c *JoinCoordinator) Queue(gameType string) *JoinQueue {
	q, ok := c.queues[gameType]
	if !ok {
		q = &JoinQueue{}
		c.queues[gameType] = q
	}
	return q
}

// Enter adds a player to the game type's queue. Re-entry is a no-op; a
// player appears at most once per queue.
func (c *JoinCoordinator) Enter(gameType, playerID string) *JoinQueue {
	q := c.Queue(gameType)
	if !q.Has(playerID) {
		q.members = append(q.members, playerID)
	}
	return q
}

// Exit removes a player from the game type's queue. Returns nil if the
// player was not queued.
func (c *JoinCoordinator) Exit(gameType, playerID string) *JoinQueue {
	q, ok := c.queues[gameType]
	if !ok || !q.Has(playerID) {
		return nil
	}
	c.remove(q, playerID)
	return q
}

// RemoveEverywhere drops the player from every queue (disconnect cleanup)
// and returns the affected queues keyed by game type.
func (c *JoinCoordinator) RemoveEverywhere(playerID string) map[string]*JoinQueue {
	var affected map[string]*JoinQueue
	for gameType, q := range c.queues {
		if !q.Has(playerID) {
			continue
		}
		c.remove(q, playerID)
		if affected == nil {
			affected = make(map[string]*JoinQueue)
		}
		affected[gameType] = q
	}
	return affected
}

func (c *JoinCoordinator) remove(q *JoinQueue, playerID string) {
	for i, m := range q.members {
		if m == playerID {
			q.members = append(q.members[:i], q.members[i+1:]...)
			return
		}
	}
}
