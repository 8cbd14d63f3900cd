package main

import (
	"math"
	"math/rand"
	"time"
)

const worldInboxSize = 1024

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
}

// World is the single event-processing point for all shared coordination
// state. Every handler runs to completion on the loop goroutine before the
// next event, so the registry/room/queue/object maps need no locking. Client
// pumps and timers only Post closures into the inbox; timer closures
// re-validate the condition that scheduled them before mutating anything.
type World struct {
	registry  *SessionRegistry
	rooms     *RoomManager
	queues    *JoinCoordinator
	cooldowns *TagCooldowns
	objects   *ObjectStore
	grid      *SpatialIndex
	clients   map[string]Broadcaster

	inbox chan func()
	quit  chan struct{}

	analytics *Analytics // nil when persistence is disabled

	// injectable clock for deterministic tests
	now func() time.Time
}

// NewWorld creates a world with empty state
func NewWorld(analytics *Analytics) *World {
	return &World{
		registry:  NewSessionRegistry(),
		rooms:     NewRoomManager(),
		queues:    NewJoinCoordinator(),
		cooldowns: NewTagCooldowns(TagCooldownMs),
		objects:   NewObjectStore(),
		grid:      NewSpatialIndex(),
		clients:   make(map[string]Broadcaster),
		inbox:     make(chan func(), worldInboxSize),
		quit:      make(chan struct{}),
		analytics: analytics,
		now:       time.Now,
	}
}

// Run processes posted events until Stop
func (w *World) Run() {
	for {
		select {
		case fn := <-w.inbox:
			fn()
		case <-w.quit:
			return
		}
	}
}

// Stop terminates the event loop
func (w *World) Stop() {
	close(w.quit)
}

// Post queues an event for the loop goroutine. Never call handlers directly
// from outside the loop.
func (w *World) Post(fn func()) {
	select {
	case w.inbox <- fn:
	default:
		log.Warn("world inbox full, dropping event")
	}
}

func (w *World) nowMs() int64 {
	return w.now().UnixMilli()
}

// ---- broadcast helpers ----

func (w *World) broadcast(env Envelope) {
	for _, c := range w.clients {
		c.SendJSON(env)
	}
}

func (w *World) broadcastExcept(exclude string, env Envelope) {
	for id, c := range w.clients {
		if id != exclude {
			c.SendJSON(env)
		}
	}
}

func (w *World) sendTo(id string, env Envelope) {
	if c, ok := w.clients[id]; ok {
		c.SendJSON(env)
	}
}

// ---- connection lifecycle ----

// HandleConnect registers a fresh connection and tells it its id
func (w *World) HandleConnect(id string, c Broadcaster) {
	_, hostChanged := w.registry.Connect(id)
	w.clients[id] = c
	w.sendTo(id, Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: id, Host: w.registry.Host()}})
	if hostChanged {
		w.broadcast(Envelope{T: MsgHostAssigned, Data: HostAssignedMsg{ID: w.registry.Host()}})
	}
	w.track(EvtConnect, id, "")
}

// HandleJoin applies the client's first state payload and fans the roster out
func (w *World) HandleJoin(id string, msg JoinMsg) {
	p := w.registry.Join(id, msg)
	if p == nil {
		return
	}
	w.grid.Update(id, p.Position)
	w.broadcastExcept(id, Envelope{T: MsgPlayerJoined, Data: p.Snapshot()})
	w.broadcast(Envelope{T: MsgPlayers, Data: w.registry.Snapshots()})
}

// HandleMove merges a transient state delta and relays it to everyone else
func (w *World) HandleMove(id string, msg MoveMsg) {
	p := w.registry.UpdateTransient(id, msg)
	if p == nil {
		return
	}
	w.grid.Update(id, p.Position)
	w.broadcastExcept(id, Envelope{T: MsgPlayerMoved, Data: MovedMsg{
		ID:        id,
		Position:  p.Position,
		Rotation:  p.Rotation,
		Animation: p.Animation,
	}})
}

// HandleColor updates a cosmetic color
func (w *World) HandleColor(id string, msg ColorMsg) {
	if w.registry.SetColor(id, msg.Color) == nil {
		return
	}
	w.broadcast(Envelope{T: MsgPlayerColor, Data: PlayerColorMsg{ID: id, Color: msg.Color}})
}

// HandleEmoji sets or clears the transient emoji
func (w *World) HandleEmoji(id, emoji string) {
	if w.registry.SetEmoji(id, emoji, w.nowMs()) == nil {
		return
	}
	if emoji == "" {
		w.broadcast(Envelope{T: MsgPlayerUnEmoji, Data: PlayerEmojiMsg{ID: id}})
		return
	}
	w.broadcast(Envelope{T: MsgPlayerEmoji, Data: PlayerEmojiMsg{ID: id, Emoji: emoji}})
}

// HandleDisconnect runs the full cleanup cascade for a dropped connection
func (w *World) HandleDisconnect(id string) {
	hostChanged := w.registry.Disconnect(id)
	delete(w.clients, id)
	w.grid.Remove(id)
	w.cooldowns.Forget(id)

	// Drop from every join queue, cancelling countdowns that fell below
	// threshold while armed.
	for gameType, q := range w.queues.RemoveEverywhere(id) {
		cfg := DefaultGameConfig(gameType)
		if q.Armed() && q.Size() < cfg.MinPlayers {
			w.cancelCountdown(gameType, q)
		}
	}

	// Drop from every room; a room emptied by the disconnect dies instantly.
	for _, room := range w.rooms.RoomsFor(id) {
		_, emptied := w.rooms.RemoveMember(room.ID, id)
		if emptied {
			w.deleteRoom(room.ID)
			continue
		}
		changed := false
		if room.GameType == GameTag && room.TaggedPlayerID == id {
			// IT left; hand the role to the oldest remaining member.
			room.TaggedPlayerID = room.Members[0]
			changed = true
		}
		if room.GameType == GameRace && room.State == StateRunning && room.AllFinished() {
			w.finishRace(room)
			continue
		}
		if changed {
			w.broadcast(Envelope{T: MsgGameState, Data: room.StateMsg()})
		}
	}

	w.broadcast(Envelope{T: MsgPlayers, Data: w.registry.Snapshots()})
	if hostChanged {
		w.broadcast(Envelope{T: MsgHostAssigned, Data: HostAssignedMsg{ID: w.registry.Host()}})
	}
	w.track(EvtDisconnect, id, "")
}

// ---- join zones & countdowns ----

// HandleEnterZone adds a player to a join zone queue and arms the countdown
// once the threshold is met.
func (w *World) HandleEnterZone(id string, msg ZoneMsg) {
	if w.registry.Get(id) == nil || msg.GameType == "" {
		return
	}
	cfg := DefaultGameConfig(msg.GameType)
	q := w.queues.Enter(msg.GameType, id)
	if q.Size() < cfg.MinPlayers || q.Armed() {
		return
	}
	roomID := msg.RoomID
	if roomID == "" {
		roomID = MintRoomID(msg.GameType, w.nowMs())
	}
	gen := q.Arm(roomID)
	gameType := msg.GameType
	q.timer = time.AfterFunc(time.Duration(cfg.CountdownMs)*time.Millisecond, func() {
		w.Post(func() { w.fireCountdown(gameType, gen) })
	})
	w.broadcast(Envelope{T: MsgJoinCountdown, Data: CountdownMsg{
		GameType:  gameType,
		RoomID:    roomID,
		StartTime: w.nowMs(),
		Duration:  cfg.CountdownMs,
	}})
	log.Infof("countdown armed for %s (%d players)", gameType, q.Size())
}

// HandleExitZone removes a player from a join zone queue, cancelling an
// armed countdown if the queue fell below threshold.
func (w *World) HandleExitZone(id string, msg ZoneMsg) {
	q := w.queues.Exit(msg.GameType, id)
	if q == nil {
		return
	}
	cfg := DefaultGameConfig(msg.GameType)
	if q.Armed() && q.Size() < cfg.MinPlayers {
		w.cancelCountdown(msg.GameType, q)
	}
}

func (w *World) cancelCountdown(gameType string, q *JoinQueue) {
	roomID := q.roomID
	q.Disarm()
	w.broadcast(Envelope{T: MsgJoinCountdown, Data: CountdownMsg{
		GameType: gameType,
		RoomID:   roomID,
		Action:   "cancelled",
	}})
	log.Infof("countdown cancelled for %s", gameType)
}

// fireCountdown is the deferred countdown action. The generation check drops
// fires whose countdown was cancelled or re-armed after scheduling; the
// threshold is re-checked independently of the arm-time check, so a queue
// that dipped and recovered still launches.
func (w *World) fireCountdown(gameType string, gen int) {
	q := w.queues.Queue(gameType)
	if !q.Armed() || q.gen != gen {
		return
	}
	cfg := DefaultGameConfig(gameType)
	roomID := q.roomID
	members := q.Snapshot()
	q.Disarm()
	if len(members) < cfg.MinPlayers {
		return
	}
	q.members = nil
	w.launchRoom(gameType, roomID, members, cfg)
}

// launchRoom materializes a room from a queue snapshot and starts the game
func (w *World) launchRoom(gameType, roomID string, members []string, cfg GameConfig) {
	room, err := w.rooms.Create(gameType, roomID, members)
	if err != nil {
		// Stale hint collided with a live room; mint a fresh id.
		log.Warnf("room create: %v", err)
		room, err = w.rooms.Create(gameType, MintRoomID(gameType, w.nowMs()), members)
		if err != nil {
			log.Errorf("room create retry: %v", err)
			return
		}
	}
	now := w.nowMs()
	room.StartTime = now
	if cfg.RoundMs > 0 {
		room.EndTime = now + cfg.RoundMs
	}

	switch gameType {
	case GameTag:
		w.rooms.Transition(room.ID, StatePlaying)
		room.TaggedPlayerID = members[rand.Intn(len(members))]
	case GameRace:
		room.StartLine = cfg.StartLine
		room.Checkpoints = append([]Vec3(nil), cfg.Checkpoints...)
		for _, id := range members {
			room.Progress[id] = 0
		}
		w.rooms.Transition(room.ID, StateCountdown)
		w.rooms.Transition(room.ID, StateRunning)
	}

	w.broadcast(Envelope{T: MsgGameStart, Data: GameStartMsg{
		RoomID:         room.ID,
		GameType:       gameType,
		Players:        append([]string(nil), members...),
		TaggedPlayerID: room.TaggedPlayerID,
		StartTime:      room.StartTime,
		EndTime:        room.EndTime,
		SpawnPositions: w.spawnPositions(members, cfg),
	}})
	w.track(EvtGameStart, "", room.ID)
	log.Infof("room %s launched with %d players", room.ID, len(members))
}

// spawnPositions scatters members on a ring around their centroid
func (w *World) spawnPositions(members []string, cfg GameConfig) map[string]Vec3 {
	if cfg.SpawnRadius <= 0 || len(members) == 0 {
		return nil
	}
	var center Vec3
	n := 0
	for _, id := range members {
		if p := w.registry.Get(id); p != nil {
			center[0] += p.Position[0]
			center[2] += p.Position[2]
			n++
		}
	}
	if n > 0 {
		center[0] /= float64(n)
		center[2] /= float64(n)
	}
	out := make(map[string]Vec3, len(members))
	for i, id := range members {
		angle := 2 * math.Pi * float64(i) / float64(len(members))
		out[id] = Vec3{
			center[0] + math.Cos(angle)*cfg.SpawnRadius,
			0,
			center[2] + math.Sin(angle)*cfg.SpawnRadius,
		}
	}
	return out
}

// ---- tag ----

// HandleTag validates and applies a tag attempt. Rejections are silent to
// the client; only accepted tags broadcast.
func (w *World) HandleTag(senderID string, msg TagMsg) {
	if msg.TaggerID != senderID {
		log.Warnf("tag from %s claiming to be %s ignored", senderID, msg.TaggerID)
		return
	}
	gameType := msg.GameType
	if gameType == "" {
		gameType = GameTag
	}
	room := w.rooms.Resolve(gameType, msg.RoomID)
	cfg := DefaultGameConfig(GameTag)
	now := w.nowMs()
	tagger := w.registry.Get(msg.TaggerID)
	target := w.registry.Get(msg.TargetID)

	// Broad phase: the grid has no false negatives within range, so a target
	// missing from the neighborhood is definitively out of reach. The exact
	// distance check below handles cell-boundary false positives.
	if w.grid.Contains(msg.TaggerID) && w.grid.Contains(msg.TargetID) {
		inReach := false
		for _, id := range w.grid.Nearby(msg.TaggerID, cfg.TagDistance*tagLagLeniency) {
			if id == msg.TargetID {
				inReach = true
				break
			}
		}
		if !inReach {
			log.Debugf("tag %s->%s rejected (out of neighborhood)", msg.TaggerID, msg.TargetID)
			return
		}
	}

	verdict := validateTag(room, w.cooldowns, tagger, target, msg.TaggerID, msg.TargetID, cfg.TagDistance, now)
	if verdict != tagAccepted {
		log.Debugf("tag %s->%s rejected (%d)", msg.TaggerID, msg.TargetID, verdict)
		return
	}

	w.cooldowns.Stamp(msg.TaggerID, msg.TargetID, now)
	room.TaggedPlayerID = msg.TargetID
	w.broadcast(Envelope{T: MsgPlayerTagged, Data: TaggedMsg{
		RoomID:    room.ID,
		GameType:  GameTag,
		TaggerID:  msg.TaggerID,
		TargetID:  msg.TargetID,
		Timestamp: now,
	}})
	w.broadcast(Envelope{T: MsgGameState, Data: room.StateMsg()})
	w.track(EvtTag, msg.TaggerID, room.ID)
}

// ---- race ----

// HandleCheckpoint advances a racer past their next expected checkpoint
func (w *World) HandleCheckpoint(id string, msg CheckpointMsg) {
	room := w.rooms.Resolve(GameRace, msg.RoomID)
	if !RecordCheckpoint(room, id, msg.Checkpoint) {
		return
	}
	w.broadcast(Envelope{T: MsgGameState, Data: room.StateMsg()})
}

// HandleFinish records a race finish, closing the room once the last member
// is in.
func (w *World) HandleFinish(id string, msg FinishMsg) {
	room := w.rooms.Resolve(GameRace, msg.RoomID)
	result, allDone := RecordFinish(room, id, msg.Elapsed)
	if result == nil {
		return
	}
	w.track(EvtRaceFinish, id, room.ID)
	if allDone {
		w.finishRace(room)
		return
	}
	w.broadcast(Envelope{T: MsgGameState, Data: room.StateMsg()})
}

func (w *World) finishRace(room *Room) {
	w.rooms.Transition(room.ID, StateFinished)
	room.EndTime = w.nowMs()
	w.endRoom(room)
}

// ---- room status & cleanup ----

// HandleGameStatus answers a status query for the requester only. Timed
// rooms expire lazily here rather than via per-room timers.
func (w *World) HandleGameStatus(id string, msg GameStatusReq) {
	room := w.rooms.Resolve(msg.GameType, msg.RoomID)
	if room == nil {
		w.sendTo(id, Envelope{T: MsgGameStatus, Data: GameStatusMsg{RoomID: msg.RoomID, Found: false}})
		return
	}
	if w.rooms.ExpireIfDue(room, w.nowMs()) {
		w.endRoom(room)
	}
	w.sendTo(id, Envelope{T: MsgGameStatus, Data: GameStatusMsg{
		RoomID: room.ID,
		Found:  true,
		Room:   room.StateMsg(),
	}})
}

// endRoom broadcasts the terminal snapshot, persists results, and schedules
// the retention deletion so clients have time to show the outcome.
func (w *World) endRoom(room *Room) {
	w.broadcast(Envelope{T: MsgGameEnded, Data: room.StateMsg()})
	w.track(EvtGameEnd, "", room.ID)
	if w.analytics != nil {
		w.analytics.SaveResult(room)
	}
	roomID := room.ID
	if room.retention != nil {
		room.retention.Stop()
	}
	room.retention = time.AfterFunc(RoomRetentionMs*time.Millisecond, func() {
		w.Post(func() { w.reapRoom(roomID) })
	})
	log.Infof("room %s ended", roomID)
}

// reapRoom is the deferred retention deletion; it re-validates that the room
// still exists and is still terminal before deleting.
func (w *World) reapRoom(roomID string) {
	room := w.rooms.Get(roomID)
	if room == nil || !room.State.Terminal() {
		return
	}
	w.deleteRoom(roomID)
}

func (w *World) deleteRoom(roomID string) {
	if w.rooms.Delete(roomID) != nil {
		w.objects.RemoveRoom(roomID)
		log.Infof("room %s deleted", roomID)
	}
}

// ---- shared objects ----

// HandleAddObject stores a placed object and echoes it to everyone. The
// echoed id is exactly the client-submitted id; duplicate submissions are
// swallowed without a second broadcast.
func (w *World) HandleAddObject(senderID string, msg ObjectMsg) {
	if w.registry.Get(senderID) == nil || msg.ID == "" || msg.RoomID == "" {
		return
	}
	obj, created := w.objects.Add(msg, w.nowMs())
	if !created {
		return
	}
	w.broadcast(Envelope{T: MsgObjectAdded, Data: obj.State()})
}

// HandleUpdateObject mutates an object in place and echoes the result
func (w *World) HandleUpdateObject(senderID string, msg ObjectUpdateMsg) {
	if w.registry.Get(senderID) == nil {
		return
	}
	obj := w.objects.Update(msg.ID, msg.Updates)
	if obj == nil {
		return
	}
	w.broadcast(Envelope{T: MsgObjectUpdated, Data: obj.State()})
}

// HandleDeleteObject removes an object; unknown ids are silent no-ops
func (w *World) HandleDeleteObject(senderID string, msg ObjectDeleteMsg) {
	if w.registry.Get(senderID) == nil {
		return
	}
	obj := w.objects.Remove(msg.ID)
	if obj == nil {
		return
	}
	w.broadcast(Envelope{T: MsgObjectDeleted, Data: ObjectDeleteMsg{ID: msg.ID}})
}

// HandleRequestObjects snapshots a room's objects back to the requester
func (w *World) HandleRequestObjects(senderID string, msg ObjectsReq) {
	w.sendTo(senderID, Envelope{T: MsgObjectsSync, Data: ObjectsSyncMsg{
		RoomID:  msg.RoomID,
		Objects: w.objects.Snapshot(msg.RoomID),
	}})
}

func (w *World) track(evtType, playerID, roomID string) {
	if w.analytics != nil {
		w.analytics.Track(evtType, playerID, roomID)
	}
}
