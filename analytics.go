package main

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtConnect    = "connect"
	EvtDisconnect = "disconnect"
	EvtGameStart  = "game_start"
	EvtGameEnd    = "game_end"
	EvtTag        = "tag"
	EvtRaceFinish = "race_finish"
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  string
	RoomID    string
	Timestamp time.Time
}

// resultRecord is the persisted outcome of a finished room
type resultRecord struct {
	RoomID     string
	GameType   string
	DurationMs int64
	Results    string // JSON payload
}

// Analytics handles event tracking with batched background writes. Track is
// non-blocking: the world loop must never wait on SQLite.
type Analytics struct {
	db      *DB
	events  chan AnalyticsEvent
	results chan resultRecord
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:      db,
		events:  make(chan AnalyticsEvent, 1024),
		results: make(chan resultRecord, 64),
		stop:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, playerID, roomID string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		RoomID:    roomID,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full — drop event rather than blocking the world loop
	}
}

// SaveResult enqueues a finished room's outcome for persistence
func (a *Analytics) SaveResult(room *Room) {
	duration := int64(0)
	if room.EndTime > 0 && room.StartTime > 0 {
		duration = room.EndTime - room.StartTime
	}
	payload, err := json.Marshal(room.StateMsg())
	if err != nil {
		return
	}
	select {
	case a.results <- resultRecord{
		RoomID:     room.ID,
		GameType:   room.GameType,
		DurationMs: duration,
		Results:    string(payload),
	}:
	default:
	}
}

// Stop flushes and terminates the writer
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

func (a *Analytics) writer() {
	defer a.wg.Done()
	for {
		select {
		case evt := <-a.events:
			if err := a.db.InsertEvent(evt.Type, evt.PlayerID, evt.RoomID, evt.Timestamp); err != nil {
				log.Warnf("analytics write: %v", err)
			}
		case rec := <-a.results:
			if err := a.db.InsertGameResult(rec.RoomID, rec.GameType, rec.DurationMs, rec.Results); err != nil {
				log.Warnf("result write: %v", err)
			}
		case <-a.stop:
			// Drain whatever is queued before exiting
			for {
				select {
				case evt := <-a.events:
					a.db.InsertEvent(evt.Type, evt.PlayerID, evt.RoomID, evt.Timestamp)
				case rec := <-a.results:
					a.db.InsertGameResult(rec.RoomID, rec.GameType, rec.DurationMs, rec.Results)
				default:
					return
				}
			}
		}
	}
}
