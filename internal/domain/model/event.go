package model

import "time"

// EventKind names a change that affects a user's derived data.
type EventKind string

// Event kinds flowing through the refresh pipeline.
const (
	EventGameRecorded EventKind = "game_recorded"
	EventGameDeleted  EventKind = "game_deleted"
	EventUserUpdated  EventKind = "user_updated"
	EventRebuild      EventKind = "rebuild"
)

// GameEvent notifies the refresh pipeline that a user's history changed.
type GameEvent struct {
	EventID string    `json:"eventId"` // unique id for idempotency
	UserID  string    `json:"userId"`
	GameID  string    `json:"gameId,omitempty"`
	Kind    EventKind `json:"kind"`
	TS      time.Time `json:"ts"`
}
