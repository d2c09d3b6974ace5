package models

import "time"

// Reward event types recorded in the append-only log.
const (
	EventTypeSeasonalEarn = "seasonal_earn"
)

// RewardEvent is the append-only activity log. It doubles as the idempotency
// marker store (one row per applied (user, activity, type)) and as the source
// for daily-sum queries behind the daily cap.
//
// The composite unique index makes the marker append a conditional insert at
// the database level, so two near-simultaneous requests for the same activity
// cannot both persist a marker.
type RewardEvent struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"index:idx_event_marker,unique,priority:1;index:idx_event_user_date,priority:1;not null" json:"external_user_id"`
	ActivityID     string `gorm:"index:idx_event_marker,unique,priority:2;not null" json:"activity_id"` // scenario run, chat turn, etc.
	EventType      string `gorm:"index:idx_event_marker,unique,priority:3;type:varchar(32);not null" json:"event_type"`

	Amount int64  `json:"amount" gorm:"not null"` // seasonal units actually credited (post-clamp)
	Source string `json:"source,omitempty"`       // e.g., "scenario_completed", "mentor_chat"

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_event_user_date,priority:2"`
}
