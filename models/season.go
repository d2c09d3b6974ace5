package models

import "time"

// SeasonLedger holds one user's resettable competitive currency for the
// current season. GroupID scopes optional competitive groups ("" = global).
// Reset each season boundary with partial carryover; core progression lives
// in ProgressionProfile and is never touched by a reset.
type SeasonLedger struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"index:idx_ledger_user_group,unique,priority:1;not null" json:"external_user_id"`
	GroupID        string `gorm:"index:idx_ledger_user_group,unique,priority:2;default:''" json:"group_id"`

	XPTotal int64 `json:"xp_total" gorm:"default:0"`

	Timestamps
}

// SeasonWindow is one competitive season. Dates are fixed-width ISO
// (YYYY-MM-DD) so inclusive membership is a plain lexicographic compare.
// ResetAt doubles as the at-most-once claim for the boundary reset.
type SeasonWindow struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name      string `gorm:"not null" json:"name"` // e.g., "Q3 Sprint 2026"
	StartDate string `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate   string `gorm:"type:varchar(10);not null" json:"end_date"`

	ResetAt *time.Time `json:"reset_at,omitempty"`

	Timestamps
}
