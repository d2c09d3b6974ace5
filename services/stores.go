package services

import (
	"time"

	"leadership-progression-system/models"
)

// Store contracts the engine requires from the backing collections. The gorm
// implementations live in gorm_stores.go; tests substitute in-memory fakes.
//
// Ownership: only the reward coordinator and the rename workflow mutate
// profiles; only the coordinator mutates the ledger and appends events.

// ProfileStore persists ProgressionProfile rows.
type ProfileStore interface {
	// ReadByUser returns (nil, nil) when the user has no profile yet.
	ReadByUser(externalUserID string) (*models.ProgressionProfile, error)
	Save(profile *models.ProgressionProfile) error
}

// LedgerStore persists the per-season competitive currency.
type LedgerStore interface {
	// ReadByUser returns (nil, nil) when no row exists.
	ReadByUser(externalUserID, groupID string) (*models.SeasonLedger, error)
	// AddXP upserts the row and increments xp_total by delta.
	AddXP(externalUserID, groupID string, delta int64) (*models.SeasonLedger, error)
}

// EventLogStore is the append-only reward log and idempotency marker store.
type EventLogStore interface {
	// Append inserts the event; a duplicate (user, activity, type) marker is
	// silently dropped by the conditional insert, never an error.
	Append(event *models.RewardEvent) error
	// ReadBy returns the marker row for (user, activity, type), or (nil, nil)
	// when the reward was never applied. The row carries the amount actually
	// credited, which the duplicate path reports back to the caller.
	ReadBy(externalUserID, activityID, eventType string) (*models.RewardEvent, error)
	// SumAmountSince totals credited amounts with created_at >= cutoff.
	SumAmountSince(externalUserID string, cutoff time.Time) (int64, error)
}
