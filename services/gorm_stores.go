package services

import (
	"errors"
	"time"

	"leadership-progression-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProfileStore backs ProfileStore with the progression_profiles table.
type GormProfileStore struct {
	DB *gorm.DB
}

func NewGormProfileStore(db *gorm.DB) *GormProfileStore {
	return &GormProfileStore{DB: db}
}

func (s *GormProfileStore) ReadByUser(externalUserID string) (*models.ProgressionProfile, error) {
	var profile models.ProgressionProfile
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("profile.read", err)
	}
	return &profile, nil
}

func (s *GormProfileStore) Save(profile *models.ProgressionProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if err := s.DB.Save(profile).Error; err != nil {
		return storeErr("profile.save", err)
	}
	return nil
}

// GormLedgerStore backs LedgerStore with the season_ledgers table.
type GormLedgerStore struct {
	DB *gorm.DB
}

func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{DB: db}
}

func (s *GormLedgerStore) ReadByUser(externalUserID, groupID string) (*models.SeasonLedger, error) {
	var row models.SeasonLedger
	err := s.DB.Where("external_user_id = ? AND group_id = ?", externalUserID, groupID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("ledger.read", err)
	}
	return &row, nil
}

func (s *GormLedgerStore) AddXP(externalUserID, groupID string, delta int64) (*models.SeasonLedger, error) {
	var row models.SeasonLedger
	err := s.DB.Where("external_user_id = ? AND group_id = ?", externalUserID, groupID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.SeasonLedger{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			GroupID:        groupID,
			XPTotal:        delta,
		}
		if err := s.DB.Create(&row).Error; err != nil {
			return nil, storeErr("ledger.create", err)
		}
		return &row, nil
	case err != nil:
		return nil, storeErr("ledger.read", err)
	}

	if err := s.DB.Model(&row).
		UpdateColumn("xp_total", gorm.Expr("xp_total + ?", delta)).Error; err != nil {
		return nil, storeErr("ledger.update", err)
	}
	row.XPTotal += delta
	return &row, nil
}

// GormEventLogStore backs EventLogStore with the reward_events table.
type GormEventLogStore struct {
	DB *gorm.DB
}

func NewGormEventLogStore(db *gorm.DB) *GormEventLogStore {
	return &GormEventLogStore{DB: db}
}

// Append relies on the composite unique index (user, activity, type): a
// duplicate marker becomes ON CONFLICT DO NOTHING instead of an error, which
// closes most of the check-then-write race window across concurrent requests.
func (s *GormEventLogStore) Append(event *models.RewardEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(event).Error
	if err != nil {
		return storeErr("events.append", err)
	}
	return nil
}

func (s *GormEventLogStore) ReadBy(externalUserID, activityID, eventType string) (*models.RewardEvent, error) {
	var event models.RewardEvent
	err := s.DB.Where("external_user_id = ? AND activity_id = ? AND event_type = ?",
		externalUserID, activityID, eventType).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("events.read", err)
	}
	return &event, nil
}

func (s *GormEventLogStore) SumAmountSince(externalUserID string, cutoff time.Time) (int64, error) {
	var total int64
	err := s.DB.Model(&models.RewardEvent{}).
		Where("external_user_id = ? AND created_at >= ?", externalUserID, cutoff).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, storeErr("events.sum", err)
	}
	return total, nil
}
