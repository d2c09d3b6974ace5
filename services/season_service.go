package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"leadership-progression-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SeasonCarryoverDivisor: a season boundary keeps floor(old * 0.1) of each
// user's seasonal XP. For non-negative integers that is plain division by 10.
const SeasonCarryoverDivisor int64 = 10

// SeasonService owns the season window table and boundary resets. Triggering
// is the scheduler's job; the reset itself is guarded so repeated invocation
// for the same window cannot compound the carryover.
type SeasonService struct {
	DB *gorm.DB

	// ArchiveFunc uploads the end-of-season standings snapshot (R2). Optional;
	// archive failures are logged, never fatal to the reset.
	ArchiveFunc func(key string, data []byte) (string, error)
}

func NewSeasonService(db *gorm.DB) *SeasonService {
	return &SeasonService{DB: db}
}

// IsWithinSeason reports inclusive membership of a fixed-width ISO date
// (YYYY-MM-DD) in the window. Lexicographic comparison is valid for this
// format, no time parsing needed.
func IsWithinSeason(date string, window *models.SeasonWindow) bool {
	return window.StartDate <= date && date <= window.EndDate
}

// CarryoverXP computes the seasonal XP that survives a boundary.
func CarryoverXP(old int64) int64 {
	if old < 0 {
		return 0
	}
	return old / SeasonCarryoverDivisor
}

// CreateWindow registers a new season window after validating the dates.
func (s *SeasonService) CreateWindow(name, startDate, endDate string) (*models.SeasonWindow, error) {
	for _, d := range []string{startDate, endDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, &ValidationError{Reason: "bad_date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", d)}
		}
	}
	if endDate < startDate {
		return nil, &ValidationError{Reason: "inverted_window", Message: "end date precedes start date"}
	}

	window := models.SeasonWindow{ID: uuid.NewString(), Name: name, StartDate: startDate, EndDate: endDate}
	if err := s.DB.Create(&window).Error; err != nil {
		return nil, storeErr("season.create", err)
	}
	return &window, nil
}

// CurrentWindow returns the window containing today (UTC), or (nil, nil).
func (s *SeasonService) CurrentWindow() (*models.SeasonWindow, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var window models.SeasonWindow
	err := s.DB.Where("start_date <= ? AND end_date >= ?", today, today).First(&window).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("season.current", err)
	}
	return &window, nil
}

// EndedUnresetWindows lists windows whose boundary has passed but whose reset
// has not been claimed yet. The scheduler sweeps these.
func (s *SeasonService) EndedUnresetWindows() ([]models.SeasonWindow, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var windows []models.SeasonWindow
	err := s.DB.Where("end_date < ? AND reset_at IS NULL", today).Find(&windows).Error
	if err != nil {
		return nil, storeErr("season.sweep", err)
	}
	return windows, nil
}

// seasonStanding is one archived ledger row.
type seasonStanding struct {
	ExternalUserID string `json:"external_user_id"`
	GroupID        string `json:"group_id,omitempty"`
	XPTotal        int64  `json:"xp_total"`
}

// ResetSeason applies the boundary for one window: archive the final
// standings, then zero the ledger with partial carryover. Core progression is
// untouched. At-most-once: the window row is claimed with a conditional
// update before anything is mutated, so a concurrent or repeated trigger
// returns a ConflictError instead of compounding the carryover.
func (s *SeasonService) ResetSeason(windowID string) error {
	var window models.SeasonWindow
	if err := s.DB.First(&window, "id = ?", windowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationError{Reason: "unknown_window", Message: "season window not found"}
		}
		return storeErr("season.read", err)
	}
	if window.ResetAt != nil {
		return &ConflictError{Reason: "season_already_reset", Message: "this window's boundary was already applied"}
	}

	// Claim the boundary first.
	now := time.Now().UTC()
	claim := s.DB.Model(&models.SeasonWindow{}).
		Where("id = ? AND reset_at IS NULL", windowID).
		Update("reset_at", now)
	if claim.Error != nil {
		return storeErr("season.claim", claim.Error)
	}
	if claim.RowsAffected == 0 {
		return &ConflictError{Reason: "season_already_reset", Message: "another trigger claimed this boundary"}
	}

	s.archiveStandings(&window)

	if err := s.DB.Model(&models.SeasonLedger{}).
		Where("1 = 1").
		UpdateColumn("xp_total", gorm.Expr("xp_total / ?", SeasonCarryoverDivisor)).Error; err != nil {
		log.Printf("[RECONCILE] season boundary claimed but ledger reset failed: window=%s err=%v", windowID, err)
		return storeErr("season.reset", err)
	}

	log.Printf("🔄 [SEASON] boundary applied: window=%s (%s) carryover=1/%d", windowID, window.Name, SeasonCarryoverDivisor)
	return nil
}

// archiveStandings exports the final ledger to object storage. Best effort —
// the durable ledger history lives in the event log, the archive is for
// reporting.
func (s *SeasonService) archiveStandings(window *models.SeasonWindow) {
	if s.ArchiveFunc == nil {
		return
	}

	var standings []seasonStanding
	if err := s.DB.Model(&models.SeasonLedger{}).
		Select("external_user_id, group_id, xp_total").
		Order("xp_total DESC, external_user_id ASC").
		Scan(&standings).Error; err != nil {
		log.Printf("⚠️  [SEASON] archive skipped, standings query failed: window=%s err=%v", window.ID, err)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"window_id":  window.ID,
		"name":       window.Name,
		"start_date": window.StartDate,
		"end_date":   window.EndDate,
		"standings":  standings,
	})
	if err != nil {
		log.Printf("⚠️  [SEASON] archive marshal failed: window=%s err=%v", window.ID, err)
		return
	}

	key := SeasonArchiveKey(window.Name)
	url, err := s.ArchiveFunc(key, payload)
	if err != nil {
		log.Printf("⚠️  [SEASON] archive upload failed: window=%s key=%s err=%v", window.ID, key, err)
		return
	}
	log.Printf("📦 [SEASON] standings archived: window=%s url=%s entries=%d", window.ID, url, len(standings))
}

// SeasonArchiveKey builds the object key for a window's standings snapshot.
func SeasonArchiveKey(windowName string) string {
	return fmt.Sprintf("season-archives/%s.json", slug.Make(windowName))
}
