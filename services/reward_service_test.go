package services

import (
	"errors"
	"testing"
	"time"

	"leadership-progression-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory store fakes ---

type fakeProfileStore struct {
	profiles map[string]*models.ProgressionProfile
	readErr  error
	saveErr  error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[string]*models.ProgressionProfile{}}
}

func (f *fakeProfileStore) ReadByUser(externalUserID string) (*models.ProgressionProfile, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	p, ok := f.profiles[externalUserID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) Save(profile *models.ProgressionProfile) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *profile
	f.profiles[profile.ExternalUserID] = &cp
	return nil
}

type fakeLedgerStore struct {
	xp map[string]int64 // key: user|group
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{xp: map[string]int64{}}
}

func (f *fakeLedgerStore) ReadByUser(externalUserID, groupID string) (*models.SeasonLedger, error) {
	key := externalUserID + "|" + groupID
	total, ok := f.xp[key]
	if !ok {
		return nil, nil
	}
	return &models.SeasonLedger{ExternalUserID: externalUserID, GroupID: groupID, XPTotal: total}, nil
}

func (f *fakeLedgerStore) AddXP(externalUserID, groupID string, delta int64) (*models.SeasonLedger, error) {
	key := externalUserID + "|" + groupID
	f.xp[key] += delta
	return &models.SeasonLedger{ExternalUserID: externalUserID, GroupID: groupID, XPTotal: f.xp[key]}, nil
}

type fakeEventLog struct {
	events []models.RewardEvent
	now    func() time.Time
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{now: time.Now}
}

func (f *fakeEventLog) Append(event *models.RewardEvent) error {
	for _, e := range f.events {
		if e.ExternalUserID == event.ExternalUserID &&
			e.ActivityID == event.ActivityID &&
			e.EventType == event.EventType {
			return nil // conditional insert: duplicate marker is a silent no-op
		}
	}
	cp := *event
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = f.now()
	}
	f.events = append(f.events, cp)
	return nil
}

func (f *fakeEventLog) ReadBy(externalUserID, activityID, eventType string) (*models.RewardEvent, error) {
	for _, e := range f.events {
		if e.ExternalUserID == externalUserID && e.ActivityID == activityID && e.EventType == eventType {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeEventLog) SumAmountSince(externalUserID string, cutoff time.Time) (int64, error) {
	var total int64
	for _, e := range f.events {
		if e.ExternalUserID == externalUserID && !e.CreatedAt.Before(cutoff) {
			total += e.Amount
		}
	}
	return total, nil
}

func newTestRewardService() (*RewardService, *fakeProfileStore, *fakeLedgerStore, *fakeEventLog) {
	profiles := newFakeProfileStore()
	ledger := newFakeLedgerStore()
	events := newFakeEventLog()
	svc := NewRewardService(profiles, ledger, events, NewAnalyticsBuffer(16))
	return svc, profiles, ledger, events
}

// --- tests ---

func TestApplySeasonalEarnFirstReward(t *testing.T) {
	svc, profiles, ledger, events := newTestRewardService()

	result, err := svc.ApplySeasonalEarn("user-1", "activity-1", 100, "workshop")
	require.NoError(t, err)

	assert.False(t, result.AlreadyApplied)
	assert.Equal(t, int64(100), result.SeasonalCredited)
	// 100 / 45 = 2.22… → 2 whole core units, remainder buffered
	assert.Equal(t, int64(2), result.CoreGain)
	assert.Equal(t, int64(2), result.NewCoreTotal)

	profile := profiles.profiles["user-1"]
	require.NotNil(t, profile)
	assert.Equal(t, int64(2), profile.CoreTotal)
	assert.InDelta(t, 100.0/45.0-2.0, profile.CoreBuffer, 1e-9)
	assert.Equal(t, 1, profile.Stage)
	assert.Equal(t, "Observer", profile.SubName)

	assert.Equal(t, int64(100), ledger.xp["user-1|"])
	assert.Len(t, events.events, 1)
}

func TestApplySeasonalEarnIdempotent(t *testing.T) {
	svc, _, ledger, events := newTestRewardService()

	first, err := svc.ApplySeasonalEarn("user-1", "activity-1", 100, "workshop")
	require.NoError(t, err)

	second, err := svc.ApplySeasonalEarn("user-1", "activity-1", 100, "workshop")
	require.NoError(t, err)

	assert.True(t, second.AlreadyApplied)
	// The duplicate reports the amount the first application credited.
	assert.Equal(t, first.SeasonalCredited, second.SeasonalCredited)
	assert.Equal(t, first.NewCoreTotal, second.NewCoreTotal)

	// Retry must not double-credit anything.
	assert.Equal(t, int64(100), ledger.xp["user-1|"])
	assert.Len(t, events.events, 1)
}

func TestApplySeasonalEarnDuplicateReportsClampedAmount(t *testing.T) {
	svc, _, _, _ := newTestRewardService()

	first, err := svc.ApplySeasonalEarn("user-1", "activity-1", 5000, "marathon")
	require.NoError(t, err)
	assert.Equal(t, DailyEarnCap, first.SeasonalCredited)

	second, err := svc.ApplySeasonalEarn("user-1", "activity-1", 5000, "marathon")
	require.NoError(t, err)
	assert.True(t, second.AlreadyApplied)
	assert.Equal(t, DailyEarnCap, second.SeasonalCredited)
}

func TestApplySeasonalEarnDuplicateProfileReadFailure(t *testing.T) {
	svc, profiles, _, _ := newTestRewardService()

	_, err := svc.ApplySeasonalEarn("user-1", "activity-1", 100, "workshop")
	require.NoError(t, err)

	// A store failure on the duplicate path surfaces instead of masquerading
	// as a zeroed result.
	profiles.readErr = errors.New("connection reset")
	_, err = svc.ApplySeasonalEarn("user-1", "activity-1", 100, "workshop")
	require.Error(t, err)
}

func TestApplySeasonalEarnLateRate(t *testing.T) {
	svc, profiles, _, _ := newTestRewardService()
	profiles.profiles["user-1"] = &models.ProgressionProfile{
		ExternalUserID:          "user-1",
		CoreTotal:               500,
		SubNameRenamedAtCodeIdx: -1,
	}

	result, err := svc.ApplySeasonalEarn("user-1", "activity-1", 120, "summit")
	require.NoError(t, err)

	// 120 / 60 = 2 exactly at the late rate
	assert.Equal(t, int64(2), result.CoreGain)
	assert.Equal(t, int64(502), result.NewCoreTotal)
	assert.InDelta(t, 0, profiles.profiles["user-1"].CoreBuffer, 1e-9)
}

func TestApplySeasonalEarnBufferCarry(t *testing.T) {
	svc, profiles, _, _ := newTestRewardService()
	profiles.profiles["user-1"] = &models.ProgressionProfile{
		ExternalUserID:          "user-1",
		CoreTotal:               10,
		CoreBuffer:              0.9,
		SubNameRenamedAtCodeIdx: -1,
	}

	// 10 / 45 = 0.2222 fractional; 0.9 carried over crosses 1.0
	result, err := svc.ApplySeasonalEarn("user-1", "activity-1", 10, "daily")
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.CoreGain)
	assert.Equal(t, int64(11), result.NewCoreTotal)

	buffer := profiles.profiles["user-1"].CoreBuffer
	assert.GreaterOrEqual(t, buffer, 0.0)
	assert.Less(t, buffer, 1.0)
}

func TestApplySeasonalEarnDailyCap(t *testing.T) {
	svc, _, ledger, _ := newTestRewardService()

	first, err := svc.ApplySeasonalEarn("user-1", "activity-1", 800, "sprint")
	require.NoError(t, err)
	assert.Equal(t, int64(800), first.SeasonalCredited)

	second, err := svc.ApplySeasonalEarn("user-1", "activity-2", 800, "sprint")
	require.NoError(t, err)
	assert.Equal(t, int64(400), second.SeasonalCredited)

	third, err := svc.ApplySeasonalEarn("user-1", "activity-3", 50, "sprint")
	require.NoError(t, err)
	assert.Equal(t, int64(0), third.SeasonalCredited)
	assert.False(t, third.AlreadyApplied)

	assert.Equal(t, DailyEarnCap, ledger.xp["user-1|"])
}

func TestApplySeasonalEarnCapResetsNextDay(t *testing.T) {
	svc, _, ledger, events := newTestRewardService()

	day1 := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day1 }
	events.now = svc.now

	_, err := svc.ApplySeasonalEarn("user-1", "activity-1", 1200, "marathon")
	require.NoError(t, err)

	day2 := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day2 }
	events.now = svc.now

	result, err := svc.ApplySeasonalEarn("user-1", "activity-2", 300, "marathon")
	require.NoError(t, err)
	assert.Equal(t, int64(300), result.SeasonalCredited)
	assert.Equal(t, int64(1500), ledger.xp["user-1|"])
}

func TestApplySeasonalEarnValidation(t *testing.T) {
	svc, _, _, _ := newTestRewardService()

	_, err := svc.ApplySeasonalEarn("", "activity-1", 100, "x")
	_, ok := AsValidationError(err)
	assert.True(t, ok)

	_, err = svc.ApplySeasonalEarn("user-1", "", 100, "x")
	_, ok = AsValidationError(err)
	assert.True(t, ok)

	_, err = svc.ApplySeasonalEarn("user-1", "activity-1", -5, "x")
	_, ok = AsValidationError(err)
	assert.True(t, ok)
}

func TestApplySeasonalEarnMarkerWrittenLast(t *testing.T) {
	svc, profiles, _, events := newTestRewardService()
	profiles.saveErr = errors.New("disk full")

	_, err := svc.ApplySeasonalEarn("user-1", "activity-1", 100, "workshop")
	require.Error(t, err)

	// No marker means the client's retry will re-apply instead of no-opping.
	assert.Empty(t, events.events)

	profiles.saveErr = nil
	result, err := svc.ApplySeasonalEarn("user-1", "activity-1", 100, "workshop")
	require.NoError(t, err)
	assert.False(t, result.AlreadyApplied)
	assert.Len(t, events.events, 1)
}

func TestGetProgressionSummaryFreshUser(t *testing.T) {
	svc, _, _, _ := newTestRewardService()

	summary, err := svc.GetProgressionSummary("nobody")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Stage)
	assert.Equal(t, "Foundations", summary.CodeName)
	assert.False(t, summary.CodeHidden)
	assert.Equal(t, "Observer", summary.SubName)
}

func TestRefreshDerivedCodeAdvanceReopensRename(t *testing.T) {
	svc, _, _, _ := newTestRewardService()

	profile := &models.ProgressionProfile{
		ExternalUserID:          "user-1",
		CoreTotal:               999, // tier 99, still code 0
		SubName:                 "Mav",
		SubNameRenamedInCode:    true,
		SubNameRenamedAtCodeIdx: 0,
	}
	svc.refreshDerived(profile)
	assert.True(t, profile.SubNameRenamedInCode)
	assert.Equal(t, "Mav", profile.SubName)

	profile.CoreTotal = 1000 // tier 100, code 1
	svc.refreshDerived(profile)
	assert.False(t, profile.SubNameRenamedInCode)
	assert.Equal(t, 1, profile.CodeIndex)
	// Custom name from the previous code band is replaced by the new default.
	assert.Equal(t, "Motivator", profile.SubName)
}

func TestRefreshDerivedBoundlessHidesCode(t *testing.T) {
	svc, _, _, _ := newTestRewardService()

	profile := &models.ProgressionProfile{
		ExternalUserID:          "user-1",
		CoreTotal:               6000, // tier 600, code 6
		SubNameRenamedAtCodeIdx: -1,
	}
	svc.refreshDerived(profile)

	assert.Equal(t, MaxCodeIndex, profile.CodeIndex)
	assert.True(t, profile.CodeHidden)
	assert.Equal(t, SubNamePlaceholder, profile.SubName)
	assert.Equal(t, MaxStage, profile.Stage)
}
