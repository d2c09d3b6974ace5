package services

import (
	"log"
	"math"
	"time"

	"leadership-progression-system/models"
)

// RewardService is the idempotent application coordinator: it turns one raw
// activity reward into ledger + profile updates, guarded by the daily cap and
// the event-log marker.
//
// There is no cross-store transaction. Steps run strictly in order and abort
// on the first store error with no compensating rollback; the marker write is
// deliberately last, so a crash before it is retry-safe and a crash after it
// is retry-ignorable. Idempotent from the caller's perspective, at-least-once
// internally except for the marker.
type RewardService struct {
	Profiles  ProfileStore
	Ledger    LedgerStore
	Events    EventLogStore
	Analytics *AnalyticsBuffer // optional secondary sink, may be nil

	now func() time.Time // injectable for tests
}

func NewRewardService(profiles ProfileStore, ledger LedgerStore, events EventLogStore, analytics *AnalyticsBuffer) *RewardService {
	return &RewardService{
		Profiles:  profiles,
		Ledger:    ledger,
		Events:    events,
		Analytics: analytics,
		now:       time.Now,
	}
}

// ApplyResult is the realized outcome of one reward application.
type ApplyResult struct {
	AlreadyApplied   bool  `json:"already_applied"`
	SeasonalCredited int64 `json:"seasonal_credited"` // post-clamp gain, may be 0 on a capped day
	CoreGain         int64 `json:"core_gain"`
	NewCoreTotal     int64 `json:"new_core_total"`
}

// ApplySeasonalEarn applies one activity's reward at most once. Safe to
// retry: a duplicate (userID, activityID) returns a no-op success.
func (s *RewardService) ApplySeasonalEarn(userID, activityID string, amount int64, source string) (*ApplyResult, error) {
	if userID == "" || activityID == "" {
		return nil, &ValidationError{Reason: "missing_id", Message: "user id and activity id are required"}
	}
	if amount < 0 {
		return nil, &ValidationError{Reason: "negative_amount", Message: "reward amount must be non-negative"}
	}

	// (a) Marker check — duplicate means the reward already landed, so the
	// caller gets the prior outcome back instead of a fresh application.
	prior, err := s.Events.ReadBy(userID, activityID, models.EventTypeSeasonalEarn)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		result := &ApplyResult{AlreadyApplied: true, SeasonalCredited: prior.Amount}
		profile, err := s.Profiles.ReadByUser(userID)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			result.NewCoreTotal = profile.CoreTotal
		}
		return result, nil
	}

	// (b) Daily cap, summed across every reward source for this UTC day.
	todayTotal, err := s.Events.SumAmountSince(userID, StartOfUTCDay(s.now()))
	if err != nil {
		return nil, err
	}
	credited := ClampDailyEarn(amount, todayTotal)

	// (c) Seasonal ledger upsert.
	if _, err := s.Ledger.AddXP(userID, "", credited); err != nil {
		return nil, err
	}

	// (d) Convert against the pre-award core total, fold the remainder into
	// the buffer and carry whole units into the core.
	profile, err := s.Profiles.ReadByUser(userID)
	if err != nil {
		log.Printf("[RECONCILE] ledger credited but profile read failed: user=%s activity=%s credited=%d err=%v",
			userID, activityID, credited, err)
		return nil, err
	}
	if profile == nil {
		profile = s.newProfile(userID)
	}

	conv := ConvertSeasonalToCore(credited, profile.CoreTotal)
	buffer := profile.CoreBuffer + conv.FractionalBuffer
	carry := int64(math.Floor(buffer))
	gain := conv.CoreGain + carry

	profile.CoreTotal += gain
	profile.CoreBuffer = buffer - float64(carry)

	// (e) Recompute the caches and refresh identity.
	s.refreshDerived(profile)

	// (f) Persist the profile before the marker, never after.
	if err := s.Profiles.Save(profile); err != nil {
		log.Printf("[RECONCILE] ledger credited but profile save failed: user=%s activity=%s credited=%d err=%v",
			userID, activityID, credited, err)
		return nil, err
	}

	// (g) Marker last: a crash before this line leaves a retryable state.
	if err := s.Events.Append(&models.RewardEvent{
		ExternalUserID: userID,
		ActivityID:     activityID,
		EventType:      models.EventTypeSeasonalEarn,
		Amount:         credited,
		Source:         source,
	}); err != nil {
		log.Printf("[RECONCILE] reward applied but marker append failed: user=%s activity=%s credited=%d err=%v",
			userID, activityID, credited, err)
		return nil, err
	}

	if s.Analytics != nil {
		s.Analytics.Record(AppliedRewardSample{
			UserID:           userID,
			ActivityID:       activityID,
			Source:           source,
			SeasonalCredited: credited,
			CoreGain:         gain,
			AppliedAt:        s.now().UTC(),
		})
	}

	log.Printf("🏅 [REWARD] user=%s activity=%s source=%s seasonal=+%d core=+%d (total=%d)",
		userID, activityID, source, credited, gain, profile.CoreTotal)

	return &ApplyResult{
		SeasonalCredited: credited,
		CoreGain:         gain,
		NewCoreTotal:     profile.CoreTotal,
	}, nil
}

// ProgressionSummary is the display view of permanent progression. Tier is
// internal and never leaves the engine — display callers get stage, code and
// sub-name only.
type ProgressionSummary struct {
	Stage      int    `json:"stage"`
	CodeName   string `json:"code_name"`
	CodeHidden bool   `json:"code_hidden"`
	SubName    string `json:"sub_name"`
}

func (s *RewardService) GetProgressionSummary(userID string) (*ProgressionSummary, error) {
	profile, err := s.Profiles.ReadByUser(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		// No profile just means no rewards yet; show the starting identity.
		fresh := s.newProfile(userID)
		return &ProgressionSummary{
			Stage:    fresh.Stage,
			CodeName: CodeName(fresh.CodeIndex),
			SubName:  fresh.SubName,
		}, nil
	}
	return &ProgressionSummary{
		Stage:      profile.Stage,
		CodeName:   CodeName(profile.CodeIndex),
		CodeHidden: profile.CodeHidden,
		SubName:    profile.SubName,
	}, nil
}

// newProfile builds the lazily-created default profile: tier 0, code 0,
// lowest sub-name.
func (s *RewardService) newProfile(userID string) *models.ProgressionProfile {
	return &models.ProgressionProfile{
		ExternalUserID:          userID,
		Stage:                   1,
		SubName:                 ResolveSubName(0, 0, ""),
		SubNameRenamedAtCodeIdx: -1,
	}
}

// refreshDerived recomputes the cached tier/code/stage from core_total and
// refreshes the default sub-name unless the user renamed within the current
// code. Advancing into a new code re-opens rename eligibility.
func (s *RewardService) refreshDerived(profile *models.ProgressionProfile) {
	profile.Tier = TierFromCore(profile.CoreTotal)
	profile.CodeIndex = CodeIndexFromTier(profile.Tier)
	profile.Stage = StageFromCore(profile.CoreTotal)
	profile.CodeHidden = profile.CodeIndex == MaxCodeIndex

	profile.SubNameRenamedInCode = profile.SubNameRenamedAtCodeIdx == profile.CodeIndex
	if !profile.SubNameRenamedInCode {
		group := SubTierGroupFromTier(profile.Tier)
		profile.SubName = ResolveSubName(profile.CodeIndex, group, "")
	}
}
