package services

import (
	"math"
	"strings"
)

// Conversion rates: seasonal units per one core unit. The rate is decided by
// the pre-award core total, no look-ahead.
const (
	EarlyConversionRate    int64 = 45
	LateConversionRate     int64 = 60
	ConversionRateBoundary int64 = 200
)

// Derivation constants. Tier is internal and never displayed; 100 tiers form
// a named code band, 25 tiers a sub-tier quartile.
const (
	CoreUnitsPerTier  int64 = 10
	TiersPerCode      int64 = 100
	TiersPerSubGroup  int64 = 25
	MaxCodeIndex            = 6 // "boundless" band, hidden
	MaxStage                = 7
	CoreUnitsPerStage int64 = 100
)

// ConversionResult is the outcome of converting seasonal earnings into the
// permanent core currency.
type ConversionResult struct {
	Rate             int64   `json:"rate"`
	CoreGain         int64   `json:"core_gain"`
	FractionalBuffer float64 `json:"fractional_buffer"` // remainder in [0,1)
}

// ConvertSeasonalToCore converts seasonal XP into whole core units plus a
// fractional remainder. No-op for non-positive earnings.
func ConvertSeasonalToCore(seasonalEarned, currentCoreTotal int64) ConversionResult {
	rate := EarlyConversionRate
	if currentCoreTotal >= ConversionRateBoundary {
		rate = LateConversionRate
	}

	if seasonalEarned <= 0 {
		return ConversionResult{Rate: rate}
	}

	exact := float64(seasonalEarned) / float64(rate)
	gain := math.Floor(exact)

	return ConversionResult{
		Rate:             rate,
		CoreGain:         int64(gain),
		FractionalBuffer: exact - gain,
	}
}

// TierFromCore derives the internal tier from the permanent core total.
func TierFromCore(core int64) int64 {
	if core < 0 {
		return 0
	}
	return core / CoreUnitsPerTier
}

// CodeIndexFromTier derives the code band (0..6) from the tier.
func CodeIndexFromTier(tier int64) int {
	if tier < 0 {
		return 0
	}
	idx := tier / TiersPerCode
	if idx > MaxCodeIndex {
		return MaxCodeIndex
	}
	return int(idx)
}

// SubTierGroupFromTier derives the quartile (0..3) within the current code.
func SubTierGroupFromTier(tier int64) int {
	if tier < 0 {
		return 0
	}
	group := (tier % TiersPerCode) / TiersPerSubGroup
	if group > 3 {
		return 3
	}
	return int(group)
}

// StageFromCore derives the coarse display pacing value (1..7). Independent
// of tier — stage is what display callers see, tier stays internal.
func StageFromCore(core int64) int {
	if core < 0 {
		return 1
	}
	stage := core/CoreUnitsPerStage + 1
	if stage > MaxStage {
		return MaxStage
	}
	return int(stage)
}

// codeNames are the seven named bands. The last band is hidden from normal
// display ("boundless").
var codeNames = [MaxCodeIndex + 1]string{
	"Foundations",
	"Catalyst",
	"Strategist",
	"Architect",
	"Vanguard",
	"Luminary",
	"Boundless",
}

// CodeName returns the display name for a code band. Out-of-range indexes
// clamp rather than error.
func CodeName(codeIndex int) string {
	if codeIndex < 0 {
		codeIndex = 0
	}
	if codeIndex > MaxCodeIndex {
		codeIndex = MaxCodeIndex
	}
	return codeNames[codeIndex]
}

// defaultSubNames is the fixed default identity table: one name per sub-tier
// quartile within each code band. The boundless band has no defaults — users
// there either renamed earlier or fall back to the placeholder.
var defaultSubNames = [MaxCodeIndex][4]string{
	{"Observer", "Listener", "Contributor", "Collaborator"}, // Foundations
	{"Motivator", "Facilitator", "Advocate", "Mobilizer"},   // Catalyst
	{"Planner", "Tactician", "Orchestrator", "Visionary"},   // Strategist
	{"Designer", "Builder", "Integrator", "Mastermind"},     // Architect
	{"Pathfinder", "Trailblazer", "Champion", "Spearhead"},  // Vanguard
	{"Mentor", "Beacon", "Sage", "Icon"},                    // Luminary
}

// SubNamePlaceholder is shown when no default exists (boundless band) and the
// user never picked a custom name.
const SubNamePlaceholder = "Nameless"

// ResolveSubName picks the identity name to display: a non-empty trimmed
// custom name always wins, otherwise the default table entry for the user's
// current position.
func ResolveSubName(codeIndex, subTierGroup int, custom string) string {
	if trimmed := strings.TrimSpace(custom); trimmed != "" {
		return trimmed
	}

	if codeIndex < 0 {
		codeIndex = 0
	}
	if codeIndex >= MaxCodeIndex {
		return SubNamePlaceholder
	}
	if subTierGroup < 0 {
		subTierGroup = 0
	}
	if subTierGroup > 3 {
		subTierGroup = 3
	}
	return defaultSubNames[codeIndex][subTierGroup]
}
