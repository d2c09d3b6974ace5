package services

import (
	"log"
	"strings"
	"unicode"

	"leadership-progression-system/models"

	"golang.org/x/text/unicode/norm"
)

// Rename gates. A custom sub-name unlocks at tier 25 and may be used once per
// code band; advancing into a new code re-opens eligibility automatically.
const (
	RenameMinTier      int64 = 25
	SubNameMinRunes          = 1
	SubNameMaxRunes          = 7
)

// EliteChecker is the live elite evaluation the rename gate depends on.
// Satisfied by LeaderboardService.
type EliteChecker interface {
	IsElite(userID string) (bool, error)
}

// RenameService is the tier- and elite-gated identity customization workflow.
// Per-user state machine: Locked (tier < 25) → Unlocked-unused (tier ≥ 25,
// watermark below the current code) → Used (watermark equals the current
// code); a code advance moves Used back to Unlocked-unused.
type RenameService struct {
	Profiles ProfileStore
	Elite    EliteChecker
}

func NewRenameService(profiles ProfileStore, elite EliteChecker) *RenameService {
	return &RenameService{Profiles: profiles, Elite: elite}
}

// RequestRename applies a custom sub-name. Preconditions are checked in
// order and the first failure short-circuits: tier gate, once-per-code gate,
// boundless-band gate, live elite gate, then name validation.
func (s *RenameService) RequestRename(userID, proposedName string) (*models.ProgressionProfile, error) {
	profile, err := s.Profiles.ReadByUser(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.Tier < RenameMinTier {
		return nil, &ConflictError{Reason: "tier_too_low", Message: "sub-name customization unlocks at tier 25"}
	}
	if profile.SubNameRenamedAtCodeIdx == profile.CodeIndex {
		return nil, &ConflictError{Reason: "already_renamed_in_code", Message: "sub-name already customized within this code"}
	}
	if profile.CodeIndex >= MaxCodeIndex {
		return nil, &ConflictError{Reason: "boundless_band", Message: "the boundless band has a separate naming flow"}
	}

	elite, err := s.Elite.IsElite(userID)
	if err != nil {
		return nil, err
	}
	if !elite {
		return nil, &ConflictError{Reason: "not_elite", Message: "only the current top-5% bracket may rename"}
	}

	clean, err := ValidateSubName(proposedName)
	if err != nil {
		return nil, err
	}

	profile.SubName = clean
	profile.SubNameRenamedInCode = true
	profile.SubNameRenamedAtCodeIdx = profile.CodeIndex
	if err := s.Profiles.Save(profile); err != nil {
		return nil, err
	}

	log.Printf("✏️  [RENAME] user=%s code=%d sub_name=%q", userID, profile.CodeIndex, clean)
	return profile, nil
}

// ValidateSubName normalizes (NFC) and trims the proposed name, then checks
// rune length 1–7 and the allowed charset: Unicode letters, digits,
// whitespace, hyphen, underscore.
func ValidateSubName(proposed string) (string, error) {
	clean := strings.TrimSpace(norm.NFC.String(proposed))

	runes := []rune(clean)
	if len(runes) < SubNameMinRunes {
		return "", &ValidationError{Reason: "name_empty", Message: "sub-name must not be empty"}
	}
	if len(runes) > SubNameMaxRunes {
		return "", &ValidationError{Reason: "name_too_long", Message: "sub-name is limited to 7 characters"}
	}
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' || r == '_' {
			continue
		}
		return "", &ValidationError{Reason: "name_invalid_chars", Message: "sub-name may only contain letters, digits, spaces, hyphens and underscores"}
	}
	return clean, nil
}
