package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"leadership-progression-system/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LeaderboardService ranks users by current-season competitive XP and
// computes the elite cutoff.
//
// Hard invariant: rank is a pure function of seasonal xp_total alone. Core
// progression (core_total, tier, code) decorates the displayed row but never
// influences sort order or the cutoff.
type LeaderboardService struct {
	DB  *gorm.DB
	RDB *redis.Client // optional page cache; nil disables caching
}

func NewLeaderboardService(db *gorm.DB, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{DB: db, RDB: rdb}
}

const leaderboardCacheTTL = 30 * time.Second

// LedgerScore is the ranking input: one user's seasonal XP. Nothing else may
// enter the sort.
type LedgerScore struct {
	UserID string
	XP     int64
}

// RankedEntry is a scored user with its dense rank assigned.
type RankedEntry struct {
	UserID string `json:"user_id"`
	XP     int64  `json:"seasonal_xp"`
	Rank   int64  `json:"rank"`
}

// RankEntries assigns dense 1-based ranks: entries with equal seasonal XP
// share a rank number, and the next distinct score gets the next rank. Output
// order is XP descending with user id as a stable secondary sort key — the
// secondary key orders rows for display only and never changes a rank.
func RankEntries(scores []LedgerScore) []RankedEntry {
	sorted := make([]LedgerScore, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].XP != sorted[j].XP {
			return sorted[i].XP > sorted[j].XP
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	ranked := make([]RankedEntry, len(sorted))
	var rank int64
	for i, s := range sorted {
		if i == 0 || s.XP < sorted[i-1].XP {
			rank++
		}
		ranked[i] = RankedEntry{UserID: s.UserID, XP: s.XP, Rank: rank}
	}
	return ranked
}

// EliteCutoffRank is the worst rank still counted as elite: the top 5% of
// participants, minimum one. Integer ceil(total * 0.05).
func EliteCutoffRank(total int64) int64 {
	if total <= 0 {
		return 1
	}
	cutoff := (total + 19) / 20
	if cutoff < 1 {
		return 1
	}
	return cutoff
}

// IsEliteRank reports whether a rank falls inside the elite bracket.
func IsEliteRank(rank, total int64) bool {
	return rank > 0 && rank <= EliteCutoffRank(total)
}

// LeaderboardOptions selects a leaderboard page.
type LeaderboardOptions struct {
	GroupID string
	Page    int
	Size    int
}

// LeaderboardRow is the read-only projection served to display callers —
// never persisted. Identity fields come from the profile and mirror tables;
// rank comes from the ledger alone.
type LeaderboardRow struct {
	Rank        int64  `json:"rank"`
	SeasonalXP  int64  `json:"seasonal_xp"`
	DisplayName string `json:"display_name,omitempty"`
	CodeName    string `json:"code_name"`
	CodeHidden  bool   `json:"code_hidden"`
	SubName     string `json:"sub_name"`
	Elite       bool   `json:"elite"`
}

// GetLeaderboardPage returns one page of ranked rows, newest cache wins.
func (s *LeaderboardService) GetLeaderboardPage(opts LeaderboardOptions) ([]LeaderboardRow, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Size < 1 || opts.Size > 100 {
		opts.Size = 25
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%d:%d", opts.GroupID, opts.Page, opts.Size)
	if rows, ok := s.cacheGet(cacheKey); ok {
		return rows, nil
	}

	var ledger []models.SeasonLedger
	if err := s.DB.Where("group_id = ?", opts.GroupID).
		Order("xp_total DESC, external_user_id ASC").
		Limit(opts.Size).Offset((opts.Page - 1) * opts.Size).
		Find(&ledger).Error; err != nil {
		return nil, storeErr("leaderboard.page", err)
	}
	if len(ledger) == 0 {
		return []LeaderboardRow{}, nil
	}

	var total int64
	if err := s.DB.Model(&models.SeasonLedger{}).
		Where("group_id = ?", opts.GroupID).
		Count(&total).Error; err != nil {
		return nil, storeErr("leaderboard.count", err)
	}

	// Dense rank of the page head = distinct scores strictly above it + 1.
	var above int64
	if err := s.DB.Model(&models.SeasonLedger{}).
		Where("group_id = ? AND xp_total > ?", opts.GroupID, ledger[0].XPTotal).
		Distinct("xp_total").
		Count(&above).Error; err != nil {
		return nil, storeErr("leaderboard.baserank", err)
	}

	userIDs := make([]string, len(ledger))
	scores := make([]LedgerScore, len(ledger))
	for i, row := range ledger {
		userIDs[i] = row.ExternalUserID
		scores[i] = LedgerScore{UserID: row.ExternalUserID, XP: row.XPTotal}
	}
	profiles, mirrors, err := s.loadIdentity(userIDs)
	if err != nil {
		return nil, err
	}

	// Page ranks are the in-page dense ranks shifted by the distinct scores
	// above the page head. RankEntries sorts with the same keys as the SQL
	// ORDER BY, so row order is preserved.
	cutoff := EliteCutoffRank(total)
	ranked := RankEntries(scores)
	rows := make([]LeaderboardRow, len(ranked))
	for i, entry := range ranked {
		rank := above + entry.Rank
		row := LeaderboardRow{
			Rank:       rank,
			SeasonalXP: entry.XP,
			CodeName:   CodeName(0),
			SubName:    ResolveSubName(0, 0, ""),
			Elite:      rank <= cutoff,
		}
		if p, ok := profiles[entry.UserID]; ok {
			row.CodeName = CodeName(p.CodeIndex)
			row.CodeHidden = p.CodeHidden
			row.SubName = p.SubName
		}
		if m, ok := mirrors[entry.UserID]; ok {
			row.DisplayName = m.Username
			if m.DisplayName != nil && *m.DisplayName != "" {
				row.DisplayName = *m.DisplayName
			}
		}
		rows[i] = row
	}

	s.cacheSet(cacheKey, rows)
	return rows, nil
}

// IsElite evaluates the caller's live elite status in the global group.
func (s *LeaderboardService) IsElite(userID string) (bool, error) {
	var entry models.SeasonLedger
	err := s.DB.Where("external_user_id = ? AND group_id = ''", userID).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, storeErr("leaderboard.elite.read", err)
	}

	var above int64
	if err := s.DB.Model(&models.SeasonLedger{}).
		Where("group_id = '' AND xp_total > ?", entry.XPTotal).
		Distinct("xp_total").
		Count(&above).Error; err != nil {
		return false, storeErr("leaderboard.elite.rank", err)
	}

	var total int64
	if err := s.DB.Model(&models.SeasonLedger{}).
		Where("group_id = ''").
		Count(&total).Error; err != nil {
		return false, storeErr("leaderboard.elite.count", err)
	}

	return IsEliteRank(above+1, total), nil
}

// loadIdentity batch-loads the display decoration for a page of users.
func (s *LeaderboardService) loadIdentity(userIDs []string) (map[string]models.ProgressionProfile, map[string]models.MirrorUser, error) {
	var profileRows []models.ProgressionProfile
	if err := s.DB.Where("external_user_id IN ?", userIDs).Find(&profileRows).Error; err != nil {
		return nil, nil, storeErr("leaderboard.profiles", err)
	}
	profiles := make(map[string]models.ProgressionProfile, len(profileRows))
	for _, p := range profileRows {
		profiles[p.ExternalUserID] = p
	}

	var mirrorRows []models.MirrorUser
	if err := s.DB.Where("external_user_id IN ?", userIDs).Find(&mirrorRows).Error; err != nil {
		return nil, nil, storeErr("leaderboard.mirrors", err)
	}
	mirrors := make(map[string]models.MirrorUser, len(mirrorRows))
	for _, m := range mirrorRows {
		mirrors[m.ExternalUserID] = m
	}

	return profiles, mirrors, nil
}

func (s *LeaderboardService) cacheGet(key string) ([]LeaderboardRow, bool) {
	if s.RDB == nil {
		return nil, false
	}
	raw, err := s.RDB.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []LeaderboardRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *LeaderboardService) cacheSet(key string, rows []LeaderboardRow) {
	if s.RDB == nil {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.RDB.Set(context.Background(), key, raw, leaderboardCacheTTL).Err(); err != nil {
		log.Printf("⚠️  [LEADERBOARD] cache set failed for %s: %v", key, err)
	}
}
