package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankEntriesDenseTies(t *testing.T) {
	ranked := RankEntries([]LedgerScore{
		{UserID: "a", XP: 50},
		{UserID: "b", XP: 50},
		{UserID: "c", XP: 30},
	})

	assert.Equal(t, int64(1), ranked[0].Rank)
	assert.Equal(t, int64(1), ranked[1].Rank)
	// Dense ranking: the next distinct score gets rank 2, not 3.
	assert.Equal(t, int64(2), ranked[2].Rank)
}

func TestRankEntriesStableSecondaryOrder(t *testing.T) {
	ranked := RankEntries([]LedgerScore{
		{UserID: "z", XP: 50},
		{UserID: "a", XP: 50},
	})

	// Ties display in user-id order but share the rank.
	assert.Equal(t, "a", ranked[0].UserID)
	assert.Equal(t, "z", ranked[1].UserID)
	assert.Equal(t, ranked[0].Rank, ranked[1].Rank)
}

func TestRankEntriesXPOnly(t *testing.T) {
	ranked := RankEntries([]LedgerScore{
		{UserID: "low-core-high-xp", XP: 900},
		{UserID: "high-core-low-xp", XP: 100},
	})

	assert.Equal(t, "low-core-high-xp", ranked[0].UserID)
	assert.Equal(t, int64(1), ranked[0].Rank)
	assert.Equal(t, int64(2), ranked[1].Rank)
}

func TestRankEntriesEmpty(t *testing.T) {
	assert.Empty(t, RankEntries(nil))
}

func TestPageRankOffsetMatchesFullRanking(t *testing.T) {
	full := []LedgerScore{
		{UserID: "a", XP: 50},
		{UserID: "b", XP: 50},
		{UserID: "c", XP: 30},
		{UserID: "d", XP: 30},
		{UserID: "e", XP: 10},
	}
	ranked := RankEntries(full)

	// A page starting inside a tie group: page 2 of size 2 holds c and d.
	// Distinct scores strictly above the page head (30) is 1, so page ranks
	// shifted by that count must equal the full-standings dense ranks.
	page := RankEntries(full[2:4])
	var above int64 = 1
	assert.Equal(t, ranked[2].Rank, above+page[0].Rank)
	assert.Equal(t, ranked[3].Rank, above+page[1].Rank)

	// Page boundary splitting a tie: page of size 1 holding only b.
	pageB := RankEntries(full[1:2])
	var aboveB int64 = 0 // no score strictly above 50
	assert.Equal(t, ranked[1].Rank, aboveB+pageB[0].Rank)
}

func TestEliteCutoffRank(t *testing.T) {
	// Minimum one elite slot, even for a lone participant.
	assert.Equal(t, int64(1), EliteCutoffRank(0))
	assert.Equal(t, int64(1), EliteCutoffRank(1))
	assert.Equal(t, int64(1), EliteCutoffRank(20))
	// Ceil: 21 participants → 2 slots.
	assert.Equal(t, int64(2), EliteCutoffRank(21))
	assert.Equal(t, int64(2), EliteCutoffRank(40))
	assert.Equal(t, int64(5), EliteCutoffRank(100))
	assert.Equal(t, int64(50), EliteCutoffRank(1000))
}

func TestIsEliteRank(t *testing.T) {
	assert.True(t, IsEliteRank(1, 100))
	assert.True(t, IsEliteRank(5, 100))
	assert.False(t, IsEliteRank(6, 100))
	assert.False(t, IsEliteRank(0, 100))
}
