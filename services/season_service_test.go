package services

import (
	"testing"

	"leadership-progression-system/models"

	"github.com/stretchr/testify/assert"
)

func TestIsWithinSeason(t *testing.T) {
	window := &models.SeasonWindow{StartDate: "2026-07-01", EndDate: "2026-09-30"}

	// Both boundary days are inside the window.
	assert.True(t, IsWithinSeason("2026-07-01", window))
	assert.True(t, IsWithinSeason("2026-08-15", window))
	assert.True(t, IsWithinSeason("2026-09-30", window))

	assert.False(t, IsWithinSeason("2026-06-30", window))
	assert.False(t, IsWithinSeason("2026-10-01", window))
}

func TestCarryoverXP(t *testing.T) {
	assert.Equal(t, int64(0), CarryoverXP(0))
	assert.Equal(t, int64(0), CarryoverXP(9))
	assert.Equal(t, int64(1), CarryoverXP(10))
	// floor(1234 * 0.1)
	assert.Equal(t, int64(123), CarryoverXP(1234))
	assert.Equal(t, int64(0), CarryoverXP(-50))
}

func TestSeasonArchiveKey(t *testing.T) {
	assert.Equal(t, "season-archives/q3-sprint-2026.json", SeasonArchiveKey("Q3 Sprint 2026"))
	assert.Equal(t, "season-archives/launch.json", SeasonArchiveKey("Launch!"))
}
