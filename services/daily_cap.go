package services

import "time"

// DailyEarnCap is the maximum seasonal XP one user can be credited per UTC
// calendar day, summed across every reward source.
const DailyEarnCap int64 = 1200

// ClampDailyEarn clamps a new award against the daily cap. A result of 0 is
// a valid success, not an error — callers must not retry a fully-capped day.
func ClampDailyEarn(amount, todayTotal int64) int64 {
	remaining := DailyEarnCap - todayTotal
	if remaining < 0 {
		remaining = 0
	}
	if amount < 0 {
		return 0
	}
	if amount > remaining {
		return remaining
	}
	return amount
}

// StartOfUTCDay returns midnight UTC for the given instant. The daily cap
// window is always the UTC calendar day, regardless of the caller's zone.
func StartOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
