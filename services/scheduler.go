// services/scheduler.go
package services

import (
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartProgressionScheduler runs the periodic jobs: sweeping ended season
// windows (at-most-once resets are enforced inside ResetSeason) and warming
// the first leaderboard page.
func StartProgressionScheduler(seasons *SeasonService, leaderboard *LeaderboardService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every hour: apply boundaries for windows that ended.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			windows, err := seasons.EndedUnresetWindows()
			if err != nil {
				log.Printf("[Scheduler] season sweep failed: %v", err)
				return
			}
			for _, w := range windows {
				err := seasons.ResetSeason(w.ID)
				var conflict *ConflictError
				switch {
				case err == nil:
					log.Printf("✅ [Scheduler] season boundary applied: %s (%s)", w.Name, w.ID)
				case errors.As(err, &conflict):
					// Another instance claimed it first; nothing to do.
				default:
					log.Printf("[Scheduler] season reset failed for %s: %v", w.ID, err)
				}
			}
		}),
	)

	// Every minute: keep the top page warm in the cache.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if _, err := leaderboard.GetLeaderboardPage(LeaderboardOptions{Page: 1, Size: 25}); err != nil {
				log.Printf("[Scheduler] leaderboard warm failed: %v", err)
			}
		}),
	)
}
