// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"leadership-progression-system/models"
	"leadership-progression-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileServiceUser matches the JSON response from the profile service.
type ProfileServiceUser struct {
	ID                string    `json:"id"`
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	DisplayName       *string   `json:"display_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	AccountStatus     string    `json:"account_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetUserChangesResponse is the top-level structure of the profile service response.
type GetUserChangesResponse struct {
	Users []ProfileServiceUser `json:"users"`
}

// MirrorUserSyncWorker keeps the local mirror_users table current so
// leaderboard rows can show display names without a cross-service call.
type MirrorUserSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewMirrorUserSyncWorker(db *gorm.DB, profileServiceBaseURL, endpointPath, serviceToken string) *MirrorUserSyncWorker {
	return &MirrorUserSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      profileServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *MirrorUserSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Mirror User Sync Worker (profile-service → mirror_users)…")
	go w.run(ctx)
}

func (w *MirrorUserSyncWorker) run(ctx context.Context) {
	// Initial sync (backfill if needed) - sync from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// For incremental syncs, we use the last update time from our local table
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Mirror User Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt from the local mirror_users table.
func (w *MirrorUserSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM mirror_users WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0) // Fallback to epoch if no records or error
	}
	return lastTime
}

// syncBatch fetches user changes from the profile service and upserts them locally.
func (w *MirrorUserSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)
	log.Printf("[SYNC] 📡 Fetching user changes from profile service since=%s", sinceStr)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Printf("[SYNC] ❌ Request to %s failed: %v", finalURL, err)
		return fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			log.Printf("[SYNC] ⚠️ Failed to read error body from %s: %v", finalURL, readErr)
		}
		errMsg := string(body)
		log.Printf("[SYNC] ❌ Profile service returned %d for %s: %s", resp.StatusCode, finalURL, errMsg)
		return fmt.Errorf("profile service non-200 response: %d — %s", resp.StatusCode, errMsg)
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}

	if len(response.Users) == 0 {
		log.Printf("[SYNC] ✅ No user changes received since %s", sinceStr)
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d user(s) from profile service…", len(response.Users))

	var upsertCount, errorCount int
	for _, remoteUser := range response.Users {
		localUser := models.MirrorUser{
			ExternalUserID:    remoteUser.ExternalID,
			Username:          remoteUser.Username,
			DisplayName:       remoteUser.DisplayName,
			ProfilePictureURL: remoteUser.ProfilePictureURL,
			CreatedAt:         remoteUser.CreatedAt,
			UpdatedAt:         remoteUser.UpdatedAt,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "display_name", "profile_picture_url", "updated_at",
			}),
		}).Create(&localUser).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert mirror_user (external_id=%q, username=%q): %v",
				remoteUser.ExternalID, remoteUser.Username, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d user(s) (%d upserted, %d errors)", len(response.Users), upsertCount, errorCount)
	return nil
}
