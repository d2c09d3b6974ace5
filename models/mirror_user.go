package models

import (
	"time"

	"gorm.io/gorm"
)

// MirrorUser is a local snapshot of user display data needed for leaderboard
// rows. Owned and managed solely by this service; populated via sync worker
// from the profile service. Progression state never lives here.
type MirrorUser struct {
	ID                string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID    string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // the profile service's UUID
	Username          string  `gorm:"index;not null" json:"username"`
	DisplayName       *string `json:"display_name,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Soft delete (kept for leaderboard history)
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
