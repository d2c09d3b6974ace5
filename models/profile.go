package models

import (
	"time"

	"gorm.io/gorm"
)

// ProgressionProfile is the permanent mastery record for one user
// (denormalized for performance — tier/code/stage are recomputation caches).
// Created lazily on the first reward, never deleted.
type ProgressionProfile struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Permanent currency. CoreTotal is monotonic non-negative; CoreBuffer
	// holds the fractional remainder in [0,1) awaiting the next whole unit.
	CoreTotal  int64   `json:"core_total" gorm:"default:0"`
	CoreBuffer float64 `json:"core_buffer" gorm:"default:0"`

	// Derived caches — recomputed from CoreTotal on every apply, never a
	// source of truth on their own.
	Tier      int64 `json:"-" gorm:"default:0"` // internal, never serialized to display callers
	CodeIndex int   `json:"code_index" gorm:"default:0"`
	Stage     int   `json:"stage" gorm:"default:1"`

	// Identity
	SubName                  string `json:"sub_name"`
	SubNameRenamedInCode     bool   `json:"sub_name_renamed_in_code" gorm:"default:false"`
	SubNameRenamedAtCodeIdx  int    `json:"sub_name_renamed_at_code_index" gorm:"default:-1"` // watermark, -1 = never
	CodeHidden               bool   `json:"code_hidden" gorm:"default:false"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
