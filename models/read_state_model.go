package models

import (
	"time"

	"github.com/google/uuid"
)

// ReadState bookmarks how far a farmer has read a thread. Absent rows mean
// "nothing read" and are materialized lazily with LastReadAt at the epoch.
type ReadState struct {
	ThreadID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"thread_id"`
	FarmerID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"farmer_id"`
	LastReadAt time.Time `gorm:"not null" json:"last_read_at"`

	UpdatedAt time.Time `json:"updated_at"`
}
