package models

import (
	"time"

	"github.com/google/uuid"
)

type ThreadType string

const (
	ThreadTypeDM        ThreadType = "dm"
	ThreadTypeGroup     ThreadType = "group"
	ThreadTypeBroadcast ThreadType = "broadcast"
)

// ParticipantRole tags who a message or thread member acts as.
type ParticipantRole string

const (
	RoleFarmer    ParticipantRole = "farmer"
	RoleApplicant ParticipantRole = "applicant"
	RoleSystem    ParticipantRole = "system"
)

// Thread is a conversation container scoped to one opportunity and owned by
// one farmer. A dm thread holds exactly the farmer and one applicant; the
// broadcast thread is a singleton per (farmer, opportunity).
type Thread struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FarmerID      uuid.UUID  `gorm:"not null;index" json:"farmer_id"`
	OpportunityID uuid.UUID  `gorm:"not null;index" json:"opportunity_id"`
	Type          ThreadType `gorm:"size:20;not null" json:"type"`
	Title         string     `gorm:"size:255" json:"title"`
	LastMessageID *uuid.UUID `gorm:"type:uuid" json:"last_message_id"`

	Participants []ThreadParticipant `json:"participants,omitempty"`
	Messages     []Message           `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

type ThreadParticipant struct {
	ThreadID      uuid.UUID       `gorm:"type:uuid;primaryKey" json:"thread_id"`
	ParticipantID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"participant_id"`
	Role          ParticipantRole `gorm:"size:20;not null" json:"role"`
}
