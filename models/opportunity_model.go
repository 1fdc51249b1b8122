package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OpportunityStatusOpen   = "open"
	OpportunityStatusClosed = "closed"
)

type Opportunity struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FarmlandID  uuid.UUID `gorm:"not null;index" json:"farmland_id"`
	FarmerID    uuid.UUID `gorm:"not null;index" json:"farmer_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"size:20;not null;default:'open'" json:"status"`
	PayRate     float64   `gorm:"type:numeric(10,2)" json:"pay_rate"`
	Currency    string    `gorm:"size:3" json:"currency"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	Farmland     Farmland                 `gorm:"foreignkey:FarmlandID" json:"-"`
	Farmer       User                     `gorm:"foreignkey:FarmerID" json:"-"`
	Managers     []OpportunityManager     `json:"managers,omitempty"`
	Participants []OpportunityParticipant `json:"participants,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OpportunityManager is a co-managing farmer on an opportunity. The owning
// farmer is not duplicated here.
type OpportunityManager struct {
	OpportunityID uuid.UUID `gorm:"type:uuid;primaryKey" json:"opportunity_id"`
	FarmerID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"farmer_id"`

	Farmer User `gorm:"foreignkey:FarmerID" json:"-"`
}

type OpportunityParticipant struct {
	OpportunityID uuid.UUID `gorm:"type:uuid;primaryKey" json:"opportunity_id"`
	ApplicantID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"applicant_id"`
	Status        string    `gorm:"size:20;not null;default:'accepted'" json:"status"`

	Applicant User `gorm:"foreignkey:ApplicantID" json:"applicant,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
