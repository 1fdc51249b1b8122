package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/models"
)

// OpportunitySnapshot is the slice of roster state a summary carries.
type OpportunitySnapshot struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
}

// ThreadSummary is recomputed on every read and never persisted.
type ThreadSummary struct {
	ID            uuid.UUID           `json:"id"`
	FarmerID      uuid.UUID           `json:"farmer_id"`
	OpportunityID uuid.UUID           `json:"opportunity_id"`
	Type          models.ThreadType   `json:"type"`
	Title         string              `json:"title"`
	Participants  []Participant       `json:"participants"`
	Opportunity   OpportunitySnapshot `json:"opportunity"`
	UnreadCount   int64               `json:"unread_count"`
	LastMessage   *models.Message     `json:"last_message"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ThreadDetail struct {
	Thread   ThreadSummary    `json:"thread"`
	Messages []models.Message `json:"messages"`
}
