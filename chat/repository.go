package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/models"
)

// Repository is the injected persistence backend for threads, messages and
// read states. Lookups return (nil, nil) when the row is absent; the store
// turns that into the NotFound taxonomy. Implementations must be safe for
// concurrent use, but per-thread write serialization is the store's job.
type Repository interface {
	ThreadByID(ctx context.Context, id uuid.UUID) (*models.Thread, error)
	ThreadsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Thread, error)
	FindDMThread(ctx context.Context, farmerID, applicantID, opportunityID uuid.UUID) (*models.Thread, error)
	FindBroadcastThread(ctx context.Context, farmerID, opportunityID uuid.UUID) (*models.Thread, error)

	// CreateThread persists the thread with its participants and, when first
	// is non-nil, the initial message atomically. LastMessageID and UpdatedAt
	// already reflect the initial message on return.
	CreateThread(ctx context.Context, thread *models.Thread, first *models.Message) error

	// AppendMessage persists the message and advances the owning thread's
	// UpdatedAt and LastMessageID, returning the fresh thread.
	AppendMessage(ctx context.Context, msg *models.Message) (*models.Thread, error)

	MessagesByThread(ctx context.Context, threadID uuid.UUID) ([]models.Message, error)
	LastMessage(ctx context.Context, threadID uuid.UUID) (*models.Message, error)

	// ReadStateFor returns the farmer's read position, or the Unix epoch when
	// no read state exists yet.
	ReadStateFor(ctx context.Context, threadID, farmerID uuid.UUID) (time.Time, error)
	SetReadState(ctx context.Context, threadID, farmerID uuid.UUID, at time.Time) error

	// CountUnread counts non-farmer-authored messages created strictly after
	// the given time.
	CountUnread(ctx context.Context, threadID uuid.UUID, after time.Time) (int64, error)
}

// OpportunityInfo is the read-only roster view of an opportunity.
type OpportunityInfo struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Status         string      `json:"status"`
	FarmerID       uuid.UUID   `json:"farmer_id"`
	ManagerIDs     []uuid.UUID `json:"manager_ids"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

// Roster resolves opportunities. The chat core never mutates the roster.
type Roster interface {
	Opportunity(ctx context.Context, id uuid.UUID) (*OpportunityInfo, error)
}

// Participant is a resolved identity from the directory.
type Participant struct {
	ID        uuid.UUID              `json:"id"`
	Role      models.ParticipantRole `json:"role"`
	Name      string                 `json:"name"`
	AvatarURL *string                `json:"avatar_url,omitempty"`
}

// Directory resolves participant identities. Unknown ids resolve to
// (nil, nil); the store drops them from summaries rather than failing.
type Directory interface {
	ResolveParticipant(ctx context.Context, id uuid.UUID) (*Participant, error)
}
