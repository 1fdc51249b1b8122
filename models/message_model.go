package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once created. Display order within a thread is
// CreatedAt ascending, ties broken by insertion order.
type Message struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ThreadID   uuid.UUID       `gorm:"not null;index" json:"thread_id"`
	AuthorID   uuid.UUID       `gorm:"not null" json:"author_id"`
	AuthorRole ParticipantRole `gorm:"size:20;not null" json:"author_role"`
	Body       string          `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
