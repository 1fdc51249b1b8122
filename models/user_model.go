package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'applicant'" json:"role"`

	AvatarURL   *string `gorm:"size:255" json:"avatar_url"`
	County      *string `gorm:"size:100" json:"county"`
	PhoneNumber *string `gorm:"size:20" json:"phone_number"`
	Bio         *string `gorm:"type:text" json:"bio"`

	IsActive bool `gorm:"default:true" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
