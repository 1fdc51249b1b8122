package models

import (
	"time"

	"github.com/google/uuid"
)

type Farmland struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FarmerID uuid.UUID `gorm:"not null;index" json:"farmer_id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Location string    `gorm:"size:255" json:"location"`
	Acreage  float64   `gorm:"type:numeric(10,2)" json:"acreage"`

	Farmer User `gorm:"foreignkey:FarmerID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
