// Package roster adapts the opportunity and user tables into the read-only
// collaborator interfaces the chat core consumes. Nothing here writes.
package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/chat"
	"github.com/jkamau717/farm_connect/models"
	"gorm.io/gorm"
)

type GormRoster struct {
	db *gorm.DB
}

func NewGormRoster(db *gorm.DB) *GormRoster {
	return &GormRoster{db: db}
}

func (r *GormRoster) Opportunity(ctx context.Context, id uuid.UUID) (*chat.OpportunityInfo, error) {
	var opp models.Opportunity
	err := r.db.WithContext(ctx).
		Preload("Managers").
		Preload("Participants").
		Where("id = ?", id).
		First(&opp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	info := &chat.OpportunityInfo{
		ID:       opp.ID,
		Title:    opp.Title,
		Status:   opp.Status,
		FarmerID: opp.FarmerID,
	}
	for _, m := range opp.Managers {
		info.ManagerIDs = append(info.ManagerIDs, m.FarmerID)
	}
	for _, p := range opp.Participants {
		info.ParticipantIDs = append(info.ParticipantIDs, p.ApplicantID)
	}
	return info, nil
}

type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// ResolveParticipant returns nil for ids unknown to either directory; callers
// drop those rather than failing.
func (d *GormDirectory) ResolveParticipant(ctx context.Context, id uuid.UUID) (*chat.Participant, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	role := models.RoleApplicant
	if user.Role == "farmer" {
		role = models.RoleFarmer
	}
	return &chat.Participant{
		ID:        user.ID,
		Role:      role,
		Name:      user.FullName,
		AvatarURL: user.AvatarURL,
	}, nil
}
