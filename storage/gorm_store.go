package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the production chat repository backed by Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ThreadByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ?", id).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (s *GormStore) ThreadsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Thread, error) {
	var threads []models.Thread
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Where("farmer_id = ?", farmerID).
		Order("updated_at desc").
		Find(&threads).Error
	if err != nil {
		return nil, err
	}
	return threads, nil
}

func (s *GormStore) FindDMThread(ctx context.Context, farmerID, applicantID, opportunityID uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN thread_participants tp ON tp.thread_id = threads.id AND tp.participant_id = ?", applicantID).
		Where("threads.type = ? AND threads.farmer_id = ? AND threads.opportunity_id = ?",
			models.ThreadTypeDM, farmerID, opportunityID).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (s *GormStore) FindBroadcastThread(ctx context.Context, farmerID, opportunityID uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Where("type = ? AND farmer_id = ? AND opportunity_id = ?",
			models.ThreadTypeBroadcast, farmerID, opportunityID).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (s *GormStore) CreateThread(ctx context.Context, thread *models.Thread, first *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(thread).Error; err != nil {
			return err
		}
		if first == nil {
			return nil
		}
		if err := tx.Create(first).Error; err != nil {
			return err
		}
		thread.LastMessageID = &first.ID
		thread.UpdatedAt = first.CreatedAt
		return tx.Model(&models.Thread{}).
			Where("id = ?", thread.ID).
			Updates(map[string]any{
				"last_message_id": first.ID,
				"updated_at":      first.CreatedAt,
			}).Error
	})
}

func (s *GormStore) AppendMessage(ctx context.Context, msg *models.Message) (*models.Thread, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).
			Where("id = ?", msg.ThreadID).
			Updates(map[string]any{
				"last_message_id": msg.ID,
				"updated_at":      msg.CreatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ThreadByID(ctx, msg.ThreadID)
}

func (s *GormStore) MessagesByThread(ctx context.Context, threadID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *GormStore) LastMessage(ctx context.Context, threadID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at desc").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *GormStore) ReadStateFor(ctx context.Context, threadID, farmerID uuid.UUID) (time.Time, error) {
	var rs models.ReadState
	err := s.db.WithContext(ctx).
		Where("thread_id = ? AND farmer_id = ?", threadID, farmerID).
		First(&rs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Unix(0, 0).UTC(), nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return rs.LastReadAt, nil
}

func (s *GormStore) SetReadState(ctx context.Context, threadID, farmerID uuid.UUID, at time.Time) error {
	rs := models.ReadState{ThreadID: threadID, FarmerID: farmerID, LastReadAt: at}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "farmer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_read_at", "updated_at"}),
		}).
		Create(&rs).Error
}

func (s *GormStore) CountUnread(ctx context.Context, threadID uuid.UUID, after time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("thread_id = ? AND author_role <> ? AND created_at > ?", threadID, models.RoleFarmer, after).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
