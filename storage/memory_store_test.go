package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/models"
)

func TestCreateThreadWithFirstMessage(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	thread := &models.Thread{
		ID:            uuid.New(),
		FarmerID:      uuid.New(),
		OpportunityID: uuid.New(),
		Type:          models.ThreadTypeDM,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	first := &models.Message{
		ID:         uuid.New(),
		ThreadID:   thread.ID,
		AuthorID:   thread.FarmerID,
		AuthorRole: models.RoleFarmer,
		Body:       "hello",
		CreatedAt:  now,
	}

	if err := s.CreateThread(ctx, thread, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	if thread.LastMessageID == nil || *thread.LastMessageID != first.ID {
		t.Error("creating with a first message must set LastMessageID")
	}

	got, err := s.ThreadByID(ctx, thread.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("stored thread not found")
	}

	msgs, err := s.MessagesByThread(ctx, thread.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != first.ID {
		t.Fatalf("expected stored first message, got %d messages", len(msgs))
	}
}

func TestThreadByIDMissingIsNilNil(t *testing.T) {
	s := NewMemoryStore()

	got, err := s.ThreadByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatal("missing thread must be (nil, nil)")
	}
}

func TestReadStateDefaultsToEpoch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	at, err := s.ReadStateFor(ctx, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if !at.Equal(time.Unix(0, 0).UTC()) {
		t.Fatalf("absent read state must default to the epoch, got %v", at)
	}
}

func TestCountUnreadFiltersRoleAndTime(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	threadID := uuid.New()
	base := time.Now()
	thread := &models.Thread{ID: threadID, Type: models.ThreadTypeDM, CreatedAt: base, UpdatedAt: base}
	if err := s.CreateThread(ctx, thread, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	add := func(role models.ParticipantRole, at time.Time) {
		_, err := s.AppendMessage(ctx, &models.Message{
			ID: uuid.New(), ThreadID: threadID, AuthorID: uuid.New(), AuthorRole: role, Body: "m", CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	add(models.RoleFarmer, base.Add(1*time.Second))
	add(models.RoleApplicant, base.Add(2*time.Second))
	add(models.RoleApplicant, base.Add(3*time.Second))

	count, err := s.CountUnread(ctx, threadID, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread applicant messages, got %d", count)
	}

	count, err = s.CountUnread(ctx, threadID, base.Add(2*time.Second))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread strictly after the cutoff, got %d", count)
	}
}

func TestAppendMessageAdvancesThread(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Now()
	thread := &models.Thread{ID: uuid.New(), Type: models.ThreadTypeGroup, CreatedAt: base, UpdatedAt: base}
	if err := s.CreateThread(ctx, thread, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	msg := &models.Message{
		ID: uuid.New(), ThreadID: thread.ID, AuthorID: uuid.New(),
		AuthorRole: models.RoleApplicant, Body: "first", CreatedAt: base.Add(time.Second),
	}
	fresh, err := s.AppendMessage(ctx, msg)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if fresh.LastMessageID == nil || *fresh.LastMessageID != msg.ID {
		t.Error("append must advance LastMessageID")
	}
	if !fresh.UpdatedAt.Equal(msg.CreatedAt) {
		t.Error("append must advance UpdatedAt to the message timestamp")
	}
}
