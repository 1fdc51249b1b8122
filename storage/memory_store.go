package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/models"
)

// MemoryStore is a mutex-guarded in-memory chat repository, used by tests and
// the demo mode. Messages are kept in insertion order per thread, which is
// also the tie-break for equal timestamps.
type MemoryStore struct {
	mu         sync.RWMutex
	threads    map[uuid.UUID]*models.Thread
	messages   map[uuid.UUID][]models.Message
	readStates map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads:    make(map[uuid.UUID]*models.Thread),
		messages:   make(map[uuid.UUID][]models.Message),
		readStates: make(map[string]time.Time),
	}
}

func readStateKey(threadID, farmerID uuid.UUID) string {
	return threadID.String() + ":" + farmerID.String()
}

func copyThread(t *models.Thread) *models.Thread {
	dup := *t
	dup.Participants = append([]models.ThreadParticipant(nil), t.Participants...)
	if t.LastMessageID != nil {
		id := *t.LastMessageID
		dup.LastMessageID = &id
	}
	return &dup
}

func (s *MemoryStore) ThreadByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, nil
	}
	return copyThread(t), nil
}

func (s *MemoryStore) ThreadsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Thread
	for _, t := range s.threads {
		if t.FarmerID == farmerID {
			out = append(out, *copyThread(t))
		}
	}
	return out, nil
}

func (s *MemoryStore) FindDMThread(ctx context.Context, farmerID, applicantID, opportunityID uuid.UUID) (*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.threads {
		if t.Type != models.ThreadTypeDM || t.FarmerID != farmerID || t.OpportunityID != opportunityID {
			continue
		}
		for _, p := range t.Participants {
			if p.ParticipantID == applicantID {
				return copyThread(t), nil
			}
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindBroadcastThread(ctx context.Context, farmerID, opportunityID uuid.UUID) (*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.threads {
		if t.Type == models.ThreadTypeBroadcast && t.FarmerID == farmerID && t.OpportunityID == opportunityID {
			return copyThread(t), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateThread(ctx context.Context, thread *models.Thread, first *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := copyThread(thread)
	if first != nil {
		s.messages[thread.ID] = append(s.messages[thread.ID], *first)
		id := first.ID
		stored.LastMessageID = &id
		stored.UpdatedAt = first.CreatedAt
	}
	s.threads[thread.ID] = stored
	*thread = *copyThread(stored)
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, msg *models.Message) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[msg.ThreadID]
	if !ok {
		return nil, nil
	}
	s.messages[msg.ThreadID] = append(s.messages[msg.ThreadID], *msg)
	id := msg.ID
	t.LastMessageID = &id
	t.UpdatedAt = msg.CreatedAt
	return copyThread(t), nil
}

func (s *MemoryStore) MessagesByThread(ctx context.Context, threadID uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Message(nil), s.messages[threadID]...)
	return out, nil
}

func (s *MemoryStore) LastMessage(ctx context.Context, threadID uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[threadID]
	if len(msgs) == 0 {
		return nil, nil
	}
	last := msgs[len(msgs)-1]
	return &last, nil
}

func (s *MemoryStore) ReadStateFor(ctx context.Context, threadID, farmerID uuid.UUID) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if at, ok := s.readStates[readStateKey(threadID, farmerID)]; ok {
		return at, nil
	}
	return time.Unix(0, 0).UTC(), nil
}

func (s *MemoryStore) SetReadState(ctx context.Context, threadID, farmerID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readStates[readStateKey(threadID, farmerID)] = at
	return nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, threadID uuid.UUID, after time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, m := range s.messages[threadID] {
		if m.AuthorRole != models.RoleFarmer && m.CreatedAt.After(after) {
			count++
		}
	}
	return count, nil
}
