package chat

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/models"
)

const maxBodyLength = 2000

// Store owns thread, message and read-state semantics. Mutations return
// fan-out events plus cache invalidation tags for the caller to dispatch.
// A keyed mutex serializes concurrent writes per thread.
type Store struct {
	repo      Repository
	roster    Roster
	directory Directory

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(repo Repository, roster Roster, directory Directory) *Store {
	return &Store{
		repo:      repo,
		roster:    roster,
		directory: directory,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

type CreateDMInput struct {
	FarmerID       uuid.UUID
	ApplicantID    uuid.UUID
	OpportunityID  uuid.UUID
	InitialMessage *string
}

type CreateGroupInput struct {
	FarmerID       uuid.UUID
	OpportunityID  uuid.UUID
	Name           string
	ParticipantIDs []uuid.UUID
}

type PostMessageInput struct {
	AuthorID   uuid.UUID
	AuthorRole models.ParticipantRole
	Body       string
}

type MarkReadInput struct {
	FarmerID uuid.UUID
	ReadAt   *time.Time
}

type BroadcastInput struct {
	FarmerID        uuid.UUID
	Body            string
	IncludeManagers bool
}

// ThreadResult is a mutation outcome carrying the events to publish and the
// cache tags to invalidate.
type ThreadResult struct {
	Summary ThreadSummary
	Events  []Event
	Tags    []string
}

type MessageResult struct {
	Message models.Message
	Summary ThreadSummary
	Events  []Event
	Tags    []string
}

// ListThreads returns all threads owned by farmerID, newest activity first.
// Threads whose opportunity is closed are excluded unless includeClosed is
// set. An empty result is valid; this never fails with NotFound.
func (s *Store) ListThreads(ctx context.Context, farmerID uuid.UUID, includeClosed bool) ([]ThreadSummary, error) {
	threads, err := s.repo.ThreadsByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ThreadSummary, 0, len(threads))
	for i := range threads {
		t := &threads[i]
		opp, err := s.roster.Opportunity(ctx, t.OpportunityID)
		if err != nil {
			return nil, err
		}
		if opp == nil {
			continue
		}
		if !includeClosed && opp.Status == models.OpportunityStatusClosed {
			continue
		}
		summary, err := s.buildSummary(ctx, t, opp, farmerID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *Store) GetThreadDetail(ctx context.Context, threadID, farmerID uuid.UUID) (*ThreadDetail, error) {
	thread, err := s.repo.ThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, NotFound("thread not found")
	}

	summary, err := s.summarize(ctx, thread, farmerID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.MessagesByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return &ThreadDetail{Thread: summary, Messages: messages}, nil
}

// CreateDMThread is find-or-create on (farmerID, applicantID, opportunityID).
// An initial message, when supplied, is persisted atomically with creation,
// and still appended when the call lands on an existing thread.
func (s *Store) CreateDMThread(ctx context.Context, in CreateDMInput) (*ThreadResult, error) {
	if in.FarmerID == uuid.Nil || in.ApplicantID == uuid.Nil || in.OpportunityID == uuid.Nil {
		return nil, Validation("farmer_id, applicant_id and opportunity_id are required")
	}
	if in.ApplicantID == in.FarmerID {
		return nil, Validation("applicant_id must differ from farmer_id")
	}
	if in.InitialMessage != nil {
		if err := validateBody(*in.InitialMessage); err != nil {
			return nil, err
		}
	}

	opp, err := s.roster.Opportunity(ctx, in.OpportunityID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, NotFound("opportunity not found")
	}
	if opp.FarmerID != in.FarmerID {
		return nil, Forbidden("only the opportunity owner can start a direct thread")
	}

	applicant, err := s.directory.ResolveParticipant(ctx, in.ApplicantID)
	if err != nil {
		return nil, err
	}
	if applicant == nil {
		return nil, NotFound("applicant not found")
	}

	lock := s.lockFor("dm:" + in.FarmerID.String() + ":" + in.ApplicantID.String() + ":" + in.OpportunityID.String())
	lock.Lock()
	defer lock.Unlock()

	thread, err := s.repo.FindDMThread(ctx, in.FarmerID, in.ApplicantID, in.OpportunityID)
	if err != nil {
		return nil, err
	}

	events := []Event{}
	tags := []string{TagThreads(in.FarmerID), TagOpportunities(in.FarmerID)}

	if thread == nil {
		now := time.Now()
		thread = &models.Thread{
			ID:            uuid.New(),
			FarmerID:      in.FarmerID,
			OpportunityID: in.OpportunityID,
			Type:          models.ThreadTypeDM,
			Title:         applicant.Name,
			Participants: []models.ThreadParticipant{
				{ParticipantID: in.FarmerID, Role: models.RoleFarmer},
				{ParticipantID: in.ApplicantID, Role: models.RoleApplicant},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		var first *models.Message
		if in.InitialMessage != nil {
			first = &models.Message{
				ID:         uuid.New(),
				ThreadID:   thread.ID,
				AuthorID:   in.FarmerID,
				AuthorRole: models.RoleFarmer,
				Body:       *in.InitialMessage,
				CreatedAt:  now,
			}
		}
		if err := s.repo.CreateThread(ctx, thread, first); err != nil {
			return nil, err
		}
		if first != nil {
			events = append(events, newEvent(EventMessageNew, thread.ID, first))
			tags = append(tags, TagThreadDetail(thread.ID, in.FarmerID))
		}
	} else if in.InitialMessage != nil {
		// Appends to the reused thread share the per-thread lock with
		// PostMessage.
		threadLock := s.lockFor(thread.ID.String())
		threadLock.Lock()
		msg, fresh, err := s.append(ctx, thread.ID, in.FarmerID, models.RoleFarmer, *in.InitialMessage)
		threadLock.Unlock()
		if err != nil {
			return nil, err
		}
		thread = fresh
		events = append(events, newEvent(EventMessageNew, thread.ID, msg))
		tags = append(tags, TagThreadDetail(thread.ID, in.FarmerID))
	}

	summary, err := s.buildSummary(ctx, thread, opp, in.FarmerID)
	if err != nil {
		return nil, err
	}
	events = append(events, newEvent(EventThreadUpdate, thread.ID, summary))
	return &ThreadResult{Summary: summary, Events: events, Tags: tags}, nil
}

// CreateGroupThread always creates a fresh thread; multiple group threads per
// opportunity are allowed. Every participant other than the farmer must be a
// current roster member.
func (s *Store) CreateGroupThread(ctx context.Context, in CreateGroupInput) (*ThreadResult, error) {
	if in.FarmerID == uuid.Nil || in.OpportunityID == uuid.Nil {
		return nil, Validation("farmer_id and opportunity_id are required")
	}
	if in.Name == "" {
		return nil, Validation("group name is required")
	}

	opp, err := s.roster.Opportunity(ctx, in.OpportunityID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, NotFound("opportunity not found")
	}
	if opp.FarmerID != in.FarmerID {
		return nil, Forbidden("only the opportunity owner can create a group thread")
	}

	members := make(map[uuid.UUID]models.ParticipantRole, len(opp.ParticipantIDs)+len(opp.ManagerIDs))
	for _, id := range opp.ParticipantIDs {
		members[id] = models.RoleApplicant
	}
	for _, id := range opp.ManagerIDs {
		members[id] = models.RoleFarmer
	}

	participants := []models.ThreadParticipant{{ParticipantID: in.FarmerID, Role: models.RoleFarmer}}
	seen := map[uuid.UUID]bool{in.FarmerID: true}
	for _, id := range in.ParticipantIDs {
		if seen[id] {
			continue
		}
		role, ok := members[id]
		if !ok {
			return nil, InvalidParticipant(id)
		}
		seen[id] = true
		participants = append(participants, models.ThreadParticipant{ParticipantID: id, Role: role})
	}

	now := time.Now()
	thread := &models.Thread{
		ID:            uuid.New(),
		FarmerID:      in.FarmerID,
		OpportunityID: in.OpportunityID,
		Type:          models.ThreadTypeGroup,
		Title:         in.Name,
		Participants:  participants,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateThread(ctx, thread, nil); err != nil {
		return nil, err
	}

	summary, err := s.buildSummary(ctx, thread, opp, in.FarmerID)
	if err != nil {
		return nil, err
	}
	return &ThreadResult{
		Summary: summary,
		Events:  []Event{newEvent(EventThreadUpdate, thread.ID, summary)},
		Tags:    []string{TagThreads(in.FarmerID), TagOpportunities(in.FarmerID)},
	}, nil
}

// PostMessage appends to a thread. A farmer-authored message is rejected when
// the caller does not own the thread; applicant posts are trusted to have
// been authorized at the caller boundary.
func (s *Store) PostMessage(ctx context.Context, threadID uuid.UUID, in PostMessageInput, callerFarmerID uuid.UUID) (*MessageResult, error) {
	if err := validateBody(in.Body); err != nil {
		return nil, err
	}
	if in.AuthorRole != models.RoleFarmer && in.AuthorRole != models.RoleApplicant {
		return nil, Validation("author_role must be farmer or applicant")
	}
	if in.AuthorID == uuid.Nil {
		return nil, Validation("author_id is required")
	}

	lock := s.lockFor(threadID.String())
	lock.Lock()
	defer lock.Unlock()

	thread, err := s.repo.ThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, NotFound("thread not found")
	}
	if in.AuthorRole == models.RoleFarmer && thread.FarmerID != callerFarmerID {
		return nil, Forbidden("farmer does not own this thread")
	}

	msg, fresh, err := s.append(ctx, threadID, in.AuthorID, in.AuthorRole, in.Body)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, fresh, fresh.FarmerID)
	if err != nil {
		return nil, err
	}
	return &MessageResult{
		Message: *msg,
		Summary: summary,
		Events: []Event{
			newEvent(EventMessageNew, threadID, msg),
			newEvent(EventThreadUpdate, threadID, summary),
		},
		Tags: []string{
			TagThreads(fresh.FarmerID),
			TagOpportunities(fresh.FarmerID),
			TagThreadDetail(threadID, fresh.FarmerID),
		},
	}, nil
}

// MarkThreadRead sets the farmer's read position to ReadAt (or now), creating
// the read state lazily. Idempotent: marking an already-read thread is a
// no-op, never an error.
func (s *Store) MarkThreadRead(ctx context.Context, threadID uuid.UUID, in MarkReadInput) (*ThreadResult, error) {
	if in.FarmerID == uuid.Nil {
		return nil, Validation("farmer_id is required")
	}

	lock := s.lockFor("read:" + threadID.String() + ":" + in.FarmerID.String())
	lock.Lock()
	defer lock.Unlock()

	thread, err := s.repo.ThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, NotFound("thread not found")
	}

	at := time.Now()
	if in.ReadAt != nil {
		at = *in.ReadAt
	}
	if err := s.repo.SetReadState(ctx, threadID, in.FarmerID, at); err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, thread, in.FarmerID)
	if err != nil {
		return nil, err
	}
	// Mark-read leaves the thread-detail cache alone; stale unread counts in
	// a cached detail response age out with the TTL.
	return &ThreadResult{
		Summary: summary,
		Events:  []Event{newEvent(EventThreadUpdate, threadID, summary)},
		Tags:    []string{TagThreads(in.FarmerID), TagOpportunities(in.FarmerID)},
	}, nil
}

// BroadcastToOpportunity appends to the opportunity's singleton broadcast
// thread, creating it from the current roster on first use. The stored
// participant set is not resynchronized when the roster later changes.
func (s *Store) BroadcastToOpportunity(ctx context.Context, opportunityID uuid.UUID, in BroadcastInput) (*MessageResult, error) {
	if err := validateBody(in.Body); err != nil {
		return nil, err
	}

	opp, err := s.roster.Opportunity(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, NotFound("opportunity not found")
	}
	if opp.FarmerID != in.FarmerID {
		return nil, Forbidden("only the opportunity owner can broadcast")
	}

	lock := s.lockFor("broadcast:" + in.FarmerID.String() + ":" + opportunityID.String())
	lock.Lock()
	defer lock.Unlock()

	thread, err := s.repo.FindBroadcastThread(ctx, in.FarmerID, opportunityID)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	if thread == nil {
		participants := []models.ThreadParticipant{{ParticipantID: in.FarmerID, Role: models.RoleFarmer}}
		for _, id := range opp.ParticipantIDs {
			participants = append(participants, models.ThreadParticipant{ParticipantID: id, Role: models.RoleApplicant})
		}
		if in.IncludeManagers {
			for _, id := range opp.ManagerIDs {
				participants = append(participants, models.ThreadParticipant{ParticipantID: id, Role: models.RoleFarmer})
			}
		}
		now := time.Now()
		thread = &models.Thread{
			ID:            uuid.New(),
			FarmerID:      in.FarmerID,
			OpportunityID: opportunityID,
			Type:          models.ThreadTypeBroadcast,
			Title:         opp.Title,
			Participants:  participants,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		msg = &models.Message{
			ID:         uuid.New(),
			ThreadID:   thread.ID,
			AuthorID:   in.FarmerID,
			AuthorRole: models.RoleFarmer,
			Body:       in.Body,
			CreatedAt:  now,
		}
		if err := s.repo.CreateThread(ctx, thread, msg); err != nil {
			return nil, err
		}
	} else {
		var fresh *models.Thread
		threadLock := s.lockFor(thread.ID.String())
		threadLock.Lock()
		msg, fresh, err = s.append(ctx, thread.ID, in.FarmerID, models.RoleFarmer, in.Body)
		threadLock.Unlock()
		if err != nil {
			return nil, err
		}
		thread = fresh
	}

	summary, err := s.buildSummary(ctx, thread, opp, in.FarmerID)
	if err != nil {
		return nil, err
	}
	return &MessageResult{
		Message: *msg,
		Summary: summary,
		Events: []Event{
			newEvent(EventMessageNew, thread.ID, msg),
			newEvent(EventThreadUpdate, thread.ID, summary),
		},
		Tags: []string{
			TagThreads(in.FarmerID),
			TagOpportunities(in.FarmerID),
			TagThreadDetail(thread.ID, in.FarmerID),
		},
	}, nil
}

func (s *Store) append(ctx context.Context, threadID, authorID uuid.UUID, role models.ParticipantRole, body string) (*models.Message, *models.Thread, error) {
	msg := &models.Message{
		ID:         uuid.New(),
		ThreadID:   threadID,
		AuthorID:   authorID,
		AuthorRole: role,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	thread, err := s.repo.AppendMessage(ctx, msg)
	if err != nil {
		return nil, nil, err
	}
	return msg, thread, nil
}

// summarize resolves the opportunity itself before building the summary.
func (s *Store) summarize(ctx context.Context, thread *models.Thread, farmerID uuid.UUID) (ThreadSummary, error) {
	opp, err := s.roster.Opportunity(ctx, thread.OpportunityID)
	if err != nil {
		return ThreadSummary{}, err
	}
	return s.buildSummary(ctx, thread, opp, farmerID)
}

// buildSummary computes the derived projection: resolved participants
// (unknown identities are dropped, not failed), the farmer's unread count and
// the denormalized last message.
func (s *Store) buildSummary(ctx context.Context, thread *models.Thread, opp *OpportunityInfo, farmerID uuid.UUID) (ThreadSummary, error) {
	participants := make([]Participant, 0, len(thread.Participants))
	for _, tp := range thread.Participants {
		p, err := s.directory.ResolveParticipant(ctx, tp.ParticipantID)
		if err != nil {
			return ThreadSummary{}, err
		}
		if p == nil {
			continue
		}
		participants = append(participants, *p)
	}

	lastReadAt, err := s.repo.ReadStateFor(ctx, thread.ID, farmerID)
	if err != nil {
		return ThreadSummary{}, err
	}
	unread, err := s.repo.CountUnread(ctx, thread.ID, lastReadAt)
	if err != nil {
		return ThreadSummary{}, err
	}
	last, err := s.repo.LastMessage(ctx, thread.ID)
	if err != nil {
		return ThreadSummary{}, err
	}

	summary := ThreadSummary{
		ID:            thread.ID,
		FarmerID:      thread.FarmerID,
		OpportunityID: thread.OpportunityID,
		Type:          thread.Type,
		Title:         thread.Title,
		Participants:  participants,
		UnreadCount:   unread,
		LastMessage:   last,
		CreatedAt:     thread.CreatedAt,
		UpdatedAt:     thread.UpdatedAt,
	}
	if opp != nil {
		summary.Opportunity = OpportunitySnapshot{ID: opp.ID, Title: opp.Title, Status: opp.Status}
	}
	return summary, nil
}

func validateBody(body string) *Error {
	if body == "" {
		return Validation("message body is required")
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		return Validation("message body exceeds 2000 characters")
	}
	return nil
}
