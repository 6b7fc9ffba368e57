package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kbenhida/leadbot/internal/models"
)

// MemoryStorage keeps everything in process memory. Used for tests and for
// running the service without a database. Unlike PostgresStorage, SaveTurn
// here is not transactional: a failure between steps cannot occur, but the
// store offers no durability either.
type MemoryStorage struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation // keyed by session id
	analytics     map[string]*models.Analytics    // keyed by conversation id
	leads         []*models.Lead
	nextLeadID    int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		conversations: make(map[string]*models.Conversation),
		analytics:     make(map[string]*models.Analytics),
		nextLeadID:    1,
	}
}

func (s *MemoryStorage) GetConversation(_ context.Context, sessionID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[sessionID]
	if !exists {
		return nil, nil
	}
	cp := copyConversation(conv)
	return &cp, nil
}

func (s *MemoryStorage) SaveTurn(_ context.Context, conv *models.Conversation, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := copyConversation(conv)
	s.conversations[conv.SessionID] = &cp

	a, exists := s.analytics[conv.ID]
	if !exists {
		a = &models.Analytics{ConversationID: conv.ID}
		s.analytics[conv.ID] = a
	}
	a.Turns++
	if conv.LeadScore > a.MaxScore {
		a.MaxScore = conv.LeadScore
	}
	a.LastStatus = conv.Status
	a.UpdatedAt = time.Now().UTC()

	if lead != nil {
		l := *lead
		l.ID = s.nextLeadID
		s.nextLeadID++
		s.leads = append(s.leads, &l)
		lead.ID = l.ID
	}
	return nil
}

func (s *MemoryStorage) HasLead(_ context.Context, conversationID, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.leads {
		if l.ConversationID == conversationID && l.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStorage) ListLeads(_ context.Context) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		cp := *l
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStorage) GetAnalytics(_ context.Context, conversationID string) (*models.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.analytics[conversationID]
	if !exists {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func copyConversation(conv *models.Conversation) models.Conversation {
	cp := *conv
	cp.Messages = append([]models.Message(nil), conv.Messages...)
	cp.Emails = append([]string(nil), conv.Emails...)
	cp.Phones = append([]string(nil), conv.Phones...)
	return cp
}
