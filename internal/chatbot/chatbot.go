package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kbenhida/leadbot/internal/assistant"
	"github.com/kbenhida/leadbot/internal/models"
	"github.com/kbenhida/leadbot/internal/scoring"
	"github.com/kbenhida/leadbot/internal/signals"
	"github.com/kbenhida/leadbot/internal/storage"
)

// LeadMinScore is the running score required before a lead row is cut from
// a conversation that produced an email address.
const LeadMinScore = 30

// ErrEmptyMessage rejects turns with no usable message text.
var ErrEmptyMessage = errors.New("chatbot: message is required")

// TurnRequest is one user turn as received from the chat widget.
type TurnRequest struct {
	Message   string
	History   []models.ChatMessage
	SessionID string
	UserAgent string
}

// TurnResult carries everything the widget needs to render the reply and
// steer the conversation.
type TurnResult struct {
	Response                string
	SessionID               string
	ConversationID          string
	LeadScore               int
	LeadStatus              models.LeadStatus
	ProjectComplexity       models.Complexity
	HasBusinessIntent       bool
	ContextualSuggestions   []string
	ShouldCollectEmail      bool
	ShouldOfferConsultation bool
}

// Service runs one synchronous chat turn: LLM reply, signal extraction,
// scoring, response augmentation and persistence.
type Service struct {
	assistant assistant.Assistant
	store     storage.Storage
	logger    *zap.Logger
}

func NewService(assistant assistant.Assistant, store storage.Storage, logger *zap.Logger) *Service {
	return &Service{
		assistant: assistant,
		store:     store,
		logger:    logger,
	}
}

func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, err := s.assistant.Reply(ctx, req.History, message)
	if err != nil {
		return nil, fmt.Errorf("chatbot: generating reply: %w", err)
	}

	sig := signals.Extract(message)
	turnScore := scoring.Score(sig, len(req.History))
	turnStatus := scoring.StatusFor(turnScore)
	complexity := scoring.ComplexityFor(message)

	conv, err := s.store.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("chatbot: loading conversation: %w", err)
	}

	now := time.Now().UTC()
	if conv == nil {
		conv = &models.Conversation{
			ID:         uuid.NewString(),
			SessionID:  sessionID,
			Complexity: models.ComplexityUnknown,
			UserAgent:  req.UserAgent,
			CreatedAt:  now,
		}
	}

	// Score is a running maximum; status tracks the latest turn and may
	// drop back down on a blander message.
	if turnScore > conv.LeadScore {
		conv.LeadScore = turnScore
	}
	conv.Status = turnStatus
	if complexity != models.ComplexityUnknown {
		conv.Complexity = complexity
	}
	conv.Emails = append(conv.Emails, sig.Emails...)
	conv.Phones = append(conv.Phones, sig.Phones...)

	reply = augmentReply(reply, sig, turnScore, conv.Complexity)

	conv.Messages = append(conv.Messages,
		models.Message{Role: models.RoleUser, Content: message, CreatedAt: now},
		models.Message{Role: models.RoleAssistant, Content: reply, CreatedAt: now},
	)
	conv.UpdatedAt = now

	lead, err := s.buildLead(ctx, conv, sig, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveTurn(ctx, conv, lead); err != nil {
		return nil, fmt.Errorf("chatbot: persisting turn: %w", err)
	}

	if lead != nil {
		s.logger.Info("Lead created",
			zap.String("conversation_id", conv.ID),
			zap.Int("score", lead.QualificationScore),
			zap.String("status", lead.Status))
	}

	return &TurnResult{
		Response:                reply,
		SessionID:               sessionID,
		ConversationID:          conv.ID,
		LeadScore:               turnScore,
		LeadStatus:              turnStatus,
		ProjectComplexity:       conv.Complexity,
		HasBusinessIntent:       hasBusinessIntent(sig),
		ContextualSuggestions:   suggestions(sig, conv),
		ShouldCollectEmail:      conv.LeadScore >= EmailCollectScore && len(conv.Emails) == 0,
		ShouldOfferConsultation: turnScore >= ConsultationScore,
	}, nil
}

// buildLead returns the lead to insert this turn, or nil. A lead requires an
// email extracted from the current message, a running score at or above
// LeadMinScore, and no existing lead for the (conversation, email) pair.
// When one message carries several addresses the first one becomes the lead.
func (s *Service) buildLead(ctx context.Context, conv *models.Conversation, sig models.Signals, now time.Time) (*models.Lead, error) {
	if len(sig.Emails) == 0 || conv.LeadScore < LeadMinScore {
		return nil, nil
	}

	email := sig.Emails[0]
	exists, err := s.store.HasLead(ctx, conv.ID, email)
	if err != nil {
		return nil, fmt.Errorf("chatbot: checking existing lead: %w", err)
	}
	if exists {
		return nil, nil
	}

	lead := &models.Lead{
		ConversationID:     conv.ID,
		Email:              email,
		QualificationScore: conv.LeadScore,
		UrgencyLevel:       scoring.UrgencyLevel(sig),
		Status:             leadStatusFor(conv.LeadScore),
		CreatedAt:          now,
	}
	if len(sig.Phones) > 0 {
		lead.Phone = sig.Phones[0]
	} else if len(conv.Phones) > 0 {
		lead.Phone = conv.Phones[0]
	}
	return lead, nil
}
