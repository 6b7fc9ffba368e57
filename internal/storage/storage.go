package storage

import (
	"context"

	"github.com/kbenhida/leadbot/internal/models"
)

// Storage persists conversations, leads and per-conversation analytics.
type Storage interface {
	// GetConversation returns the conversation bound to a session, or
	// (nil, nil) when none exists yet.
	GetConversation(ctx context.Context, sessionID string) (*models.Conversation, error)

	// SaveTurn upserts the conversation, bumps its analytics rollup and,
	// when lead is non-nil, inserts the lead. Implementations backed by a
	// transactional store apply all three as one unit.
	SaveTurn(ctx context.Context, conv *models.Conversation, lead *models.Lead) error

	// HasLead reports whether a lead already exists for the
	// (conversation, email) pair.
	HasLead(ctx context.Context, conversationID, email string) (bool, error)

	// ListLeads returns all leads, newest first.
	ListLeads(ctx context.Context) ([]*models.Lead, error)

	// GetAnalytics returns the rollup for one conversation, or (nil, nil)
	// when the conversation has no recorded turns.
	GetAnalytics(ctx context.Context, conversationID string) (*models.Analytics, error)

	Close() error
}
