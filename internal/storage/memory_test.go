package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kbenhida/leadbot/internal/models"
)

func testConversation(sessionID string) *models.Conversation {
	now := time.Now().UTC()
	return &models.Conversation{
		ID:         "11111111-1111-1111-1111-111111111111",
		SessionID:  sessionID,
		Status:     models.StatusWarm,
		Complexity: models.ComplexityUnknown,
		LeadScore:  45,
		Messages: []models.Message{
			{Role: models.RoleUser, Content: "bonjour", CreatedAt: now},
			{Role: models.RoleAssistant, Content: "bonjour !", CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStorageConversationRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	got, err := s.GetConversation(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	conv := testConversation("sess-1")
	require.NoError(t, s.SaveTurn(ctx, conv, nil))

	got, err = s.GetConversation(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, conv.ID, got.ID)
	require.Equal(t, 45, got.LeadScore)
	require.Len(t, got.Messages, 2)

	// The stored copy is isolated from later mutation of the argument.
	conv.Messages = append(conv.Messages, models.Message{Role: models.RoleUser, Content: "x"})
	again, err := s.GetConversation(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, again.Messages, 2)
}

func TestMemoryStorageLeadInsertAndLookup(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	conv := testConversation("sess-2")

	exists, err := s.HasLead(ctx, conv.ID, "a@b.com")
	require.NoError(t, err)
	require.False(t, exists)

	lead := &models.Lead{
		ConversationID:     conv.ID,
		Email:              "a@b.com",
		QualificationScore: 45,
		UrgencyLevel:       models.UrgencyMedium,
		Status:             models.LeadStatusNew,
		CreatedAt:          time.Now().UTC(),
	}
	require.NoError(t, s.SaveTurn(ctx, conv, lead))
	require.NotZero(t, lead.ID)

	exists, err = s.HasLead(ctx, conv.ID, "a@b.com")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = s.HasLead(ctx, conv.ID, "other@b.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemoryStorageListLeadsNewestFirst(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	conv := testConversation("sess-3")

	older := &models.Lead{
		ConversationID: conv.ID,
		Email:          "old@b.com",
		Status:         models.LeadStatusNew,
		UrgencyLevel:   models.UrgencyMedium,
		CreatedAt:      time.Now().UTC().Add(-time.Hour),
	}
	newer := &models.Lead{
		ConversationID: conv.ID,
		Email:          "new@b.com",
		Status:         models.LeadStatusQualified,
		UrgencyLevel:   models.UrgencyHigh,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.SaveTurn(ctx, conv, older))
	require.NoError(t, s.SaveTurn(ctx, conv, newer))

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	require.Equal(t, "new@b.com", leads[0].Email)
	require.Equal(t, "old@b.com", leads[1].Email)
}

func TestMemoryStorageAnalyticsRollup(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	a, err := s.GetAnalytics(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, a)

	conv := testConversation("sess-4")
	require.NoError(t, s.SaveTurn(ctx, conv, nil))

	conv.LeadScore = 90
	conv.Status = models.StatusHot
	require.NoError(t, s.SaveTurn(ctx, conv, nil))

	conv.Status = models.StatusCold // score stays at its max
	require.NoError(t, s.SaveTurn(ctx, conv, nil))

	a, err = s.GetAnalytics(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, 3, a.Turns)
	require.Equal(t, 90, a.MaxScore)
	require.Equal(t, models.StatusCold, a.LastStatus)
}
