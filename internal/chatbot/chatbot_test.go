package chatbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kbenhida/leadbot/internal/models"
	"github.com/kbenhida/leadbot/internal/storage"
)

type stubAssistant struct {
	reply string
	err   error
	calls int
}

func (a *stubAssistant) Reply(_ context.Context, _ []models.ChatMessage, _ string) (string, error) {
	a.calls++
	return a.reply, a.err
}

func newTestService(t *testing.T, reply string) (*Service, *storage.MemoryStorage, *stubAssistant) {
	t.Helper()
	store := storage.NewMemoryStorage()
	asst := &stubAssistant{reply: reply}
	return NewService(asst, store, zap.NewNop()), store, asst
}

func TestHandleTurnHotFrenchProspect(t *testing.T) {
	svc, store, _ := newTestService(t, "Très bien, parlons de votre projet.")

	res, err := svc.HandleTurn(context.Background(), TurnRequest{
		Message: "J'ai un budget de 50k€ pour un projet urgent, je suis le CEO",
	})
	require.NoError(t, err)

	// budget 25 + project 20 + urgency 15 + decision-maker 30
	require.Equal(t, 90, res.LeadScore)
	require.Equal(t, models.StatusHot, res.LeadStatus)
	require.True(t, res.HasBusinessIntent)
	require.True(t, res.ShouldOfferConsultation)
	require.NotEmpty(t, res.SessionID)
	require.NotEmpty(t, res.ConversationID)

	// Urgency outranks budget for the appended CTA.
	require.Contains(t, res.Response, "pressé")
	require.Contains(t, res.Response, ConsultantPhone)

	conv, err := store.GetConversation(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Equal(t, 90, conv.LeadScore)
	require.Len(t, conv.Messages, 2)
	require.Equal(t, models.RoleUser, conv.Messages[0].Role)
	require.Equal(t, models.RoleAssistant, conv.Messages[1].Role)
}

func TestHandleTurnPlainGreeting(t *testing.T) {
	svc, store, _ := newTestService(t, "Bonjour ! Comment puis-je vous aider ?")

	res, err := svc.HandleTurn(context.Background(), TurnRequest{
		Message: "Bonjour, comment allez-vous ?",
	})
	require.NoError(t, err)

	require.Equal(t, 0, res.LeadScore)
	require.Equal(t, models.StatusCold, res.LeadStatus)
	require.False(t, res.HasBusinessIntent)
	require.False(t, res.ShouldOfferConsultation)
	require.Equal(t, "Bonjour ! Comment puis-je vous aider ?", res.Response)

	leads, err := store.ListLeads(context.Background())
	require.NoError(t, err)
	require.Empty(t, leads)
}

func TestHandleTurnCreatesLeadFromEmailAtRunningScore(t *testing.T) {
	svc, store, _ := newTestService(t, "Noté, merci !")
	ctx := context.Background()

	// First turn builds up a running score without any contact info.
	first, err := svc.HandleTurn(ctx, TurnRequest{
		Message: "Nous sommes une startup avec un projet urgent",
	})
	require.NoError(t, err)
	require.Equal(t, 55, first.LeadScore) // project 20 + urgency 15 + company 20

	// Second, blander turn only supplies the email.
	second, err := svc.HandleTurn(ctx, TurnRequest{
		Message:   "Contactez-moi à jean@example.com",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	leads, err := store.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	require.Equal(t, "jean@example.com", leads[0].Email)
	require.Equal(t, 55, leads[0].QualificationScore) // running max, not the email-only turn
	require.Equal(t, models.LeadStatusNew, leads[0].Status)
	require.Equal(t, models.UrgencyMedium, leads[0].UrgencyLevel)
	require.Equal(t, second.ConversationID, leads[0].ConversationID)
}

func TestHandleTurnNoDuplicateLeadForSameEmail(t *testing.T) {
	svc, store, _ := newTestService(t, "Bien reçu.")
	ctx := context.Background()

	first, err := svc.HandleTurn(ctx, TurnRequest{
		Message: "Projet e-commerce pour notre entreprise, écrivez à sara@acme.ma",
	})
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, TurnRequest{
		Message:   "Je répète : sara@acme.ma",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	leads, err := store.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
}

func TestHandleTurnScoreIsMonotonicStatusIsNot(t *testing.T) {
	svc, store, _ := newTestService(t, "D'accord.")
	ctx := context.Background()

	hot, err := svc.HandleTurn(ctx, TurnRequest{
		Message: "Budget de 80k pour un projet urgent, je suis le fondateur de la société",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusHot, hot.LeadStatus)

	bland, err := svc.HandleTurn(ctx, TurnRequest{
		Message:   "Merci, bonne journée",
		SessionID: hot.SessionID,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCold, bland.LeadStatus)

	conv, err := store.GetConversation(ctx, hot.SessionID)
	require.NoError(t, err)
	// The stored score keeps the maximum ever observed, while the stored
	// status follows the latest turn back down.
	require.Equal(t, hot.LeadScore, conv.LeadScore)
	require.Equal(t, models.StatusCold, conv.Status)
}

func TestHandleTurnComplexityPreservedOnUnknown(t *testing.T) {
	svc, store, _ := newTestService(t, "Entendu.")
	ctx := context.Background()

	first, err := svc.HandleTurn(ctx, TurnRequest{
		Message: "Je veux une marketplace avec automatisation",
	})
	require.NoError(t, err)
	require.Equal(t, models.ComplexityComplex, first.ProjectComplexity)

	second, err := svc.HandleTurn(ctx, TurnRequest{
		Message:   "Merci beaucoup",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)
	require.Equal(t, models.ComplexityComplex, second.ProjectComplexity)

	conv, err := store.GetConversation(ctx, first.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.ComplexityComplex, conv.Complexity)
}

func TestHandleTurnEmptyMessage(t *testing.T) {
	svc, _, asst := newTestService(t, "peu importe")

	_, err := svc.HandleTurn(context.Background(), TurnRequest{Message: "   "})
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Zero(t, asst.calls)
}

func TestHandleTurnAssistantFailureIsPropagated(t *testing.T) {
	store := storage.NewMemoryStorage()
	asst := &stubAssistant{err: errors.New("upstream boom")}
	svc := NewService(asst, store, zap.NewNop())

	_, err := svc.HandleTurn(context.Background(), TurnRequest{Message: "Bonjour"})
	require.Error(t, err)

	// Nothing is persisted when the LLM call fails.
	leads, listErr := store.ListLeads(context.Background())
	require.NoError(t, listErr)
	require.Empty(t, leads)
}

func TestHandleTurnHistoryBonus(t *testing.T) {
	svc, _, _ := newTestService(t, "Ok.")

	history := make([]models.ChatMessage, 6)
	for i := range history {
		history[i] = models.ChatMessage{Role: models.RoleUser, Content: "..."}
	}

	res, err := svc.HandleTurn(context.Background(), TurnRequest{
		Message: "Parlons de mon projet",
		History: history,
	})
	require.NoError(t, err)
	require.Equal(t, 30, res.LeadScore) // project 20 + long-history 10
}

func TestHandleTurnShouldCollectEmail(t *testing.T) {
	svc, _, _ := newTestService(t, "Ok.")

	res, err := svc.HandleTurn(context.Background(), TurnRequest{
		Message: "Projet de site web pour notre entreprise",
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.LeadScore, EmailCollectScore)
	require.True(t, res.ShouldCollectEmail)

	withEmail, err := svc.HandleTurn(context.Background(), TurnRequest{
		Message:   "Mon email : lina@corp.io",
		SessionID: res.SessionID,
	})
	require.NoError(t, err)
	require.False(t, withEmail.ShouldCollectEmail)
}

func TestSuggestionsCapAtThree(t *testing.T) {
	conv := &models.Conversation{LeadScore: 80, Complexity: models.ComplexityUnknown}
	got := suggestions(models.Signals{}, conv)
	require.LessOrEqual(t, len(got), 3)
	require.NotEmpty(t, got)
}

func TestLeadRequiresMinimumScore(t *testing.T) {
	svc, store, _ := newTestService(t, "Merci.")

	// Email alone scores 25, below the lead threshold of 30.
	res, err := svc.HandleTurn(context.Background(), TurnRequest{
		Message: "voici mon email : solo@ex.com",
	})
	require.NoError(t, err)
	require.Equal(t, 25, res.LeadScore)

	leads, err := store.ListLeads(context.Background())
	require.NoError(t, err)
	require.Empty(t, leads)
}
