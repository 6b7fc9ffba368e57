package chatbot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbenhida/leadbot/internal/models"
)

func TestAugmentReplyBelowThreshold(t *testing.T) {
	got := augmentReply("Bonne question !", models.Signals{UrgencySignals: true}, 49, models.ComplexityEnterprise)
	require.Equal(t, "Bonne question !", got)
}

func TestAugmentReplyUrgencyWinsOverBudget(t *testing.T) {
	sig := models.Signals{UrgencySignals: true, BudgetMentioned: true}
	got := augmentReply("Je vous réponds vite.", sig, 80, models.ComplexityEnterprise)
	require.Contains(t, got, "créneau d'appel")
	require.NotContains(t, got, "cadrer le devis")
}

func TestAugmentReplyBudgetThenEnterprise(t *testing.T) {
	got := augmentReply("Voyons cela.", models.Signals{BudgetMentioned: true}, 60, models.ComplexityUnknown)
	require.Contains(t, got, "cadrer le devis")

	got = augmentReply("Voyons cela.", models.Signals{}, 60, models.ComplexityEnterprise)
	require.Contains(t, got, "atelier de cadrage")
}

func TestAugmentReplyNoTriggerNoSuffix(t *testing.T) {
	got := augmentReply("Voyons cela.", models.Signals{DecisionMaker: true}, 90, models.ComplexitySimple)
	require.Equal(t, "Voyons cela.", got)
}

func TestAugmentReplySkipsWhenReplyAlreadyPitches(t *testing.T) {
	sig := models.Signals{UrgencySignals: true}

	// The model already offered a consultation.
	got := augmentReply("Je vous propose une Consultation gratuite.", sig, 90, models.ComplexityUnknown)
	require.Equal(t, "Je vous propose une Consultation gratuite.", got)

	// The model already gave the phone number: never append, whatever the score.
	withPhone := "Appelez-nous au +212 6 00 00 00 00."
	got = augmentReply(withPhone, sig, 200, models.ComplexityEnterprise)
	require.Equal(t, withPhone, got)
}

func TestHasBusinessIntent(t *testing.T) {
	require.False(t, hasBusinessIntent(models.Signals{DecisionMaker: true, UrgencySignals: true}))
	require.True(t, hasBusinessIntent(models.Signals{TechnicalNeeds: true}))
	require.True(t, hasBusinessIntent(models.Signals{BudgetMentioned: true}))
}

func TestLeadStatusFor(t *testing.T) {
	require.Equal(t, models.LeadStatusNew, leadStatusFor(69))
	require.Equal(t, models.LeadStatusQualified, leadStatusFor(70))
}
