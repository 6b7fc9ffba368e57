package chatbot

import (
	"strings"

	"github.com/kbenhida/leadbot/internal/models"
	"github.com/kbenhida/leadbot/internal/scoring"
)

// ConsultantPhone is the human escalation number appended to CTAs and to the
// fallback reply.
const ConsultantPhone = "+212 6 61 24 53 78"

// ConsultationScore is the per-turn score from which the bot starts pushing
// toward a consultation.
const ConsultationScore = 50

// EmailCollectScore is the running score from which the bot starts asking
// for an email address.
const EmailCollectScore = 30

const (
	ctaUrgency = "\n\nVotre projet semble pressé : je peux vous proposer un créneau d'appel dès aujourd'hui au " +
		ConsultantPhone + ", ou réservez directement une consultation gratuite de 30 minutes."
	ctaBudget = "\n\nPuisque vous avez déjà un budget en tête, le plus simple est une consultation gratuite pour " +
		"cadrer le devis. Appelez le " + ConsultantPhone + " ou laissez votre email."
	ctaEnterprise = "\n\nPour un projet de cette envergure, une consultation dédiée s'impose : contactez le " +
		ConsultantPhone + " pour organiser un atelier de cadrage."
)

// augmentReply appends at most one canned call-to-action to the model's
// reply. Nothing is appended when the turn scored below the consultation
// threshold, or when the reply already pitches a consultation or carries the
// consultant's phone prefix. Priority: urgency, then budget, then
// enterprise-sized project.
func augmentReply(reply string, sig models.Signals, turnScore int, complexity models.Complexity) string {
	if turnScore < ConsultationScore {
		return reply
	}
	if strings.Contains(strings.ToLower(reply), "consultation") || strings.Contains(reply, "+212") {
		return reply
	}

	switch {
	case sig.UrgencySignals:
		return reply + ctaUrgency
	case sig.BudgetMentioned:
		return reply + ctaBudget
	case complexity == models.ComplexityEnterprise:
		return reply + ctaEnterprise
	}
	return reply
}

// suggestions proposes up to three quick replies for the widget, driven by
// whichever qualification signals are still missing.
func suggestions(sig models.Signals, conv *models.Conversation) []string {
	out := make([]string, 0, 3)

	if !sig.ProjectMentioned && conv.Complexity == models.ComplexityUnknown {
		out = append(out, "Décrivez-moi votre projet en quelques mots")
	}
	if !sig.BudgetMentioned {
		out = append(out, "Quel budget avez-vous prévu ?")
	}
	if conv.LeadScore >= EmailCollectScore && len(conv.Emails) == 0 {
		out = append(out, "Laissez votre email pour recevoir un devis détaillé")
	}
	if conv.LeadScore >= ConsultationScore {
		out = append(out, "Réserver une consultation gratuite")
	}

	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func hasBusinessIntent(sig models.Signals) bool {
	return sig.BudgetMentioned || sig.ProjectMentioned || sig.CompanyContext || sig.TechnicalNeeds
}

func leadStatusFor(score int) string {
	if score >= scoring.HotThreshold {
		return models.LeadStatusQualified
	}
	return models.LeadStatusNew
}
