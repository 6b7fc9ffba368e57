package scoring

import (
	"regexp"

	"github.com/kbenhida/leadbot/internal/models"
)

// Fixed signal weights. The per-turn score is their plain sum, deliberately
// left unclamped even though it can exceed 100 when many signals fire at
// once (see the scoring note in DESIGN.md).
const (
	WeightBudget        = 25
	WeightProject       = 20
	WeightUrgency       = 15
	WeightCompany       = 20
	WeightDecisionMaker = 30
	WeightTechnical     = 15
	WeightEmail         = 25
	WeightPhone         = 20
	WeightLongHistory   = 10
)

// Status thresholds, applied to the per-turn score.
const (
	HotThreshold  = 70
	WarmThreshold = 40
)

// LongHistoryTurns is the history length above which a conversation earns
// the engagement bonus.
const LongHistoryTurns = 5

// Score sums the weights of every signal present in one turn. historyLen is
// the number of prior turns supplied by the client.
func Score(sig models.Signals, historyLen int) int {
	score := 0
	if sig.BudgetMentioned {
		score += WeightBudget
	}
	if sig.ProjectMentioned {
		score += WeightProject
	}
	if sig.UrgencySignals {
		score += WeightUrgency
	}
	if sig.CompanyContext {
		score += WeightCompany
	}
	if sig.DecisionMaker {
		score += WeightDecisionMaker
	}
	if sig.TechnicalNeeds {
		score += WeightTechnical
	}
	if len(sig.Emails) > 0 {
		score += WeightEmail
	}
	if len(sig.Phones) > 0 {
		score += WeightPhone
	}
	if historyLen > LongHistoryTurns {
		score += WeightLongHistory
	}
	return score
}

// StatusFor buckets a per-turn score into cold/warm/hot.
func StatusFor(score int) models.LeadStatus {
	switch {
	case score >= HotThreshold:
		return models.StatusHot
	case score >= WarmThreshold:
		return models.StatusWarm
	default:
		return models.StatusCold
	}
}

// complexityRules is evaluated in order, first match wins. Enterprise
// markers are checked before complex ones so that a message mentioning both
// an ERP and an API classifies as enterprise.
var complexityRules = []struct {
	label models.Complexity
	re    *regexp.Regexp
}{
	{models.ComplexityEnterprise, regexp.MustCompile(`(?i)\berp\b|grande entreprise|multinationale|\bcorporate\b|filiales?\b|\benterprise\b|\bgroupe\b|multi-?sites?|syst[eè]me d'information`)},
	{models.ComplexityComplex, regexp.MustCompile(`(?i)marketplace|intelligence artificielle|\bia\b|\bai\b|machine learning|\bcrm\b|automatisation|\bapi\b|\bsaas\b|sur[- ]mesure|int[eé]grations?\b`)},
	{models.ComplexityMedium, regexp.MustCompile(`(?i)e-?commerce|boutique en ligne|paiement|r[eé]servation|multilingue|espace client|catalogue`)},
	{models.ComplexitySimple, regexp.MustCompile(`(?i)site vitrine|\bvitrine\b|landing ?page|one ?page|portfolio|\bblog\b|site simple`)},
}

// ComplexityFor runs the ordered keyword cascade over one message. Returns
// ComplexityUnknown when nothing matches; callers keep any previously stored
// value in that case.
func ComplexityFor(message string) models.Complexity {
	for _, rule := range complexityRules {
		if rule.re.MatchString(message) {
			return rule.label
		}
	}
	return models.ComplexityUnknown
}

// UrgencyLevel maps the urgency signal onto the two-level scale leads carry.
// There is no "low": a lead exists because interest was already shown.
func UrgencyLevel(sig models.Signals) string {
	if sig.UrgencySignals {
		return models.UrgencyHigh
	}
	return models.UrgencyMedium
}
