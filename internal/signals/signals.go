package signals

import (
	"regexp"

	"github.com/kbenhida/leadbot/internal/models"
)

// Each category is an any-match test against a fixed disjunction. Keyword
// lists are French-first with English alternates, matching the audience of
// the marketing site. Categories are independent: a message can fire all six.
var (
	budgetRE = regexp.MustCompile(`(?i)budget|\btarifs?\b|\bprix\b|\bco[uû]ts?\b|\bdevis\b|investi|financ|\d+\s*k\b|\d[\d\s.,]*\s*(?:€|\$|eur(?:os?)?\b|dhs?\b|dirhams?\b|mad\b|dollars?\b)`)

	projectRE = regexp.MustCompile(`(?i)\bprojets?\b|\bprojects?\b|site\s+(?:web|internet|vitrine)|\bwebsite\b|\bapplications?\b|\bappli\b|\bapp\b|plateforme|\bplatform\b|e-?commerce|boutique\s+en\s+ligne|refonte|landing\s*page|d[eé]velopp`)

	urgencyRE = regexp.MustCompile(`(?i)urgent|urgence|rapidement|au plus vite|\basap\b|d[eè]s que possible|deadline|d[eé]lais?\b|press[eé]|cette semaine|imm[eé]diat`)

	companyRE = regexp.MustCompile(`(?i)entreprises?|soci[eé]t[eé]s?|\bcompany\b|start-?up|\bagence\b|[eé]quipes?\b|\bteam\b|\bbusiness\b|\bpme\b|nos clients|notre marque`)

	decisionRE = regexp.MustCompile(`(?i)\bceo\b|\bcto\b|\bcoo\b|directeur|directrice|fondat(?:eur|rice)|\bfounders?\b|g[eé]rante?\b|pr[eé]sidente?\b|propri[eé]taire|je d[eé]cide|d[eé]cideur|dirigeante?\b|\bowner\b|\bmanager\b`)

	technicalRE = regexp.MustCompile(`(?i)\bseo\b|\bapi\b|\bcrm\b|\berp\b|int[eé]grations?\b|automati[sz]|h[eé]bergement|base de donn[eé]es|wordpress|shopify|\breact\b|next\.?js|\bbackend\b|\bfrontend\b|r[eé]f[eé]rencement|maintenance`)

	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Loose international shape: a digit run with optional +, spaces,
	// dots, dashes and parens. Broad enough to also match prices or
	// dates written as long digit runs; that imprecision is accepted,
	// see the phone-extraction note in DESIGN.md.
	phoneRE = regexp.MustCompile(`\+?\d[\d .\-()]{5,}\d`)
)

// Extract classifies a single message against the six categories and pulls
// out every email and phone-shaped substring. Results are recomputed fresh
// per message: no deduplication or normalization across turns.
func Extract(message string) models.Signals {
	return models.Signals{
		BudgetMentioned:  budgetRE.MatchString(message),
		ProjectMentioned: projectRE.MatchString(message),
		UrgencySignals:   urgencyRE.MatchString(message),
		CompanyContext:   companyRE.MatchString(message),
		DecisionMaker:    decisionRE.MatchString(message),
		TechnicalNeeds:   technicalRE.MatchString(message),
		Emails:           emailRE.FindAllString(message, -1),
		Phones:           phoneRE.FindAllString(message, -1),
	}
}

// HasContact reports whether the message yielded any direct contact channel.
func HasContact(s models.Signals) bool {
	return len(s.Emails) > 0 || len(s.Phones) > 0
}
