package models

import "time"

// LeadStatus buckets a qualification score into the three levels the CRM
// surfaces to the consultant.
type LeadStatus string

const (
	StatusCold LeadStatus = "cold"
	StatusWarm LeadStatus = "warm"
	StatusHot  LeadStatus = "hot"
)

// Complexity classifies the project described in a conversation.
type Complexity string

const (
	ComplexityUnknown    Complexity = "unknown"
	ComplexitySimple     Complexity = "simple"
	ComplexityMedium     Complexity = "medium"
	ComplexityComplex    Complexity = "complex"
	ComplexityEnterprise Complexity = "enterprise"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the client-supplied conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message is one persisted turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Signals is the per-message extraction result: six independent booleans plus
// every email and phone-shaped substring found, in text order.
type Signals struct {
	BudgetMentioned  bool     `json:"budget_mentioned"`
	ProjectMentioned bool     `json:"project_mentioned"`
	UrgencySignals   bool     `json:"urgency_signals"`
	CompanyContext   bool     `json:"company_context"`
	DecisionMaker    bool     `json:"decision_maker"`
	TechnicalNeeds   bool     `json:"technical_needs"`
	Emails           []string `json:"emails"`
	Phones           []string `json:"phones"`
}

// Conversation accumulates one session's message log and derived
// qualification state. LeadScore only ever grows (max over all turns);
// Status reflects the latest turn and may move back down.
type Conversation struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	Messages   []Message  `json:"messages"`
	LeadScore  int        `json:"lead_score"`
	Status     LeadStatus `json:"status"`
	Complexity Complexity `json:"complexity"`
	Emails     []string   `json:"emails"`
	Phones     []string   `json:"phones"`
	UserAgent  string     `json:"user_agent,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Lead is the CRM record cut from a conversation once contact info and a
// sufficient score have been observed. At most one per (conversation, email).
type Lead struct {
	ID                 int64     `json:"id"`
	ConversationID     string    `json:"conversation_id"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone,omitempty"`
	QualificationScore int       `json:"qualification_score"`
	UrgencyLevel       string    `json:"urgency_level"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// Lead lifecycle statuses set by the chatbot; the CRM owns later transitions.
const (
	LeadStatusNew       = "new"
	LeadStatusQualified = "qualified"
)

const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
)

// Analytics is the per-conversation rollup updated on every turn.
type Analytics struct {
	ConversationID string     `json:"conversation_id"`
	Turns          int        `json:"turns"`
	MaxScore       int        `json:"max_score"`
	LastStatus     LeadStatus `json:"last_status"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
