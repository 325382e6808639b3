package models

import (
	"encoding/json"
	"time"
)

// RiskLevel is the extracted risk preference of a user.
type RiskLevel string

const (
	RiskConservative RiskLevel = "conservative"
	RiskBalanced     RiskLevel = "balanced"
	RiskAggressive   RiskLevel = "aggressive"
)

// Label returns the zh-CN display label used in advice text.
func (r RiskLevel) Label() string {
	switch r {
	case RiskConservative:
		return "稳健"
	case RiskAggressive:
		return "激进"
	default:
		return "平衡"
	}
}

// InterestTag marks a theme or product preference mentioned by the user.
type InterestTag string

const (
	TagIndexETF       InterestTag = "index_etf"
	TagTechTheme      InterestTag = "tech_theme"
	TagCashManagement InterestTag = "cash_management"
	TagFixedIncome    InterestTag = "fixed_income"
	TagRetirement     InterestTag = "retirement"
	TagEducation      InterestTag = "education"
	TagHomePurchase   InterestTag = "home_purchase"
)

// Label returns the zh-CN display label used in advice text.
func (t InterestTag) Label() string {
	switch t {
	case TagIndexETF:
		return "ETF/指数"
	case TagTechTheme:
		return "科技主题"
	case TagCashManagement:
		return "现金管理"
	case TagFixedIncome:
		return "固收"
	case TagRetirement:
		return "养老"
	case TagEducation:
		return "教育金"
	case TagHomePurchase:
		return "置业"
	default:
		return string(t)
	}
}

// Intent is the structured reading of one user message. Every field except
// Risk and Interests is optional; a nil pointer means "unspecified", never zero.
type Intent struct {
	Risk                  RiskLevel     `json:"risk"`
	HorizonMonths         *int          `json:"horizonMonths,omitempty"`
	Budget                *float64      `json:"budget,omitempty"`
	SIPMonthly            *float64      `json:"sipMonthly,omitempty"`
	TargetAnnualReturnPct *float64      `json:"targetAnnualReturnPct,omitempty"`
	Interests             []InterestTag `json:"interests,omitempty"`
}

// HasInterest reports whether the intent carries the given tag.
func (i Intent) HasInterest(tag InterestTag) bool {
	for _, t := range i.Interests {
		if t == tag {
			return true
		}
	}
	return false
}

// Allocation is a percentage split across the three asset classes.
// Invariant: Cash + Bond + Equity == 100, each component >= 0.
type Allocation struct {
	Cash   int `json:"cash" firestore:"cash"`
	Bond   int `json:"bond" firestore:"bond"`
	Equity int `json:"equity" firestore:"equity"`
}

// TableRow is one category/share/note line of a recommendation table.
type TableRow struct {
	Category string `json:"category" firestore:"category"`
	Share    string `json:"share" firestore:"share"`
	Note     string `json:"note" firestore:"note"`
}

// RecommendationBlock is one titled advice section.
type RecommendationBlock struct {
	Title   string     `json:"title" firestore:"title"`
	Summary string     `json:"summary" firestore:"summary"`
	Lines   []string   `json:"lines" firestore:"lines"`
	Table   []TableRow `json:"table,omitempty" firestore:"table,omitempty"`
}

// AdvicePayload is the structured content of a generated answer.
type AdvicePayload struct {
	Allocation      Allocation            `json:"alloc" firestore:"alloc"`
	Recommendations []RecommendationBlock `json:"recommendations" firestore:"recommendations"`
	Risk            string                `json:"risk" firestore:"risk"`
	HorizonText     string                `json:"horizonText" firestore:"horizonText"`
	BudgetText      string                `json:"budgetText" firestore:"budgetText"`
}

// MessageContent is either plain text or a structured advice payload.
// On the wire it keeps the original shape: a bare JSON string for text,
// an object for advice.
type MessageContent struct {
	Text   string         `firestore:"text,omitempty"`
	Advice *AdvicePayload `firestore:"advice,omitempty"`
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Advice != nil {
		return json.Marshal(c.Advice)
	}
	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		c.Advice = nil
		return nil
	}
	var p AdvicePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	c.Text = ""
	c.Advice = &p
	return nil
}

// IsAdvice reports whether the content is a structured advice payload.
func (c MessageContent) IsAdvice() bool { return c.Advice != nil }

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one turn of a conversation. IsThinking and
// IsStreaming are transient delivery flags and are cleared before a message
// becomes final.
type ConversationMessage struct {
	Role        string         `json:"role" firestore:"role"`
	Content     MessageContent `json:"content" firestore:"content"`
	Timestamp   time.Time      `json:"timestamp" firestore:"timestamp"`
	IsThinking  bool           `json:"isThinking,omitempty" firestore:"isThinking,omitempty"`
	IsStreaming bool           `json:"isStreaming,omitempty" firestore:"isStreaming,omitempty"`
}

// Transient reports whether the message is an in-flight placeholder.
func (m ConversationMessage) Transient() bool { return m.IsThinking || m.IsStreaming }

// Conversation is one chat thread.
type Conversation struct {
	ID        string                `json:"id" firestore:"id"`
	Title     string                `json:"title" firestore:"title"`
	Messages  []ConversationMessage `json:"messages" firestore:"messages"`
	CreatedAt time.Time             `json:"createdAt" firestore:"createdAt"`
}

// SendMessageRequest is the body of POST /v1/conversations/:id/messages.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// CreateConversationRequest is the body of POST /v1/conversations.
type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=100"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
