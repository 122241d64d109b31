package contract

import "strings"

// Intent is the closed label set produced by the intent router.
// Anything the classifier returns outside this set collapses to IntentUnknown.
type Intent string

const (
	IntentGreeting     Intent = "greeting"
	IntentGoodbye      Intent = "goodbye"
	IntentThanks       Intent = "thanks"
	IntentCompanyQuery Intent = "company_query"
	IntentOpportunity  Intent = "opportunity_creation"
	IntentProposal     Intent = "proposal_draft"
	IntentUnknown      Intent = "unknown"
)

// ParseIntent normalizes raw classifier output into the closed enum.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentGreeting:
		return IntentGreeting
	case IntentGoodbye:
		return IntentGoodbye
	case IntentThanks:
		return IntentThanks
	case IntentCompanyQuery:
		return IntentCompanyQuery
	case IntentOpportunity:
		return IntentOpportunity
	case IntentProposal:
		return IntentProposal
	default:
		return IntentUnknown
	}
}

// AgentRole selects per-role model overrides in the LLM config.
type AgentRole string

const (
	RoleIntent      AgentRole = "intent"
	RoleOpportunity AgentRole = "opportunity"
	RoleCompany     AgentRole = "company"
	RoleProposal    AgentRole = "proposal"
)

// Attachment is a named binary document reference handed back to the
// chat transport alongside the reply text.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url,omitempty"`
	Content     string `json:"content,omitempty"` // base64 payload
}

// TurnResponse is what one processed turn hands back to the transport.
type TurnResponse struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// OpportunityExtraction is the strict JSON shape the extraction prompt demands.
// An empty string means the field was not stated this turn.
type OpportunityExtraction struct {
	ContactName   string   `json:"contact_name"`
	CompanyName   string   `json:"company_name"`
	DealStage     string   `json:"deal_stage"`
	Amount        string   `json:"amount"`
	CloseDate     string   `json:"close_date"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// CompanyExtraction is the strict JSON shape of the company extraction call.
// CompanyName is lowercased, or the literal "none" when no company was named.
type CompanyExtraction struct {
	CompanyName    string `json:"company_name"`
	IsCompanyQuery bool   `json:"is_company_query"`
	ChangeCompany  bool   `json:"change_company"`
}

// KnownCompanyRecord is one static reference profile for a previously-engaged
// company. The set is loaded once at process start and read-only afterwards.
type KnownCompanyRecord struct {
	CompanyName    string   `json:"company_name"`
	ProjectDetails string   `json:"project_details"`
	WorkedWith     string   `json:"worked_with"`
	Contacts       []string `json:"contacts"`
}
