package contract

import "context"

// Classifier maps a free-text message onto exactly one intent label.
// Implementations must degrade to IntentUnknown instead of failing the turn.
type Classifier interface {
	Classify(ctx context.Context, message string) Intent
}

// OpportunityHandler runs one turn of the opportunity accumulation flow.
type OpportunityHandler interface {
	Handle(ctx context.Context, sessionID string, input string) (string, error)
}

// CompanyHandler resolves company queries, context switches, and follow-ups.
type CompanyHandler interface {
	Handle(ctx context.Context, sessionID string, input string) (string, error)
}

// ProposalHandler drafts a proposal document and returns text plus attachment.
type ProposalHandler interface {
	Handle(ctx context.Context, sessionID string, input string) (TurnResponse, error)
}

// Registry hands the orchestrator one handler per routable intent.
type Registry interface {
	Intent() Classifier
	Opportunity() OpportunityHandler
	Company() CompanyHandler
	Proposal() ProposalHandler
}

// Directory is the read-only known-company reference set.
type Directory interface {
	Lookup(companyName string) (KnownCompanyRecord, bool)
}

// Renderer turns a proposal outline into a named binary document.
type Renderer interface {
	Render(outline string) (name string, contentType string, data []byte, err error)
}

// FileStore persists a generated document and returns a retrievable URL.
type FileStore interface {
	Upload(ctx context.Context, name string, contentType string, data []byte) (string, error)
}
