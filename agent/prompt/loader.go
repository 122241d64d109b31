package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/intent.txt
	intentRaw string

	//go:embed template/opportunity.txt
	opportunityRaw string

	//go:embed template/company_extraction.txt
	companyExtractionRaw string

	//go:embed template/company_profile.txt
	companyProfileRaw string

	//go:embed template/company_chat.txt
	companyChatRaw string

	//go:embed template/proposal.txt
	proposalRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Intent            string
	Opportunity       string
	CompanyExtraction string
	CompanyProfile    string
	CompanyChat       string
	Proposal          string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time, trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Intent:            strings.TrimSpace(intentRaw),
		Opportunity:       strings.TrimSpace(opportunityRaw),
		CompanyExtraction: strings.TrimSpace(companyExtractionRaw),
		CompanyProfile:    strings.TrimSpace(companyProfileRaw),
		CompanyChat:       strings.TrimSpace(companyChatRaw),
		Proposal:          strings.TrimSpace(proposalRaw),
	}
}
