package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Sales-Assistant/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	IntentModel            string  `envconfig:"INTENT_MODEL" split_words:"true"`
	OpportunityModel       string  `envconfig:"OPPORTUNITY_MODEL" split_words:"true"`
	CompanyModel           string  `envconfig:"COMPANY_MODEL" split_words:"true"`
	ProposalModel          string  `envconfig:"PROPOSAL_MODEL" split_words:"true"`
	IntentTemperature      float32 `envconfig:"INTENT_TEMPERATURE" split_words:"true" default:"-1"`
	OpportunityTemperature float32 `envconfig:"OPPORTUNITY_TEMPERATURE" split_words:"true" default:"-1"`
	CompanyTemperature     float32 `envconfig:"COMPANY_TEMPERATURE" split_words:"true" default:"-1"`
	ProposalTemperature    float32 `envconfig:"PROPOSAL_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the model configuration for one agent role,
// falling back to the shared defaults when no override is set.
func (c Config) OpenRouterFor(role contractx.AgentRole) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case contractx.RoleIntent:
		if v := strings.TrimSpace(c.IntentModel); v != "" {
			modelName = v
		}
		if c.IntentTemperature >= 0 {
			temp = c.IntentTemperature
		}
	case contractx.RoleOpportunity:
		if v := strings.TrimSpace(c.OpportunityModel); v != "" {
			modelName = v
		}
		if c.OpportunityTemperature >= 0 {
			temp = c.OpportunityTemperature
		}
	case contractx.RoleCompany:
		if v := strings.TrimSpace(c.CompanyModel); v != "" {
			modelName = v
		}
		if c.CompanyTemperature >= 0 {
			temp = c.CompanyTemperature
		}
	case contractx.RoleProposal:
		if v := strings.TrimSpace(c.ProposalModel); v != "" {
			modelName = v
		}
		if c.ProposalTemperature >= 0 {
			temp = c.ProposalTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
