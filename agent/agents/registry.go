package agents

import (
	"context"
	"fmt"

	companyx "github.com/tanpawarit/Chative-Sales-Assistant/agent/company"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	intentx "github.com/tanpawarit/Chative-Sales-Assistant/agent/intent"
	llmx "github.com/tanpawarit/Chative-Sales-Assistant/agent/llm"
	opportunityx "github.com/tanpawarit/Chative-Sales-Assistant/agent/opportunity"
	promptx "github.com/tanpawarit/Chative-Sales-Assistant/agent/prompt"
	proposalx "github.com/tanpawarit/Chative-Sales-Assistant/agent/proposal"
	statex "github.com/tanpawarit/Chative-Sales-Assistant/agent/state"
	openrouterx "github.com/tanpawarit/Chative-Sales-Assistant/pkg/openrouter"
)

type registryImpl struct {
	intent      contractx.Classifier
	opportunity contractx.OpportunityHandler
	company     contractx.CompanyHandler
	proposal    contractx.ProposalHandler
}

func (r *registryImpl) Intent() contractx.Classifier {
	return r.intent
}

func (r *registryImpl) Opportunity() contractx.OpportunityHandler {
	return r.opportunity
}

func (r *registryImpl) Company() contractx.CompanyHandler {
	return r.company
}

func (r *registryImpl) Proposal() contractx.ProposalHandler {
	return r.proposal
}

// Deps carries the non-model collaborators the handlers need.
type Deps struct {
	Store     statex.Store
	History   statex.HistoryStore
	Directory contractx.Directory
	Files     contractx.FileStore
}

func NewRegistry(ctx context.Context, cfg llmx.Config, deps Deps) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	intentModelCfg := cfg.OpenRouterFor(contractx.RoleIntent)
	intentModel, err := intentModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create intent model: %v", contractx.ErrModelInvoke, err)
	}
	opportunityModelCfg := cfg.OpenRouterFor(contractx.RoleOpportunity)
	opportunityModel, err := opportunityModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create opportunity model: %v", contractx.ErrModelInvoke, err)
	}
	companyModelCfg := cfg.OpenRouterFor(contractx.RoleCompany)
	companyModel, err := companyModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create company model: %v", contractx.ErrModelInvoke, err)
	}

	classifier, err := intentx.NewClassifier(ctx, intentModel, prompts.Intent)
	if err != nil {
		return nil, err
	}

	extractor, err := opportunityx.NewExtractor(ctx, opportunityModel, prompts.Opportunity, deps.Store)
	if err != nil {
		return nil, err
	}

	resolver, err := companyx.NewResolver(ctx, companyModel, companyx.Prompts{
		Extraction: prompts.CompanyExtraction,
		Profile:    prompts.CompanyProfile,
		Chat:       prompts.CompanyChat,
	}, deps.Store, deps.History, deps.Directory)
	if err != nil {
		return nil, err
	}

	// The proposal path bypasses eino and talks to the completion API
	// directly, so it gets a raw client instead of a graph model.
	proposalModelCfg := cfg.OpenRouterFor(contractx.RoleProposal)
	generator, err := proposalx.NewGenerator(
		openrouterx.NewClient(proposalModelCfg),
		proposalModelCfg.Model,
		prompts.Proposal,
		deps.Store,
		proposalx.NewMarkdownRenderer(),
		deps.Files,
	)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		intent:      classifier,
		opportunity: extractor,
		company:     resolver,
		proposal:    generator,
	}, nil
}
