package intent

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Chative-Sales-Assistant/agent/llm"
)

// Classifier routes a free-text message onto the closed intent label set with
// one LLM call. Classification never fails a turn: model errors and labels
// outside the set both degrade to IntentUnknown.
type Classifier struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func NewClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Classifier, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: intent prompt", contractx.ErrPromptMissing)
	}
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "intent.classifier_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Classifier{runner: runner}, nil
}

func (c *Classifier) Classify(ctx context.Context, message string) contractx.Intent {
	text := strings.TrimSpace(message)
	if text == "" {
		return contractx.IntentUnknown
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": text,
	})
	if err != nil {
		log.Warn().Err(err).Msg("intent classification failed, degrading to unknown")
		return contractx.IntentUnknown
	}
	if out == nil {
		return contractx.IntentUnknown
	}
	return contractx.ParseIntent(out.Content)
}

var _ contractx.Classifier = (*Classifier)(nil)
