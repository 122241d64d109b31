package nodes

import (
	"context"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

// ClassifyIntent routes the turn onto the closed intent set. The classifier
// contract guarantees degradation to IntentUnknown, so this node cannot fail.
func ClassifyIntent(ctx context.Context, st *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	st.Intent = classifier.Classify(ctx, st.Text)
	return st, nil
}
