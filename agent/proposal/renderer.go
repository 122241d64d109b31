package proposal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

// MarkdownRenderer writes the outline as a markdown document. The file name
// carries a UTC timestamp so repeated drafts in one session never collide.
type MarkdownRenderer struct {
	now func() time.Time
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{now: time.Now}
}

func (r *MarkdownRenderer) Render(outline string) (string, string, []byte, error) {
	outline = strings.TrimSpace(outline)
	if outline == "" {
		return "", "", nil, errors.New("proposal outline is empty")
	}

	name := fmt.Sprintf("proposal-%s.md", r.now().UTC().Format("20060102-150405"))
	body := outline
	if !strings.HasPrefix(body, "#") {
		body = "# Sales Proposal\n\n" + body
	}
	return name, "text/markdown", []byte(body + "\n"), nil
}

var _ contractx.Renderer = (*MarkdownRenderer)(nil)
