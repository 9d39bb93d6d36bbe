package oracle

import (
	"context"
	"fmt"
	"strings"

	"distill/engine/internal/summary"
)

const baselineSystem = `You write reference documents from scratch. You have never seen the
document being described; you only know its summary. Write the document
any competent practitioner could produce from that summary alone:
generic explanations, basic examples, restated concepts. Do not invent
specific numbers, exact configurations, or worked edge cases.`

// BaselineOracle fabricates the "what anyone could write" document. The
// isolation is structural: Generate accepts a Summary and nothing else,
// so the real content cannot leak into the prompt.
type BaselineOracle struct {
	Completer Completer
}

func (o *BaselineOracle) Generate(ctx context.Context, sum summary.Summary) (string, error) {
	prompt := fmt.Sprintf(
		"Write the document described by this summary. Output markdown only.\n\n%s",
		sum.Markdown(),
	)
	reply, err := o.Completer.Complete(ctx, baselineSystem, prompt)
	if err != nil {
		return "", err
	}
	baseline := strings.TrimSpace(stripFence(reply))
	if baseline == "" {
		return "", fmt.Errorf("%w: empty baseline", ErrOracleFailed)
	}
	return baseline + "\n", nil
}

// stripFence unwraps a reply the model wrapped in a single markdown
// fence. Fences inside the document are left alone.
func stripFence(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "```") {
		return reply
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[len(lines)-1], "```") {
		return reply
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}
