package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"distill/engine/internal/llm"
	"distill/engine/internal/summary"
)

type stubChat struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubChat) Chat(ctx context.Context, apiKey, model string, messages []llm.Message) (string, error) {
	for _, msg := range messages {
		s.prompts = append(s.prompts, msg.Content)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestCompleterWrapsTransportErrors(t *testing.T) {
	stub := &stubChat{err: llm.ErrUnavailable}
	c := &LLMCompleter{Client: stub, APIKey: "k", Model: "m", Timeout: time.Second}
	if _, err := c.Complete(context.Background(), "sys", "hi"); !errors.Is(err, ErrOracleFailed) {
		t.Fatalf("expected oracle failure, got %v", err)
	}
}

func TestCompleterRejectsEmptyReply(t *testing.T) {
	c := &LLMCompleter{Client: &stubChat{reply: "  \n"}, APIKey: "k", Model: "m"}
	if _, err := c.Complete(context.Background(), "sys", "hi"); !errors.Is(err, ErrOracleFailed) {
		t.Fatalf("expected oracle failure, got %v", err)
	}
}

type stubCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestBaselinePromptBuiltFromSummaryOnly(t *testing.T) {
	sum := summary.Summary{
		Title:    "Retry Patterns",
		Scenario: "Use when deciding how a client should retry",
		Synopsis: "Retry Patterns — 3 code examples",
	}
	stub := &stubCompleter{reply: "# Retry Patterns\n\nGeneric text.\n"}
	o := &BaselineOracle{Completer: stub}
	got, err := o.Generate(context.Background(), sum)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(got, "Generic text.") {
		t.Fatalf("baseline: %q", got)
	}
	if len(stub.prompts) != 1 || !strings.Contains(stub.prompts[0], "Retry Patterns") {
		t.Fatalf("prompts: %v", stub.prompts)
	}
}

// Holding the summary fixed, the baseline must not depend on anything
// else; two generations with the same summary are identical.
func TestBaselineIsFunctionOfSummary(t *testing.T) {
	sum := summary.Summary{Title: "T", Scenario: "s", Synopsis: "y"}
	stub := &stubCompleter{reply: "# T\n\nbody\n"}
	o := &BaselineOracle{Completer: stub}
	first, err := o.Generate(context.Background(), sum)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := o.Generate(context.Background(), sum)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second {
		t.Fatalf("baseline differs for identical summary")
	}
	if stub.prompts[0] != stub.prompts[1] {
		t.Fatalf("prompt differs for identical summary")
	}
}

func TestBaselineUnwrapsFencedReply(t *testing.T) {
	stub := &stubCompleter{reply: "```markdown\n# T\n\nbody\n```"}
	o := &BaselineOracle{Completer: stub}
	got, err := o.Generate(context.Background(), summary.Summary{Title: "T"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.HasPrefix(got, "```") {
		t.Fatalf("fence not stripped: %q", got)
	}
}

func TestParseVerdictVariants(t *testing.T) {
	cases := []struct {
		name   string
		reply  string
		accept bool
	}{
		{"bare", `{"verdict":"ACCEPT","reasoning":"fine"}`, true},
		{"fenced", "Here you go:\n```json\n{\"verdict\":\"REJECT\",\"reasoning\":\"bad\",\"guidance\":[\"restore pattern 5\"]}\n```", false},
		{"lowercase", `{"verdict":"accept"}`, true},
	}
	for _, tc := range cases {
		verdict, err := ParseVerdict(tc.reply)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if verdict.Accepted() != tc.accept {
			t.Fatalf("%s: accepted=%v", tc.name, verdict.Accepted())
		}
	}
}

func TestParseVerdictRejectGetsGuidance(t *testing.T) {
	verdict, err := ParseVerdict(`{"verdict":"REJECT","reasoning":"pattern 5 stripped to a header"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(verdict.Guidance) != 1 || !strings.Contains(verdict.Guidance[0], "pattern 5") {
		t.Fatalf("guidance: %v", verdict.Guidance)
	}
}

func TestParseVerdictMalformed(t *testing.T) {
	for _, reply := range []string{"no json here", `{"verdict":"MAYBE"}`, `{"verdict":`} {
		if _, err := ParseVerdict(reply); !errors.Is(err, ErrOracleFailed) {
			t.Fatalf("expected oracle failure for %q, got %v", reply, err)
		}
	}
}
