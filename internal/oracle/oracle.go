// Package oracle wraps the two external collaborators the pipeline
// depends on: a baseline generator that sees only the summary, and a
// validator that sees only the four artifacts. Both are pluggable so
// tests run against deterministic stubs.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"distill/engine/internal/llm"
)

var ErrOracleFailed = errors.New("oracle failed")

// Completer is the minimal contract an oracle backend must satisfy.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMCompleter adapts a provider chat client into a Completer. Each
// oracle owns its own LLMCompleter, so the two collaborators never share
// a session.
type LLMCompleter struct {
	Client  llm.ChatClient
	APIKey  string
	Model   string
	Timeout time.Duration
}

func (c *LLMCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	messages := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}
	reply, err := c.Client.Chat(ctx, c.APIKey, c.Model, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleFailed, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty reply", ErrOracleFailed)
	}
	return reply, nil
}
