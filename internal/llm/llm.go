// Package llm defines the narrow chat contract the oracle clients are
// built on, plus the sentinel errors every provider maps its transport
// failures onto.
package llm

import "context"

// Message represents a simple chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient is implemented by each provider client. The pipeline never
// talks to a provider directly; it goes through this interface so tests
// can substitute a deterministic stub.
type ChatClient interface {
	Chat(ctx context.Context, apiKey, model string, messages []Message) (string, error)
}
