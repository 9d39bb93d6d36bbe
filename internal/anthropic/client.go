package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"distill/engine/internal/egress"
	"distill/engine/internal/llm"
)

const defaultBaseURL = "https://api.anthropic.com"
const defaultVersion = "2023-06-01"
const maxOutputTokens = 8192

// Client implements the Anthropic Messages API, restricted to the plain
// chat call the oracle pipeline needs.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	transport := egress.NewAllowlistRoundTripper(http.DefaultTransport, []string{"api.anthropic.com"})
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout:   300 * time.Second,
			Transport: transport,
		},
	}
}

func (c *Client) Chat(ctx context.Context, apiKey, model string, messages []llm.Message) (string, error) {
	body, system := splitSystem(messages)
	payload := map[string]any{
		"model":      model,
		"max_tokens": maxOutputTokens,
		"messages":   body,
	}
	if system != "" {
		payload["system"] = system
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	respBody, err := c.post(ctx, apiKey, raw)
	if err != nil {
		return "", err
	}
	var response messagesResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, block := range response.Content {
		if block.Type == "text" {
			buf.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(buf.String()) == "" {
		return "", llm.ErrEmptyResponse
	}
	return buf.String(), nil
}

func (c *Client) post(ctx context.Context, apiKey string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", defaultVersion)
	req.Header.Set("content-type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return nil, llm.ErrEgressBlocked
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, llm.ErrUnauthorized
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, llm.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, llm.ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic error: %s - %s", resp.Status, string(errorBody))
	}
	return io.ReadAll(resp.Body)
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outboundMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// splitSystem lifts system messages into the top-level system parameter,
// which is where the Messages API expects them.
func splitSystem(messages []llm.Message) ([]outboundMessage, string) {
	var out []outboundMessage
	var systemParts []string
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role == "system" {
			if text := strings.TrimSpace(msg.Content); text != "" {
				systemParts = append(systemParts, text)
			}
			continue
		}
		out = append(out, outboundMessage{Role: role, Content: msg.Content})
	}
	return out, strings.Join(systemParts, "\n\n")
}
