// Package openai implements the llm.Client interface against any
// OpenAI-compatible chat completions endpoint (OpenAI, Groq, Ollama's
// /v1 surface, etc.).
package openai

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

	"go.uber.org/zap"

	"github.com/prepmate/prepmate/pkg/llm"
)

const completionsPath = "/chat/completions"

// Client calls an OpenAI-compatible chat completions upstream.
type Client struct {
	upstream   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a chat completions client for the given upstream base URL
// (e.g. "https://api.groq.com/openai/v1"). The API key may be empty only
// for keyless upstreams; hosted providers reject unauthenticated requests.
func New(upstream, apiKey string, logger *zap.Logger) (*Client, error) {
	if upstream == "" {
		return nil, errors.New("upstream URL required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		upstream: strings.TrimRight(upstream, "/"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			// LLM responses can be slow
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}, nil
}

// Complete sends the request and returns the single assistant message.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	messages := make([]openaiMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(openaiRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending chat completion request",
		zap.String("upstream", c.upstream),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstream+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request to upstream: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed openaiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if parsed.Error != nil {
		return nil, fmt.Errorf("upstream error: %s", parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return nil, errors.New("upstream returned no choices")
	}

	choice := parsed.Choices[0]

	var usage *llm.Usage
	if parsed.Usage != nil {
		usage = &llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}

	return &llm.ChatResponse{
		Model:      parsed.Model,
		CreatedAt:  time.Unix(parsed.Created, 0),
		Message:    llm.Message{Role: choice.Message.Role, Content: choice.Message.Content},
		StopReason: choice.FinishReason,
		Usage:      usage,
	}, nil
}
