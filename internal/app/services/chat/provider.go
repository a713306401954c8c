package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tendhq/tend/internal/app/metrics"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/pkg/logger"
)

// Provider produces an assistant reply for a user message plus system
// context.
type Provider interface {
	Complete(ctx context.Context, system, message string) (string, error)
}

// HTTPProvider talks to an Anthropic-style messages API over HTTP. Every call
// is bounded by the client timeout; a timeout or non-2xx response surfaces as
// an upstream provider error and is never retried, so a stored conversation
// turn cannot be duplicated.
type HTTPProvider struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	log       *logger.Logger
}

// ProviderConfig configures the HTTP provider.
type ProviderConfig struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// NewHTTPProvider constructs a provider client.
func NewHTTPProvider(cfg ProviderConfig, log *logger.Logger) (*HTTPProvider, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("provider endpoint is required")
	}
	if log == nil {
		log = logger.NewDefault("chat-provider")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &HTTPProvider{
		client:    &http.Client{Timeout: timeout},
		endpoint:  endpoint,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: maxTokens,
		log:       log,
	}, nil
}

type messageRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []messagePayload `json:"messages"`
}

type messagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the message and returns the assistant text.
func (p *HTTPProvider) Complete(ctx context.Context, system, message string) (string, error) {
	start := time.Now()
	text, err := p.complete(ctx, system, message)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordChatRelay(status, time.Since(start))
	return text, err
}

func (p *HTTPProvider) complete(ctx context.Context, system, message string) (string, error) {
	payload := messageRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    system,
		Messages:  []messagePayload{{Role: "user", Content: message}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Internal("marshal provider request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Internal("build provider request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", "2023-06-01")
	if p.apiKey != "" {
		req.Header.Set("x-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.WithError(err).Warn("provider request failed")
		return "", errors.UpstreamProvider(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.UpstreamProvider(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.WithField("status", resp.StatusCode).Warn("provider returned error status")
		return "", errors.UpstreamProvider(fmt.Errorf("provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var decoded messageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", errors.UpstreamProvider(fmt.Errorf("decode provider response: %w", err))
	}
	if decoded.Error != nil {
		return "", errors.UpstreamProvider(fmt.Errorf("provider error: %s", decoded.Error.Message))
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.UpstreamProvider(fmt.Errorf("provider returned no text content"))
	}
	return text.String(), nil
}
