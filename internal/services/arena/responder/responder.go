// Package responder produces the ai-proxy participant's replies through an
// external text-generation service. Failures never propagate to the session
// lifecycle: the fallback wrapper degrades every error to a fixed reply.
package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Responder turns a prompt into the ai-proxy's next reply.
type Responder interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// HTTPConfig configures the text-generation endpoint and HTTP behavior.
type HTTPConfig struct {
	ResponsesURL     string
	CredentialSecret string
	Model            string
	HTTPClient       *http.Client
}

// HTTPResponder posts prompts to an OpenAI-style responses endpoint.
type HTTPResponder struct {
	cfg HTTPConfig
}

// NewHTTPResponder builds a responder backed by the configured endpoint.
func NewHTTPResponder(cfg HTTPConfig) *HTTPResponder {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = "https://api.openai.com/v1/responses"
	}
	return &HTTPResponder{cfg: cfg}
}

// Reply requests a completion for the prompt.
func (r *HTTPResponder) Reply(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}
	credentialSecret := strings.TrimSpace(r.cfg.CredentialSecret)
	if credentialSecret == "" {
		return "", fmt.Errorf("credential secret is required")
	}
	model := strings.TrimSpace(r.cfg.Model)
	if model == "" {
		return "", fmt.Errorf("model is required")
	}

	requestBody, err := json.Marshal(map[string]any{
		"model": model,
		"input": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal reply request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.ResponsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material is sent only as an Authorization header and is never
	// echoed in errors or response payloads.
	req.Header.Set("Authorization", "Bearer "+credentialSecret)

	res, err := r.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reply request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("read reply error body: %w", err)
		}
		return "", fmt.Errorf("reply request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode reply response: %w", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return "", fmt.Errorf("reply response missing output text")
	}
	return outputText, nil
}

// DefaultFallbackReply is used when the text-generation service fails.
const DefaultFallbackReply = "Hmm, give me a second to think about that."

// WithFallback wraps a responder so every failure degrades to a fixed reply
// instead of surfacing an error.
func WithFallback(inner Responder, fallback string, logf func(format string, args ...any)) Responder {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallbackReply
	}
	return &fallbackResponder{inner: inner, fallback: fallback, logf: logf}
}

type fallbackResponder struct {
	inner    Responder
	fallback string
	logf     func(format string, args ...any)
}

func (f *fallbackResponder) Reply(ctx context.Context, prompt string) (string, error) {
	if f.inner == nil {
		return f.fallback, nil
	}
	reply, err := f.inner.Reply(ctx, prompt)
	if err != nil {
		if f.logf != nil {
			f.logf("responder fallback: %v", err)
		}
		return f.fallback, nil
	}
	return reply, nil
}
