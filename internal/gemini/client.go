// Package gemini provides the key-rotating access to the Gemini API shared by
// the selector, summarizer and synthesizer.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

// Generator is the part of the genai models service the pipeline uses.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory builds a Generator for one API key.
type ClientFactory func(ctx context.Context, apiKey string) (Generator, error)

// KeyPool is a Generator that rotates through API keys when a key is rate limited.
type KeyPool struct {
	mu         sync.Mutex
	keys       []string
	currentKey int
	clients    map[string]Generator
	factory    ClientFactory
	logger     logger.Logger
}

// Option customizes the pool.
type Option func(*KeyPool)

// WithClientFactory overrides how per-key clients are built (used by tests).
func WithClientFactory(factory ClientFactory) Option {
	return func(p *KeyPool) {
		if factory != nil {
			p.factory = factory
		}
	}
}

// NewKeyPool creates a pool over the supplied Gemini API keys.
func NewKeyPool(apiKeys []string, log logger.Logger, opts ...Option) *KeyPool {
	p := &KeyPool{
		keys:    append([]string(nil), apiKeys...),
		clients: make(map[string]Generator),
		factory: newGenAIClient,
		logger:  log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newGenAIClient(ctx context.Context, apiKey string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// GenerateContent calls the model with the current key. Rate-limited calls are
// retried with the next key until every key has been tried once.
func (p *KeyPool) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if len(p.keys) == 0 {
		return nil, errors.New("gemini: no api keys configured")
	}

	var lastErr error
	for range len(p.keys) {
		idx, client, err := p.client(ctx)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			p.rotate(idx)
			continue
		}

		resp, err := client.GenerateContent(ctx, model, contents, config)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if IsRateLimited(err) {
			p.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
			p.rotate(idx)
			lastErr = err
			continue
		}
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return nil, fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (p *KeyPool) client(ctx context.Context) (int, Generator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.currentKey
	key := p.keys[idx]
	if c, ok := p.clients[key]; ok {
		return idx, c, nil
	}
	c, err := p.factory(ctx, key)
	if err != nil {
		return idx, nil, err
	}
	p.clients[key] = c
	return idx, c, nil
}

// rotate advances past idx. Concurrent callers that saw the same exhausted key
// only advance the cursor once.
func (p *KeyPool) rotate(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentKey == idx {
		p.currentKey = (p.currentKey + 1) % len(p.keys)
	}
}

// IsRateLimited reports whether err is a quota or 429 response. genai.APIError
// renders its HTTP code and status into the message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED")
}

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String()
}

// InlineData returns every inline blob of the first candidate in order.
func InlineData(resp *genai.GenerateContentResponse) []*genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var blobs []*genai.Blob
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			blobs = append(blobs, part.InlineData)
		}
	}
	return blobs
}
