package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// Call records one request made to a FakeGenerator.
type Call struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// FakeGenerator is an in-memory Generator for tests. Respond decides the
// outcome of each call; calls are recorded in order.
type FakeGenerator struct {
	mu      sync.Mutex
	Calls   []Call
	Respond func(call Call, n int) (*genai.GenerateContentResponse, error)
}

func (f *FakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	call := Call{Model: model, Contents: contents, Config: config}
	f.Calls = append(f.Calls, call)
	n := len(f.Calls)
	f.mu.Unlock()

	if f.Respond == nil {
		return TextResponse(""), nil
	}
	return f.Respond(call, n)
}

// CallCount returns the number of recorded calls.
func (f *FakeGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// TextResponse builds a single-candidate response with one text part.
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

// AudioResponse builds a response carrying inline audio blobs.
func AudioResponse(mimeType string, chunks ...[]byte) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: c}})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: parts},
		}},
	}
}

// PromptText joins the text parts of every content in a call.
func (c Call) PromptText() string {
	var out string
	for _, content := range c.Contents {
		if content == nil {
			continue
		}
		for _, p := range content.Parts {
			if p != nil {
				out += p.Text
			}
		}
	}
	return out
}
