package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/gemini"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

const stageSelect = "select"

const selectionPrompt = `Select the %s to be discussed on the Daily Papers podcast.
Pick based on the following criteria:
- Interesting results in Artificial Intelligence
- Broad appeal to a large audience
- Potential for virality
- Credible and established authors/institutions

Return at most %d papers, using the arXiv ID exactly as listed.

<papers>
%s</papers>
`

// choice mirrors the JSON response schema.
type choice struct {
	ArxivID         string `json:"arxiv_id"`
	Title           string `json:"title"`
	ReasonForChoice string `json:"reason_for_choice"`
}

type selection struct {
	Papers []choice `json:"papers"`
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"papers": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"arxiv_id":          {Type: genai.TypeString},
					"title":             {Type: genai.TypeString},
					"reason_for_choice": {Type: genai.TypeString},
				},
				Required: []string{"arxiv_id", "title", "reason_for_choice"},
			},
		},
	},
	Required: []string{"papers"},
}

// Select keeps the first max papers in latest mode, or lets the model pick
// them in llm mode. The result is always in input order.
func (s *implSelector) Select(ctx context.Context, papers []model.Paper, max int) ([]model.Paper, error) {
	if max <= 0 {
		max = 1
	}
	if len(papers) == 0 {
		return nil, nil
	}

	// Nothing to choose between when every candidate fits.
	if s.mode == config.SelectionLatest || len(papers) <= max {
		return latest(papers, max), nil
	}

	s.logger.Info(ctx, "Selecting up to %d of %d candidates using model: %s", max, len(papers), s.model)

	prompt := buildPrompt(papers, max)
	s.logger.Debug(ctx, "Selection prompt has %d words", len(strings.Fields(prompt)))

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.generator.GenerateContent(callCtx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return nil, apperror.Generation(stageSelect, "", err)
	}

	chosen, err := parseSelection(gemini.ResponseText(resp))
	if err != nil {
		return nil, apperror.Generation(stageSelect, "", err)
	}

	selected := pick(papers, chosen, max)
	if len(selected) == 0 {
		return nil, apperror.Generation(stageSelect, "", fmt.Errorf("model returned no known arXiv ids"))
	}

	for _, c := range chosen {
		s.logger.Debug(ctx, "Model chose %s: %s", c.ArxivID, c.ReasonForChoice)
	}
	s.logger.Info(ctx, "Selected %d paper(s)", len(selected))
	return selected, nil
}

func latest(papers []model.Paper, max int) []model.Paper {
	if len(papers) > max {
		papers = papers[:max]
	}
	return append([]model.Paper(nil), papers...)
}

func buildPrompt(papers []model.Paper, max int) string {
	var sb strings.Builder
	for _, p := range papers {
		fmt.Fprintf(&sb, "Title: %s\nAuthors: %s\narXiv ID: %s\nSummary: %s\n----------------------------------------\n",
			p.Title, strings.Join(p.Authors, ", "), p.ID, p.Abstract)
	}

	what := "most impactful paper"
	if max > 1 {
		what = "most impactful papers"
	}
	return fmt.Sprintf(selectionPrompt, what, max, sb.String())
}

func parseSelection(raw string) ([]choice, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty selection response")
	}

	var sel selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	return sel.Papers, nil
}

// pick maps chosen ids back onto papers. Unknown and duplicate ids are
// dropped and input order wins over the model's order.
func pick(papers []model.Paper, chosen []choice, max int) []model.Paper {
	known := make(map[string]bool, len(papers))
	for _, p := range papers {
		known[p.BaseID()] = true
	}

	wanted := make(map[string]bool, len(chosen))
	for _, c := range chosen {
		if len(wanted) == max {
			break
		}
		id := model.BaseID(c.ArxivID)
		if known[id] {
			wanted[id] = true
		}
	}

	var selected []model.Paper
	for _, p := range papers {
		if wanted[p.BaseID()] {
			selected = append(selected, p)
			delete(wanted, p.BaseID())
		}
	}
	return selected
}
