package summarizer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/fetcher"
	"github.com/nguyentantai21042004/daily-papers/internal/gemini"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

const stageSummarize = "summarize"

const scriptPrompt = `Write a 6-10 minute podcast script for this paper.
The name of the podcast is 'Daily Papers'.

Format: Alternating dialogue between speakers labelled as 'Speaker 1' and 'Speaker 2' only.

Requirements:
- Accessible to a wide general audience
- Explain all concepts and define technical terms simply
- Ensure the podcast is fun and engaging for listeners
- Friendly, conversational tone
- Do not give the two speakers names and they should not refer to each other by name
- The script should include speech from the two speakers only, do not include any stage directions
- Script should include "Welcome to Daily Papers"

Output: Transcript only.`

// Summarize builds the prompt from the configured source and returns the
// trimmed script. An empty script is a generation failure.
func (s *implSummarizer) Summarize(ctx context.Context, paper model.Paper, pdfPath string) (model.Script, error) {
	parts, source, err := s.buildParts(ctx, paper, pdfPath)
	if err != nil {
		return model.Script{}, apperror.Generation(stageSummarize, paper.ID, err)
	}

	s.logger.Info(ctx, "Generating script for %s from %s using model: %s", paper.ID, source, s.model)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := s.generator.GenerateContent(callCtx, s.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
	})
	if err != nil {
		return model.Script{}, apperror.Generation(stageSummarize, paper.ID, err)
	}

	text := strings.TrimSpace(gemini.ResponseText(resp))
	if text == "" {
		return model.Script{}, apperror.Generation(stageSummarize, paper.ID, fmt.Errorf("model returned an empty script"))
	}
	if s.show != "" && !strings.Contains(strings.ToLower(text), strings.ToLower("welcome to "+s.show)) {
		s.logger.Warn(ctx, "Script for %s does not welcome listeners to %s", paper.ID, s.show)
	}

	s.logger.Info(ctx, "Script generation complete for %s (%d characters)", paper.ID, len(text))
	return model.Script{PaperID: paper.ID, Text: text}, nil
}

func (s *implSummarizer) buildParts(ctx context.Context, paper model.Paper, pdfPath string) ([]*genai.Part, string, error) {
	source := s.source
	if pdfPath == "" {
		source = config.SourceAbstract
	}

	switch source {
	case config.SourcePDF:
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			return nil, "", fmt.Errorf("read pdf: %w", err)
		}
		return []*genai.Part{
			genai.NewPartFromText(s.prompt),
			genai.NewPartFromBytes(data, "application/pdf"),
		}, source, nil

	case config.SourceText:
		text, err := fetcher.ExtractText(pdfPath)
		if err != nil {
			s.logger.Warn(ctx, "Text extraction failed for %s, using abstract: %v", paper.ID, err)
			return s.abstractParts(paper), config.SourceAbstract, nil
		}
		return []*genai.Part{
			genai.NewPartFromText(s.prompt + "\n\n<paper>\n" + text + "\n</paper>"),
		}, source, nil

	default:
		return s.abstractParts(paper), config.SourceAbstract, nil
	}
}

func (s *implSummarizer) abstractParts(paper model.Paper) []*genai.Part {
	body := fmt.Sprintf("\n\n<paper>\nTitle: %s\nAuthors: %s\narXiv ID: %s\nAbstract: %s\n</paper>",
		paper.Title, strings.Join(paper.Authors, ", "), paper.ID, paper.Abstract)
	return []*genai.Part{genai.NewPartFromText(s.prompt + body)}
}
