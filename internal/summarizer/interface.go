package summarizer

import (
	"context"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// Summarizer turns papers into two-speaker podcast scripts and writes the
// episode transcript.
type Summarizer interface {
	// Summarize generates the script for one paper. pdfPath may be empty, in
	// which case the abstract is used.
	Summarize(ctx context.Context, paper model.Paper, pdfPath string) (model.Script, error)
	// WriteTranscript writes the scripts as show notes in plain text and docx.
	WriteTranscript(ctx context.Context, title string, sections []Section, txtPath, docxPath string) error
}

// Section is one paper's part of the transcript.
type Section struct {
	Paper  model.Paper
	Script model.Script
}
