package pipeline

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/history"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// Pipeline runs fetch, select, summarize, synthesize and assemble for one day
type Pipeline interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// Recorder is the run ledger. *history.Store implements it.
type Recorder interface {
	StartRun(ctx context.Context, runID string, day time.Time) error
	FinishRun(ctx context.Context, runID string, summary history.RunSummary) error
	RecordPaper(ctx context.Context, runID string, paper model.Paper, status, stage string, err error) error
	RecordEpisode(ctx context.Context, runID string, ep model.Episode, uploadID string) error
	ProcessedIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// RunRequest selects what a run works on. A zero Date means the configured
// paper date. Non-empty IDs bypass the day query and selection.
type RunRequest struct {
	Date time.Time
	IDs  []string
}

// PaperFailure is a paper dropped from the episode.
type PaperFailure struct {
	Paper model.Paper
	Stage string
	Err   error
}

// RunResult summarizes a run. Episode is nil when nothing was produced.
type RunResult struct {
	RunID    string
	Date     time.Time
	Fetched  int
	Selected int
	Failures []PaperFailure
	Episode  *model.Episode
	UploadID string
}
