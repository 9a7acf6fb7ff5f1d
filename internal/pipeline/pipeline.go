package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/assembler"
	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/history"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
	"github.com/nguyentantai21042004/daily-papers/internal/summarizer"
)

const lockFile = ".dailypapers.lock"

// ErrRunInProgress is returned when another run holds the data directory lock.
var ErrRunInProgress = errors.New("another run is in progress")

// outcome is the result of the per-paper stages for one selected paper.
type outcome struct {
	paper   model.Paper
	script  model.Script
	segment model.AudioSegment
	err     error
}

// Run executes one pipeline run. Per-paper failures are skipped or abort the
// run according to pipeline.on_paper_error.
func (p *implPipeline) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	startTime := p.now()
	result := RunResult{RunID: uuid.NewString()}
	ctx = logger.WithRunID(ctx, result.RunID)

	day := req.Date
	if day.IsZero() {
		day = p.cfg.PaperDate(startTime)
	}
	y, m, d := day.Date()
	day = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	result.Date = day

	unlock, err := p.lock(ctx)
	if err != nil {
		return result, err
	}
	defer unlock()

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting run for %s", day.Format("2006-01-02"))
	p.logger.Info(ctx, "========================================")
	p.startRun(ctx, result.RunID, day)

	papers, err := p.fetch(ctx, day, req.IDs)
	if err != nil {
		return result, p.fail(ctx, &result, err)
	}
	result.Fetched = len(papers)

	if len(req.IDs) == 0 && p.cfg.History.SkipProcessed {
		papers = p.dropProcessed(ctx, papers)
	}

	if len(papers) == 0 {
		p.logger.Info(ctx, "No papers to process for %s, nothing to publish", day.Format("2006-01-02"))
		p.finishRun(ctx, result, history.RunEmpty, nil)
		return result, nil
	}

	selected := papers
	if len(req.IDs) == 0 {
		selected, err = p.deps.Selector.Select(ctx, papers, p.cfg.Selection.MaxPapers)
		if err != nil {
			return result, p.fail(ctx, &result, err)
		}
	}
	result.Selected = len(selected)
	if len(selected) == 0 {
		p.finishRun(ctx, result, history.RunEmpty, nil)
		return result, nil
	}

	dir := p.cfg.EpisodeDir(day)
	outcomes, err := p.processPapers(ctx, result.RunID, dir, selected)
	if err != nil {
		return result, p.fail(ctx, &result, err)
	}

	var (
		segments []model.AudioSegment
		sections []summarizer.Section
		included []model.Paper
		lastErr  error
	)
	for _, o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, PaperFailure{Paper: o.paper, Stage: apperror.StageOf(o.err), Err: o.err})
			lastErr = o.err
			continue
		}
		segments = append(segments, o.segment)
		sections = append(sections, summarizer.Section{Paper: o.paper, Script: o.script})
		included = append(included, o.paper)
	}

	if len(segments) == 0 {
		p.logger.Error(ctx, "All %d selected paper(s) failed", len(selected))
		return result, p.fail(ctx, &result, lastErr)
	}

	title := episodeTitle(p.cfg.Podcast.Name, day)
	ep, err := p.deps.Assembler.Assemble(ctx, assembler.Request{
		Date:       day,
		Title:      title,
		OutputDir:  dir,
		Segments:   segments,
		Papers:     included,
		Transcript: transcript(sections),
	})
	if err != nil {
		return result, p.fail(ctx, &result, err)
	}

	txtPath := filepath.Join(dir, "transcript.txt")
	docxPath := filepath.Join(dir, "transcript.docx")
	if err := p.deps.Summarizer.WriteTranscript(ctx, title, sections, txtPath, docxPath); err != nil {
		p.logger.Warn(ctx, "Failed to write transcript: %v", err)
	} else {
		ep.TranscriptPath = txtPath
		ep.DocxPath = docxPath
	}
	result.Episode = &ep

	var publishErr error
	if p.deps.Publisher != nil && ep.VideoPath != "" {
		result.UploadID, publishErr = p.deps.Publisher.Upload(ctx, ep)
		if publishErr != nil {
			p.logger.Error(ctx, "Publishing failed, episode kept at %s: %v", ep.Dir, publishErr)
		}
	}

	if p.deps.Recorder != nil {
		if err := p.deps.Recorder.RecordEpisode(ctx, result.RunID, ep, result.UploadID); err != nil {
			p.logger.Warn(ctx, "Failed to record episode: %v", err)
		}
	}

	if publishErr != nil {
		p.finishRun(ctx, result, history.RunFailed, publishErr)
		return result, fmt.Errorf("publish: %w", publishErr)
	}

	p.finishRun(ctx, result, history.RunCompleted, nil)

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Run completed: %d of %d paper(s) in episode", len(segments), len(selected))
	p.logger.Info(ctx, "Output audio: %s", ep.AudioPath)
	if ep.VideoPath != "" {
		p.logger.Info(ctx, "Output video: %s", ep.VideoPath)
	}
	p.logger.Info(ctx, "Episode duration: %s", ep.Duration.Round(time.Second))
	p.logger.Info(ctx, "Processing time: %s", p.now().Sub(startTime).Round(time.Millisecond))
	p.logger.Info(ctx, "========================================")
	return result, nil
}

// processPapers runs download, summarize and synthesize for every paper with
// at most performance.max_concurrent in flight. Outcomes keep input order.
func (p *implPipeline) processPapers(ctx context.Context, runID, dir string, papers []model.Paper) ([]outcome, error) {
	abort := p.cfg.Pipeline.OnPaperError == config.OnErrorAbort
	outcomes := make([]outcome, len(papers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.cfg.Performance.MaxConcurrent))

	for i, paper := range papers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = outcome{paper: paper, err: err}
				return err
			}

			pctx := logger.WithPaperID(gctx, paper.ID)
			p.logger.Info(pctx, "[%d/%d] Processing: %s", i+1, len(papers), paper.Title)

			o := p.processPaper(pctx, dir, i, paper)
			outcomes[i] = o
			if o.err != nil {
				p.logger.Error(pctx, "Paper %s failed at %s: %v", paper.ID, apperror.StageOf(o.err), o.err)
				p.recordPaper(pctx, runID, paper, history.PaperFailed, apperror.StageOf(o.err), o.err)
				if abort {
					return o.err
				}
				return nil
			}

			p.recordPaper(pctx, runID, paper, history.PaperDone, "", nil)
			p.logger.Info(pctx, "[DONE] %s (%s of audio)", paper.ID, o.segment.Duration.Round(time.Second))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (p *implPipeline) processPaper(ctx context.Context, dir string, index int, paper model.Paper) outcome {
	o := outcome{paper: paper}

	pdfPath := ""
	if p.cfg.Script.Source != config.SourceAbstract {
		pdfPath = filepath.Join(dir, "papers", safeName(paper.BaseID())+".pdf")
		if err := p.deps.Fetcher.DownloadPDF(logger.WithStage(ctx, "download"), paper, pdfPath); err != nil {
			o.err = err
			return o
		}
	}

	script, err := p.deps.Summarizer.Summarize(logger.WithStage(ctx, "summarize"), paper, pdfPath)
	if err != nil {
		o.err = err
		return o
	}
	o.script = script

	segment, err := p.deps.Synthesizer.Synthesize(logger.WithStage(ctx, "synthesize"), script)
	if err != nil {
		o.err = err
		return o
	}
	segment.Index = index
	o.segment = segment
	return o
}

func (p *implPipeline) fetch(ctx context.Context, day time.Time, ids []string) ([]model.Paper, error) {
	if len(ids) > 0 {
		return p.deps.Fetcher.FetchByIDs(ctx, uniqueIDs(ids))
	}
	return p.deps.Fetcher.FetchDay(ctx, day, p.cfg.Arxiv.Categories)
}

func (p *implPipeline) dropProcessed(ctx context.Context, papers []model.Paper) []model.Paper {
	if p.deps.Recorder == nil {
		return papers
	}

	ids := make([]string, 0, len(papers))
	for _, paper := range papers {
		ids = append(ids, paper.ID)
	}
	processed, err := p.deps.Recorder.ProcessedIDs(ctx, ids)
	if err != nil {
		p.logger.Warn(ctx, "Could not read history, keeping all papers: %v", err)
		return papers
	}

	kept := make([]model.Paper, 0, len(papers))
	for _, paper := range papers {
		if processed[paper.BaseID()] {
			p.logger.Debug(ctx, "Skipping already published paper %s", paper.ID)
			continue
		}
		kept = append(kept, paper)
	}
	if dropped := len(papers) - len(kept); dropped > 0 {
		p.logger.Info(ctx, "Skipped %d already published paper(s)", dropped)
	}
	return kept
}

// lock takes the data directory lock so two runs never write the same
// episode directory.
func (p *implPipeline) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(p.cfg.Paths.Data, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	fl := flock.New(filepath.Join(p.cfg.Paths.Data, lockFile))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			p.logger.Warn(ctx, "Failed to release run lock: %v", err)
		}
	}, nil
}

func (p *implPipeline) fail(ctx context.Context, result *RunResult, err error) error {
	p.finishRun(ctx, *result, history.RunFailed, err)
	return err
}

func (p *implPipeline) startRun(ctx context.Context, runID string, day time.Time) {
	if p.deps.Recorder == nil {
		return
	}
	if err := p.deps.Recorder.StartRun(ctx, runID, day); err != nil {
		p.logger.Warn(ctx, "Failed to record run start: %v", err)
	}
}

func (p *implPipeline) finishRun(ctx context.Context, result RunResult, status string, runErr error) {
	if p.deps.Recorder == nil {
		return
	}
	summary := history.RunSummary{Status: status, Fetched: result.Fetched, Selected: result.Selected, Err: runErr}
	if err := p.deps.Recorder.FinishRun(ctx, result.RunID, summary); err != nil {
		p.logger.Warn(ctx, "Failed to record run result: %v", err)
	}
}

func (p *implPipeline) recordPaper(ctx context.Context, runID string, paper model.Paper, status, stage string, paperErr error) {
	if p.deps.Recorder == nil {
		return
	}
	if err := p.deps.Recorder.RecordPaper(ctx, runID, paper, status, stage, paperErr); err != nil {
		p.logger.Warn(ctx, "Failed to record paper %s: %v", paper.ID, err)
	}
}

func episodeTitle(show string, day time.Time) string {
	return fmt.Sprintf("%s %s", show, day.Format("2006-01-02"))
}

func transcript(sections []summarizer.Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, s.Paper.Title+"\n\n"+s.Script.Text)
	}
	return strings.Join(parts, "\n\n")
}

// uniqueIDs drops repeated ids, comparing without the version suffix.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[model.BaseID(id)] {
			continue
		}
		seen[model.BaseID(id)] = true
		out = append(out, id)
	}
	return out
}

// safeName makes old-style ids such as "hep-th/9901001" usable as file names.
func safeName(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}
