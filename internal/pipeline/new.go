package pipeline

import (
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/assembler"
	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/fetcher"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
	"github.com/nguyentantai21042004/daily-papers/internal/publisher"
	"github.com/nguyentantai21042004/daily-papers/internal/selector"
	"github.com/nguyentantai21042004/daily-papers/internal/summarizer"
	"github.com/nguyentantai21042004/daily-papers/internal/synthesizer"
)

// Deps are the stages a pipeline drives. Publisher and Recorder are optional.
type Deps struct {
	Fetcher     fetcher.Fetcher
	Selector    selector.Selector
	Summarizer  summarizer.Summarizer
	Synthesizer synthesizer.Synthesizer
	Assembler   assembler.Assembler
	Publisher   publisher.Publisher
	Recorder    Recorder
}

type implPipeline struct {
	cfg    *config.Config
	deps   Deps
	logger logger.Logger
	now    func() time.Time
}

// New creates a Pipeline
func New(cfg *config.Config, deps Deps, log logger.Logger) Pipeline {
	return &implPipeline{
		cfg:    cfg,
		deps:   deps,
		logger: log,
		now:    time.Now,
	}
}
