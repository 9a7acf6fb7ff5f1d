package selector

import (
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/gemini"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

type implSelector struct {
	mode      string
	model     string
	timeout   time.Duration
	generator gemini.Generator
	logger    logger.Logger
}

// New creates a Selector. The generator is only used in llm mode.
func New(cfg *config.Config, generator gemini.Generator, log logger.Logger) Selector {
	return &implSelector{
		mode:      cfg.Selection.Mode,
		model:     cfg.Gemini.SelectorModel,
		timeout:   cfg.Gemini.Timeout,
		generator: generator,
		logger:    log,
	}
}
