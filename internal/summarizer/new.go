package summarizer

import (
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/gemini"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

type implSummarizer struct {
	generator gemini.Generator
	logger    logger.Logger
	model     string
	source    string
	prompt    string
	show      string
	timeout   time.Duration
}

// New creates a Summarizer that calls Gemini through generator.
func New(cfg *config.Config, generator gemini.Generator, log logger.Logger) Summarizer {
	prompt := cfg.Script.Prompt
	if prompt == "" {
		prompt = scriptPrompt
	}
	return &implSummarizer{
		generator: generator,
		logger:    log,
		model:     cfg.Gemini.ScriptModel,
		source:    cfg.Script.Source,
		prompt:    prompt,
		show:      cfg.Podcast.Name,
		timeout:   cfg.Gemini.Timeout,
	}
}
