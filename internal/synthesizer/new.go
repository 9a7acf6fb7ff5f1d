package synthesizer

import (
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/gemini"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

type implSynthesizer struct {
	generator   gemini.Generator
	logger      logger.Logger
	model       string
	voiceOne    string
	voiceTwo    string
	temperature float32
	timeout     time.Duration
}

// New creates a Synthesizer backed by a Gemini TTS model.
func New(cfg *config.Config, generator gemini.Generator, log logger.Logger) Synthesizer {
	return &implSynthesizer{
		generator:   generator,
		logger:      log,
		model:       cfg.Gemini.TTSModel,
		voiceOne:    cfg.TTS.VoiceOne,
		voiceTwo:    cfg.TTS.VoiceTwo,
		temperature: cfg.TTS.Temperature,
		timeout:     cfg.Gemini.Timeout,
	}
}
