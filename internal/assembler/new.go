package assembler

import (
	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
	"github.com/nguyentantai21042004/daily-papers/pkg/executor"
)

type implAssembler struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// New creates an ffmpeg-backed Assembler
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Assembler {
	return &implAssembler{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}
