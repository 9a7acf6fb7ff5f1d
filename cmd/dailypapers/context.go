package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/daily-papers/internal/assembler"
	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/fetcher"
	"github.com/nguyentantai21042004/daily-papers/internal/gemini"
	"github.com/nguyentantai21042004/daily-papers/internal/history"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
	"github.com/nguyentantai21042004/daily-papers/internal/pipeline"
	"github.com/nguyentantai21042004/daily-papers/internal/publisher"
	"github.com/nguyentantai21042004/daily-papers/internal/selector"
	"github.com/nguyentantai21042004/daily-papers/internal/summarizer"
	"github.com/nguyentantai21042004/daily-papers/internal/synthesizer"
	"github.com/nguyentantai21042004/daily-papers/pkg/executor"
)

type commandContext struct {
	configFlag     *string
	explicitConfig bool
	offline        bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the config once. The default config file is optional;
// one named with --config must exist.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		if !c.explicitConfig {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				path = ""
			}
		}
		if c.offline {
			c.config, c.configErr = config.LoadOffline(path)
			return
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() logger.Logger {
	return logger.NewWithFormat(c.config.Logging.Level, c.config.Logging.Format, os.Stdout)
}

// app is the wired pipeline plus the resources it owns.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	store    *history.Store
	pipeline pipeline.Pipeline
}

func (c *commandContext) newApp(ctx context.Context) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	log := c.logger()

	store, err := history.Open(ctx, cfg.Paths.Data)
	if err != nil {
		return nil, err
	}

	exec := executor.New()
	pool := gemini.NewKeyPool(cfg.Gemini.APIKeys, log)

	deps := pipeline.Deps{
		Fetcher:     fetcher.New(cfg, log),
		Selector:    selector.New(cfg, pool, log),
		Summarizer:  summarizer.New(cfg, pool, log),
		Synthesizer: synthesizer.New(cfg, pool, log),
		Assembler:   assembler.New(cfg, exec, log),
		Recorder:    store,
	}
	if cfg.YouTubeEnabled() {
		deps.Publisher = publisher.New(cfg, log)
	} else {
		log.Debug(ctx, "YouTube credentials not set, upload disabled")
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		pipeline: pipeline.New(cfg, deps, log),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
