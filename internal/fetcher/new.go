package fetcher

import (
	"net/http"

	"github.com/mmcdole/gofeed"

	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

const userAgent = "daily-papers/1.0 (+https://github.com/nguyentantai21042004/daily-papers)"

type implFetcher struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
	feedParser *gofeed.Parser
	logger     logger.Logger
}

// New creates an arXiv-backed Fetcher
func New(cfg *config.Config, log logger.Logger) Fetcher {
	return &implFetcher{
		baseURL:    cfg.Arxiv.BaseURL,
		maxResults: cfg.Arxiv.MaxResults,
		httpClient: &http.Client{Timeout: cfg.Arxiv.Timeout},
		feedParser: gofeed.NewParser(),
		logger:     log,
	}
}
