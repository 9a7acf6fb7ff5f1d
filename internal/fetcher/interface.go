package fetcher

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// Fetcher retrieves paper metadata and PDFs from the paper index
type Fetcher interface {
	// FetchDay returns the papers submitted on day in any of categories,
	// newest first. No matches is not an error.
	FetchDay(ctx context.Context, day time.Time, categories []string) ([]model.Paper, error)
	// FetchByIDs returns the papers with the given arXiv ids in request order.
	FetchByIDs(ctx context.Context, ids []string) ([]model.Paper, error)
	// DownloadPDF stores the paper's PDF at dest after validating it.
	DownloadPDF(ctx context.Context, paper model.Paper, dest string) error
}
