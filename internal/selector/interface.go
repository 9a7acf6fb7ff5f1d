package selector

import (
	"context"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// Selector narrows the fetched papers down to the ones that make the episode
type Selector interface {
	// Select returns at most max papers, in the order they were given.
	Select(ctx context.Context, papers []model.Paper, max int) ([]model.Paper, error)
}
