package publisher

import (
	"context"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// Publisher uploads a finished episode and returns the remote id
type Publisher interface {
	Upload(ctx context.Context, ep model.Episode) (string, error)
}
