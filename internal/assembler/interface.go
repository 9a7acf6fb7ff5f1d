package assembler

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// Assembler joins audio segments into a finished episode
type Assembler interface {
	Assemble(ctx context.Context, req Request) (model.Episode, error)
}

// Request describes one episode. Segments are joined in slice order.
type Request struct {
	Date       time.Time
	Title      string
	OutputDir  string
	Segments   []model.AudioSegment
	Papers     []model.Paper
	Transcript string
}
