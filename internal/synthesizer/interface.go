package synthesizer

import (
	"context"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// Synthesizer renders a script as two-voice speech
type Synthesizer interface {
	Synthesize(ctx context.Context, script model.Script) (model.AudioSegment, error)
}
