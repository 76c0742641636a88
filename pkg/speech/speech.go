// Package speech abstracts the speech recognition and synthesis upstreams.
package speech

import (
	"context"

	"github.com/prepmate/prepmate/pkg/audio"
)

// Transcriber converts recorded audio to text.
type Transcriber interface {
	// Transcribe submits a clip and returns the recognized text. The clip
	// is downmixed to mono before submission.
	Transcribe(ctx context.Context, clip *audio.Clip) (string, error)
}

// Synthesizer converts text to a playable audio payload (mp3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
