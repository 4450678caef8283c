package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/snarg/autoscribe/internal/audio"
)

// Engine binds a loaded Provider to the on-disk contract recognizers need:
// each segment is written to a transient WAV, recognized, and the WAV is
// removed before Recognize returns — removal runs even when recognition fails.
type Engine struct {
	provider Provider
	log      zerolog.Logger
}

// NewEngine wraps an already-loaded provider.
func NewEngine(p Provider, log zerolog.Logger) *Engine {
	return &Engine{
		provider: p,
		log:      log.With().Str("provider", p.Name()).Logger(),
	}
}

// Name reports the underlying provider.
func (e *Engine) Name() string { return e.provider.Name() }

// Model reports the loaded model identifier.
func (e *Engine) Model() string { return e.provider.Model() }

// Recognize transcribes one segment. The transient WAV is created inside dir
// so a caller that removes dir afterwards sweeps up anything left behind.
func (e *Engine) Recognize(ctx context.Context, dir string, seg audio.Segment, language string) (string, error) {
	wavPath := filepath.Join(dir, fmt.Sprintf("segment_%03d.wav", seg.Index))

	f, err := os.Create(wavPath)
	if err != nil {
		return "", fmt.Errorf("segment %d: create wav: %w", seg.Index, err)
	}
	defer os.Remove(wavPath)

	if err := audio.WriteWAV(f, seg.PCM()); err != nil {
		f.Close()
		return "", fmt.Errorf("segment %d: %w", seg.Index, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("segment %d: close wav: %w", seg.Index, err)
	}

	text, err := e.provider.Transcribe(ctx, wavPath, language)
	if err != nil {
		return "", fmt.Errorf("segment %d: %w", seg.Index, err)
	}

	e.log.Debug().
		Int("segment", seg.Index).
		Dur("segment_duration", seg.Duration()).
		Int("chars", len(text)).
		Msg("segment recognized")

	return text, nil
}
