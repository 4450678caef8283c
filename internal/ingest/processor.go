package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/autoscribe/internal/audio"
	"github.com/snarg/autoscribe/internal/metrics"
	"github.com/snarg/autoscribe/internal/output"
)

// Stage names the pipeline step a file failed in.
type Stage string

const (
	StageReadiness Stage = "readiness"
	StageDecode    Stage = "decode"
	StageRecognize Stage = "recognize"
	StagePersist   Stage = "persist"
)

// FileError tags a failure with the stage that produced it. All stage
// failures are file-scoped: they are reported and absorbed at the processor
// boundary, never propagated to the watcher.
type FileError struct {
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Recognizer turns one audio segment into text. Segment WAVs are written
// inside the directory the processor hands in, so its cleanup sweeps them.
type Recognizer interface {
	Recognize(ctx context.Context, dir string, seg audio.Segment, language string) (string, error)
}

// Persister writes an assembled transcript and returns the output path.
type Persister interface {
	Persist(doc *output.Document) (string, error)
}

// Result describes one successfully processed file.
type Result struct {
	SourcePath string
	OutputPath string
	Document   *output.Document
	Elapsed    time.Duration
}

// DecodeFunc decodes an audio file into a clip. Defaults to audio.Decode.
type DecodeFunc func(ctx context.Context, path string) (*audio.Clip, error)

// Options configures a Processor.
type Options struct {
	Engine     Recognizer
	Writer     Persister
	Ready      ReadinessDetector
	Language   string
	MaxSegment time.Duration
	Decode     DecodeFunc
	// OnComplete, when set, is invoked for each successful file after
	// persistence (notifications, archival). Failures there never fail
	// the file.
	OnComplete func(Result)
	Log        zerolog.Logger
}

// Processor runs the per-file pipeline: readiness wait, segmentation,
// in-order recognition, assembly, persistence, cleanup. It owns the set of
// in-flight file identities, the only concurrency-relevant shared state.
type Processor struct {
	opts Options

	mu       sync.Mutex
	inFlight map[string]struct{}

	processed atomic.Int64
	failed    atomic.Int64
}

// NewProcessor creates a processor. Engine and Writer are required.
func NewProcessor(opts Options) *Processor {
	if opts.Decode == nil {
		opts.Decode = audio.Decode
	}
	return &Processor{
		opts:     opts,
		inFlight: make(map[string]struct{}),
	}
}

// InFlight returns the number of files currently being transcribed.
func (p *Processor) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

// Processed returns the number of files transcribed successfully.
func (p *Processor) Processed() int64 { return p.processed.Load() }

// Failed returns the number of files that failed.
func (p *Processor) Failed() int64 { return p.failed.Load() }

// Dispatch runs the full pipeline for one file, synchronously. A file
// identity already in flight is refused and the duplicate dispatch is a
// no-op, returning false. Every accepted dispatch ends with the identity
// released and transient artifacts removed, whatever the outcome.
func (p *Processor) Dispatch(ctx context.Context, path string) bool {
	if !p.claim(path) {
		p.opts.Log.Debug().Str("path", path).Msg("already in flight, duplicate dispatch ignored")
		return false
	}
	defer p.release(path)

	start := time.Now()
	log := p.opts.Log.With().Str("file", filepath.Base(path)).Logger()
	log.Info().Msg("processing started")

	res, ferr := p.process(ctx, path, log)
	elapsed := time.Since(start)

	if ferr != nil {
		p.failed.Add(1)
		metrics.FilesFailedTotal.WithLabelValues(string(ferr.Stage)).Inc()
		log.Error().Err(ferr.Err).Str("stage", string(ferr.Stage)).Msg("file failed, no output written")
		return true
	}

	p.processed.Add(1)
	metrics.FilesProcessedTotal.Inc()
	metrics.ProcessingDuration.Observe(elapsed.Seconds())
	log.Info().
		Str("output", res.OutputPath).
		Int("segments", res.Document.Segments).
		Dur("elapsed", elapsed).
		Msg("processing complete")

	if p.opts.OnComplete != nil {
		res.Elapsed = elapsed
		p.opts.OnComplete(*res)
	}
	return true
}

func (p *Processor) claim(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[path]; busy {
		return false
	}
	p.inFlight[path] = struct{}{}
	return true
}

func (p *Processor) release(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, path)
}

// process walks the file through the pipeline stages. It returns the result
// of the Persisting stage or the first stage error; later stages are never
// entered once one fails.
func (p *Processor) process(ctx context.Context, path string, log zerolog.Logger) (*Result, *FileError) {
	// Ready-Wait: nothing expensive happens until the file stops growing.
	readyStart := time.Now()
	if !p.opts.Ready.AwaitReady(path) {
		return nil, &FileError{StageReadiness, fmt.Errorf("file never stabilized within %s", p.opts.Ready.MaxWait)}
	}
	metrics.ReadinessWait.Observe(time.Since(readyStart).Seconds())

	// Scratch directory for transient segment WAVs. Removing it is the
	// unconditional cleanup step, covering every failure path below.
	scratch, err := os.MkdirTemp("", "autoscribe-*")
	if err != nil {
		return nil, &FileError{StageDecode, fmt.Errorf("scratch dir: %w", err)}
	}
	defer os.RemoveAll(scratch)

	// Segmenting
	clip, err := p.opts.Decode(ctx, path)
	if err != nil {
		return nil, &FileError{StageDecode, err}
	}
	segs := clip.Split(p.opts.MaxSegment)
	log.Info().
		Dur("duration", clip.Duration()).
		Int("segments", len(segs)).
		Msg("audio decoded")

	// Recognizing: strictly in index order. The recognizer is not assumed
	// safe for concurrent use, and transcript order must be deterministic.
	texts := make([]string, 0, len(segs))
	for _, seg := range segs {
		text, err := p.opts.Engine.Recognize(ctx, scratch, seg, p.opts.Language)
		if err != nil {
			return nil, &FileError{StageRecognize, err}
		}
		texts = append(texts, text)
		metrics.SegmentsRecognizedTotal.Inc()
		log.Debug().Int("segment", seg.Index).Int("total", len(segs)).Msg("segment done")
	}

	// Assembling (pure) then Persisting.
	doc := output.Assemble(filepath.Base(path), texts)
	outPath, err := p.opts.Writer.Persist(doc)
	if err != nil {
		return nil, &FileError{StagePersist, err}
	}

	return &Result{
		SourcePath: path,
		OutputPath: outPath,
		Document:   doc,
	}, nil
}
