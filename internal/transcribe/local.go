package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalProvider runs a whisper.cpp-style CLI against WAV files on disk.
// The model is resolved and the accelerator chosen once, at construction.
type LocalProvider struct {
	bin       string
	model     string // size selector, e.g. "base"
	modelPath string
	accel     Accelerator
	log       zerolog.Logger
}

// NewLocalProvider resolves the ggml model file for the given size under
// modelDir, probes the hardware, and returns a ready provider. Model loading
// is the expensive step for the CLI's first run, so the resolved invocation
// is reused for every segment of every file.
func NewLocalProvider(bin, modelDir, model string, log zerolog.Logger) (*LocalProvider, error) {
	if !ValidModelSize(model) {
		return nil, fmt.Errorf("unknown model size %q (want one of %s)", model, strings.Join(ModelSizes, ", "))
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("recognizer binary %q not found: %w", bin, err)
	}

	modelPath := filepath.Join(modelDir, fmt.Sprintf("ggml-%s.bin", model))
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelPath, err)
	}

	accel := DetectAccelerator()
	log.Info().
		Str("model", model).
		Str("model_path", modelPath).
		Str("accelerator", accel.String()).
		Msg("recognizer loaded")

	return &LocalProvider{
		bin:       bin,
		model:     model,
		modelPath: modelPath,
		accel:     accel,
		log:       log,
	}, nil
}

func (p *LocalProvider) Name() string  { return "local" }
func (p *LocalProvider) Model() string { return p.model }

// Accelerator returns the hardware chosen at load time.
func (p *LocalProvider) Accelerator() Accelerator { return p.accel }

// Transcribe runs the CLI on one segment WAV and returns its text.
func (p *LocalProvider) Transcribe(ctx context.Context, audioPath string, language string) (string, error) {
	args := []string{
		"-m", p.modelPath,
		"-l", language,
		"-nt", // plain text, no timestamps
		"-f", audioPath,
	}
	// The CLI picks Metal/CUDA on its own when built with support; CPU
	// fallback has to be requested explicitly.
	if p.accel == AccelCPU {
		args = append(args, "--no-gpu")
	}

	cmd := exec.CommandContext(ctx, p.bin, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errBuf.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", p.bin, err, msg)
		}
		return "", fmt.Errorf("%s: %w", p.bin, err)
	}

	return strings.TrimSpace(out.String()), nil
}
