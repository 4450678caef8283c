package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const headerSeparator = "============================================================"

// Writer persists assembled transcripts to the output directory.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter creates a transcript writer rooted at dir.
func NewWriter(dir string, log zerolog.Logger) *Writer {
	return &Writer{dir: dir, log: log}
}

// Dir returns the output directory path.
func (w *Writer) Dir() string { return w.dir }

// Persist writes the document to <stem>_<YYYYMMDD_HHMMSS>.txt and returns the
// path. The timestamp suffix keeps repeated submissions of same-named inputs
// from colliding, so an existing file is never silently overwritten.
func (w *Writer) Persist(doc *Document) (string, error) {
	stem := strings.TrimSuffix(doc.Source, filepath.Ext(doc.Source))
	name := fmt.Sprintf("%s_%s.txt", stem, doc.Created.Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	var sb strings.Builder
	sb.WriteString("# Transcription Result\n")
	fmt.Fprintf(&sb, "Source file: %s\n", doc.Source)
	fmt.Fprintf(&sb, "Created: %s\n", doc.Created.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n" + headerSeparator + "\n\n")
	sb.WriteString(doc.Body)

	// Atomic write: temp file + rename
	tmp, err := os.CreateTemp(w.dir, ".transcript-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename: %w", err)
	}

	w.log.Info().
		Str("source", doc.Source).
		Str("output", path).
		Int("segments", doc.Segments).
		Msg("transcript persisted")

	return path, nil
}
