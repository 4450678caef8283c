package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ScanOnce processes every file in dir with the given extension, sorted by
// name, through the processor. It returns the number of matching files; a
// caller running in batch mode treats zero matches as a startup failure.
// Per-file failures are absorbed by the processor as usual.
func ScanOnce(ctx context.Context, proc *Processor, dir, ext string, log zerolog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read input dir: %w", err)
	}

	ext = strings.ToLower(ext)
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) != ext {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	log.Info().Int("files", len(files)).Str("dir", dir).Msg("batch scan")

	for _, f := range files {
		select {
		case <-ctx.Done():
			log.Info().Msg("batch interrupted by shutdown")
			return len(files), nil
		default:
		}
		proc.Dispatch(ctx, f)
	}

	return len(files), nil
}
