package ingest

import (
	"os"
	"time"
)

// ReadinessDetector decides when a file has finished being written. File
// copies and cloud syncs grow a file incrementally, so a single successful
// read proves nothing; only sustained size stability is trusted.
type ReadinessDetector struct {
	// StableSamples is how many consecutive unchanged size samples are
	// required before the file is declared ready.
	StableSamples int
	// PollInterval is the delay between size samples.
	PollInterval time.Duration
	// MaxWait caps the whole wait; past it the file is given up on.
	MaxWait time.Duration
	// InitialDelay is applied before the first sample, so a creation event
	// that fires before any bytes land doesn't pass as a complete file.
	InitialDelay time.Duration
}

// AwaitReady polls the file's size until it has been unchanged for
// StableSamples consecutive samples, returning true, or until MaxWait
// elapses, returning false. A missing file and transient stat errors count
// as not-yet-ready and are retried; a size change resets the stability count.
func (d ReadinessDetector) AwaitReady(path string) bool {
	if d.InitialDelay > 0 {
		time.Sleep(d.InitialDelay)
	}

	deadline := time.Now().Add(d.MaxWait)
	lastSize := int64(-1)
	stable := 0

	for {
		if time.Now().After(deadline) {
			return false
		}

		info, err := os.Stat(path)
		if err != nil {
			time.Sleep(d.PollInterval)
			continue
		}

		if size := info.Size(); size == lastSize {
			stable++
			if stable >= d.StableSamples {
				return true
			}
		} else {
			stable = 0
			lastSize = size
		}

		time.Sleep(d.PollInterval)
	}
}
