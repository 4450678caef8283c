package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fastDetector() ReadinessDetector {
	return ReadinessDetector{
		StableSamples: 3,
		PollInterval:  5 * time.Millisecond,
		MaxWait:       500 * time.Millisecond,
		InitialDelay:  0,
	}
}

func TestAwaitReady_StableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.m4a")
	if err := os.WriteFile(path, []byte("audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := fastDetector()
	start := time.Now()
	if !d.AwaitReady(path) {
		t.Fatal("stable file should be declared ready")
	}

	// Readiness requires StableSamples consecutive unchanged polls, so it
	// can't fire before StableSamples * PollInterval has passed.
	min := time.Duration(d.StableSamples) * d.PollInterval
	if elapsed := time.Since(start); elapsed < min {
		t.Errorf("ready after %v, want at least %v", elapsed, min)
	}
}

func TestAwaitReady_GrowingFileTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.m4a")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(2 * time.Millisecond):
				f.Write([]byte("more"))
			}
		}
	}()

	d := fastDetector()
	d.MaxWait = 100 * time.Millisecond
	if d.AwaitReady(path) {
		t.Error("a file growing on every poll must time out")
	}
}

func TestAwaitReady_FileAppearsLate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.m4a")

	go func() {
		time.Sleep(30 * time.Millisecond)
		os.WriteFile(path, []byte("late arrival"), 0o644)
	}()

	// Missing-file polls don't count against stability, only the clock.
	if !fastDetector().AwaitReady(path) {
		t.Error("file appearing within the wait cap should become ready")
	}
}

func TestAwaitReady_MissingFileTimesOut(t *testing.T) {
	d := fastDetector()
	d.MaxWait = 50 * time.Millisecond
	if d.AwaitReady(filepath.Join(t.TempDir(), "never.m4a")) {
		t.Error("a file that never appears must time out")
	}
}

func TestAwaitReady_SizeChangeResetsCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.m4a")
	if err := os.WriteFile(path, []byte("start"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := fastDetector()
	// Grow once mid-wait; readiness must come from a fresh stable run.
	go func() {
		time.Sleep(8 * time.Millisecond)
		f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		f.Write([]byte("grow"))
		f.Close()
	}()

	if !d.AwaitReady(path) {
		t.Error("file should be ready after it stops growing")
	}
}
