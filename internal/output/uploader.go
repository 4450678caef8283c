package output

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// AsyncUploader archives transcripts to S3 in the background without ever
// blocking or failing the pipeline. The local file is the source of truth;
// a dropped upload only costs the off-box copy.
type AsyncUploader struct {
	archiver *S3Archiver
	ch       chan uploadJob
	log      zerolog.Logger
	wg       sync.WaitGroup
	stopped  atomic.Bool
	uploaded atomic.Int64
	dropped  atomic.Int64
}

type uploadJob struct {
	key  string
	data []byte
}

// NewAsyncUploader creates an async transcript uploader with the given buffer size.
func NewAsyncUploader(archiver *S3Archiver, bufferSize int, log zerolog.Logger) *AsyncUploader {
	return &AsyncUploader{
		archiver: archiver,
		ch:       make(chan uploadJob, bufferSize),
		log:      log.With().Str("component", "async-uploader").Logger(),
	}
}

// Enqueue adds an upload job. Non-blocking; drops with a warning if the
// queue is full or the uploader is stopped.
func (u *AsyncUploader) Enqueue(key string, data []byte) {
	if u.stopped.Load() {
		return
	}
	select {
	case u.ch <- uploadJob{key: key, data: data}:
	default:
		u.dropped.Add(1)
		u.log.Warn().Str("key", key).Msg("archive queue full, skipping (transcript safe on disk)")
	}
}

// Pending returns the current queue depth.
func (u *AsyncUploader) Pending() int { return len(u.ch) }

// Uploaded returns the number of transcripts archived so far.
func (u *AsyncUploader) Uploaded() int64 { return u.uploaded.Load() }

// Start launches worker goroutines.
func (u *AsyncUploader) Start(workers int) {
	for i := 0; i < workers; i++ {
		u.wg.Add(1)
		go u.worker()
	}
	u.log.Info().Int("workers", workers).Int("buffer", cap(u.ch)).Msg("async uploader started")
}

// Stop drains the queue and waits for in-flight uploads to finish.
func (u *AsyncUploader) Stop() {
	if u.stopped.Swap(true) {
		return
	}
	close(u.ch)
	u.wg.Wait()
	u.log.Info().
		Int64("uploaded", u.uploaded.Load()).
		Int64("dropped", u.dropped.Load()).
		Msg("async uploader stopped")
}

func (u *AsyncUploader) worker() {
	defer u.wg.Done()
	for job := range u.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := u.archiver.Save(ctx, job.key, job.data)
		cancel()
		if err != nil {
			u.log.Warn().Err(err).Str("key", job.key).Msg("archive upload failed")
			continue
		}
		u.uploaded.Add(1)
		u.log.Debug().Str("key", job.key).Msg("transcript archived")
	}
}
