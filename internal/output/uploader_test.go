package output

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestAsyncUploaderQueue(t *testing.T) {
	t.Run("drops_when_full", func(t *testing.T) {
		u := NewAsyncUploader(nil, 2, zerolog.Nop())
		u.Enqueue("a.txt", []byte("a"))
		u.Enqueue("b.txt", []byte("b"))
		u.Enqueue("c.txt", []byte("c")) // buffer full, dropped

		if got := u.Pending(); got != 2 {
			t.Errorf("expected 2 pending, got %d", got)
		}
		if got := u.dropped.Load(); got != 1 {
			t.Errorf("expected 1 dropped, got %d", got)
		}
	})

	t.Run("enqueue_after_stop_is_noop", func(t *testing.T) {
		u := NewAsyncUploader(nil, 2, zerolog.Nop())
		u.Stop()
		u.Enqueue("a.txt", []byte("a")) // must not panic on closed channel
		if got := u.Pending(); got != 0 {
			t.Errorf("expected empty queue, got %d", got)
		}
	})

	t.Run("stop_is_idempotent", func(t *testing.T) {
		u := NewAsyncUploader(nil, 1, zerolog.Nop())
		u.Stop()
		u.Stop()
	})
}
