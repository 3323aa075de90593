package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func TestRunnerBoundsConcurrency(t *testing.T) {
	r := NewRunner(context.Background(), 2, zerolog.Nop())

	var active, peak, runs int64
	var mu sync.Mutex
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		r.Go(func(ctx context.Context) {
			n := atomic.AddInt64(&active, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			<-release
			atomic.AddInt64(&active, -1)
			atomic.AddInt64(&runs, 1)
		}, nil)
	}
	close(release)
	r.Wait()

	if runs != 6 {
		t.Fatalf("runs = %d, want 6", runs)
	}
	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestRunnerDropsJobsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(ctx, 1, zerolog.Nop())
	cancel()

	ran := make(chan struct{}, 1)
	var droppedCalls int64
	r.Go(func(ctx context.Context) {
		ran <- struct{}{}
	}, func() {
		atomic.AddInt64(&droppedCalls, 1)
	})
	r.Wait()

	select {
	case <-ran:
		t.Fatalf("job ran after runner context was cancelled")
	default:
	}
	if atomic.LoadInt64(&droppedCalls) != 1 {
		t.Fatalf("dropped callback calls = %d, want 1", droppedCalls)
	}
}
