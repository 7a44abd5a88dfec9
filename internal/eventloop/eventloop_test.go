package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoop_RunsTasksInOrder(t *testing.T) {
	loop := New()
	go loop.Run(context.Background())

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		if err := loop.Post(func() { got = append(got, i) }); err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	loop.Close()
	waitDone(t, loop)

	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoop_TasksNeverOverlap(t *testing.T) {
	loop := New()
	go loop.Run(context.Background())

	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = loop.Post(func() {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	loop.Close()
	waitDone(t, loop)

	if overlap {
		t.Fatalf("tasks ran concurrently")
	}
}

func TestLoop_PostAfterClose(t *testing.T) {
	loop := New()
	loop.Close()
	if err := loop.Post(func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestLoop_ContextCancelStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := New()
	go loop.Run(ctx)
	cancel()
	waitDone(t, loop)
}

func waitDone(t *testing.T, loop *Loop) {
	t.Helper()
	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
	}
}

func TestLoop_ContextCancelDrainsQueuedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := New()

	var got []int
	for i := 0; i < 3; i++ {
		i := i
		if err := loop.Post(func() { got = append(got, i) }); err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	cancel()
	go loop.Run(ctx)
	waitDone(t, loop)

	if diff := cmp.Diff([]int{0, 1, 2}, got); diff != "" {
		t.Fatalf("queued tasks mismatch (-want +got):\n%s", diff)
	}
	if err := loop.Post(func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("post after cancel = %v, want ErrClosed", err)
	}
}
