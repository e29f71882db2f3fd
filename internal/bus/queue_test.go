package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueuePublishAndRun(t *testing.T) {
	q := NewQueue[int](8)
	for i := 0; i < 5; i++ {
		if err := q.TryPublish(i); err != nil {
			t.Fatalf("publish %d, err: %+v", i, err)
		}
	}
	q.Close()

	var got []int
	q.Run(context.Background(), func(v int) { got = append(got, v) })

	if len(got) != 5 {
		t.Fatalf("drained %d events, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order mismatch at %d: got %d", i, v)
		}
	}
}

func TestQueueFullDropsNewest(t *testing.T) {
	q := NewQueue[int](2)
	if err := q.TryPublish(1); err != nil {
		t.Fatalf("publish, err: %+v", err)
	}
	if err := q.TryPublish(2); err != nil {
		t.Fatalf("publish, err: %+v", err)
	}
	if err := q.TryPublish(3); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %+v", err)
	}
}

func TestQueueClosedRejectsPublish(t *testing.T) {
	q := NewQueue[int](2)
	q.Close()
	if err := q.TryPublish(1); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %+v", err)
	}
	q.Close() // second close is a no-op
}

func TestQueueCloseDuringPublish(t *testing.T) {
	q := NewQueue[int](4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = q.TryPublish(j)
			}
		}()
	}
	q.Close()
	wg.Wait()

	if err := q.TryPublish(1); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %+v", err)
	}
}

func TestQueueRunStopsOnContext(t *testing.T) {
	q := NewQueue[int](2)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx, func(int) {})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop on context cancel")
	}
}
