package queue

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, Job{Key: "votes", Value: []byte("[]")}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	select {
	case j := <-q.Dequeue(ctx):
		if j.Key != "votes" || string(j.Value) != "[]" {
			t.Errorf("unexpected job %+v", j)
		}
		if j.EnqueuedAt.IsZero() {
			t.Error("expected enqueue time to be stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job")
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !q.Enqueue(ctx, Job{Key: fmt.Sprintf("k%d", i)}) {
			t.Fatalf("enqueue %d should succeed", i)
		}
	}
	if q.Enqueue(ctx, Job{Key: "overflow"}) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_OrderAndDrainAfterClose(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q.Enqueue(ctx, Job{Key: fmt.Sprintf("k%d", i)})
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, Job{Key: "late"}) {
		t.Error("expected enqueue after close to fail")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}

	i := 0
	for j := range q.Dequeue(ctx) {
		if want := fmt.Sprintf("k%d", i); j.Key != want {
			t.Errorf("job %d: expected %s, got %s", i, want, j.Key)
		}
		i++
	}
	if i != 5 {
		t.Errorf("expected 5 drained jobs, got %d", i)
	}
}

func TestInMemoryQueue_ContextCancellation(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := q.Dequeue(ctx)
	q.Enqueue(context.Background(), Job{Key: "a"})
	q.Enqueue(context.Background(), Job{Key: "b"})
	_ = q.Close()

	received := 0
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				if received > 2 {
					t.Errorf("received more jobs than were enqueued: %d", received)
				}
				return
			}
			received++
		case <-timeout:
			t.Fatal("dequeue channel did not close after cancellation")
		}
	}
}
