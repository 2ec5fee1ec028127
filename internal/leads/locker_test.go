package leads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocker_SerializesSameLead(t *testing.T) {
	l := NewLocker()
	var (
		mu     sync.Mutex
		active int
		peak   int
		wg     sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "lead-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer unlock()
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Fatalf("expected at most one holder, saw %d", peak)
	}
	if l.size() != 0 {
		t.Fatalf("expected lock table to drain, has %d entries", l.size())
	}
}

func TestLocker_DifferentLeadsDoNotBlock(t *testing.T) {
	l := NewLocker()
	unlockA, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock, err := l.Lock(context.Background(), "b")
		if err == nil {
			unlock()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestLocker_CancelledWaiterReturns(t *testing.T) {
	l := NewLocker()
	unlockHolder, err := l.Lock(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("lock holder: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		unlock, err := l.Lock(ctx, "lead-1")
		if err == nil {
			unlock()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter stayed blocked after its context expired")
	}

	unlockHolder()
	if l.size() != 0 {
		t.Fatalf("expected lock table to drain, has %d entries", l.size())
	}
	unlock, err := l.Lock(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	unlock()
}
