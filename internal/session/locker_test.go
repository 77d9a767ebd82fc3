package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTryAcquireRejectsBusySession(t *testing.T) {
	locker := NewLocker()

	release, err := locker.TryAcquire("s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := locker.TryAcquire("s1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	release()

	release2, err := locker.TryAcquire("s1")
	if err != nil {
		t.Fatalf("lock should be free after release, got %v", err)
	}
	release2()
}

func TestTryAcquireIndependentSessions(t *testing.T) {
	locker := NewLocker()

	r1, err := locker.TryAcquire("s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := locker.TryAcquire("s2")
	if err != nil {
		t.Fatalf("different session should not be blocked, got %v", err)
	}
	r1()
	r2()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	locker := NewLocker()

	release, err := locker.Acquire(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r, err := locker.Acquire(context.Background(), "s1")
		if err != nil {
			t.Errorf("waiter failed: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatalf("second acquire should wait for release")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("waiter never acquired the lock")
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	locker := NewLocker()

	release, err := locker.Acquire(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "s1"); err == nil {
		t.Fatalf("expected context error while lock is held")
	}
}

func TestEntriesAreCleanedUp(t *testing.T) {
	locker := NewLocker()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "shared")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			release()
		}()
	}
	wg.Wait()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	if len(locker.entries) != 0 {
		t.Fatalf("expected empty entry map after all releases, got %d", len(locker.entries))
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	locker := NewLocker()

	release, err := locker.TryAcquire("s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
	release()

	r2, err := locker.TryAcquire("s1")
	if err != nil {
		t.Fatalf("double release broke the lock: %v", err)
	}
	r2()
}
