// Package session serializes message processing per conversation session.
package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrBusy reports that the session is already processing a message and the
// caller chose not to wait.
var ErrBusy = errors.New("session is busy")

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker grants exclusive per-session access. Entries are reference-counted
// so idle sessions do not accumulate.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewLocker() *Locker {
	return &Locker{entries: map[string]*entry{}}
}

func (l *Locker) get(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) put(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Acquire blocks until the session is free or ctx is done. The returned
// release function must be called exactly once.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	e := l.get(key)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.put(key, e)
		return nil, err
	}
	return l.releaser(key, e), nil
}

// TryAcquire grabs the session lock without waiting, returning ErrBusy when
// another message holds it.
func (l *Locker) TryAcquire(key string) (func(), error) {
	e := l.get(key)
	if !e.sem.TryAcquire(1) {
		l.put(key, e)
		return nil, ErrBusy
	}
	return l.releaser(key, e), nil
}

func (l *Locker) releaser(key string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.put(key, e)
		})
	}
}
