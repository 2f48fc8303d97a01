// Package queue implements the FIFO matchmaking admission queue.
package queue

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrEmptyUserID indicates a user id is required.
	ErrEmptyUserID = errors.New("user id is required")
	// ErrAlreadyQueued indicates the user is already waiting in the queue.
	ErrAlreadyQueued = errors.New("user is already queued")
	// ErrAlreadyInSession indicates the user is a participant in a live session.
	ErrAlreadyInSession = errors.New("user is already in a session")
)

// Entry is one queued participant waiting to be matched.
type Entry struct {
	UserID      string
	DisplayName string
	EnqueuedAt  time.Time
}

// MembershipGuard reports whether a user currently belongs to a non-terminal
// session. The orchestrator supplies it so the queue stays free of session
// bookkeeping.
type MembershipGuard func(userID string) bool

// Queue is a mutex-guarded FIFO admission queue.
//
// Enqueue and TryFormGroup contend on the same lock so group formation always
// observes a consistent queue, never a torn prefix.
type Queue struct {
	mu        sync.Mutex
	entries   []Entry
	inSession MembershipGuard
	clock     func() time.Time
}

// New creates a queue. A nil guard admits everyone.
func New(inSession MembershipGuard) *Queue {
	return &Queue{
		inSession: inSession,
		clock:     time.Now,
	}
}

// Enqueue appends a user to the tail of the queue.
func (q *Queue) Enqueue(userID, displayName string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, entry := range q.entries {
		if entry.UserID == userID {
			return ErrAlreadyQueued
		}
	}
	if q.inSession != nil && q.inSession(userID) {
		return ErrAlreadyInSession
	}

	q.entries = append(q.entries, Entry{
		UserID:      userID,
		DisplayName: displayName,
		EnqueuedAt:  q.clock().UTC(),
	})
	return nil
}

// TryFormGroup atomically removes and returns the n oldest entries.
// When fewer than n entries are queued it returns nothing and leaves the
// queue untouched.
func (q *Queue) TryFormGroup(n int) ([]Entry, bool) {
	if n <= 0 {
		return nil, false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) < n {
		return nil, false
	}

	group := make([]Entry, n)
	copy(group, q.entries[:n])
	q.entries = append(q.entries[:0], q.entries[n:]...)
	return group, true
}

// Remove withdraws a user from the queue. Absent users are a no-op.
func (q *Queue) Remove(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, entry := range q.entries {
		if entry.UserID == userID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

// Len reports how many users are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a snapshot of the queue in FIFO order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]Entry, len(q.entries))
	copy(snapshot, q.entries)
	return snapshot
}
