// Package pool manages the fixed set of reusable platform channels.
//
// The pool owns channel identifiers only. Creating and deleting the physical
// channels is the orchestrator's job, done through the chat gateway before the
// pool is seeded and after it is drained.
package pool

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrExhausted indicates no channel is available for allocation.
	ErrExhausted = errors.New("channel pool exhausted")
	// ErrInvalidRelease indicates a release of a channel that was not allocated.
	ErrInvalidRelease = errors.New("channel was not allocated")
)

// Pool is a fixed-capacity set of loanable channel identifiers.
//
// Invariant: every seeded identifier is either available or allocated, never
// both. Capacity is set once at construction and never changes.
type Pool struct {
	mu        sync.Mutex
	available []string
	allocated map[string]bool
	capacity  int
}

// New creates a pool seeded with the given channel identifiers.
// Allocation order follows the seed order, oldest first.
func New(channelIDs []string) (*Pool, error) {
	if len(channelIDs) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}

	seen := make(map[string]bool, len(channelIDs))
	available := make([]string, 0, len(channelIDs))
	for _, id := range channelIDs {
		if id == "" {
			return nil, fmt.Errorf("channel id is required")
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate channel id %q", id)
		}
		seen[id] = true
		available = append(available, id)
	}

	return &Pool{
		available: available,
		allocated: make(map[string]bool, len(channelIDs)),
		capacity:  len(channelIDs),
	}, nil
}

// Allocate removes and returns the oldest available channel identifier.
func (p *Pool) Allocate() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.available) == 0 {
		return "", ErrExhausted
	}

	id := p.available[0]
	p.available = p.available[1:]
	p.allocated[id] = true
	return id, nil
}

// Release returns an allocated channel identifier to the available set.
// A double release is an error so leaks and races surface instead of being
// silently absorbed.
func (p *Pool) Release(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.allocated[id] {
		return fmt.Errorf("release channel %q: %w", id, ErrInvalidRelease)
	}

	delete(p.allocated, id)
	p.available = append(p.available, id)
	return nil
}

// Capacity reports the fixed number of channels the pool was seeded with.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Available reports how many channels are currently loanable.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available)
}
