package ports

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExhausted is returned by Allocate when every port in the range is taken.
var ErrExhausted = errors.New("no free port in range")

// Allocator hands out ports from a fixed inclusive range, lowest free first.
// It tracks only its own reservations; nothing is probed or bound.
type Allocator struct {
	mu   sync.Mutex
	min  int
	max  int
	used map[int]struct{}
}

// New returns an allocator for the inclusive range [min, max].
func New(min, max int) (*Allocator, error) {
	if min <= 0 || max < min {
		return nil, fmt.Errorf("invalid port range %d-%d", min, max)
	}
	return &Allocator{min: min, max: max, used: make(map[int]struct{})}, nil
}

// Allocate reserves and returns the lowest free port.
func (a *Allocator) Allocate() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for p := a.min; p <= a.max; p++ {
		if _, taken := a.used[p]; !taken {
			a.used[p] = struct{}{}
			return p, nil
		}
	}
	return 0, ErrExhausted
}

// Release returns a port to the pool. Releasing a free or out-of-range port
// is a no-op.
func (a *Allocator) Release(port int) {
	a.mu.Lock()
	delete(a.used, port)
	a.mu.Unlock()
}

// InUse returns how many ports are currently reserved.
func (a *Allocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.used)
}

// Range returns the inclusive bounds the allocator serves.
func (a *Allocator) Range() (min, max int) {
	return a.min, a.max
}

// Capacity returns the number of ports in the range.
func (a *Allocator) Capacity() int {
	return a.max - a.min + 1
}
