// Package capture decouples the landmark producer from the extractor with
// a single-slot, latest-frame-wins buffer.
//
// The producer must never block and frames must never backlog: Publish
// overwrites any unconsumed frame and returns immediately, counting the
// overwritten frame as a drop. Consumers that fall behind therefore see
// only the newest frame, which is the correct behavior for a live signal.
package capture

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/grit/internal/domain/model"
)

// Slot is a bounded one-frame buffer between a frame producer and a
// single consumer.
type Slot struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *model.Frame
	closed bool
	drops  atomic.Uint64
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	s := &Slot{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Publish stores frame as the latest, overwriting any unconsumed frame.
// It never blocks. Publishing to a closed slot is a no-op.
func (s *Slot) Publish(frame model.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.frame != nil {
		s.drops.Add(1)
	}
	s.frame = &frame
	s.cond.Signal()
}

// Next blocks until a frame is available, the slot is closed, or ctx is
// cancelled. The second return value is false when no frame will ever be
// delivered again.
func (s *Slot) Next(ctx context.Context) (model.Frame, bool) {
	// Wake the cond wait when the context ends.
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.frame == nil && !s.closed && ctx.Err() == nil {
		s.cond.Wait()
	}
	if s.frame == nil {
		return model.Frame{}, false
	}

	frame := *s.frame
	s.frame = nil
	return frame, true
}

// Drops returns how many frames were overwritten before being consumed.
func (s *Slot) Drops() uint64 {
	return s.drops.Load()
}

// Close releases any blocked consumer. Idempotent.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.cond.Broadcast()
}
