// Package exchange hands the two DMA sample blocks back and forth between the
// transfer engine and the producer.
//
// Ownership is a single atomic index: the producer owns block ProducerIndex
// and the transfer engine drains the other one. The engine's completion
// handler flips the index and posts a wakeup; the producer waits for the
// wakeup and rewrites the block it now owns. There is no lock on the blocks.
package exchange

import (
	"context"
	"sync/atomic"

	"github.com/cbegin/funcgen-go/internal/wave"
)

// Depth is the number of blocks in the ring.
const Depth = 2

type Ring struct {
	blocks [Depth]wave.Block

	producer atomic.Uint32
	done     chan struct{}

	completions atomic.Uint64
	overflows   atomic.Uint64
}

// New returns a ring whose transfer engine starts on block 0.
func New() *Ring {
	r := &Ring{done: make(chan struct{}, Depth)}
	r.producer.Store(1)
	return r
}

// Block returns block i. Callers must only write the producer-owned block.
func (r *Ring) Block(i int) *wave.Block {
	return &r.blocks[i&1]
}

func (r *Ring) ProducerIndex() int {
	return int(r.producer.Load())
}

func (r *Ring) HardwareIndex() int {
	return int(r.producer.Load() ^ 1)
}

// Complete is the transfer engine's end-of-block handler. The block just
// drained becomes producer-owned, the other one hardware-owned, and one
// wakeup is posted. It never blocks: when Depth wakeups are already pending
// the post is counted as an overflow and folds into them. Only the transfer
// engine calls Complete, from a single goroutine.
func (r *Ring) Complete() {
	r.producer.Store(r.producer.Load() ^ 1)
	r.completions.Add(1)
	select {
	case r.done <- struct{}{}:
	default:
		r.overflows.Add(1)
	}
}

// Wait blocks until a block completes and returns the index the producer
// may now overwrite. The error is non-nil only when ctx ends.
func (r *Ring) Wait(ctx context.Context) (int, error) {
	select {
	case <-r.done:
		return r.ProducerIndex(), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Completions counts Complete calls.
func (r *Ring) Completions() uint64 { return r.completions.Load() }

// Overflows counts wakeups that found Depth wakeups already pending.
func (r *Ring) Overflows() uint64 { return r.overflows.Load() }
