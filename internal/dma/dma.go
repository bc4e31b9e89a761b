// Package dma emulates the timer-triggered DMA channel that feeds the DAC.
//
// A Controller drains the hardware-owned block of an exchange.Ring into a
// Sink once per block period and then runs the end-of-block handler, as the
// major-loop interrupt of a hardware DMA channel does.
package dma

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbegin/funcgen-go/internal/exchange"
	"github.com/cbegin/funcgen-go/internal/wave"
)

// Sink receives DAC codes in output order. WriteCodes must not retain codes
// and must not block for long: it runs inside the transfer.
type Sink interface {
	WriteCodes(codes []uint16)
}

// BlockPeriod is the playback time of one block at the DAC rate.
const BlockPeriod = time.Second * wave.BlockSize / wave.SampleRate

type Option func(*Controller)

// WithPeriod overrides the block period used by Run.
func WithPeriod(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.period = d
		}
	}
}

type Controller struct {
	ring   *exchange.Ring
	sink   Sink
	period time.Duration

	transfers atomic.Uint64
}

func New(ring *exchange.Ring, sink Sink, opts ...Option) *Controller {
	if sink == nil {
		sink = Discard
	}
	c := &Controller{ring: ring, sink: sink, period: BlockPeriod}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TransferBlock moves the hardware-owned block to the sink and completes it.
func (c *Controller) TransferBlock() {
	blk := c.ring.Block(c.ring.HardwareIndex())
	c.sink.WriteCodes(blk[:])
	c.transfers.Add(1)
	c.ring.Complete()
}

// Run transfers one block per period until ctx ends. Ticks missed while the
// sink was slow are dropped by the ticker, not made up.
func (c *Controller) Run(ctx context.Context) error {
	tick := time.NewTicker(c.period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			c.TransferBlock()
		}
	}
}

func (c *Controller) Period() time.Duration { return c.period }

func (c *Controller) Transfers() uint64 { return c.transfers.Load() }

type discard struct{}

func (discard) WriteCodes([]uint16) {}

// Discard drops every code.
var Discard Sink = discard{}

// Recorder keeps the most recent codes written to it, up to a limit.
type Recorder struct {
	mu    sync.Mutex
	limit int
	codes []uint16
}

// NewRecorder keeps at most limit codes; limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) WriteCodes(codes []uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, codes...)
	if r.limit > 0 && len(r.codes) > r.limit {
		n := copy(r.codes, r.codes[len(r.codes)-r.limit:])
		r.codes = r.codes[:n]
	}
}

// Codes returns a copy of the recorded codes, oldest first.
func (r *Recorder) Codes() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint16(nil), r.codes...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.codes = r.codes[:0]
	r.mu.Unlock()
}

// Tee writes to every sink in order.
type Tee []Sink

func (t Tee) WriteCodes(codes []uint16) {
	for _, s := range t {
		s.WriteCodes(codes)
	}
}
