// Package audio plays the DAC stream on the host sound card through ebiten.
//
// Output sits between two clocks: the emulated DMA controller pushes codes
// on its ticker and the sound card pulls frames on its own callback. A FIFO
// absorbs the jitter. When the FIFO runs dry the last level is held, as a
// DAC holds its output register; when it overflows the oldest samples go.
package audio

import (
	"io"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/cbegin/funcgen-go/internal/analog"
	"github.com/cbegin/funcgen-go/internal/wave"
)

type OutputOption func(*Output)

// WithChain runs every DAC sample through c before it is queued.
func WithChain(c *analog.Chain) OutputOption {
	return func(o *Output) { o.chain = c }
}

func WithLogger(l *log.Logger) OutputOption {
	return func(o *Output) {
		if l != nil {
			o.log = l
		}
	}
}

// WithTap installs a callback that sees every queued mono sample, on the
// writer goroutine.
func WithTap(tap func([]float32)) OutputOption {
	return func(o *Output) { o.tap = tap }
}

// Output is a dma.Sink and a SampleSource.
type Output struct {
	mu    sync.Mutex
	fifo  []float32
	head  int
	size  int
	last  float32
	chain *analog.Chain
	tap   func([]float32)
	conv  []float32

	log       *log.Logger
	warnLimit *rate.Limiter

	underflows atomic.Uint64
	overflows  atomic.Uint64
}

// NewOutput returns a sink buffering up to fifoBlocks DMA blocks.
func NewOutput(fifoBlocks int, opts ...OutputOption) *Output {
	if fifoBlocks < 2 {
		fifoBlocks = 2
	}
	o := &Output{
		fifo:      make([]float32, fifoBlocks*wave.BlockSize),
		conv:      make([]float32, wave.BlockSize),
		log:       log.New(io.Discard, "", 0),
		warnLimit: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WriteCodes converts codes to signal level and queues them.
func (o *Output) WriteCodes(codes []uint16) {
	if cap(o.conv) < len(codes) {
		o.conv = make([]float32, len(codes))
	}
	conv := o.conv[:len(codes)]
	for i, c := range codes {
		x := analog.CodeToSample(c)
		if o.chain != nil {
			x = o.chain.Process(x)
		}
		conv[i] = x
	}
	if o.tap != nil {
		o.tap(conv)
	}

	o.mu.Lock()
	dropped := 0
	for _, x := range conv {
		if o.size == len(o.fifo) {
			o.head = (o.head + 1) % len(o.fifo)
			o.size--
			dropped++
		}
		o.fifo[(o.head+o.size)%len(o.fifo)] = x
		o.size++
	}
	o.mu.Unlock()
	if dropped > 0 {
		o.overflows.Add(uint64(dropped))
	}
}

// Process fills interleaved stereo frames from the FIFO.
func (o *Output) Process(dst []float32) {
	o.mu.Lock()
	short := 0
	for i := 0; i+1 < len(dst); i += 2 {
		if o.size > 0 {
			o.last = o.fifo[o.head]
			o.head = (o.head + 1) % len(o.fifo)
			o.size--
		} else {
			short++
		}
		dst[i] = o.last
		dst[i+1] = o.last
	}
	o.mu.Unlock()
	if short > 0 {
		n := o.underflows.Add(uint64(short))
		if o.warnLimit.Allow() {
			o.log.Printf("audio: fifo underflow, %d frames held so far", n)
		}
	}
}

// Buffered returns the number of queued samples.
func (o *Output) Buffered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.size
}

func (o *Output) Underflows() uint64 { return o.underflows.Load() }

func (o *Output) Overflows() uint64 { return o.overflows.Load() }
