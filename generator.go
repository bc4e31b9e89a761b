// Package funcgen is a software function generator. It streams a sine or
// triangle wave to a DAC sink through a double-buffered, DMA-style
// pipeline: a transfer controller drains one block per block period while
// a producer regenerates the other.
package funcgen

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/funcgen-go/internal/dma"
	"github.com/cbegin/funcgen-go/internal/exchange"
	"github.com/cbegin/funcgen-go/internal/producer"
	"github.com/cbegin/funcgen-go/internal/wave"
)

var (
	ErrRunning    = errors.New("funcgen: generator already running")
	ErrNotRunning = errors.New("funcgen: generator not running")
)

type Option func(*Generator)

func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithSine selects the sine primitive. The default is wave.SineTable.
func WithSine(fn wave.SineFunc) Option {
	return func(g *Generator) { g.sine = fn }
}

// WithSink sets where DAC codes go. The default discards them.
func WithSink(s dma.Sink) Option {
	return func(g *Generator) { g.sink = s }
}

// WithConfig sets the power-on waveform. The default is wave.DefaultConfig.
func WithConfig(cfg wave.Config) Option {
	return func(g *Generator) { g.initial = cfg }
}

// WithBlockPeriod overrides the transfer period, normally dma.BlockPeriod.
func WithBlockPeriod(d time.Duration) Option {
	return func(g *Generator) { g.period = d }
}

// WithBlockHook is passed to the producer; see producer.WithBlockHook.
func WithBlockHook(fn func(idx int, cfg wave.Config)) Option {
	return func(g *Generator) { g.onBlock = fn }
}

type Generator struct {
	log     *log.Logger
	sine    wave.SineFunc
	sink    dma.Sink
	initial wave.Config
	period  time.Duration
	onBlock func(int, wave.Config)

	shared *wave.Shared

	mu       sync.Mutex
	ring     *exchange.Ring
	producer *producer.Producer
	dma      *dma.Controller
	cancel   context.CancelFunc
	group    *errgroup.Group
}

// Stats is a snapshot of the pipeline counters of the last run.
type Stats struct {
	Running     bool   `json:"running"`
	State       string `json:"state"`
	Blocks      uint64 `json:"blocks"`
	Transfers   uint64 `json:"transfers"`
	Completions uint64 `json:"completions"`
	Overflows   uint64 `json:"overflows"`
}

func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		log:     log.New(io.Discard, "", 0),
		sink:    dma.Discard,
		initial: wave.DefaultConfig(),
		period:  dma.BlockPeriod,
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.initial.Validate(); err != nil {
		return nil, err
	}
	g.shared = wave.NewShared(g.initial)
	return g, nil
}

// Start primes both blocks and launches the producer and the transfer
// controller. Each Start builds a fresh pipeline; the waveform is kept.
func (g *Generator) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return ErrRunning
	}

	ring := exchange.New()
	prod := producer.New(ring, g.shared,
		producer.WithLogger(g.log),
		producer.WithSine(g.sine),
		producer.WithBlockHook(g.onBlock),
	)
	ctrl := dma.New(ring, g.sink, dma.WithPeriod(g.period))
	prod.Prime()

	ctx, cancel := context.WithCancel(ctx)
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return prod.Run(ctx) })
	grp.Go(func() error { return ctrl.Run(ctx) })

	g.ring, g.producer, g.dma = ring, prod, ctrl
	g.cancel, g.group = cancel, grp
	cfg := g.shared.Get()
	g.log.Printf("funcgen: started %s %d Hz amp %d, block period %v", cfg.Shape, cfg.Freq, cfg.Amp, ctrl.Period())
	return nil
}

// Stop cancels the pipeline and waits for both goroutines to return.
func (g *Generator) Stop() error {
	g.mu.Lock()
	cancel, grp := g.cancel, g.group
	g.cancel, g.group = nil, nil
	g.mu.Unlock()
	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	err := grp.Wait()
	g.log.Printf("funcgen: stopped")
	return err
}

// Running reports whether Start was called without a matching Stop.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancel != nil
}

func (g *Generator) Config() wave.Config { return g.shared.Get() }

// SetConfig validates cfg and makes it the running waveform from the next
// block on.
func (g *Generator) SetConfig(cfg wave.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.shared.Set(cfg)
	return nil
}

// Shared returns the waveform store, for front panels that commit to it
// directly.
func (g *Generator) Shared() *wave.Shared { return g.shared }

func (g *Generator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := Stats{Running: g.cancel != nil, State: producer.StateIdle.String()}
	if g.producer == nil {
		return st
	}
	st.State = g.producer.State().String()
	st.Blocks = g.producer.Blocks()
	st.Transfers = g.dma.Transfers()
	st.Completions = g.ring.Completions()
	st.Overflows = g.ring.Overflows()
	return st
}
