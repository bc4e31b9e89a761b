// Package producer runs the block-producing task: wait for the transfer
// engine to release a block, take one snapshot of the waveform config, and
// regenerate the released block in place.
package producer

import (
	"context"
	"io"
	"log"
	"sync/atomic"

	"github.com/cbegin/funcgen-go/internal/exchange"
	"github.com/cbegin/funcgen-go/internal/wave"
)

type State int32

const (
	StateIdle State = iota
	StateWaitForBuffer
	StateReadConfig
	StateGenerate
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitForBuffer:
		return "wait-for-buffer"
	case StateReadConfig:
		return "read-config"
	case StateGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// ConfigSource is read once per block.
type ConfigSource interface {
	Get() wave.Config
}

type Option func(*Producer)

func WithLogger(l *log.Logger) Option {
	return func(p *Producer) {
		if l != nil {
			p.log = l
		}
	}
}

// WithSine selects the sine primitive. The default is wave.SineTable.
func WithSine(fn wave.SineFunc) Option {
	return func(p *Producer) {
		p.gen = wave.NewGenerator(fn)
	}
}

// WithBlockHook installs a callback run after each generated block, on the
// producer goroutine, with the block index and the config it was built
// from. Keep it short: it eats into the block deadline.
func WithBlockHook(fn func(idx int, cfg wave.Config)) Option {
	return func(p *Producer) {
		p.onBlock = fn
	}
}

type Producer struct {
	ring    *exchange.Ring
	source  ConfigSource
	gen     *wave.Generator
	log     *log.Logger
	onBlock func(int, wave.Config)

	state  atomic.Int32
	blocks atomic.Uint64
}

func New(ring *exchange.Ring, source ConfigSource, opts ...Option) *Producer {
	p := &Producer{
		ring:   ring,
		source: source,
		gen:    wave.NewGenerator(wave.SineTable),
		log:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prime fills both blocks from the current config so the transfer engine
// never starts on silence. Call it before the engine starts.
func (p *Producer) Prime() {
	cfg := p.source.Get()
	p.gen.GenerateBlock(cfg, p.ring.Block(p.ring.HardwareIndex()))
	p.gen.GenerateBlock(cfg, p.ring.Block(p.ring.ProducerIndex()))
}

// Run is the producer task. It returns nil once ctx is cancelled.
func (p *Producer) Run(ctx context.Context) error {
	p.log.Printf("producer: start")
	defer p.state.Store(int32(StateIdle))
	for {
		p.state.Store(int32(StateWaitForBuffer))
		idx, err := p.ring.Wait(ctx)
		if err != nil {
			p.log.Printf("producer: stop after %d blocks: %v", p.blocks.Load(), err)
			return nil
		}

		p.state.Store(int32(StateReadConfig))
		cfg := p.source.Get()

		p.state.Store(int32(StateGenerate))
		p.gen.GenerateBlock(cfg, p.ring.Block(idx))
		p.blocks.Add(1)
		if p.onBlock != nil {
			p.onBlock(idx, cfg)
		}
	}
}

func (p *Producer) State() State { return State(p.state.Load()) }

// Blocks counts generated blocks, not including Prime.
func (p *Producer) Blocks() uint64 { return p.blocks.Load() }
