// Package analog models the output stage between the DAC pin and the
// speaker: code-to-signal conversion and a short chain of one-pole filters.
package analog

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/funcgen-go/internal/wave"
)

// Stage processes one mono sample.
type Stage interface {
	Process(x float32) float32
	Reset()
}

// Chain applies stages in order.
type Chain struct {
	stages []Stage
}

func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

func (c *Chain) Process(x float32) float32 {
	for _, s := range c.stages {
		x = s.Process(x)
	}
	return x
}

func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

func (c *Chain) Add(s Stage) {
	c.stages = append(c.stages, s)
}

func (c *Chain) Len() int { return len(c.stages) }

// CodeToSample maps a DAC code to [-1, 1) around the midpoint code.
func CodeToSample(code uint16) float32 {
	return float32(int(code)-wave.MidpointCode) / wave.MidpointCode
}

// LowPass is a one-pole RC low-pass, standing in for the reconstruction
// filter after the DAC.
type LowPass struct {
	alpha float32
	y     float32
}

// NewLowPass returns a filter with the given -3 dB cutoff. A cutoff of 0 or
// at/above Nyquist passes the signal through.
func NewLowPass(sampleRate int, cutoffHz float64) *LowPass {
	lp := &LowPass{}
	if cutoffHz > 0 && cutoffHz < float64(sampleRate)/2 {
		rc := 1.0 / (2.0 * math.Pi * cutoffHz)
		dt := 1.0 / float64(sampleRate)
		lp.alpha = float32(dt / (rc + dt))
	}
	return lp
}

func (lp *LowPass) Process(x float32) float32 {
	if lp.alpha == 0 {
		return x
	}
	lp.y += lp.alpha * (x - lp.y)
	return lp.y
}

func (lp *LowPass) Reset() { lp.y = 0 }

// DCBlock removes the DC offset a coupling capacitor would.
type DCBlock struct {
	r     float32
	prevX float32
	prevY float32
}

func NewDCBlock(sampleRate int) *DCBlock {
	// ~5 Hz corner at any rate
	return &DCBlock{r: float32(1 - 2*math.Pi*5/float64(sampleRate))}
}

func (d *DCBlock) Process(x float32) float32 {
	y := x - d.prevX + d.r*d.prevY
	d.prevX = x
	d.prevY = y
	return y
}

func (d *DCBlock) Reset() {
	d.prevX = 0
	d.prevY = 0
}

// Gain scales the signal; it is the output volume knob and may be set from
// another goroutine while the chain runs.
type Gain struct {
	bits atomic.Uint32
}

func NewGain(v float32) *Gain {
	g := &Gain{}
	g.Set(v)
	return g
}

func (g *Gain) Set(v float32) { g.bits.Store(math.Float32bits(v)) }

func (g *Gain) Value() float32 { return math.Float32frombits(g.bits.Load()) }

func (g *Gain) Process(x float32) float32 { return x * g.Value() }

func (g *Gain) Reset() {}
