package wave

// Generator fills DMA blocks for a Config. It carries the phase counter from
// one block to the next, so one Generator serves one output channel.
type Generator struct {
	sine SineFunc

	// Counter is the position of the next sample within the current period.
	// Sine and triangle share it.
	Counter uint32
}

// NewGenerator returns a Generator using sine, or SineTable when sine is nil.
func NewGenerator(sine SineFunc) *Generator {
	if sine == nil {
		sine = SineTable
	}
	return &Generator{sine: sine}
}

// periodQ15 returns the period length in samples as Q15, or 0 when freq
// cannot produce a period.
func periodQ15(freq int) uint32 {
	if freq <= 0 || freq > SampleRate<<15 {
		return 0
	}
	return uint32(SampleRate<<15) / uint32(freq)
}

// GenerateBlock writes one block of cfg into dst. An unsupported shape or a
// non-positive frequency leaves dst and the counter untouched. For a cfg
// within Config.Validate ranges every code lies within PeakCode*Amp/AmpSteps
// of MidpointCode.
func (g *Generator) GenerateBlock(cfg Config, dst *Block) {
	period := periodQ15(cfg.Freq)
	if period == 0 {
		return
	}
	switch cfg.Shape {
	case ShapeSine:
		g.sineBlock(period, cfg.Amp, dst)
	case ShapeTriangle:
		g.triangleBlock(period, cfg.Amp, dst)
	}
}

func (g *Generator) sineBlock(period uint32, amp int, dst *Block) {
	// Q31 turn fraction advanced per sample.
	step := uint32((uint64(1) << 46) / uint64(period))
	scale := int64(PeakCode * amp)
	for i := range dst {
		if g.Counter<<15 >= period {
			g.Counter = 0
		}
		s := int64(g.sine(g.Counter * step))
		dst[i] = uint16(MidpointCode + s*scale/(AmpSteps<<31))
		g.Counter++
	}
}

func (g *Generator) triangleBlock(period uint32, amp int, dst *Block) {
	peak := int32(PeakCode * amp / AmpSteps)
	top := MidpointCode + peak
	bottom := MidpointCode - peak

	half := (period >> 15) / 2
	if half == 0 {
		half = 1
	}
	slope := (uint32(2*PeakCode*amp/AmpSteps) << 15) / half
	mid := period / 2

	for i := range dst {
		// The counter restarts at 1, not 0, so every period after the first
		// skips the bottom sample.
		if g.Counter<<15 >= period {
			g.Counter = 1
		}
		// With a fractional period a half can run one sample longer than
		// the slope was sized for; hold it at the peak it reached.
		if g.Counter<<15 < mid {
			dst[i] = uint16(min(bottom+int32(g.Counter*slope>>15), top))
		} else {
			dst[i] = uint16(max(top-int32((g.Counter-mid>>15)*slope>>15), bottom))
		}
		g.Counter++
	}
}
