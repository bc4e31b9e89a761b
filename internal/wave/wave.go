// Package wave holds the waveform model of the generator: the configuration
// shared with the front panel, the fixed-size DAC sample block and the
// fixed-point synthesis that fills it.
package wave

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// BlockSize is the number of samples in one DMA block.
	BlockSize = 64
	// SampleRate is the DAC update rate in Hz.
	SampleRate = 48000

	// MidpointCode is the DAC code for zero signal.
	MidpointCode = 2048
	// PeakCode is the deviation from MidpointCode at full amplitude.
	PeakCode = 1707
	// MaxCode is the largest 12-bit DAC code.
	MaxCode = 4095
	// VRef is the DAC output voltage at MaxCode+1.
	VRef = 1.2

	// AmpSteps is the full-scale amplitude setting.
	AmpSteps = 20
	// MinFreq and MaxFreq bound the frequency a setter may store, in Hz.
	MinFreq = 10
	MaxFreq = 10000
)

// Validation errors returned by Config.Validate and ParseShape.
var (
	ErrFreqRange = fmt.Errorf("frequency out of range [%d, %d] Hz", MinFreq, MaxFreq)
	ErrAmpRange  = fmt.Errorf("amplitude out of range [0, %d]", AmpSteps)
	ErrShape     = errors.New("unsupported waveform shape")
)

// Block is one DMA block of DAC codes.
type Block [BlockSize]uint16

// Shape selects the synthesized waveform.
type Shape uint8

const (
	ShapeSine Shape = iota
	ShapeTriangle
)

// Valid reports whether s is a shape the generator can synthesize.
func (s Shape) Valid() bool {
	return s == ShapeSine || s == ShapeTriangle
}

func (s Shape) String() string {
	switch s {
	case ShapeSine:
		return "sine"
	case ShapeTriangle:
		return "triangle"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrShape
	}
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(text []byte) error {
	shape, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = shape
	return nil
}

// ParseShape accepts "sine"/"sin" and "triangle"/"tri" in any case.
func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "sin":
		return ShapeSine, nil
	case "triangle", "tri":
		return ShapeTriangle, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrShape, name)
	}
}

// Config is the waveform the producer synthesizes.
type Config struct {
	Freq  int   `json:"freq"`
	Amp   int   `json:"amp"`
	Shape Shape `json:"shape"`
}

// DefaultConfig is the power-on waveform: 100 Hz full-scale sine.
func DefaultConfig() Config {
	return Config{Freq: 100, Amp: AmpSteps, Shape: ShapeSine}
}

// Validate reports the first field outside the range a setter may store.
func (c Config) Validate() error {
	if c.Freq < MinFreq || c.Freq > MaxFreq {
		return fmt.Errorf("%w: %d", ErrFreqRange, c.Freq)
	}
	if c.Amp < 0 || c.Amp > AmpSteps {
		return fmt.Errorf("%w: %d", ErrAmpRange, c.Amp)
	}
	if !c.Shape.Valid() {
		return fmt.Errorf("%w: %d", ErrShape, c.Shape)
	}
	return nil
}

// Clamp limits frequency and amplitude to their valid ranges. The shape is
// left alone.
func (c Config) Clamp() Config {
	c.Freq = clampInt(c.Freq, MinFreq, MaxFreq)
	c.Amp = clampInt(c.Amp, 0, AmpSteps)
	return c
}

// CodeToVolts converts a DAC code to its nominal output voltage.
func CodeToVolts(code uint16) float64 {
	return float64(code) * VRef / (MaxCode + 1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
