// Package panel is the front-panel logic of the generator: a keypad edits a
// pending waveform digit by digit, two touch pads step its amplitude, and
// '#' commits it to the running waveform. Two 16-character display lines
// show the running and the pending settings.
package panel

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cbegin/funcgen-go/internal/wave"
)

// Digits is the number of editable frequency digits.
const Digits = 5

// Width is the display line length in characters.
const Width = 16

// freqColumn is where the five frequency digits start on both lines.
const freqColumn = 9

type Key rune

const (
	KeySine     Key = 'A'
	KeyTriangle Key = 'B'
	KeyLeft     Key = 'D'
	KeyEnter    Key = '#'
)

type Pad int

const (
	PadLeft Pad = iota
	PadRight
)

func (p Pad) String() string {
	if p == PadLeft {
		return "left"
	}
	return "right"
}

// ParsePad accepts "left" and "right".
func ParsePad(name string) (Pad, error) {
	switch strings.ToLower(name) {
	case "left":
		return PadLeft, nil
	case "right":
		return PadRight, nil
	}
	return 0, fmt.Errorf("unknown touch pad %q", name)
}

// Setter receives committed waveforms. *wave.Shared implements it.
type Setter interface {
	Set(cfg wave.Config)
}

type Panel struct {
	mu      sync.Mutex
	out     Setter
	current wave.Config
	pending wave.Config
	cursor  int
	held    map[Pad]bool
}

// New returns a panel showing cfg as both running and pending waveform.
func New(out Setter, cfg wave.Config) *Panel {
	return &Panel{
		out:     out,
		current: cfg,
		pending: cfg,
		held:    make(map[Pad]bool, 2),
	}
}

// Press handles one keypad key and reports whether it changed anything.
func (p *Panel) Press(k Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case k >= '0' && k <= '9':
		p.pending.Freq = setDigit(p.pending.Freq, p.cursor, int(k-'0'))
		if p.cursor < Digits-1 {
			p.cursor++
		}
	case k == KeySine:
		p.pending.Shape = wave.ShapeSine
	case k == KeyTriangle:
		p.pending.Shape = wave.ShapeTriangle
	case k == KeyLeft:
		if p.cursor > 0 {
			p.cursor--
		}
	case k == KeyEnter:
		p.enter()
	default:
		return false
	}
	return true
}

// enter commits a pending waveform whose frequency is in range. An out of
// range frequency is clamped on the pending line and needs a second '#'.
func (p *Panel) enter() {
	switch {
	case p.pending.Freq > wave.MaxFreq:
		p.pending.Freq = wave.MaxFreq
	case p.pending.Freq < wave.MinFreq:
		p.pending.Freq = wave.MinFreq
	default:
		p.current = p.pending
		p.out.Set(p.current)
	}
	p.cursor = 0
}

// Commit stores cfg as both running and pending waveform and forwards it,
// as a remote write would. The cursor is left where it is.
func (p *Panel) Commit(cfg wave.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = cfg
	p.pending = cfg
	p.out.Set(cfg)
}

// Touch reports a pad as pressed. The amplitude steps once per press; a pad
// must be released before it steps again.
func (p *Panel) Touch(pad Pad) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held[pad] {
		return false
	}
	p.held[pad] = true
	amp := p.pending.Amp
	if pad == PadLeft {
		amp++
	} else {
		amp--
	}
	if amp < 0 || amp > wave.AmpSteps {
		return false
	}
	p.pending.Amp = amp
	return true
}

// Release reports a pad as no longer touched.
func (p *Panel) Release(pad Pad) {
	p.mu.Lock()
	p.held[pad] = false
	p.mu.Unlock()
}

func (p *Panel) Current() wave.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Panel) Pending() wave.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Cursor returns the digit under edit, 0 being the ten-thousands digit.
func (p *Panel) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// CursorColumn returns the display column of the cursor on line 2.
func (p *Panel) CursorColumn() int {
	return freqColumn + p.Cursor()
}

// Lines renders the display: the running amplitude and frequency on line 1,
// the pending shape and frequency on line 2. The firmware showed the running
// shape on line 2; the pending one is shown here so A and B give feedback
// before '#'.
//
//	A:20   F:00100Hz
//	SINE   F:00100Hz
func (p *Panel) Lines() [2]string {
	p.mu.Lock()
	cur, pen := p.current, p.pending
	p.mu.Unlock()
	return [2]string{
		fmt.Sprintf("A:%-5dF:%05dHz", cur.Amp, cur.Freq),
		fmt.Sprintf("%-7sF:%05dHz", shapeLabel(pen.Shape), pen.Freq),
	}
}

func shapeLabel(s wave.Shape) string {
	if s == wave.ShapeTriangle {
		return "TRI"
	}
	return "SINE"
}

// setDigit replaces decimal digit pos (0 = ten-thousands) of v with d.
func setDigit(v, pos, d int) int {
	place := 1
	for i := pos; i < Digits-1; i++ {
		place *= 10
	}
	old := v / place % 10
	return v + (d-old)*place
}
