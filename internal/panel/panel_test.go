package panel

import (
	"testing"

	"github.com/cbegin/funcgen-go/internal/wave"
)

type recordingSetter struct {
	sets []wave.Config
}

func (r *recordingSetter) Set(cfg wave.Config) { r.sets = append(r.sets, cfg) }

func press(p *Panel, keys string) {
	for _, k := range keys {
		p.Press(Key(k))
	}
}

func TestDigitEntryCommits(t *testing.T) {
	out := &recordingSetter{}
	p := New(out, wave.DefaultConfig())

	press(p, "01234#")
	want := wave.Config{Freq: 1234, Amp: 20, Shape: wave.ShapeSine}
	if len(out.sets) != 1 || out.sets[0] != want {
		t.Fatalf("sets = %+v, want [%+v]", out.sets, want)
	}
	if p.Current() != want {
		t.Fatalf("current = %+v, want %+v", p.Current(), want)
	}
	if p.Cursor() != 0 {
		t.Fatalf("cursor after # = %d, want 0", p.Cursor())
	}
}

func TestCursorStopsAtLastDigit(t *testing.T) {
	p := New(&recordingSetter{}, wave.DefaultConfig())
	press(p, "0000123")
	if p.Pending().Freq != 3 {
		t.Fatalf("pending freq = %d, want 3", p.Pending().Freq)
	}
	if p.Cursor() != Digits-1 {
		t.Fatalf("cursor = %d, want %d", p.Cursor(), Digits-1)
	}
}

func TestCursorLeftOverwritesDigit(t *testing.T) {
	p := New(&recordingSetter{}, wave.Config{Freq: 100, Amp: 5, Shape: wave.ShapeSine})
	press(p, "05DD")
	if p.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0", p.Cursor())
	}
	press(p, "D") // stays at the first digit
	press(p, "1")
	if got := p.Pending().Freq; got != 15100 {
		t.Fatalf("pending freq = %d, want 15100", got)
	}
}

func TestEnterClampsWithoutCommitting(t *testing.T) {
	cases := []struct {
		keys string
		want int
	}{
		{"20000#", wave.MaxFreq},
		{"00005#", wave.MinFreq},
	}
	for _, tc := range cases {
		out := &recordingSetter{}
		p := New(out, wave.DefaultConfig())
		press(p, tc.keys)
		if len(out.sets) != 0 {
			t.Fatalf("%s: committed %+v", tc.keys, out.sets)
		}
		if got := p.Pending().Freq; got != tc.want {
			t.Fatalf("%s: pending freq = %d, want %d", tc.keys, got, tc.want)
		}
		if p.Current() != wave.DefaultConfig() {
			t.Fatalf("%s: current changed to %+v", tc.keys, p.Current())
		}
		press(p, "#")
		if len(out.sets) != 1 || out.sets[0].Freq != tc.want {
			t.Fatalf("%s: second # committed %+v", tc.keys, out.sets)
		}
	}
}

func TestShapeKeysEditPendingOnly(t *testing.T) {
	out := &recordingSetter{}
	p := New(out, wave.DefaultConfig())
	press(p, "B")
	if p.Pending().Shape != wave.ShapeTriangle || p.Current().Shape != wave.ShapeSine {
		t.Fatalf("pending=%v current=%v", p.Pending().Shape, p.Current().Shape)
	}
	press(p, "#")
	if out.sets[0].Shape != wave.ShapeTriangle {
		t.Fatalf("committed shape = %v", out.sets[0].Shape)
	}
	press(p, "A#")
	if out.sets[1].Shape != wave.ShapeSine {
		t.Fatalf("committed shape = %v", out.sets[1].Shape)
	}
}

func TestUnknownKeysIgnored(t *testing.T) {
	p := New(&recordingSetter{}, wave.DefaultConfig())
	for _, k := range "C*xZ" {
		if p.Press(Key(k)) {
			t.Fatalf("key %q reported a change", k)
		}
	}
	if p.Pending() != wave.DefaultConfig() || p.Cursor() != 0 {
		t.Fatalf("state changed: %+v cursor %d", p.Pending(), p.Cursor())
	}
}

func TestTouchStepsAmplitudeOncePerPress(t *testing.T) {
	p := New(&recordingSetter{}, wave.Config{Freq: 100, Amp: 10, Shape: wave.ShapeSine})
	if !p.Touch(PadRight) {
		t.Fatalf("first touch ignored")
	}
	if p.Touch(PadRight) {
		t.Fatalf("held pad stepped again")
	}
	p.Release(PadRight)
	p.Touch(PadRight)
	if got := p.Pending().Amp; got != 8 {
		t.Fatalf("amp = %d, want 8", got)
	}
	p.Touch(PadLeft)
	if got := p.Pending().Amp; got != 9 {
		t.Fatalf("amp = %d, want 9", got)
	}
	if p.Current().Amp != 10 {
		t.Fatalf("touch changed the running amplitude")
	}
}

func TestTouchClampsAmplitude(t *testing.T) {
	p := New(&recordingSetter{}, wave.Config{Freq: 100, Amp: wave.AmpSteps, Shape: wave.ShapeSine})
	if p.Touch(PadLeft) {
		t.Fatalf("amplitude went above %d", wave.AmpSteps)
	}
	p = New(&recordingSetter{}, wave.Config{Freq: 100, Amp: 0, Shape: wave.ShapeSine})
	if p.Touch(PadRight) || p.Pending().Amp != 0 {
		t.Fatalf("amplitude went below 0")
	}
}

func TestLines(t *testing.T) {
	p := New(&recordingSetter{}, wave.DefaultConfig())
	press(p, "0044B")
	lines := p.Lines()
	if lines[0] != "A:20   F:00100Hz" {
		t.Fatalf("line 1 = %q", lines[0])
	}
	if lines[1] != "TRI    F:00440Hz" {
		t.Fatalf("line 2 = %q", lines[1])
	}
	for _, l := range lines {
		if len(l) != Width {
			t.Fatalf("line %q is %d wide, want %d", l, len(l), Width)
		}
	}
	if p.CursorColumn() != 13 {
		t.Fatalf("cursor column = %d, want 13", p.CursorColumn())
	}
}

func TestSetDigit(t *testing.T) {
	for _, tc := range []struct{ v, pos, d, want int }{
		{100, 0, 1, 10100},
		{100, 2, 5, 500},
		{99999, 4, 0, 99990},
		{12345, 1, 9, 19345},
	} {
		if got := setDigit(tc.v, tc.pos, tc.d); got != tc.want {
			t.Errorf("setDigit(%d, %d, %d) = %d, want %d", tc.v, tc.pos, tc.d, got, tc.want)
		}
	}
}

func TestCommitUpdatesBothLines(t *testing.T) {
	out := &recordingSetter{}
	p := New(out, wave.DefaultConfig())
	press(p, "12")
	cfg := wave.Config{Freq: 2500, Amp: 7, Shape: wave.ShapeTriangle}
	p.Commit(cfg)
	if len(out.sets) != 1 || out.sets[0] != cfg {
		t.Fatalf("sets = %+v", out.sets)
	}
	if p.Current() != cfg || p.Pending() != cfg {
		t.Fatalf("current=%+v pending=%+v", p.Current(), p.Pending())
	}
	if p.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", p.Cursor())
	}
}

func TestParsePad(t *testing.T) {
	for name, want := range map[string]Pad{"left": PadLeft, "RIGHT": PadRight} {
		got, err := ParsePad(name)
		if err != nil || got != want {
			t.Fatalf("ParsePad(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParsePad("middle"); err == nil {
		t.Fatalf("ParsePad(middle) succeeded")
	}
}
