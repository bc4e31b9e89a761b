package funcgen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cbegin/funcgen-go/internal/dma"
	"github.com/cbegin/funcgen-go/internal/wave"
)

// gatedSink holds each transfer after the primed pair until the producer
// has refilled the block it is about to read, so the recording does not
// depend on scheduling.
type gatedSink struct {
	rec       *dma.Recorder
	generated chan struct{}
	n         int
}

func newGatedSink() *gatedSink {
	return &gatedSink{rec: dma.NewRecorder(0), generated: make(chan struct{}, 4096)}
}

func (s *gatedSink) hook(int, wave.Config) { s.generated <- struct{}{} }

func (s *gatedSink) WriteCodes(codes []uint16) {
	if s.n >= 2 {
		select {
		case <-s.generated:
		case <-time.After(time.Second):
		}
	}
	s.n++
	s.rec.WriteCodes(codes)
}

func waitForCodes(t *testing.T, rec *dma.Recorder, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(rec.Codes()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("recorded %d codes, want %d", len(rec.Codes()), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(WithConfig(wave.Config{Freq: 5, Amp: 20}))
	if !errors.Is(err, wave.ErrFreqRange) {
		t.Fatalf("err = %v, want ErrFreqRange", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := g.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("stop before start = %v, want ErrNotRunning", err)
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Fatalf("second start = %v, want ErrRunning", err)
	}
	if !g.Running() {
		t.Fatalf("not running after start")
	}
	if err := g.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if g.Running() {
		t.Fatalf("running after stop")
	}
	if st := g.Stats(); st.State != "idle" {
		t.Fatalf("state after stop = %q, want idle", st.State)
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := g.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestPipelineMatchesOfflineRender(t *testing.T) {
	cfg := wave.Config{Freq: 1000, Amp: 15, Shape: wave.ShapeSine}
	sink := newGatedSink()
	g, err := New(WithConfig(cfg), WithSink(sink), WithBlockHook(sink.hook), WithBlockPeriod(200*time.Microsecond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	const blocks = 12
	waitForCodes(t, sink.rec, blocks*wave.BlockSize)
	if err := g.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got := sink.rec.Codes()[:blocks*wave.BlockSize]
	want := RenderCodes(cfg, blocks, nil)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
	st := g.Stats()
	if st.Transfers < blocks || st.Completions != st.Transfers {
		t.Fatalf("stats = %+v", st)
	}
	if st.Overflows != 0 {
		t.Fatalf("overflows = %d with a gated sink", st.Overflows)
	}
}

func TestSetConfigReachesNextBlocks(t *testing.T) {
	sink := newGatedSink()
	g, err := New(WithSink(sink), WithBlockHook(sink.hook), WithBlockPeriod(200*time.Microsecond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := g.SetConfig(wave.Config{Freq: 5}); !errors.Is(err, wave.ErrFreqRange) {
		t.Fatalf("invalid set = %v, want ErrFreqRange", err)
	}
	if err := g.SetConfig(wave.Config{Freq: 440, Amp: 0, Shape: wave.ShapeTriangle}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if g.Config().Freq != 440 {
		t.Fatalf("config = %+v", g.Config())
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForCodes(t, sink.rec, 4*wave.BlockSize)
	if err := g.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	for i, c := range sink.rec.Codes() {
		if c != wave.MidpointCode {
			t.Fatalf("code %d = %d, want silent midpoint", i, c)
		}
	}
}

func TestStopAfterParentCancel(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := g.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
	if err := g.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
