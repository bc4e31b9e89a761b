// Command fgen runs the function generator with a terminal front panel.
//
// Keys: 0-9 edit the frequency digit under the cursor, A sine, B triangle,
// D cursor left, # or Enter commit, < and > the left and right touch pads,
// + and - output volume, q quit.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/theckman/yacspin"
	"golang.org/x/term"

	"github.com/cbegin/funcgen-go"
	"github.com/cbegin/funcgen-go/internal/analog"
	"github.com/cbegin/funcgen-go/internal/audio"
	"github.com/cbegin/funcgen-go/internal/config"
	"github.com/cbegin/funcgen-go/internal/dma"
	"github.com/cbegin/funcgen-go/internal/httpapi"
	"github.com/cbegin/funcgen-go/internal/panel"
	"github.com/cbegin/funcgen-go/internal/wave"
)

func main() {
	var (
		configPath = flag.String("config", config.FileName, "YAML config file (missing is fine)")
		freq       = flag.Int("freq", 0, "start frequency in Hz (overrides config)")
		amp        = flag.Int("amp", -1, "start amplitude 0..20 (overrides config)")
		shape      = flag.String("shape", "", "start shape: sine|triangle (overrides config)")
		output     = flag.String("output", "", "audio|discard (overrides config)")
		sine       = flag.String("sine", "", "sine primitive: table|float (overrides config)")
		httpAddr   = flag.String("http", "", "remote panel listen address (overrides config)")
		volume     = flag.Float64("volume", -1, "output volume 0..1 (overrides config)")
		duration   = flag.Duration("duration", 0, "stop after this long (0 = until q)")
		render     = flag.String("render", "", "write a WAV of the start waveform to this file and exit")
		blocks     = flag.Int("blocks", 750, "blocks to render with -render")
		mkconf     = flag.Bool("mkconf", false, "print the effective config as YAML and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *freq > 0 {
		cfg.Wave.Freq = *freq
	}
	if *amp >= 0 {
		cfg.Wave.Amp = *amp
	}
	if *shape != "" {
		cfg.Wave.Shape = *shape
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *sine != "" {
		cfg.Sine = *sine
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if *volume >= 0 {
		cfg.Audio.Volume = *volume
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if *mkconf {
		if err := config.Write(os.Stdout, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	start, _ := cfg.WaveConfig()
	sineFn, _ := cfg.SineFunc()

	if *render != "" {
		codes := funcgen.RenderCodes(start, *blocks, sineFn)
		if err := os.WriteFile(*render, funcgen.EncodeWAVPCM16(codes, wave.SampleRate), 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %d samples of %s %d Hz to %s\n", len(codes), start.Shape, start.Freq, *render)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}
	if err := run(ctx, cfg, start, sineFn); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, start wave.Config, sineFn wave.SineFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Raw mode drops the CR from newlines; the log and the spinner share
	// stderr.
	logger := log.New(crlfWriter{os.Stderr}, "fgen: ", log.LstdFlags)

	gain := analog.NewGain(float32(cfg.Audio.Volume))
	var sink dma.Sink = dma.Discard
	var out *audio.Output
	if cfg.Output == config.OutputAudio {
		chain := analog.NewChain(
			analog.NewLowPass(wave.SampleRate, cfg.Analog.CutoffHz),
			analog.NewDCBlock(wave.SampleRate),
			gain,
		)
		out = audio.NewOutput(cfg.Audio.FIFOBlocks, audio.WithChain(chain), audio.WithLogger(logger))
		player, err := audio.NewPlayer(wave.SampleRate, out)
		if err != nil {
			return err
		}
		defer player.Stop()
		player.Play()
		sink = out
	}

	gen, err := funcgen.New(
		funcgen.WithConfig(start),
		funcgen.WithSine(sineFn),
		funcgen.WithSink(sink),
		funcgen.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	front := panel.New(gen.Shared(), start)

	if cfg.HTTP.Addr != "" {
		srv := httpapi.New(gen.Shared(),
			httpapi.WithPanel(front),
			httpapi.WithStatus(func() interface{} { return gen.Stats() }),
			httpapi.WithLogger(logger),
		)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTP.Addr); err != nil {
				logger.Printf("remote panel: %v", err)
			}
		}()
	}

	if err := gen.Start(ctx); err != nil {
		return err
	}
	defer gen.Stop()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		restore, err := readKeys(cancel, front, gain)
		if err != nil {
			return err
		}
		defer restore()
	}

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:     100 * time.Millisecond,
		CharSet:       yacspin.CharSets[14],
		Suffix:        " ",
		Writer:        os.Stderr,
		StopCharacter: "-",
		StopMessage:   "stopped",
	})
	if err != nil {
		return fmt.Errorf("status line: %w", err)
	}
	if err := spinner.Start(); err != nil {
		return fmt.Errorf("status line: %w", err)
	}
	defer spinner.Stop()

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		spinner.Message(statusLine(front, gen.Stats(), out))
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

// readKeys puts stdin in raw mode and feeds key bytes to the panel. The
// reader goroutine stays blocked in Read after run returns and exits with the
// process. The returned func restores the terminal.
func readKeys(quit context.CancelFunc, front *panel.Panel, gain *analog.Gain) (func(), error) {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("keypad: %w", err)
	}
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					quit()
				}
				return
			}
			if n == 0 {
				continue
			}
			switch b := buf[0]; b {
			case 'q', 'Q', 0x03, 0x04:
				quit()
				return
			case '<', ',':
				front.Touch(panel.PadLeft)
				front.Release(panel.PadLeft)
			case '>', '.':
				front.Touch(panel.PadRight)
				front.Release(panel.PadRight)
			case '+', '=':
				gain.Set(clampVolume(gain.Value() + 0.05))
			case '-', '_':
				gain.Set(clampVolume(gain.Value() - 0.05))
			case '\r', '\n':
				front.Press(panel.KeyEnter)
			default:
				front.Press(panel.Key(bytes.ToUpper([]byte{b})[0]))
			}
		}
	}()
	return func() { _ = term.Restore(fd, old) }, nil
}

func clampVolume(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func statusLine(front *panel.Panel, st funcgen.Stats, out *audio.Output) string {
	lines := front.Lines()
	msg := fmt.Sprintf("[%s] [%s]  blocks %d", lines[0], withCursor(lines[1], front.CursorColumn()), st.Blocks)
	if out != nil {
		msg += fmt.Sprintf("  fifo %d underflow %d", out.Buffered(), out.Underflows())
	}
	return msg
}

// withCursor underlines the character at col with an ANSI escape.
func withCursor(line string, col int) string {
	if col < 0 || col >= len(line) {
		return line
	}
	var b strings.Builder
	b.WriteString(line[:col])
	b.WriteString("\x1b[4m")
	b.WriteByte(line[col])
	b.WriteString("\x1b[24m")
	b.WriteString(line[col+1:])
	return b.String()
}

type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
