// Command fgen_ui is a graphical front panel for the function generator: a
// two-line LCD, the 4x4 keypad, the two touch pads and an oscilloscope of
// the DAC and analog outputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/funcgen-go"
	"github.com/cbegin/funcgen-go/internal/analog"
	"github.com/cbegin/funcgen-go/internal/audio"
	"github.com/cbegin/funcgen-go/internal/config"
	"github.com/cbegin/funcgen-go/internal/dma"
	"github.com/cbegin/funcgen-go/internal/httpapi"
	"github.com/cbegin/funcgen-go/internal/panel"
	"github.com/cbegin/funcgen-go/internal/wave"
)

const (
	windowW = 900
	windowH = 640

	glyphW    = 6
	glyphH    = 16
	textScale = 2
	lcdScale  = 4
	charW     = glyphW * textScale
	lineH     = glyphH * textScale
)

var keypad = [4][4]panel.Key{
	{'1', '2', '3', panel.KeySine},
	{'4', '5', '6', panel.KeyTriangle},
	{'7', '8', '9', 'C'},
	{'*', '0', panel.KeyEnter, panel.KeyLeft},
}

type uiLayout struct {
	lcd      image.Rectangle
	keys     [4][4]image.Rectangle
	pads     [2]image.Rectangle
	scope    image.Rectangle
	volume   image.Rectangle
	status   image.Rectangle
	legendAt image.Point
}

type game struct {
	gen    *funcgen.Generator
	front  *panel.Panel
	out    *audio.Output
	player *audio.Player
	gain   *analog.Gain
	cancel context.CancelFunc

	dac    *scope
	analog *scope

	text           *textRenderer
	scopeImg       *ebiten.Image
	draggingVolume bool
	layout         uiLayout
}

func newGame(cfg config.Config) (*game, error) {
	start, err := cfg.WaveConfig()
	if err != nil {
		return nil, err
	}
	sineFn, err := cfg.SineFunc()
	if err != nil {
		return nil, err
	}

	g := &game{
		gain:   analog.NewGain(float32(cfg.Audio.Volume)),
		dac:    newScope(),
		analog: newScope(),
		text:   newTextRenderer(),
		layout: computeLayout(),
	}

	sink := dma.Tee{g.dac}
	if cfg.Output == config.OutputAudio {
		chain := analog.NewChain(
			analog.NewLowPass(wave.SampleRate, cfg.Analog.CutoffHz),
			analog.NewDCBlock(wave.SampleRate),
			g.gain,
		)
		g.out = audio.NewOutput(cfg.Audio.FIFOBlocks,
			audio.WithChain(chain),
			audio.WithTap(g.analog.Tap),
			audio.WithLogger(log.Default()),
		)
		g.player, err = audio.NewPlayer(wave.SampleRate, g.out)
		if err != nil {
			return nil, err
		}
		sink = append(sink, g.out)
	}

	g.gen, err = funcgen.New(
		funcgen.WithConfig(start),
		funcgen.WithSine(sineFn),
		funcgen.WithSink(sink),
		funcgen.WithLogger(log.Default()),
	)
	if err != nil {
		return nil, err
	}
	g.front = panel.New(g.gen.Shared(), start)

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	if cfg.HTTP.Addr != "" {
		srv := httpapi.New(g.gen.Shared(),
			httpapi.WithPanel(g.front),
			httpapi.WithStatus(func() interface{} { return g.gen.Stats() }),
			httpapi.WithLogger(log.Default()),
		)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTP.Addr); err != nil {
				log.Printf("remote panel: %v", err)
			}
		}()
	}
	if err := g.gen.Start(ctx); err != nil {
		cancel()
		return nil, err
	}
	if g.player != nil {
		g.player.Play()
	}
	return g, nil
}

func (g *game) Close() {
	g.cancel()
	if err := g.gen.Stop(); err != nil {
		log.Printf("stop: %v", err)
	}
	if g.player != nil {
		_ = g.player.Stop()
	}
}

func computeLayout() uiLayout {
	var l uiLayout
	l.lcd = image.Rect(16, 16, windowW-16, 16+2*glyphH*lcdScale+24)

	keyTop := l.lcd.Max.Y + 16
	const keyW, keyH, gap = 72, 52, 8
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			x := 16 + c*(keyW+gap)
			y := keyTop + r*(keyH+gap)
			l.keys[r][c] = image.Rect(x, y, x+keyW, y+keyH)
		}
	}
	padLeft := 16 + 4*(keyW+gap) + 24
	padH := 4*(keyH+gap) - gap
	l.pads[panel.PadLeft] = image.Rect(padLeft, keyTop, padLeft+96, keyTop+padH)
	l.pads[panel.PadRight] = image.Rect(padLeft+112, keyTop, padLeft+208, keyTop+padH)

	scopeLeft := padLeft + 232
	l.scope = image.Rect(scopeLeft, keyTop, windowW-16, keyTop+padH)
	l.legendAt = image.Pt(scopeLeft+8, keyTop+6)

	l.volume = image.Rect(16, keyTop+padH+16, windowW-16, keyTop+padH+56)
	l.status = image.Rect(16, windowH-48, windowW-16, windowH-12)
	return l
}

func (g *game) Update() error {
	g.handleKeyboard()
	g.handleMouse()
	return nil
}

func (g *game) handleKeyboard() {
	for _, r := range ebiten.AppendInputChars(nil) {
		switch r {
		case '<', ',':
			g.tap(panel.PadLeft)
		case '>', '.':
			g.tap(panel.PadRight)
		default:
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			g.front.Press(panel.Key(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		g.front.Press(panel.KeyEnter)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.front.Press(panel.KeyLeft)
	}
}

func (g *game) tap(pad panel.Pad) {
	g.front.Touch(pad)
	g.front.Release(pad)
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	l := g.layout

	// Pads are level-triggered here; the panel turns a held pad into one step.
	for pad, rect := range l.pads {
		if down && pointInRect(mx, my, rect) {
			g.front.Touch(panel.Pad(pad))
		} else {
			g.front.Release(panel.Pad(pad))
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		for r := range l.keys {
			for c, rect := range l.keys[r] {
				if pointInRect(mx, my, rect) {
					g.front.Press(keypad[r][c])
					return
				}
			}
		}
		if pointInRect(mx, my, l.volume) {
			g.draggingVolume = true
		}
	}
	if !down {
		g.draggingVolume = false
	}
	if g.draggingVolume {
		g.updateVolumeFromMouse(mx)
	}
}

func (g *game) volumeTrack() (int, int) {
	return g.layout.volume.Min.X + 150, g.layout.volume.Dx() - 166
}

func (g *game) updateVolumeFromMouse(mx int) {
	trackX, trackW := g.volumeTrack()
	if trackW <= 0 {
		return
	}
	g.gain.Set(float32(clamp(float64(mx-trackX)/float64(trackW), 0, 1)))
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := g.layout

	g.drawLCD(screen, l.lcd)
	for r := range l.keys {
		for c, rect := range l.keys[r] {
			drawPanel(screen, rect)
			label := string(rune(keypad[r][c]))
			g.text.draw(screen, label, rect.Min.X+(rect.Dx()-charW)/2, rect.Min.Y+(rect.Dy()-lineH)/2, textScale, textColorWhite, true)
		}
	}
	g.drawPad(screen, panel.PadLeft, "AMP+")
	g.drawPad(screen, panel.PadRight, "AMP-")
	g.drawScope(screen, l.scope)
	g.drawVolume(screen, l.volume)
	g.drawStatus(screen, l.status)
}

func (g *game) drawLCD(screen *ebiten.Image, rect image.Rectangle) {
	drawSunkenPanel(screen, rect, lcdColor)
	lines := g.front.Lines()
	cellW := glyphW * lcdScale
	x := rect.Min.X + (rect.Dx()-panel.Width*cellW)/2
	y := rect.Min.Y + 12
	for i, line := range lines {
		g.text.draw(screen, line, x, y+i*glyphH*lcdScale, lcdScale, lcdTextColor, false)
	}
	// Cursor under the digit being edited on line 2.
	cx := x + g.front.CursorColumn()*cellW
	cy := y + 2*glyphH*lcdScale - 6
	ebitenutil.DrawRect(screen, float64(cx), float64(cy), float64(cellW-2), 4, lcdTextColor)
}

func (g *game) drawPad(screen *ebiten.Image, pad panel.Pad, label string) {
	rect := g.layout.pads[pad]
	fill := padColor
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if mx, my := ebiten.CursorPosition(); pointInRect(mx, my, rect) {
			fill = padHeldColor
		}
	}
	drawSunkenPanel(screen, rect, fill)
	w := len(label) * charW
	g.text.draw(screen, label, rect.Min.X+(rect.Dx()-w)/2, rect.Min.Y+(rect.Dy()-lineH)/2, textScale, textColorWhite, true)
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	drawSunkenPanel(screen, rect, sunkenBgColor)
	inner := rect.Inset(3)
	w, h := inner.Dx(), inner.Dy()
	if w < 4 || h < 8 {
		return
	}
	if g.scopeImg == nil || g.scopeImg.Bounds().Dx() != w || g.scopeImg.Bounds().Dy() != h {
		g.scopeImg = ebiten.NewImage(w, h)
	}
	g.scopeImg.Clear()
	for i := 1; i < 4; i++ {
		ebitenutil.DrawRect(g.scopeImg, 0, float64(h*i/4), float64(w), 1, gridColor)
	}

	// Both traces span 0..VRef volts; the analog trace is re-centred on
	// the midpoint.
	dac := g.dac.Snapshot(scopeLen / 2)
	mid := float32(wave.VRef / 2)
	trig := findRisingCrossing(dac, mid, len(dac)/2)
	drawTrace(g.scopeImg, dac[trig:], w, h, 0, dacTraceColor)
	if g.out != nil {
		an := g.analog.Snapshot(scopeLen / 2)
		drawTrace(g.scopeImg, an[findRisingCrossing(an, 0, len(an)/2):], w, h, mid, analogColor)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(inner.Min.X), float64(inner.Min.Y))
	screen.DrawImage(g.scopeImg, op)
	g.text.draw(screen, "DAC", g.layout.legendAt.X, g.layout.legendAt.Y, 1, dacTraceColor, false)
	if g.out != nil {
		g.text.draw(screen, "OUT", g.layout.legendAt.X+32, g.layout.legendAt.Y, 1, analogColor, false)
	}
}

// drawTrace plots samples+offset against a 0..VRef vertical scale, showing
// about two milliseconds.
func drawTrace(dst *ebiten.Image, samples []float32, width, height int, offset float32, c color.Color) {
	visible := wave.SampleRate / 500
	if len(samples) < visible {
		visible = len(samples)
	}
	if visible < 2 {
		return
	}
	y := func(v float32) float64 {
		return float64(height-1) - float64((v+offset)/float32(wave.VRef))*float64(height-2)
	}
	prevX, prevY := 0.0, y(samples[0])
	for px := 1; px < width; px++ {
		si := px * visible / width
		cy := y(samples[si])
		ebitenutil.DrawLine(dst, prevX, prevY, float64(px), cy, c)
		prevX, prevY = float64(px), cy
	}
}

func (g *game) drawVolume(screen *ebiten.Image, rect image.Rectangle) {
	drawPanel(screen, rect)
	vol := float64(g.gain.Value())
	g.text.draw(screen, fmt.Sprintf("Vol %3d%%", int(vol*100+0.5)), rect.Min.X+8, rect.Min.Y+4, textScale, textColorWhite, true)

	trackX, trackW := g.volumeTrack()
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	fillW := int(float64(trackW) * clamp(vol, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := trackX + fillW - 5
	knob := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	fillRect(screen, knob, panelColor)
	drawBorder(screen, knob)
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	drawSunkenPanel(screen, rect, sunkenBgColor)
	st := g.gen.Stats()
	msg := fmt.Sprintf("%s  blocks %d  transfers %d  overflows %d", st.State, st.Blocks, st.Transfers, st.Overflows)
	if g.out != nil {
		msg += fmt.Sprintf("  fifo %d  underflows %d", g.out.Buffered(), g.out.Underflows())
	}
	g.text.draw(screen, msg, rect.Min.X+8, rect.Min.Y+4, 1.5, textColorWhite, false)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

func main() {
	var (
		configPath = flag.String("config", config.FileName, "YAML config file (missing is fine)")
		output     = flag.String("output", "", "audio|discard (overrides config)")
		httpAddr   = flag.String("http", "", "remote panel listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	g, err := newGame(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("funcgen-go")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
