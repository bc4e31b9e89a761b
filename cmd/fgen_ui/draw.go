package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

var (
	bgColor         = color.RGBA{192, 192, 192, 255}
	panelColor      = color.RGBA{192, 192, 192, 255}
	borderColor     = color.RGBA{128, 128, 128, 255}
	bevelLight      = color.RGBA{255, 255, 255, 255}
	bevelDarker     = color.RGBA{64, 64, 64, 255}
	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	sliderFillColor = color.RGBA{0, 0, 128, 255}

	lcdColor       = color.RGBA{96, 128, 40, 255}
	lcdTextColor   = color.RGBA{16, 24, 8, 255}
	padColor       = color.RGBA{168, 168, 176, 255}
	padHeldColor   = color.RGBA{220, 180, 60, 255}
	dacTraceColor  = color.RGBA{80, 200, 255, 220}
	analogColor    = color.RGBA{255, 160, 60, 200}
	gridColor      = color.RGBA{40, 44, 58, 255}
	textColorWhite = color.RGBA{255, 255, 255, 255}
)

func fillRect(dst *ebiten.Image, rect image.Rectangle, c color.Color) {
	ebitenutil.DrawRect(dst, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), c)
}

func drawPanel(dst *ebiten.Image, rect image.Rectangle) {
	fillRect(dst, rect, panelColor)
	drawBorder(dst, rect)
}

func drawSunkenPanel(dst *ebiten.Image, rect image.Rectangle, fill color.Color) {
	fillRect(dst, rect, fill)
	drawSunkenBorder(dst, rect)
}

// drawBorder draws a raised bevel: highlight top and left, shadow bottom
// and right.
func drawBorder(dst *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(dst, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(dst, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(dst, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(dst, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(dst, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(dst, x+w-2, y+1, 1, h-3, borderColor)
}

func drawSunkenBorder(dst *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(dst, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(dst, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(dst, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(dst, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(dst, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(dst, x+1, y+2, 1, h-4, bevelDarker)
}

// textRenderer caches debug-font renderings of strings.
type textRenderer struct {
	cache map[string]*ebiten.Image
}

func newTextRenderer() *textRenderer {
	return &textRenderer{cache: make(map[string]*ebiten.Image, 256)}
}

func (t *textRenderer) image(msg string) *ebiten.Image {
	img := t.cache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*glyphW)
		img = ebiten.NewImage(w, glyphH)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(t.cache) > 2000 {
			t.cache = make(map[string]*ebiten.Image, 256)
		}
		t.cache[msg] = img
	}
	return img
}

// draw renders msg at scale with an embossed shadow when shadow is set.
func (t *textRenderer) draw(dst *ebiten.Image, msg string, x, y int, scale float64, c color.Color, shadow bool) {
	if msg == "" {
		return
	}
	img := t.image(msg)
	if shadow {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(float64(x+2), float64(y+2))
		op.ColorScale.Scale(0, 0, 0, 1)
		dst.DrawImage(img, op)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	dst.DrawImage(img, op)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
