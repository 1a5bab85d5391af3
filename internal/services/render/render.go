// Package render draws waveform peaks onto a 2D raster surface. The draw
// routine is pure: it holds no state, reads no clocks, and produces
// byte-identical output for identical inputs, so it is safe to call on every
// animation frame and trivially testable.
package render

import (
	"image"
	"image/color"
	"math"
	"time"
)

const (
	// barFill is the fraction of each slot occupied by the bar; the rest is
	// margin separating neighbouring bars.
	barFill = 0.75

	// heightExponent compresses small amplitudes less than a linear mapping
	// would, keeping quiet passages visible.
	heightExponent = 0.9

	// altBarScale is applied to odd-index bars for visual texture. It is a
	// deterministic function of the bar index so repeated draws are
	// pixel-stable.
	altBarScale = 0.92

	// pulseWindowSlots is how many slot-widths around the playhead take the
	// oscillating pulse.
	pulseWindowSlots = 7.0

	// pulseMaxAmp is the peak scale contribution of the pulse at the playhead
	pulseMaxAmp = 0.15

	// pulsePeriod drives the sinusoidal pulse and the buffering band opacity
	pulsePeriod = 600 * time.Millisecond

	// bufferBandWidth is the pixel width of the buffering indicator drawn
	// just ahead of the playhead.
	bufferBandWidth = 12
)

// Geometry describes the target surface
type Geometry struct {
	Width  int
	Height int
}

// LiveState is the per-frame playback state driving the draw.
// Now is the only animation input: callers supply wall-clock time explicitly
// so two draws at the same instant are identical.
type LiveState struct {
	PlayedPx    float64
	IsPlaying   bool
	IsBuffering bool
	HighQuality bool
	Now         time.Time
}

var (
	background = color.RGBA{18, 18, 24, 255}

	playedTop      = color.RGBA{255, 94, 58, 255}  // saturated accent
	playedBottom   = color.RGBA{255, 149, 128, 255}
	playedHQTop    = color.RGBA{255, 170, 30, 255} // warmer tone for lossless sources
	playedHQBottom = color.RGBA{255, 210, 120, 255}
	unplayedTop    = color.RGBA{90, 94, 110, 255}
	unplayedBottom = color.RGBA{60, 63, 75, 255}

	playheadColor = color.RGBA{255, 255, 255, 255}
	bufferColor   = color.RGBA{255, 255, 255, 255}
)

// Render draws the peaks array onto img. The image is cleared first, so the
// call is idempotent for a given input set.
func Render(img *image.RGBA, peaks []float64, geo Geometry, state LiveState) {
	if geo.Width <= 0 || geo.Height <= 0 || len(peaks) == 0 {
		return
	}

	fillRect(img, 0, 0, geo.Width, geo.Height, background)

	playedPx := clamp(state.PlayedPx, 0, float64(geo.Width))
	slotW := float64(geo.Width) / float64(len(peaks))
	barW := slotW * barFill
	phase := pulsePhase(state.Now)
	animate := state.IsPlaying || state.IsBuffering

	for i, amp := range peaks {
		a := clamp(amp, 0, 1)

		h := float64(geo.Height) * math.Pow(a, heightExponent)
		if i%2 == 1 {
			h *= altBarScale
		}

		if animate {
			h *= pulseScale(float64(i), playedPx/slotW, phase)
		}
		if h > float64(geo.Height) {
			h = float64(geo.Height)
		}

		x0 := float64(i)*slotW + (slotW-barW)/2
		x1 := x0 + barW
		y0 := (float64(geo.Height) - h) / 2
		y1 := y0 + h

		top, bottom := unplayedTop, unplayedBottom
		if float64(i)*slotW+slotW/2 < playedPx {
			if state.HighQuality {
				top, bottom = playedHQTop, playedHQBottom
			} else {
				top, bottom = playedTop, playedBottom
			}
		}

		drawGradientBar(img, int(x0), int(y0), int(x1), int(y1), top, bottom)
	}

	drawPlayhead(img, geo, int(playedPx))

	if state.IsBuffering {
		drawBufferBand(img, geo, int(playedPx), phase)
	}
}

// pulsePhase maps wall-clock time to a [0,1) animation phase
func pulsePhase(now time.Time) float64 {
	ms := now.UnixMilli() % pulsePeriod.Milliseconds()
	return float64(ms) / float64(pulsePeriod.Milliseconds())
}

// pulseScale returns the oscillating scale factor for a bar near the
// playhead. The effect amplitude decays linearly with slot distance and is
// zero outside the window.
func pulseScale(slot, playheadSlot, phase float64) float64 {
	dist := math.Abs(slot - playheadSlot)
	if dist >= pulseWindowSlots {
		return 1
	}
	amp := pulseMaxAmp * (1 - dist/pulseWindowSlots)
	return 1 + amp*math.Sin(2*math.Pi*phase)
}

// drawGradientBar fills [x0,x1)x[y0,y1) with a vertical gradient
func drawGradientBar(img *image.RGBA, x0, y0, x1, y1 int, top, bottom color.RGBA) {
	if y1 <= y0 || x1 <= x0 {
		return
	}
	span := float64(y1 - y0)
	for y := y0; y < y1; y++ {
		t := float64(y-y0) / span
		c := lerpColor(top, bottom, t)
		for x := x0; x < x1; x++ {
			setPixel(img, x, y, c)
		}
	}
}

// drawPlayhead draws a thin vertical line with a soft horizontal glow
func drawPlayhead(img *image.RGBA, geo Geometry, x int) {
	for dx := -3; dx <= 3; dx++ {
		alpha := 255 - 70*abs(dx)
		if alpha < 0 {
			continue
		}
		if dx != 0 {
			alpha /= 3
		}
		c := playheadColor
		c.A = uint8(alpha)
		for y := 0; y < geo.Height; y++ {
			blendPixel(img, x+dx, y, c)
		}
	}
}

// drawBufferBand draws a pulsing opacity band just ahead of the playhead
// while buffering.
func drawBufferBand(img *image.RGBA, geo Geometry, playheadX int, phase float64) {
	// Opacity oscillates between 15% and 45%
	alpha := uint8(38 + 38*(1+math.Sin(2*math.Pi*phase)))
	c := bufferColor
	c.A = alpha

	for x := playheadX + 2; x < playheadX+2+bufferBandWidth && x < geo.Width; x++ {
		for y := 0; y < geo.Height; y++ {
			blendPixel(img, x, y, c)
		}
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			setPixel(img, x, y, c)
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{x, y}).In(img.Rect) {
		return
	}
	img.SetRGBA(x, y, c)
}

// blendPixel composites c over the existing pixel using its alpha
func blendPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{x, y}).In(img.Rect) {
		return
	}
	dst := img.RGBAAt(x, y)
	a := uint32(c.A)
	inv := 255 - a
	blended := color.RGBA{
		R: uint8((uint32(c.R)*a + uint32(dst.R)*inv) / 255),
		G: uint8((uint32(c.G)*a + uint32(dst.G)*inv) / 255),
		B: uint8((uint32(c.B)*a + uint32(dst.B)*inv) / 255),
		A: 255,
	}
	img.SetRGBA(x, y, blended)
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
