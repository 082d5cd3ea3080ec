// Package raster draws overlays into PNG images with libvips.
package raster

import (
	"errors"
	"fmt"

	"github.com/cshum/vipsgen/vips"
	"github.com/paulmach/orb"
)

var (
	Black = []float64{0, 0, 0}
	White = []float64{255, 255, 255}
)

// Canvas is a line surface backed by a libvips image. vips.Startup must
// have been called before NewCanvas.
type Canvas struct {
	width  int
	height int
	ink    []float64
	image  *vips.Image
	err    error
}

// NewCanvas creates a width x height RGB image filled with background.
func NewCanvas(width, height int, ink, background []float64) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	opts := vips.DefaultBlackOptions()
	opts.Bands = 3
	image, err := vips.NewBlack(width, height, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create canvas: %w", err)
	}

	rectOpts := vips.DefaultDrawRectOptions()
	rectOpts.Fill = true
	if err := image.DrawRect(background, 0, 0, width, height, rectOpts); err != nil {
		image.Close()
		return nil, fmt.Errorf("failed to fill background: %w", err)
	}

	return &Canvas{width: width, height: height, ink: ink, image: image}, nil
}

// DrawLines draws every segment of lines, scaled so extent fills the
// canvas. The first drawing failure is kept and reported by PNG.
func (c *Canvas) DrawLines(lines orb.MultiLineString, extent orb.Bound) {
	if c.err != nil || extent.IsEmpty() {
		return
	}

	v := Viewport{Extent: extent, Width: c.width, Height: c.height}
	for _, line := range lines {
		for i := 1; i < len(line); i++ {
			x1, y1 := v.ToPixel(line[i-1])
			x2, y2 := v.ToPixel(line[i])
			if err := c.image.DrawLine(c.ink, x1, y1, x2, y2); err != nil {
				c.err = fmt.Errorf("failed to draw line: %w", err)
				return
			}
		}
	}
}

// PNG encodes the canvas.
func (c *Canvas) PNG() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.image == nil {
		return nil, errors.New("canvas is closed")
	}

	data, err := c.image.PngsaveBuffer(vips.DefaultPngsaveBufferOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to export: %w", err)
	}
	return data, nil
}

// Close releases the image.
func (c *Canvas) Close() {
	if c.image != nil {
		c.image.Close()
		c.image = nil
	}
}
