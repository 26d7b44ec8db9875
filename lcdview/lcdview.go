// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdview renders a 16x2 character panel to an image and serves PNG
// snapshots over HTTP.
//
// It accepts the same row updates as the hardware driver, so a browser tab
// can stand in for the physical module.
package lcdview

import (
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/lcd1602"
	"periph.io/x/lcd1602/pcf8574"
)

// Cell geometry in pixels.
const (
	cellW  = 18
	cellH  = 28
	margin = 12
)

// Opts represents the options available for this display.
type Opts struct {
	// Face is the font face used for the characters. Defaults to Go Regular
	// at a size matching the cell height.
	Face font.Face

	_ struct{}
}

// Dev is a 16x2 panel emulator that renders to an image. It is safe for
// concurrent use; HTTP snapshot requests and row updates may interleave.
type Dev struct {
	face font.Face

	mu        sync.Mutex
	lines     [2][lcd1602.Width]byte
	backlight bool
}

// New returns a Dev rendering with the given options. The opts can be nil.
func New(opts *Opts) (*Dev, error) {
	d := &Dev{backlight: true}
	if opts != nil {
		d.face = opts.Face
	}
	if d.face == nil {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("lcdview: %w", err)
		}
		d.face = truetype.NewFace(f, &truetype.Options{Size: cellH - 8})
	}
	for row := range d.lines {
		for col := range d.lines[row] {
			d.lines[row][col] = ' '
		}
	}
	return d, nil
}

// Init clears both rows.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for row := range d.lines {
		for col := range d.lines[row] {
			d.lines[row][col] = ' '
		}
	}
	return nil
}

// DisplayLine writes text to the row addressed by offset, using the same
// DDRAM offsets as the hardware driver: lcd1602.Line1 or lcd1602.Line2, plus
// a column displacement. Text beyond the row's end or beyond an embedded NUL
// becomes spaces.
func (d *Dev) DisplayLine(offset byte, text string) error {
	if offset > 0x7f {
		return fmt.Errorf("lcdview: %w", pcf8574.ErrInvalidArgument)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	row := 0
	if offset >= lcd1602.Line2 {
		row = 1
	}
	col := int(offset & 0x3f)
	pad := false
	for i := 0; col+i < lcd1602.Width; i++ {
		ch := byte(' ')
		if !pad && i < len(text) {
			if text[i] == 0 {
				pad = true
			} else if text[i] >= 0x20 && text[i] < 0x7f {
				ch = text[i]
			}
		}
		d.lines[row][col+i] = ch
	}
	return nil
}

// SetBacklight switches the emulated backlight.
func (d *Dev) SetBacklight(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backlight = on
	return nil
}

// Backlight reports the emulated backlight state.
func (d *Dev) Backlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backlight
}

// Bounds returns the pixel dimensions of rendered frames.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, lcd1602.Width*cellW+2*margin, 2*cellH+3*margin)
}

// Snapshot renders the current panel content.
func (d *Dev) Snapshot() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	if d.backlight {
		dc.SetRGB(0.55, 0.78, 0.25)
	} else {
		dc.SetRGB(0.16, 0.20, 0.12)
	}
	dc.Clear()
	dc.SetFontFace(d.face)
	for row := range d.lines {
		y := float64(margin + row*(cellH+margin))
		for col := range d.lines[row] {
			x := float64(margin + col*cellW)
			if d.backlight {
				dc.SetRGB(0.50, 0.72, 0.23)
			} else {
				dc.SetRGB(0.14, 0.18, 0.11)
			}
			dc.DrawRectangle(x+1, y+1, cellW-2, cellH-2)
			dc.Fill()
			ch := d.lines[row][col]
			if ch == ' ' {
				continue
			}
			if d.backlight {
				dc.SetRGB(0.08, 0.10, 0.05)
			} else {
				dc.SetRGB(0.30, 0.34, 0.26)
			}
			s := string(rune(ch))
			tw, th := dc.MeasureString(s)
			dc.DrawString(s, x+(cellW-tw)/2, y+(cellH+th)/2)
		}
	}
	return dc.Image()
}

// ServeHTTP handles HTTP GET requests with a PNG snapshot of the panel.
func (d *Dev) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, d.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Halt implements conn.Resource. The renderer holds no hardware resources.
func (d *Dev) Halt() error { return nil }

func (d *Dev) String() string {
	return "LCDView"
}

var _ http.Handler = &Dev{}
var _ fmt.Stringer = &Dev{}
