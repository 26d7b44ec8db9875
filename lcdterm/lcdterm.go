// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdterm emulates a 16x2 character panel on a terminal (stdout)
// using ANSI color codes.
//
// Useful for developing against the panel surface without a backpack wired
// up.
package lcdterm

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/lcd1602"
	"periph.io/x/lcd1602/pcf8574"
)

// Opts represents the options available for this display.
type Opts struct {
	// Writer receives the rendered frames. Defaults to a colorable stdout.
	Writer io.Writer
	// Palette maps the backlight swatch color to the terminal's capability.
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a 16x2 panel emulator that renders to the console. It accepts the
// same row updates as the hardware driver.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette

	lines     [2][lcd1602.Width]byte
	backlight bool
	drawn     bool
	buf       bytes.Buffer
}

// New returns a Dev that displays at the console. The opts can be nil.
func New(opts *Opts) *Dev {
	d := &Dev{
		w:         colorable.NewColorableStdout(),
		palette:   *ansi256.Default,
		backlight: true,
	}
	if opts != nil {
		if opts.Writer != nil {
			d.w = opts.Writer
		}
		if opts.Palette != nil {
			d.palette = *opts.Palette
		}
	}
	for row := range d.lines {
		for col := range d.lines[row] {
			d.lines[row][col] = ' '
		}
	}
	return d
}

// Init clears both rows and draws the first frame.
func (d *Dev) Init() error {
	for row := range d.lines {
		for col := range d.lines[row] {
			d.lines[row][col] = ' '
		}
	}
	return d.refresh()
}

// DisplayLine writes text to the row addressed by offset, using the same
// DDRAM offsets as the hardware driver: lcd1602.Line1 or lcd1602.Line2, plus
// a column displacement. Text beyond the row's end or beyond an embedded NUL
// becomes spaces.
func (d *Dev) DisplayLine(offset byte, text string) error {
	if offset > 0x7f {
		return fmt.Errorf("lcdterm: %w", pcf8574.ErrInvalidArgument)
	}
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
	return d.refresh()
}

// SetBacklight switches the emulated backlight swatch.
func (d *Dev) SetBacklight(on bool) error {
	d.backlight = on
	return d.refresh()
}

// Backlight reports the emulated backlight state.
func (d *Dev) Backlight() bool { return d.backlight }

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the shell prompt is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

func (d *Dev) String() string {
	return "LCDTerm"
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	if d.drawn {
		_, _ = d.buf.WriteString("\033[2A")
	}
	swatch := color.NRGBA{0x10, 0x20, 0x10, 0xff}
	if d.backlight {
		swatch = color.NRGBA{0x40, 0xc8, 0x60, 0xff}
	}
	block := d.palette.Block(swatch)
	for row := range d.lines {
		_, _ = d.buf.WriteString("\r\033[0m")
		_, _ = io.WriteString(&d.buf, block)
		_ = d.buf.WriteByte('|')
		_, _ = d.buf.Write(d.lines[row][:])
		_, _ = d.buf.WriteString("|\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ fmt.Stringer = &Dev{}
