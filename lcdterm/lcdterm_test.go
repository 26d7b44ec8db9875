// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdterm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"periph.io/x/lcd1602"
	"periph.io/x/lcd1602/pcf8574"
)

func TestDisplayLine(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{Writer: buf})
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := d.DisplayLine(lcd1602.Line1, "Hello World"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "|Hello World     |") {
		t.Errorf("frame does not show padded row 1:\n%q", buf.String())
	}
	buf.Reset()
	if err := d.DisplayLine(lcd1602.Line2, "second"); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.Contains(got, "|Hello World     |") || !strings.Contains(got, "|second          |") {
		t.Errorf("frame does not show both rows:\n%q", got)
	}
}

func TestDisplayLineTruncatesAtNUL(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{Writer: buf})
	if err := d.DisplayLine(lcd1602.Line1, "AB\x00CD"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "|AB              |") {
		t.Errorf("NUL did not stop the text:\n%q", buf.String())
	}
}

func TestDisplayLineColumnOffset(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{Writer: buf})
	if err := d.DisplayLine(lcd1602.Line2|0x04, "x"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "|    x           |") {
		t.Errorf("column offset not honored:\n%q", buf.String())
	}
}

func TestDisplayLineOutOfRange(t *testing.T) {
	d := New(&Opts{Writer: &bytes.Buffer{}})
	if err := d.DisplayLine(0x80, "x"); !errors.Is(err, pcf8574.ErrInvalidArgument) {
		t.Errorf("DisplayLine(0x80) error = %v, want ErrInvalidArgument", err)
	}
}

func TestBacklight(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{Writer: buf})
	if !d.Backlight() {
		t.Error("Backlight() = false at construction, want true")
	}
	if err := d.SetBacklight(false); err != nil {
		t.Fatal(err)
	}
	if d.Backlight() {
		t.Error("Backlight() = true after SetBacklight(false)")
	}
	if buf.Len() == 0 {
		t.Error("SetBacklight did not redraw")
	}
}

func TestRedrawRewindsCursor(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{Writer: buf})
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "\033[2A") {
		t.Error("first frame must not rewind the cursor")
	}
	buf.Reset()
	if err := d.DisplayLine(lcd1602.Line1, "x"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\033[2A") {
		t.Error("second frame must rewind the cursor")
	}
}
