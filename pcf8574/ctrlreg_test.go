// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import "testing"

func TestCtrlRegBits(t *testing.T) {
	var reg CtrlReg

	reg.SetRS(true)
	if byte(reg) != 0x01 || !reg.RS() {
		t.Errorf("RS: got %#02x", byte(reg))
	}
	reg.SetRW(true)
	if byte(reg) != 0x03 || !reg.RW() {
		t.Errorf("RW: got %#02x", byte(reg))
	}
	reg.SetEN(true)
	if byte(reg) != 0x07 || !reg.EN() {
		t.Errorf("EN: got %#02x", byte(reg))
	}
	reg.SetBacklight(true)
	if byte(reg) != 0x0f || !reg.Backlight() {
		t.Errorf("Backlight: got %#02x", byte(reg))
	}

	reg.SetRS(false)
	reg.SetRW(false)
	reg.SetEN(false)
	if byte(reg) != 0x08 {
		t.Errorf("clearing control bits: got %#02x, want 0x08", byte(reg))
	}
}

func TestCtrlRegData(t *testing.T) {
	tests := []struct {
		nibble byte
		want   byte
	}{
		{0x0, 0x08},
		{0x2, 0x28},
		{0xf, 0xf8},
		// Only the low 4 bits of the nibble are used.
		{0x12, 0x28},
	}
	for _, tt := range tests {
		var reg CtrlReg
		reg.SetBacklight(true)
		reg.SetData(tt.nibble)
		if byte(reg) != tt.want {
			t.Errorf("SetData(%#02x): got %#02x, want %#02x", tt.nibble, byte(reg), tt.want)
		}
		if got := reg.Data(); got != tt.nibble&0x0f {
			t.Errorf("Data() after SetData(%#02x): got %#02x", tt.nibble, got)
		}
	}
}

func TestCtrlRegDataPreservesControlBits(t *testing.T) {
	var reg CtrlReg
	reg.SetRS(true)
	reg.SetBacklight(true)
	reg.SetData(0xf)
	reg.SetData(0x0)
	if byte(reg) != 0x09 {
		t.Errorf("got %#02x, want 0x09", byte(reg))
	}
}
