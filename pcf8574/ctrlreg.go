// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

// CtrlReg is the in-memory image of the expander's 8-bit output latch, laid
// out the way the LCD backpack wires the PCF8574 to the display controller.
// The image must always reflect the last value pushed to hardware; mutate it
// through the accessors and apply it with Port.WriteRegister.
type CtrlReg byte

const (
	// rsBit selects the controller register: 0 = instruction, 1 = data.
	rsBit CtrlReg = 1 << 0
	// rwBit selects the transfer direction: 0 = write, 1 = read.
	rwBit CtrlReg = 1 << 1
	// enBit is the enable strobe. A high-then-low transition commits the
	// staged nibble into the display controller.
	enBit CtrlReg = 1 << 2
	// ledBit switches the LCD backlight.
	ledBit CtrlReg = 1 << 3
	// dataMask covers the 4-bit data bus on D7..D4 of the expander.
	dataMask CtrlReg = 0xf0
)

func (r *CtrlReg) set(bit CtrlReg, on bool) {
	if on {
		*r |= bit
	} else {
		*r &^= bit
	}
}

// SetRS stages the register select line: true addresses the controller's
// data register, false its instruction register.
func (r *CtrlReg) SetRS(data bool) { r.set(rsBit, data) }

// RS reports whether the data register is selected.
func (r CtrlReg) RS() bool { return r&rsBit != 0 }

// SetRW stages the transfer direction: true for read, false for write.
func (r *CtrlReg) SetRW(read bool) { r.set(rwBit, read) }

// RW reports whether the image is staged for a read.
func (r CtrlReg) RW() bool { return r&rwBit != 0 }

// SetEN stages the enable strobe line.
func (r *CtrlReg) SetEN(high bool) { r.set(enBit, high) }

// EN reports the staged strobe level.
func (r CtrlReg) EN() bool { return r&enBit != 0 }

// SetBacklight stages the backlight control line.
func (r *CtrlReg) SetBacklight(on bool) { r.set(ledBit, on) }

// Backlight reports the staged backlight state.
func (r CtrlReg) Backlight() bool { return r&ledBit != 0 }

// SetData stages the low 4 bits of nibble onto the data lines.
func (r *CtrlReg) SetData(nibble byte) {
	*r = *r&^dataMask | CtrlReg(nibble)<<4
}

// Data returns the staged data nibble in the low 4 bits.
func (r CtrlReg) Data() byte { return byte(r&dataMask) >> 4 }
