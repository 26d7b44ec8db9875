// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/lcd1602/pcf8574"
)

// HD44780 instructions as used on the 16x2 module.
const (
	cmdClearDisplay byte = 0x01
	cmdCursorHome   byte = 0x02
	// Display on, cursor on, cursor blink.
	cmdCursorBlink byte = 0x0f
	// Function set: 8-bit bus, 2 lines, 5x8 font.
	cmdFunctionSet8Bit byte = 0x38
	// Function set: 4-bit bus, 2 lines, 5x8 font.
	cmdFunctionSet4Bit byte = 0x28
	cmdSetDDRAMAddr    byte = 0x80
)

const (
	// Line1 and Line2 are the DDRAM offsets of the two rows.
	Line1 byte = 0x00
	Line2 byte = 0x40

	// Width is the visible number of characters per row.
	Width = 16

	// lineWidth is the number of DDRAM positions written per row update.
	// Writing one past the visible width scrubs stale characters that a
	// longer previous line may have pushed off the edge.
	lineWidth = 17

	busyFlag byte = 0x80
	addrMask byte = 0x7f
)

// Opts holds the configuration options for the driver.
type Opts struct {
	// PollLimit caps the number of status reads in the busy poll that
	// follows each byte write. The default 0 polls until the controller
	// reports ready, which matches the hardware contract but blocks the
	// caller forever on a dead or absent controller. With a limit, an
	// exhausted poll fails with pcf8574.ErrBusy.
	PollLimit int
}

// Status is the decoded controller status: the busy flag, the raw address
// counter and the cursor cell derived from it. Column 1 is the left edge,
// row 1 the top line; row 2 starts at address counter 0x40.
type Status struct {
	Busy           bool
	AddressCounter byte
	Col            int
	Row            int
}

// Dev is a handle to the display. It drives the HD44780 instruction set
// through a pcf8574.Port and owns the two-nibble transfer convention.
//
// Dev expects a single logical owner issuing operations serially, like the
// Port underneath it.
type Dev struct {
	port      *pcf8574.Port
	pollLimit int
	status    Status
}

// New returns a driver for the display behind port. The opts can be nil.
func New(port *pcf8574.Port, opts *Opts) *Dev {
	d := &Dev{port: port}
	if opts != nil {
		d.pollLimit = opts.PollLimit
	}
	return d
}

// Init opens the connection and forces the controller into the operating
// mode the driver relies on: 4-bit bus, 2 lines, 5x8 font, cleared display,
// cursor home, blinking cursor.
//
// The controller is first told to use the 8-bit bus. That resynchronizes the
// nibble stream in case an earlier run died between the two halves of a
// 4-bit transfer; a single raw nibble then drops it into 4-bit mode. When
// either function set fails the remaining steps are still attempted, but the
// failure is reported: the controller may answer again after clear/home even
// though the mode switch was not observed. Verifying that against a truly
// absent device needs hardware in the loop.
//
// The connection is closed on return unless exclusive mode holds it open.
func (d *Dev) Init() error {
	if err := d.port.Open(); err != nil {
		return err
	}
	err := d.set4BitMode()
	_ = d.Clear()
	_ = d.Home()
	_ = d.CursorMode()
	if cerr := d.port.Close(); err == nil {
		err = cerr
	}
	return err
}

// set4BitMode runs the 8-bit resync, the raw mode-switch nibble and the
// 4-bit function set. Only the two full function-set writes decide the
// result; the raw nibble has no observable completion to check.
func (d *Dev) set4BitMode() error {
	err8 := d.writeByte(false, cmdFunctionSet8Bit)

	reg := d.port.Register()
	reg.SetRS(false)
	reg.SetRW(false)
	reg.SetData(0x02)
	_ = d.port.WriteRegister()
	_ = d.port.Latch()

	err4 := d.writeByte(false, cmdFunctionSet4Bit)
	if err8 != nil {
		return err8
	}
	return err4
}

// writeByte transfers one byte to the instruction (data=false) or data
// (data=true) register: high nibble, latch, low nibble, latch, then a busy
// poll until the controller reports ready. Every byte write is therefore
// synchronous with controller readiness and callers need no delay logic.
//
// Transfer faults surface through the poll: the status reads share the
// connection the nibble writes used, so a broken bus fails the poll, and the
// result of writeByte is the result of its final status read.
func (d *Dev) writeByte(data bool, val byte) error {
	reg := d.port.Register()
	reg.SetRS(data)
	reg.SetRW(false)

	reg.SetData(val >> 4)
	_ = d.port.WriteRegister()
	_ = d.port.Latch()

	reg.SetData(val & 0x0f)
	_ = d.port.WriteRegister()
	_ = d.port.Latch()

	for polls := 1; ; polls++ {
		if err := d.readStatus(); err != nil {
			return err
		}
		if !d.status.Busy {
			return nil
		}
		if d.pollLimit > 0 && polls >= d.pollLimit {
			return pcf8574.ErrBusy
		}
	}
}

// readStatus reads the raw status byte and refreshes the decoded Status.
func (d *Dev) readStatus() error {
	val, err := d.port.ReadRegister()
	if err != nil {
		return err
	}
	ac := val & addrMask
	d.status.Busy = val&busyFlag != 0
	d.status.AddressCounter = ac
	d.status.Col = int(ac&0x3f) + 1
	d.status.Row = 1
	if ac >= Line2 {
		d.status.Row = 2
	}
	return nil
}

// Clear clears the display and resets the address counter.
func (d *Dev) Clear() error {
	return d.writeByte(false, cmdClearDisplay)
}

// Home moves the cursor to the first cell of the first row.
func (d *Dev) Home() error {
	return d.writeByte(false, cmdCursorHome)
}

// CursorMode makes the cursor visible and blinking.
func (d *Dev) CursorMode() error {
	return d.writeByte(false, cmdCursorBlink)
}

// SetDDRAMAddress points the controller's address counter at the display
// data RAM cell addr, the position of the next character write.
func (d *Dev) SetDDRAMAddress(addr byte) error {
	if addr > addrMask {
		return wrap(pcf8574.ErrInvalidArgument)
	}
	return d.writeByte(false, cmdSetDDRAMAddr|addr)
}

// DisplayLine writes text to the row starting at DDRAM offset: Line1 or
// Line2 on the 16x2 module. Exactly 17 positions are always written; text
// beyond its end or beyond an embedded NUL is replaced with spaces, so a
// shorter update scrubs every cell a longer previous line touched.
//
// When an individual byte write fails the remaining positions are still
// written, keeping the controller's address counter in step for the rest of
// the row, and the last failure is reported.
//
// The connection is opened on entry if needed and closed on return unless
// exclusive mode holds it open.
func (d *Dev) DisplayLine(offset byte, text string) error {
	if offset > addrMask {
		return wrap(pcf8574.ErrInvalidArgument)
	}
	if err := d.port.Open(); err != nil {
		return err
	}
	err := d.SetDDRAMAddress(offset)
	if err == nil {
		pad := false
		for i := 0; i < lineWidth; i++ {
			ch := byte(' ')
			if !pad && i < len(text) {
				if text[i] == 0 {
					pad = true
				} else {
					ch = text[i]
				}
			}
			if rc := d.writeByte(true, ch); rc != nil {
				err = rc
			}
		}
	}
	if cerr := d.port.Close(); err == nil {
		err = cerr
	}
	return err
}

// Status reads the controller status over the open connection and returns
// the decoded result. It fails with pcf8574.ErrNotConnected when no
// connection is held; a status read never opens one.
func (d *Dev) Status() (Status, error) {
	err := d.readStatus()
	return d.status, err
}

// LastStatus returns the status decoded by the most recent read, without
// touching hardware. The busy polls inside every byte write keep it fresh.
func (d *Dev) LastStatus() Status { return d.status }

// SetBacklight switches the backlight.
func (d *Dev) SetBacklight(on bool) error {
	return d.port.SetBacklight(on)
}

// Backlight reports the backlight state.
func (d *Dev) Backlight() bool { return d.port.Backlight() }

// Port returns the underlying bus transport, for access mode and addressing
// configuration.
func (d *Dev) Port() *pcf8574.Port { return d.port }

// Halt implements conn.Resource. It withdraws a pending exclusive request
// and releases the bus connection.
func (d *Dev) Halt() error {
	d.port.SetExclusive(false)
	return d.port.Close()
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcd1602: %s", d.port)
}

func wrap(err error) error {
	return fmt.Errorf("lcd1602: %w", err)
}

var _ conn.Resource = &Dev{}
