// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

const (
	// DefaultAddress is the expander's address with all address pins open.
	DefaultAddress uint16 = 0x27
	// DefaultDevice is the bus the backpack usually hangs off on a Pi.
	DefaultDevice = "/dev/i2c-1"

	packageName = "pcf8574"
)

// wrap is applied exactly once, at the operation that talked to the bus;
// callers composing operations out of Latch, WriteRegister or ReadRegister
// must pass their errors through unwrapped.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// Opener acquires a connection to an I²C bus by device name.
type Opener func(device string) (i2c.BusCloser, error)

// connState is the connection lifecycle of a Port. A bus handle is held
// exactly when the state is not closed, so "closed but exclusive" cannot be
// represented; an exclusive request on a closed port is only a pending flag.
type connState uint8

const (
	stateClosed connState = iota
	// stateShared holds a connection that the next Close releases.
	stateShared
	// stateExclusive holds a connection that survives Close until the
	// exclusive request is withdrawn.
	stateExclusive
)

// Port mediates all reads and writes of the expander's output latch. It owns
// the register image, the bus handle and the open/shared/exclusive
// connection lifecycle.
//
// A Port expects a single logical owner issuing operations serially. It does
// no locking.
type Port struct {
	device    string
	addr      uint16
	exclusive bool // requested mode, applied at the next open
	reg       CtrlReg
	state     connState
	bus       i2c.BusCloser
	open      Opener
}

// Opts holds the construction options for a Port. The zero value selects the
// defaults: /dev/i2c-1, address 0x27, shared access, i2creg lookup.
type Opts struct {
	// Device is the I²C bus device name, as registered with i2creg.
	Device string
	// Addr is the expander's bus address.
	Addr uint16
	// Exclusive requests a persistent connection from the first open on.
	Exclusive bool
	// Opener acquires the bus. Defaults to i2creg.Open; tests substitute an
	// i2ctest playback here.
	Opener Opener
}

// New returns a closed Port. The backlight bit starts out set, so the first
// register write switches the backlight on.
func New(opts *Opts) *Port {
	p := &Port{
		device: DefaultDevice,
		addr:   DefaultAddress,
		open:   func(device string) (i2c.BusCloser, error) { return i2creg.Open(device) },
	}
	p.reg.SetBacklight(true)
	if opts != nil {
		if opts.Device != "" {
			p.device = opts.Device
		}
		if opts.Addr != 0 {
			p.addr = opts.Addr
		}
		if opts.Opener != nil {
			p.open = opts.Opener
		}
		p.exclusive = opts.Exclusive
	}
	return p
}

// Open acquires a connection to the configured device and pushes the current
// register image once, so the expander latch and the shadow agree. Opening
// an already open Port is a no-op.
//
// The destination state depends on the exclusive request at open time: a
// shared connection is released by the next Close, an exclusive one is kept
// until the request is withdrawn.
func (p *Port) Open() error {
	if p.state != stateClosed {
		return nil
	}
	if p.device == "" {
		return wrap(ErrDeviceUnspecified)
	}
	bus, err := p.open(p.device)
	if err != nil {
		return wrap(err)
	}
	if err := bus.Tx(p.addr, []byte{byte(p.reg)}, nil); err != nil {
		_ = bus.Close()
		return fmt.Errorf("%s: %w: %w", packageName, ErrAddressing, err)
	}
	p.bus = bus
	if p.exclusive {
		p.state = stateExclusive
	} else {
		p.state = stateShared
	}
	return nil
}

// Close releases the connection. While the connection is held exclusively
// this is a no-op: withdraw the request with SetExclusive(false) first, then
// Close takes effect. Closing a closed Port is also a no-op.
func (p *Port) Close() error {
	if p.state != stateShared {
		return nil
	}
	err := p.bus.Close()
	p.bus = nil
	p.state = stateClosed
	return wrap(err)
}

// WriteRegister pushes the current register image to the expander as a
// single transfer. Without an open connection it opens a transient one
// around the transfer; a held connection is reused and left open.
func (p *Port) WriteRegister() error {
	if p.state != stateClosed {
		return wrap(p.bus.Tx(p.addr, []byte{byte(p.reg)}, nil))
	}
	if p.device == "" {
		return wrap(ErrDeviceUnspecified)
	}
	bus, err := p.open(p.device)
	if err != nil {
		return wrap(err)
	}
	err = bus.Tx(p.addr, []byte{byte(p.reg)}, nil)
	if cerr := bus.Close(); err == nil {
		err = cerr
	}
	return wrap(err)
}

// Latch raises then lowers the enable strobe, writing the register image
// both times, committing the staged nibble into the display controller. The
// strobe is lowered even when the first write fails, so the image never
// holds a strobe level that was not applied.
func (p *Port) Latch() error {
	p.reg.SetEN(true)
	err := p.WriteRegister()
	p.reg.SetEN(false)
	if werr := p.WriteRegister(); err == nil {
		err = werr
	}
	return err
}

// ReadRegister runs the 4-bit status read sequence and returns the assembled
// status byte. The data lines are driven high first: the PCF8574 is
// quasi-bidirectional, so its inputs can only be sampled while the outputs
// release them. The strobe is then raised and the pins sampled twice, high
// nibble first.
//
// ReadRegister fails with ErrNotConnected when no connection is held; a
// status read never opens one.
func (p *Port) ReadRegister() (byte, error) {
	if p.state == stateClosed {
		return 0, wrap(ErrNotConnected)
	}
	p.reg.SetRS(false)
	p.reg.SetRW(true)
	p.reg.SetData(0x0f)
	if err := p.apply(); err != nil {
		return 0, err
	}

	p.reg.SetEN(true)
	if err := p.apply(); err != nil {
		return 0, err
	}
	b, err := p.sample()
	if err != nil {
		return 0, err
	}
	status := b & 0xf0
	p.reg.SetEN(false)
	if err := p.apply(); err != nil {
		return 0, err
	}

	p.reg.SetEN(true)
	if err := p.apply(); err != nil {
		return 0, err
	}
	b, err = p.sample()
	if err != nil {
		return 0, err
	}
	status |= b >> 4
	p.reg.SetEN(false)
	if err := p.apply(); err != nil {
		return 0, err
	}
	return status, nil
}

func (p *Port) apply() error {
	return wrap(p.bus.Tx(p.addr, []byte{byte(p.reg)}, nil))
}

func (p *Port) sample() (byte, error) {
	var r [1]byte
	if err := p.bus.Tx(p.addr, nil, r[:]); err != nil {
		return 0, wrap(err)
	}
	return r[0], nil
}

// Register exposes the register image for staging control and data bits.
// Changes only reach hardware through WriteRegister or Latch.
func (p *Port) Register() *CtrlReg { return &p.reg }

// SetBacklight switches the backlight line and applies the register image.
func (p *Port) SetBacklight(on bool) error {
	p.reg.SetBacklight(on)
	return p.WriteRegister()
}

// Backlight reports the backlight state held in the register image.
func (p *Port) Backlight() bool { return p.reg.Backlight() }

// SetExclusive records the requested access mode. Raising the request on an
// open connection pins it; withdrawing it demotes a held exclusive
// connection so the next Close releases it.
func (p *Port) SetExclusive(exclusive bool) {
	p.exclusive = exclusive
	switch {
	case p.state == stateExclusive && !exclusive:
		p.state = stateShared
	case p.state == stateShared && exclusive:
		p.state = stateExclusive
	}
}

// Exclusive reports the requested access mode.
func (p *Port) Exclusive() bool { return p.exclusive }

// SetAddress sets the expander's bus address. It takes effect at the next
// open; a held connection is not reconfigured.
func (p *Port) SetAddress(addr uint16) { p.addr = addr }

// Address returns the configured expander address.
func (p *Port) Address() uint16 { return p.addr }

// SetDevice sets the I²C bus device name. It takes effect at the next open;
// a held connection is not reconfigured.
func (p *Port) SetDevice(device string) { p.device = device }

// Device returns the configured bus device name.
func (p *Port) Device() string { return p.device }

func (p *Port) String() string {
	return fmt.Sprintf("%s_%02x: %s", packageName, p.addr, p.device)
}
