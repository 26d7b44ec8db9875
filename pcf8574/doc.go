// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcf8574 drives the TI/NXP PCF8574 I²C 8-bit I/O expander as wired
// on the common LCD backpack boards: three of the expander's pins carry the
// LCD control signals (register select, read/write, enable strobe), one
// switches the backlight, and the remaining four form the controller's 4-bit
// data bus.
//
// The package keeps a shadow of the expander's single output latch in a
// CtrlReg and mediates every physical transfer through it. Because the
// PCF8574 has no internal registers, a write is exactly one byte applying the
// whole latch, and a read samples the pin levels after the data lines have
// been driven high.
//
// A Port can hold its bus connection persistently (exclusive mode) or open
// and close it around each transfer (shared mode), so several processes can
// take turns on a bus that also carries other devices.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/pcf8574.pdf
package pcf8574
