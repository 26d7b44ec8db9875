// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd1602 controls a 16x2 character LCD with an HD44780 compatible
// controller attached through a PCF8574 I²C I/O expander backpack.
//
// The driver speaks the controller's 4-bit bus mode: every byte travels as
// two 4-bit transfers through the expander's single output register, each
// committed by toggling the enable strobe, and every write is followed by a
// busy poll so callers never need their own delay logic. The expander
// transport, including the shared/exclusive bus connection lifecycle, lives
// in the pcf8574 subpackage.
//
// The lcdterm and lcdview subpackages provide drop-in development sinks with
// the same line/backlight surface, the bridge subpackage maps MQTT topics to
// display updates, and cmd/lcd1602d ties it all into a daemon.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
//
// A good description of the I2C LCD backpack usage can be found here:
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
package lcd1602
