// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import "errors"

var (
	// ErrInvalidArgument reports a malformed or out-of-range argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDeviceUnspecified reports that no I²C bus device is configured.
	ErrDeviceUnspecified = errors.New("no i2c device specified")

	// ErrAddressing reports that the bus could not be configured for the
	// expander's address; nothing acknowledged the first transfer.
	ErrAddressing = errors.New("cannot address expander")

	// ErrNotConnected reports a register read without an open connection.
	// Reads never open one implicitly.
	ErrNotConnected = errors.New("not connected")

	// ErrBusy reports that the display controller still held its busy flag
	// when a bounded status poll gave up.
	ErrBusy = errors.New("controller busy")
)
