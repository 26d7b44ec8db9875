// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602_test

import (
	"fmt"
	"log"

	"periph.io/x/host/v3"
	"periph.io/x/lcd1602"
	"periph.io/x/lcd1602/pcf8574"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// The backpack on its default bus and address.
	port := pcf8574.New(&pcf8574.Opts{Device: "/dev/i2c-1", Addr: 0x27})
	dev := lcd1602.New(port, nil)

	if err := dev.Init(); err != nil {
		log.Fatalf("failed to initialize display: %v", err)
	}
	defer dev.Halt()

	if err := dev.DisplayLine(lcd1602.Line1, "Hello World"); err != nil {
		log.Fatal(err)
	}
	st := dev.LastStatus()
	fmt.Printf("cursor at row %d col %d\n", st.Row, st.Col)
}
