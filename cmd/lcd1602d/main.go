// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcd1602d drives a 16x2 character LCD behind a PCF8574 backpack.
//
// It can write the two rows once and exit, serve them over MQTT, render an
// emulated panel on the terminal, and serve PNG snapshots over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"periph.io/x/host/v3"
	"periph.io/x/lcd1602"
	"periph.io/x/lcd1602/bridge"
	"periph.io/x/lcd1602/lcdterm"
	"periph.io/x/lcd1602/lcdview"
	"periph.io/x/lcd1602/pcf8574"
)

// teePanel fans every command out to all attached surfaces, so the hardware,
// the terminal emulator and the HTTP view stay in step.
type teePanel []bridge.Panel

func (t teePanel) Init() error {
	var err error
	for _, p := range t {
		if e := p.Init(); err == nil {
			err = e
		}
	}
	return err
}

func (t teePanel) DisplayLine(offset byte, text string) error {
	var err error
	for _, p := range t {
		if e := p.DisplayLine(offset, text); err == nil {
			err = e
		}
	}
	return err
}

func (t teePanel) SetBacklight(on bool) error {
	var err error
	for _, p := range t {
		if e := p.SetBacklight(on); err == nil {
			err = e
		}
	}
	return err
}

func mainImpl() error {
	device := flag.String("device", pcf8574.DefaultDevice, "I²C bus device name")
	addrFlag := flag.String("addr", "0x27", "expander address on the bus")
	exclusive := flag.Bool("exclusive", false, "hold the bus connection open between operations")
	pollLimit := flag.Int("poll-limit", 1000, "max busy polls per byte write, 0 for unlimited")
	line1 := flag.String("line1", "", "text for row 1")
	line2 := flag.String("line2", "", "text for row 2")
	broker := flag.String("broker", "", "MQTT broker host:port; empty disables the bridge")
	topic := flag.String("topic", bridge.DefaultPrefix, "MQTT topic prefix")
	sim := flag.Bool("sim", false, "render to the terminal instead of hardware")
	listen := flag.String("listen", "", "HTTP listen address for PNG snapshots; empty disables")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, use -help")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var panels teePanel
	var statusFn func() (lcd1602.Status, error)
	if *sim {
		term := lcdterm.New(nil)
		defer term.Halt()
		panels = append(panels, term)
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		addr, err := strconv.ParseUint(*addrFlag, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", *addrFlag, err)
		}
		port := pcf8574.New(&pcf8574.Opts{
			Device:    *device,
			Addr:      uint16(addr),
			Exclusive: *exclusive,
		})
		dev := lcd1602.New(port, &lcd1602.Opts{PollLimit: *pollLimit})
		defer dev.Halt()
		log.Debug("attached", slog.String("dev", dev.String()))
		panels = append(panels, dev)
		if *exclusive {
			// A status read needs the held connection of exclusive mode.
			statusFn = dev.Status
		}
	}

	if *listen != "" {
		view, err := lcdview.New(nil)
		if err != nil {
			return err
		}
		panels = append(panels, view)
		srv := &http.Server{Addr: *listen, Handler: view}
		go func() {
			log.Info("http: listening", slog.String("addr", *listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http: server failed", slog.String("err", err.Error()))
			}
		}()
		defer srv.Close()
	}

	if err := panels.Init(); err != nil {
		return err
	}
	if *line1 != "" {
		if err := panels.DisplayLine(lcd1602.Line1, *line1); err != nil {
			return err
		}
	}
	if *line2 != "" {
		if err := panels.DisplayLine(lcd1602.Line2, *line2); err != nil {
			return err
		}
	}

	if *broker == "" {
		if *listen == "" {
			// One-shot mode: rows written, nothing left to serve.
			return nil
		}
		<-ctx.Done()
		return nil
	}

	b := &bridge.Bridge{
		Panel:  panels,
		Prefix: *topic,
		Status: statusFn,
		Logger: log,
	}
	if err := b.Run(ctx, *broker); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "lcd1602d: %s.\n", err)
		os.Exit(1)
	}
}
