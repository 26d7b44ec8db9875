// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bridge exposes a 16x2 panel over MQTT.
//
// It subscribes to <prefix>/line1, <prefix>/line2 and <prefix>/backlight and
// applies received payloads to the panel, and periodically publishes the
// controller status as JSON to <prefix>/status.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
	"periph.io/x/lcd1602"
)

// Panel is the display surface the bridge drives. *lcd1602.Dev implements
// it, as do the lcdterm and lcdview emulators.
type Panel interface {
	Init() error
	DisplayLine(offset byte, text string) error
	SetBacklight(on bool) error
}

const (
	// DefaultPrefix is the topic namespace used when none is configured.
	DefaultPrefix = "lcd1602"

	defaultTimeout        = 5 * time.Second
	defaultStatusInterval = 10 * time.Second
	reconnectDelay        = 2 * time.Second
)

// Bridge connects a Panel to an MQTT broker. Configure the exported fields
// before calling Run; they must not change afterwards.
type Bridge struct {
	// Panel receives the decoded commands.
	Panel Panel
	// Prefix is the topic namespace. Defaults to DefaultPrefix.
	Prefix string
	// ClientID identifies this session to the broker. Defaults to the
	// prefix.
	ClientID string
	// Status is queried for the periodic status publish. Leave nil to
	// disable status publishing; the emulators have no controller to ask.
	Status func() (lcd1602.Status, error)
	// StatusInterval is the status publish period.
	StatusInterval time.Duration
	// Timeout bounds individual network operations.
	Timeout time.Duration
	// Logger receives connection lifecycle events. Defaults to slog.Default.
	Logger *slog.Logger

	nextID uint16

	// Panel state that reached the hardware, reported in status publishes.
	// backlightOff is inverted so the zero value matches the port's
	// construction default of backlight on.
	mu           sync.Mutex
	line1        string
	line2        string
	backlightOff bool
}

func (b *Bridge) prefix() string {
	if b.Prefix != "" {
		return b.Prefix
	}
	return DefaultPrefix
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Dispatch applies one received message to the panel. The topic must be
// <prefix>/line1, <prefix>/line2 or <prefix>/backlight.
func (b *Bridge) Dispatch(topic string, payload []byte) error {
	suffix, ok := strings.CutPrefix(topic, b.prefix()+"/")
	if !ok {
		return fmt.Errorf("bridge: topic %q outside prefix %q", topic, b.prefix())
	}
	switch suffix {
	case "line1":
		if err := b.Panel.DisplayLine(lcd1602.Line1, string(payload)); err != nil {
			return err
		}
		b.mu.Lock()
		b.line1 = string(payload)
		b.mu.Unlock()
		return nil
	case "line2":
		if err := b.Panel.DisplayLine(lcd1602.Line2, string(payload)); err != nil {
			return err
		}
		b.mu.Lock()
		b.line2 = string(payload)
		b.mu.Unlock()
		return nil
	case "backlight":
		on, err := parseBool(string(payload))
		if err != nil {
			return err
		}
		if err := b.Panel.SetBacklight(on); err != nil {
			return err
		}
		b.mu.Lock()
		b.backlightOff = !on
		b.mu.Unlock()
		return nil
	}
	return fmt.Errorf("bridge: unknown topic %q", topic)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on":
		return true, nil
	case "0", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("bridge: invalid backlight payload %q", s)
}

// statusPayload is the JSON shape published to <prefix>/status.
type statusPayload struct {
	Busy           bool   `json:"busy"`
	AddressCounter byte   `json:"address_counter"`
	Col            int    `json:"col"`
	Row            int    `json:"row"`
	Backlight      bool   `json:"backlight"`
	Line1          string `json:"line1"`
	Line2          string `json:"line2"`
}

// StatusPayload queries the status hook and encodes it along with the panel
// state the bridge has applied so far.
func (b *Bridge) StatusPayload() ([]byte, error) {
	st, err := b.Status()
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return json.Marshal(statusPayload{
		Busy:           st.Busy,
		AddressCounter: st.AddressCounter,
		Col:            st.Col,
		Row:            st.Row,
		Backlight:      !b.backlightOff,
		Line1:          b.line1,
		Line2:          b.line2,
	})
}

// Run connects to the broker at addr (host:port) and serves until ctx is
// canceled, reconnecting with a delay after any failure.
func (b *Bridge) Run(ctx context.Context, addr string) error {
	log := b.logger()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := (&net.Dialer{Timeout: b.timeout()}).DialContext(ctx, "tcp", addr)
		if err != nil {
			log.Error("mqtt: dial failed", slog.String("addr", addr), slog.String("err", err.Error()))
		} else {
			log.Info("mqtt: connected", slog.String("addr", addr))
			err = b.serve(ctx, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("mqtt: disconnected", slog.String("err", err.Error()))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (b *Bridge) timeout() time.Duration {
	if b.Timeout > 0 {
		return b.Timeout
	}
	return defaultTimeout
}

func (b *Bridge) statusInterval() time.Duration {
	if b.StatusInterval > 0 {
		return b.StatusInterval
	}
	return defaultStatusInterval
}

func (b *Bridge) packetID() uint16 {
	b.nextID++
	if b.nextID == 0 {
		b.nextID = 1
	}
	return b.nextID
}

// serve runs one broker session over conn: MQTT connect, subscribe to the
// command topics, then alternate between handling inbound packets and the
// periodic status publish.
func (b *Bridge) serve(ctx context.Context, conn net.Conn) error {
	log := b.logger()
	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 4096)},
		OnPub: func(_ mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			payload, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			if err := b.Dispatch(string(varPub.TopicName), payload); err != nil {
				// A malformed payload must not tear the session down.
				log.Error("mqtt: dispatch failed", slog.String("err", err.Error()))
			}
			return nil
		},
	}
	client := mqtt.NewClient(cfg)

	var varconn mqtt.VariablesConnect
	id := b.ClientID
	if id == "" {
		id = b.prefix()
	}
	varconn.SetDefaultMQTT([]byte(id))
	_ = conn.SetDeadline(time.Now().Add(b.timeout()))
	if err := client.StartConnect(conn, &varconn); err != nil {
		return err
	}
	for i := 0; i < 50 && !client.IsConnected(); i++ {
		if err := client.HandleNext(); err != nil {
			log.Error("mqtt: handle next failed", slog.String("err", err.Error()))
		}
	}
	if !client.IsConnected() {
		return fmt.Errorf("bridge: connect not acknowledged: %w", client.Err())
	}

	prefix := b.prefix()
	vsub := mqtt.VariablesSubscribe{
		PacketIdentifier: b.packetID(),
		TopicFilters: []mqtt.SubscribeRequest{
			{TopicFilter: []byte(prefix + "/line1"), QoS: mqtt.QoS0},
			{TopicFilter: []byte(prefix + "/line2"), QoS: mqtt.QoS0},
			{TopicFilter: []byte(prefix + "/backlight"), QoS: mqtt.QoS0},
		},
	}
	_ = conn.SetDeadline(time.Now().Add(b.timeout()))
	if err := client.StartSubscribe(vsub); err != nil {
		return err
	}

	pubFlags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return err
	}
	statusTopic := []byte(prefix + "/status")
	ticker := time.NewTicker(b.statusInterval())
	defer ticker.Stop()
	for client.IsConnected() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if b.Status == nil {
				break
			}
			payload, err := b.StatusPayload()
			if err != nil {
				log.Error("mqtt: status read failed", slog.String("err", err.Error()))
				break
			}
			_ = conn.SetDeadline(time.Now().Add(b.timeout()))
			varPub := mqtt.VariablesPublish{TopicName: statusTopic, PacketIdentifier: b.packetID()}
			if err := client.PublishPayload(pubFlags, varPub, payload); err != nil {
				log.Error("mqtt: status publish failed", slog.String("err", err.Error()))
			}
		default:
		}
		_ = conn.SetDeadline(time.Now().Add(b.timeout()))
		if err := client.HandleNext(); err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			log.Error("mqtt: handle next failed", slog.String("err", err.Error()))
		}
	}
	return client.Err()
}
