/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
	"github.com/microsoft/jdwpwire/pkg/resiliency"
)

// handshakeText is exchanged verbatim, in both directions, before the first packet.
const handshakeText = "JDWP-Handshake"

// Handshake performs the debugger side of the JDWP handshake: it sends the handshake
// text and expects the VM to echo it back.
func Handshake(conn io.ReadWriter) error {
	if _, writeErr := io.WriteString(conn, handshakeText); writeErr != nil {
		return fmt.Errorf("%w: failed to send handshake: %w", jdwp.ErrHandshakeFailed, writeErr)
	}
	return expectHandshake(conn)
}

// AcceptHandshake performs the VM side of the JDWP handshake: it waits for the
// handshake text and echoes it back.
func AcceptHandshake(conn io.ReadWriter) error {
	if err := expectHandshake(conn); err != nil {
		return err
	}
	if _, writeErr := io.WriteString(conn, handshakeText); writeErr != nil {
		return fmt.Errorf("%w: failed to send handshake: %w", jdwp.ErrHandshakeFailed, writeErr)
	}
	return nil
}

func expectHandshake(r io.Reader) error {
	buf := make([]byte, len(handshakeText))
	if _, readErr := io.ReadFull(r, buf); readErr != nil {
		return fmt.Errorf("%w: failed to read handshake: %w", jdwp.ErrHandshakeFailed, readErr)
	}
	if !bytes.Equal(buf, []byte(handshakeText)) {
		return fmt.Errorf("%w: unexpected handshake %q", jdwp.ErrHandshakeFailed, buf)
	}
	return nil
}

// DialConfig controls how DialTCP connects.
type DialConfig struct {
	// Backoff is the retry policy for establishing the TCP connection.
	// Nil means resiliency.DefaultBackoff().
	Backoff backoff.BackOff

	// HandshakeTimeout bounds the handshake exchange once connected. Zero means 5 seconds.
	HandshakeTimeout time.Duration

	// MaxPacketLength is passed to NewStreamTransport.
	MaxPacketLength int

	Logger logr.Logger
}

const defaultHandshakeTimeout = 5 * time.Second

// DialTCP connects to a VM listening for a debugger at address, retrying while the
// connection is refused, and performs the JDWP handshake. A failed handshake is not retried.
func DialTCP(ctx context.Context, address string, cfg DialConfig) (Transport, error) {
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	handshakeTimeout := cfg.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}

	attempt := 0
	conn, dialErr := resiliency.RetryGet(ctx, cfg.Backoff, func() (net.Conn, error) {
		attempt++
		var d net.Dialer
		c, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			log.V(1).Info("Could not connect to the VM, will retry", "address", address, "attempt", attempt, "error", err.Error())
			return nil, err
		}
		return c, nil
	})
	if dialErr != nil {
		return nil, fmt.Errorf("failed to dial TCP %s: %w", address, dialErr)
	}

	deadline := time.Now().Add(handshakeTimeout)
	if ctxDeadline, hasDeadline := ctx.Deadline(); hasDeadline && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set handshake deadline: %w", err)
	}

	if err := Handshake(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to clear handshake deadline: %w", err)
	}

	log.V(1).Info("Connected to the VM", "address", address, "attempts", attempt)
	return NewStreamTransport(conn, cfg.MaxPacketLength), nil
}
