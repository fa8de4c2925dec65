/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
)

var errTransportClosed = errors.New("transport is closed")

// Transport moves complete JDWP packets to and from the target VM.
// ReadPacket is only called from one goroutine at a time; WritePacket may be called
// from several goroutines, and implementations must serialize the writes.
type Transport interface {
	// ReadPacket returns the next complete packet, header included.
	// It blocks until a packet is available or the transport is closed.
	ReadPacket() ([]byte, error)

	// WritePacket writes one complete packet.
	WritePacket(data []byte) error

	// Close closes the transport. Blocked ReadPacket and WritePacket calls return with an error.
	Close() error
}

// streamTransport implements Transport over a byte stream such as a TCP connection.
type streamTransport struct {
	conn            io.ReadWriteCloser
	reader          *bufio.Reader
	writer          *bufio.Writer
	maxPacketLength int

	// writeMu protects concurrent writes to the connection
	writeMu sync.Mutex

	closed bool
	mu     sync.Mutex
}

// NewStreamTransport creates a Transport over conn. The JDWP handshake must already
// have been exchanged. Packets longer than maxPacketLength are rejected;
// zero means jdwp.DefaultMaxPacketLength.
func NewStreamTransport(conn io.ReadWriteCloser, maxPacketLength int) Transport {
	return &streamTransport{
		conn:            conn,
		reader:          bufio.NewReader(conn),
		writer:          bufio.NewWriter(conn),
		maxPacketLength: maxPacketLength,
	}
}

func (t *streamTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *streamTransport) ReadPacket() ([]byte, error) {
	if t.isClosed() {
		return nil, errTransportClosed
	}

	data, readErr := jdwp.ReadPacket(t.reader, t.maxPacketLength)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read JDWP packet: %w", readErr)
	}
	return data, nil
}

func (t *streamTransport) WritePacket(data []byte) error {
	if t.isClosed() {
		return errTransportClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, writeErr := t.writer.Write(data); writeErr != nil {
		return fmt.Errorf("failed to write JDWP packet: %w", writeErr)
	}
	if flushErr := t.writer.Flush(); flushErr != nil {
		return fmt.Errorf("failed to flush JDWP packet: %w", flushErr)
	}
	return nil
}

func (t *streamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
