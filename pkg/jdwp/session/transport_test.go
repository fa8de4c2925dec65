/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package session

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
	"github.com/microsoft/jdwpwire/pkg/testutil"
)

func TestStreamTransport_ReadsPacketsAcrossPartialReads(t *testing.T) {
	t.Parallel()

	codec, err := jdwp.NewCodec(testIDSizes)
	require.NoError(t, err)
	first, err := codec.EncodeCommand(1, jdwp.NewLineTableCommand(100, 7))
	require.NoError(t, err)
	second, err := codec.EncodeReply(2, jdwp.FrameCountReply{Count: 4})
	require.NoError(t, err)

	conn := testutil.NewTestConn()
	conn.AddEntry(testutil.AsByteTimelineEntries(first...)...)
	conn.AddEntry(testutil.AsByteTimelineEntries(second[:5]...)...)
	conn.AddEntry(testutil.AsErrorTimelineEntry(io.ErrUnexpectedEOF))

	transport := NewStreamTransport(conn, 0)

	data, err := transport.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, first, data)

	_, err = transport.ReadPacket()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStreamTransport_WriteAndClose(t *testing.T) {
	t.Parallel()

	conn := testutil.NewTestConn()
	transport := NewStreamTransport(conn, 0)

	require.NoError(t, transport.WritePacket([]byte{0, 0, 0, 11, 0, 0, 0, 1, 0, 1, 1}))
	assert.Equal(t, []byte{0, 0, 0, 11, 0, 0, 0, 1, 0, 1, 1}, conn.Written())

	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close())

	assert.Error(t, transport.WritePacket([]byte{0}))
	_, err := transport.ReadPacket()
	assert.Error(t, err)
}

func TestStreamTransport_RejectsOversizedPackets(t *testing.T) {
	t.Parallel()

	conn := testutil.NewTestConn()
	conn.AddEntry(testutil.AsByteTimelineEntries(0, 1, 0, 0)...)

	_, err := NewStreamTransport(conn, 1024).ReadPacket()
	assert.True(t, jdwp.IsMalformed(err))
}

func TestHandshake(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		client, vm := net.Pipe()
		defer client.Close()
		defer vm.Close()

		vmErr := make(chan error, 1)
		go func() { vmErr <- AcceptHandshake(vm) }()

		require.NoError(t, Handshake(client))
		require.NoError(t, <-vmErr)
	})

	t.Run("wrong text", func(t *testing.T) {
		t.Parallel()

		client, vm := net.Pipe()
		defer client.Close()
		defer vm.Close()

		go func() {
			buf := make([]byte, len(handshakeText))
			if _, err := io.ReadFull(vm, buf); err != nil {
				return
			}
			_, _ = vm.Write([]byte("JDWP-Handshak!"))
		}()

		err := Handshake(client)
		assert.ErrorIs(t, err, jdwp.ErrHandshakeFailed)
	})

	t.Run("connection closed", func(t *testing.T) {
		t.Parallel()

		client, vm := net.Pipe()
		defer client.Close()

		go func() {
			buf := make([]byte, len(handshakeText))
			_, _ = io.ReadFull(vm, buf)
			_ = vm.Close()
		}()

		err := Handshake(client)
		assert.ErrorIs(t, err, jdwp.ErrHandshakeFailed)
	})
}

func TestDialTCP(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	vmErr := make(chan error, 1)
	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			vmErr <- acceptErr
			return
		}
		defer conn.Close()
		if handshakeErr := AcceptHandshake(conn); handshakeErr != nil {
			vmErr <- handshakeErr
			return
		}

		data, readErr := jdwp.ReadPacket(conn, 0)
		if readErr != nil {
			vmErr <- readErr
			return
		}
		h, headerErr := jdwp.ParseHeader(data)
		if headerErr != nil {
			vmErr <- headerErr
			return
		}
		reply, encodeErr := jdwp.NewBootstrapCodec().EncodeReply(h.ID, jdwp.VersionReply{Description: "test VM", JDWPMajor: 17})
		if encodeErr != nil {
			vmErr <- encodeErr
			return
		}
		_, writeErr := conn.Write(reply)
		vmErr <- writeErr
	}()

	transport, err := DialTCP(ctx, listener.Addr().String(), DialConfig{Logger: testutil.NewLogForTesting(t.Name())})
	require.NoError(t, err)
	defer transport.Close()

	codec := jdwp.NewBootstrapCodec()
	table := jdwp.NewOutstanding()
	data, _, err := codec.EncodeAndRegister(1, jdwp.VersionCommand{}, table)
	require.NoError(t, err)
	require.NoError(t, transport.WritePacket(data))

	replyData, err := transport.ReadPacket()
	require.NoError(t, err)
	pkt, err := codec.Decode(replyData, table)
	require.NoError(t, err)
	assert.Equal(t, "test VM", pkt.Message.(jdwp.VersionReply).Description)
	require.NoError(t, <-vmErr)
}

func TestDialTCP_GivesUpWhenNobodyListens(t *testing.T) {
	t.Parallel()

	// Reserve a port and release it so that nothing is listening there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(10*time.Millisecond),
		backoff.WithMaxElapsedTime(200*time.Millisecond),
	)
	_, err = DialTCP(context.Background(), address, DialConfig{Backoff: b})
	require.Error(t, err)

	var opErr *net.OpError
	assert.True(t, errors.As(err, &opErr), "the last dial error should be reported, got %v", err)
}
