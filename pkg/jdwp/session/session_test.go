/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package session

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
	"github.com/microsoft/jdwpwire/pkg/testutil"
)

const resultTimeout = 5 * time.Second

var testIDSizes = wire.UniformIDSizes(8)

// fakeVM is the VM end of a pipe. It reads and writes raw packets without a session.
type fakeVM struct {
	conn  net.Conn
	codec *jdwp.Codec
}

func startSession(t *testing.T, config Config) (*Session, *fakeVM) {
	t.Helper()

	clientConn, vmConn := net.Pipe()
	if config.Logger.GetSink() == nil {
		config.Logger = testutil.NewLogForTesting(t.Name())
	}
	s, err := New(NewStreamTransport(clientConn, 0), testIDSizes, config)
	require.NoError(t, err)

	codec, err := jdwp.NewCodec(testIDSizes)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		_ = vmConn.Close()
	})
	return s, &fakeVM{conn: vmConn, codec: codec}
}

func (vm *fakeVM) readCommand(t *testing.T) *jdwp.Packet {
	t.Helper()
	require.NoError(t, vm.conn.SetReadDeadline(time.Now().Add(resultTimeout)))
	data, err := jdwp.ReadPacket(vm.conn, 0)
	require.NoError(t, err)
	pkt, err := vm.codec.Decode(data, nil)
	require.NoError(t, err)
	return pkt
}

func (vm *fakeVM) expectNoPacket(t *testing.T, wait time.Duration) {
	t.Helper()
	require.NoError(t, vm.conn.SetReadDeadline(time.Now().Add(wait)))
	_, err := jdwp.ReadPacket(vm.conn, 0)
	require.ErrorIs(t, err, os.ErrDeadlineExceeded, "no packet should have been sent")
	require.NoError(t, vm.conn.SetReadDeadline(time.Time{}))
}

func (vm *fakeVM) reply(t *testing.T, id uint32, m jdwp.Message) {
	t.Helper()
	data, err := vm.codec.EncodeReply(id, m)
	require.NoError(t, err)
	_, err = vm.conn.Write(data)
	require.NoError(t, err)
}

func (vm *fakeVM) send(t *testing.T, id uint32, m jdwp.Message) {
	t.Helper()
	data, err := vm.codec.EncodeCommand(id, m)
	require.NoError(t, err)
	_, err = vm.conn.Write(data)
	require.NoError(t, err)
}

type sendResult struct {
	pkt *jdwp.Packet
	err error
}

func sendAsync(ctx context.Context, s *Session, cmd jdwp.Message) <-chan sendResult {
	results := make(chan sendResult, 1)
	go func() {
		pkt, err := s.Send(ctx, cmd)
		results <- sendResult{pkt: pkt, err: err}
	}()
	return results
}

func awaitResult(t *testing.T, results <-chan sendResult) sendResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(resultTimeout):
		t.Fatal("timed out waiting for Send to return")
		return sendResult{}
	}
}

func awaitEvent(t *testing.T, s *Session) *jdwp.Packet {
	t.Helper()
	select {
	case pkt, isOpen := <-s.Events():
		require.True(t, isOpen, "event channel closed unexpectedly")
		return pkt
	case <-time.After(resultTimeout):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func TestSession_SendReceivesReply(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})
	results := sendAsync(ctx, s, jdwp.NewLineTableCommand(100, 7))

	cmd := vm.readCommand(t)
	assert.Equal(t, jdwp.KindCommand, cmd.Kind)
	assert.Equal(t, jdwp.NewLineTableCommand(100, 7), cmd.Message)
	assert.Equal(t, uint32(27), cmd.Header.Length)

	expected := jdwp.LineTableReply{Start: 0, End: 12, Lines: []jdwp.LineTableEntry{{CodeIndex: 0, LineNumber: 3}}}
	vm.reply(t, cmd.Header.ID, expected)

	r := awaitResult(t, results)
	require.NoError(t, r.err)
	assert.Equal(t, expected, r.pkt.Message)
	assert.Equal(t, cmd.Header.ID, r.pkt.Header.ID)
	assert.Equal(t, 0, s.Outstanding())
}

func TestSession_OutOfOrderReplies(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})

	first := sendAsync(ctx, s, jdwp.NewFrameCountCommand(300))
	firstCmd := vm.readCommand(t)
	second := sendAsync(ctx, s, jdwp.NewFrameCountCommand(301))
	secondCmd := vm.readCommand(t)
	assert.NotEqual(t, firstCmd.Header.ID, secondCmd.Header.ID)

	vm.reply(t, secondCmd.Header.ID, jdwp.FrameCountReply{Count: 2})
	vm.reply(t, firstCmd.Header.ID, jdwp.FrameCountReply{Count: 1})

	r1 := awaitResult(t, first)
	r2 := awaitResult(t, second)
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, jdwp.FrameCountReply{Count: 1}, r1.pkt.Message)
	assert.Equal(t, jdwp.FrameCountReply{Count: 2}, r2.pkt.Message)
}

func TestSession_EventsArriveInOrder(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})
	results := sendAsync(ctx, s, jdwp.NewThreadNameCommand(300))
	cmd := vm.readCommand(t)

	// Events interleave with the reply; they must come out in the order they were sent.
	for i := int32(0); i < 3; i++ {
		vm.send(t, uint32(100+i), jdwp.CompositeEvent{
			SuspendPolicy: jdwp.SuspendPolicyNone,
			Events:        []jdwp.Event{jdwp.ThreadStartEvent{RequestID: i, Thread: wire.ThreadID(400 + i)}},
		})
		if i == 1 {
			vm.reply(t, cmd.Header.ID, jdwp.ThreadNameReply{Name: "main"})
		}
	}

	for i := int32(0); i < 3; i++ {
		pkt := awaitEvent(t, s)
		assert.Equal(t, jdwp.KindEvent, pkt.Kind)
		assert.Equal(t, uint32(100+i), pkt.Header.ID)
		composite, isComposite := pkt.Message.(jdwp.CompositeEvent)
		require.True(t, isComposite)
		require.Len(t, composite.Events, 1)
		assert.Equal(t, jdwp.ThreadStartEvent{RequestID: i, Thread: wire.ThreadID(400 + i)}, composite.Events[0])
	}

	r := awaitResult(t, results)
	require.NoError(t, r.err)
	assert.Equal(t, jdwp.ThreadNameReply{Name: "main"}, r.pkt.Message)
}

func TestSession_CancelAbandonsRequest(t *testing.T) {
	t.Parallel()

	decodeErrors := make(chan error, 4)
	s, vm := startSession(t, Config{DecodeErrorHandler: func(err error) { decodeErrors <- err }})

	ctx, cancel := context.WithCancel(context.Background())
	results := sendAsync(ctx, s, jdwp.NewFrameCountCommand(300))
	cmd := vm.readCommand(t)

	cancel()
	r := awaitResult(t, results)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, 0, s.Outstanding())

	vm.reply(t, cmd.Header.ID, jdwp.FrameCountReply{Count: 1})
	select {
	case err := <-decodeErrors:
		assert.True(t, jdwp.IsUnmatched(err), "late reply must be reported as unmatched, got %v", err)
	case <-time.After(resultTimeout):
		t.Fatal("late reply was not reported")
	}
	assert.Nil(t, s.Err(), "an unmatched reply does not end the session")
}

func TestSession_LateReplyIsLoggedAsError(t *testing.T) {
	t.Parallel()

	logged := make(chan error, 1)
	sink := testutil.NewMockLoggerSink()
	sink.On("WithValues", mock.Anything).Return(sink)
	sink.On("Error", mock.Anything, "Dropping reply that no request is waiting for", mock.Anything).
		Run(func(args mock.Arguments) { logged <- args.Error(0) }).
		Return().Once()
	sink.On("Error", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()

	s, vm := startSession(t, Config{Logger: logr.New(sink)})

	ctx, cancel := context.WithCancel(context.Background())
	results := sendAsync(ctx, s, jdwp.NewFrameCountCommand(300))
	cmd := vm.readCommand(t)
	cancel()
	require.ErrorIs(t, awaitResult(t, results).err, context.Canceled)

	vm.reply(t, cmd.Header.ID, jdwp.FrameCountReply{Count: 1})
	select {
	case err := <-logged:
		assert.True(t, jdwp.IsUnmatched(err), "got %v", err)
	case <-time.After(resultTimeout):
		t.Fatal("late reply was not logged as an error")
	}
	assert.Nil(t, s.Err())
}

func TestSession_IdenticalRequestsShareOneReply(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})

	first := sendAsync(ctx, s, jdwp.NewSignatureCommand(100))
	cmd := vm.readCommand(t)

	second := sendAsync(ctx, s, jdwp.NewSignatureCommand(100))
	vm.expectNoPacket(t, 200*time.Millisecond)

	vm.reply(t, cmd.Header.ID, jdwp.SignatureReply{Signature: "Lcom/example/Main;"})

	r1 := awaitResult(t, first)
	r2 := awaitResult(t, second)
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Same(t, r1.pkt, r2.pkt)
}

func TestSession_JoinedRequestSurvivesOneCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})

	firstCtx, cancelFirst := context.WithCancel(ctx)
	first := sendAsync(firstCtx, s, jdwp.NewMethodsCommand(100))
	cmd := vm.readCommand(t)

	second := sendAsync(ctx, s, jdwp.NewMethodsCommand(100))
	vm.expectNoPacket(t, 200*time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, awaitResult(t, first).err, context.Canceled)
	assert.Equal(t, 1, s.Outstanding(), "the request still has a waiter")

	vm.reply(t, cmd.Header.ID, jdwp.MethodsReply{})
	r := awaitResult(t, second)
	require.NoError(t, r.err)
	assert.Equal(t, jdwp.MethodsReply{}, r.pkt.Message)
}

func TestSession_ErrorReply(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})
	results := sendAsync(ctx, s, jdwp.FramesCommand{Thread: 300, StartFrame: 0, Length: -1})
	cmd := vm.readCommand(t)
	vm.reply(t, cmd.Header.ID, jdwp.ErrorReply{ErrorCode: jdwp.ErrorThreadNotSuspended})

	r := awaitResult(t, results)
	var er jdwp.ErrorReply
	require.True(t, errors.As(r.err, &er))
	assert.Equal(t, jdwp.ErrorThreadNotSuspended, er.ErrorCode)
	assert.Equal(t, jdwp.CmdThreadReferenceFrames, er.Of)
	require.NotNil(t, r.pkt)
	assert.Equal(t, jdwp.ErrorThreadNotSuspended, r.pkt.Header.ErrorCode)
}

func TestSession_VMCommandsAreDeliveredAndAnswered(t *testing.T) {
	t.Parallel()

	s, vm := startSession(t, Config{})

	vm.send(t, 0x40000001, jdwp.DDMChunk{Type: jdwp.ChunkHELO, Data: []byte{0, 0, 0, 1}})
	vm.send(t, 0x40000002, jdwp.RawMessage{Of: jdwp.Code{Set: 0x90, Command: 4}, Payload: []byte{1, 2}})

	ddm := awaitEvent(t, s)
	assert.Equal(t, jdwp.KindCommand, ddm.Kind)
	assert.Equal(t, jdwp.DDMChunk{Type: jdwp.ChunkHELO, Data: []byte{0, 0, 0, 1}}, ddm.Message)

	unknown := awaitEvent(t, s)
	assert.Equal(t, jdwp.KindCommand, unknown.Kind)
	assert.Equal(t, jdwp.RawMessage{Of: jdwp.Code{Set: 0x90, Command: 4}, Payload: []byte{1, 2}}, unknown.Message)

	replyErrs := make(chan error, 1)
	go func() {
		replyErrs <- s.Reply(ddm.Header.ID, jdwp.DDMChunk{Type: jdwp.ChunkHELO, Data: []byte("ok")})
	}()

	require.NoError(t, vm.conn.SetReadDeadline(time.Now().Add(resultTimeout)))
	data, err := jdwp.ReadPacket(vm.conn, 0)
	require.NoError(t, err)
	require.NoError(t, <-replyErrs)

	h, err := jdwp.ParseHeader(data)
	require.NoError(t, err)
	assert.True(t, h.IsReply())
	assert.Equal(t, uint32(0x40000001), h.ID)
	assert.Equal(t, []byte{'H', 'E', 'L', 'O', 0, 0, 0, 2, 'o', 'k'}, data[jdwp.HeaderLength:])
}

func TestSession_CloseFailsOutstandingRequests(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})
	results := sendAsync(ctx, s, jdwp.VersionCommand{})
	_ = vm.readCommand(t)

	require.NoError(t, s.Close())

	r := awaitResult(t, results)
	assert.ErrorIs(t, r.err, jdwp.ErrSessionClosed)
	assert.Equal(t, 0, s.Outstanding())
	assert.ErrorIs(t, s.Err(), jdwp.ErrSessionClosed)

	select {
	case _, isOpen := <-s.Events():
		assert.False(t, isOpen, "event channel must be closed after the session ends")
	case <-time.After(resultTimeout):
		t.Fatal("event channel was not closed")
	}

	_, err := s.Send(ctx, jdwp.VersionCommand{})
	assert.ErrorIs(t, err, jdwp.ErrSessionClosed)
	assert.NoError(t, s.Close(), "closing twice is harmless")
}

func TestSession_ConnectionLossEndsSession(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	s, vm := startSession(t, Config{})
	results := sendAsync(ctx, s, jdwp.AllThreadsCommand{})
	_ = vm.readCommand(t)

	require.NoError(t, vm.conn.Close())

	r := awaitResult(t, results)
	assert.ErrorIs(t, r.err, jdwp.ErrSessionClosed)

	select {
	case <-s.Done():
	case <-time.After(resultTimeout):
		t.Fatal("session did not end after the connection was lost")
	}
	assert.Error(t, s.Err())
}

func TestOpen_NegotiatesAndReplaysEarlyPackets(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	clientConn, vmConn := net.Pipe()
	defer vmConn.Close()

	vmDone := make(chan error, 1)
	go func() {
		vmDone <- func() error {
			bootstrap := jdwp.NewBootstrapCodec()
			data, err := jdwp.ReadPacket(vmConn, 0)
			if err != nil {
				return err
			}
			pkt, err := bootstrap.Decode(data, nil)
			if err != nil {
				return err
			}
			if pkt.Header.Code() != jdwp.CmdVirtualMachineIDSizes {
				return errors.New("expected IDSizes command first")
			}

			codec, err := jdwp.NewCodec(testIDSizes)
			if err != nil {
				return err
			}
			vmStart, err := codec.EncodeCommand(0x40000000, jdwp.CompositeEvent{
				SuspendPolicy: jdwp.SuspendPolicyAll,
				Events:        []jdwp.Event{jdwp.VMStartEvent{RequestID: 0, Thread: 300}},
			})
			if err != nil {
				return err
			}
			if _, err = vmConn.Write(vmStart); err != nil {
				return err
			}

			reply, err := bootstrap.EncodeReply(pkt.Header.ID, jdwp.IDSizesReply{Sizes: testIDSizes})
			if err != nil {
				return err
			}
			_, err = vmConn.Write(reply)
			return err
		}()
	}()

	s, err := Open(ctx, NewStreamTransport(clientConn, 0), Config{Logger: testutil.NewLogForTesting(t.Name())})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, <-vmDone)

	assert.Equal(t, testIDSizes, s.Codec().IDSizes())

	pkt := awaitEvent(t, s)
	composite, isComposite := pkt.Message.(jdwp.CompositeEvent)
	require.True(t, isComposite)
	assert.Equal(t, []jdwp.Event{jdwp.VMStartEvent{RequestID: 0, Thread: 300}}, composite.Events)
}

func TestNegotiateIDSizes_ErrorReply(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	clientConn, vmConn := net.Pipe()
	defer clientConn.Close()
	defer vmConn.Close()

	go func() {
		data, err := jdwp.ReadPacket(vmConn, 0)
		if err != nil {
			return
		}
		h, err := jdwp.ParseHeader(data)
		if err != nil {
			return
		}
		reply, _ := jdwp.NewBootstrapCodec().EncodeReply(h.ID, jdwp.ErrorReply{ErrorCode: jdwp.ErrorVMDead})
		_, _ = vmConn.Write(reply)
	}()

	_, _, err := NegotiateIDSizes(ctx, NewStreamTransport(clientConn, 0))
	var er jdwp.ErrorReply
	require.True(t, errors.As(err, &er))
	assert.Equal(t, jdwp.ErrorVMDead, er.ErrorCode)
	assert.Equal(t, jdwp.CmdVirtualMachineIDSizes, er.Of)
}

func TestNegotiateIDSizes_ContextCancelled(t *testing.T) {
	t.Parallel()

	clientConn, vmConn := net.Pipe()
	defer vmConn.Close()
	transport := NewStreamTransport(clientConn, 0)
	defer transport.Close()

	go func() {
		// Swallow the command and never answer.
		_, _ = jdwp.ReadPacket(vmConn, 0)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, _, err := NegotiateIDSizes(ctx, transport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
