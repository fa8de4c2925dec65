/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidwartell/go-onecontext/onecontext"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/smallnest/chanx"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
	"github.com/microsoft/jdwpwire/pkg/resiliency"
)

const (
	defaultEventQueueCapacity = 16

	// maxIDAttempts bounds the search for a free request id after the counter wraps.
	maxIDAttempts = 16

	readerShutdownTimeout = 5 * time.Second
)

// Config contains configuration for creating a Session.
type Config struct {
	// Logger for session operations. Packet-level traffic is logged at V(1).
	Logger logr.Logger

	// EventQueueCapacity is the initial capacity of the event queue. The queue grows as needed.
	EventQueueCapacity int

	// Replay holds packets read before the session was created, such as those returned
	// by NegotiateIDSizes. They are dispatched before anything read from the transport.
	Replay [][]byte

	// DecodeErrorHandler is called for every packet the session could not decode.
	// Unmatched replies and malformed packets are logged as errors and dropped after the call;
	// the session keeps running.
	DecodeErrorHandler func(err error)
}

// Session multiplexes commands over one JDWP connection.
//
// A single goroutine reads and decodes every packet in stream order. Replies complete the
// Send call waiting for them; events and commands sent by the VM are delivered, in the
// order they arrived, on the channel returned by Events.
type Session struct {
	id        uuid.UUID
	log       logr.Logger
	config    Config
	transport Transport
	codec     *jdwp.Codec
	table     *jdwp.Outstanding

	lastID atomic.Uint32

	events *chanx.UnboundedChan[*jdwp.Packet]

	lifetimeCtx context.Context
	cancel      context.CancelFunc
	readerDone  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Open negotiates ID sizes over t and starts a session using them.
func Open(ctx context.Context, t Transport, config Config) (*Session, error) {
	sizes, early, err := NegotiateIDSizes(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to negotiate ID sizes: %w", err)
	}
	config.Replay = append(early, config.Replay...)
	s, err := New(t, sizes, config)
	if err != nil {
		return nil, err
	}
	// The negotiation used the first request id.
	s.lastID.Store(negotiationRequestID)
	return s, nil
}

// New starts a session over a transport whose ID sizes are already known.
// The session owns the transport from now on and closes it when the session ends.
func New(t Transport, sizes wire.IDSizes, config Config) (*Session, error) {
	codec, err := jdwp.NewCodec(sizes)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	log := config.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	log = log.WithValues("jdwpSession", id.String())

	capacity := config.EventQueueCapacity
	if capacity <= 0 {
		capacity = defaultEventQueueCapacity
	}

	lifetimeCtx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:        id,
		log:       log,
		config:    config,
		transport: t,
		codec:     codec,
		table:     jdwp.NewOutstanding(),
		// The queue is drained and closed by the reader when it exits, so it is not tied to the session lifetime.
		events:      chanx.NewUnboundedChan[*jdwp.Packet](context.Background(), capacity),
		lifetimeCtx: lifetimeCtx,
		cancel:      cancel,
		readerDone:  make(chan struct{}),
	}

	log.V(1).Info("JDWP session started", "idSizes", sizes.String())
	go s.readLoop()
	return s, nil
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Codec returns the codec the session encodes and decodes with.
func (s *Session) Codec() *jdwp.Codec {
	return s.codec
}

// Events returns the stream of events and VM-originated commands, in arrival order.
// The channel is closed after the session ends and every queued packet has been received.
func (s *Session) Events() <-chan *jdwp.Packet {
	return s.events.Out
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.lifetimeCtx.Done()
}

// Err returns the reason the session ended, or nil while it is running.
func (s *Session) Err() error {
	if s.lifetimeCtx.Err() == nil {
		return nil
	}
	return s.closeErr
}

// Outstanding returns the number of requests waiting for a reply.
func (s *Session) Outstanding() int {
	return s.table.Len()
}

// Send sends cmd and waits for its reply.
//
// If cmd is keyable and an identical request is already outstanding, no packet is sent;
// the caller waits for the reply to the earlier request instead.
//
// The wait ends when the reply arrives, when ctx is done, or when the session ends.
// A caller that stops waiting gives up its interest in the request; the request is
// abandoned once nobody waits for it. A reply that arrives after that matches no request;
// it is logged as an error and passed to Config.DecodeErrorHandler.
//
// A reply carrying a JDWP error code is returned together with a jdwp.ErrorReply error.
func (s *Session) Send(ctx context.Context, cmd jdwp.Message) (*jdwp.Packet, error) {
	if s.lifetimeCtx.Err() != nil {
		return nil, s.closedError()
	}

	p, joined := s.join(cmd)
	if joined {
		s.log.V(1).Info("Joined outstanding request", "command", cmd.Code().String(), "id", p.ID)
	} else {
		var err error
		p, err = s.sendNew(cmd)
		if err != nil {
			return nil, err
		}
	}

	waitCtx, cancel := onecontext.Merge(ctx, s.lifetimeCtx)
	defer cancel()

	select {
	case <-p.Done():
	case <-waitCtx.Done():
		if s.table.Release(p) {
			s.log.V(1).Info("Abandoned request", "command", cmd.Code().String(), "id", p.ID)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The session ended; the drain may have resolved p with a more specific reason.
		select {
		case <-p.Done():
		default:
			return nil, s.closedError()
		}
	}

	pkt, err := p.Result()
	if err != nil {
		return nil, err
	}
	if er, isError := pkt.Message.(jdwp.ErrorReply); isError {
		return pkt, er
	}
	return pkt, nil
}

func (s *Session) join(cmd jdwp.Message) (*jdwp.Pending, bool) {
	key, keyable := jdwp.KeyOf(cmd)
	if !keyable {
		return nil, false
	}
	return s.table.Join(key)
}

func (s *Session) sendNew(cmd jdwp.Message) (*jdwp.Pending, error) {
	var (
		data []byte
		p    *jdwp.Pending
		err  error
	)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.lastID.Add(1)
		data, p, err = s.codec.EncodeAndRegister(id, cmd, s.table)
		if !errors.Is(err, jdwp.ErrDuplicateRequestID) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.V(1).Info("Sending command", "command", cmd.Code().String(), "id", p.ID, "length", len(data))
	if writeErr := s.transport.WritePacket(data); writeErr != nil {
		s.table.Abandon(p.ID)
		s.shutdown(writeErr)
		return nil, fmt.Errorf("failed to send %v: %w", cmd.Code(), writeErr)
	}
	return p, nil
}

// Reply answers a command the VM sent, such as a DDM chunk.
func (s *Session) Reply(id uint32, reply jdwp.Message) error {
	if s.lifetimeCtx.Err() != nil {
		return s.closedError()
	}

	data, err := s.codec.EncodeReply(id, reply)
	if err != nil {
		return err
	}
	if writeErr := s.transport.WritePacket(data); writeErr != nil {
		s.shutdown(writeErr)
		return fmt.Errorf("failed to send reply %d: %w", id, writeErr)
	}
	return nil
}

// Close ends the session, closes the transport and fails every outstanding request
// with ErrSessionClosed.
func (s *Session) Close() error {
	s.shutdown(jdwp.ErrSessionClosed)

	if !resiliency.RunWithTimeout(func() { <-s.readerDone }, readerShutdownTimeout) {
		return fmt.Errorf("JDWP session reader did not stop within %v", readerShutdownTimeout)
	}
	return nil
}

func (s *Session) closedError() error {
	if errors.Is(s.closeErr, jdwp.ErrSessionClosed) {
		return s.closeErr
	}
	return fmt.Errorf("%w: %w", jdwp.ErrSessionClosed, s.closeErr)
}

func (s *Session) shutdown(reason error) {
	s.closeOnce.Do(func() {
		s.closeErr = reason
		s.cancel()

		if closeErr := s.transport.Close(); closeErr != nil {
			s.log.V(1).Info("Failed to close transport", "error", closeErr.Error())
		}

		drained := s.table.DrainWithError(s.closedError())
		if errors.Is(reason, jdwp.ErrSessionClosed) {
			s.log.V(1).Info("JDWP session closed", "drainedRequests", drained)
		} else {
			s.log.Error(reason, "JDWP session ended", "drainedRequests", drained)
		}
	})
}

func (s *Session) readLoop() {
	defer close(s.readerDone)
	defer close(s.events.In)
	defer func() {
		if panicErr := resiliency.MakePanicError(recover(), s.log); panicErr != nil {
			s.shutdown(panicErr)
		}
	}()

	for _, data := range s.config.Replay {
		s.dispatch(data)
	}

	for {
		data, readErr := s.transport.ReadPacket()
		if readErr != nil {
			if s.lifetimeCtx.Err() == nil {
				s.shutdown(readErr)
			}
			return
		}
		s.dispatch(data)
	}
}

func (s *Session) dispatch(data []byte) {
	pkt, err := s.codec.Decode(data, s.table)
	if err != nil {
		s.handleDecodeError(err)
		return
	}

	s.log.V(1).Info("Received packet", "kind", pkt.Kind.String(), "header", pkt.Header.String())
	if pkt.Kind == jdwp.KindReply {
		// Decode already completed the waiting request.
		return
	}
	s.events.In <- pkt
}

func (s *Session) handleDecodeError(err error) {
	if s.config.DecodeErrorHandler != nil {
		s.config.DecodeErrorHandler(err)
	}

	var derr *jdwp.DecodeError
	isDecodeErr := errors.As(err, &derr)

	switch {
	case jdwp.IsUnmatched(err):
		s.log.Error(err, "Dropping reply that no request is waiting for")

	case jdwp.IsUnsupported(err) && isDecodeErr && !derr.Header.IsReply():
		// Commands the codec has no shape for are still delivered so the caller can answer them.
		kind := jdwp.KindCommand
		if derr.Header.CommandSet.IsEvent() {
			kind = jdwp.KindEvent
		}
		s.events.In <- &jdwp.Packet{
			Header:  derr.Header,
			Kind:    kind,
			Message: jdwp.RawMessage{Of: derr.Header.Code(), Payload: derr.Payload()},
		}

	default:
		// A malformed reply has already failed the request it answered.
		s.log.Error(err, "Dropping packet that could not be decoded")
	}
}
