/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

// Package trace decodes a recorded JDWP conversation. It follows both directions of the
// connection, pairs every reply with the command it answers and picks up the ID sizes
// from the VirtualMachine.IDSizes reply, so a capture can be decoded from its first packet.
package trace

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

// Direction tells which side of the connection sent a packet.
type Direction int

const (
	FromDebugger Direction = iota
	FromVM
)

func (d Direction) String() string {
	switch d {
	case FromDebugger:
		return "debugger"
	case FromVM:
		return "vm"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Direction) opposite() Direction {
	if d == FromDebugger {
		return FromVM
	}
	return FromDebugger
}

// Record describes one observed packet.
type Record struct {
	Seq       int         `json:"seq" yaml:"seq"`
	Direction Direction   `json:"direction" yaml:"direction"`
	Kind      string      `json:"kind" yaml:"kind"`
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	Header    jdwp.Header `json:"header" yaml:"header"`

	// Message is the decoded payload. It is nil when the packet could not be decoded.
	Message jdwp.Message `json:"message,omitempty" yaml:"message,omitempty"`

	// RequestSeq is the Seq of the command a reply answers, or zero if the command was not seen.
	RequestSeq int `json:"requestSeq,omitempty" yaml:"requestSeq,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

type commandKey struct {
	dir Direction
	id  uint32
}

// Tracer decodes the packets of one connection in the order they were captured.
// It is not safe for concurrent use.
type Tracer struct {
	log   logr.Logger
	codec *jdwp.Codec

	// pending holds the commands sent by each side that have not been answered yet.
	pending map[Direction]*jdwp.Outstanding
	seqs    map[commandKey]int
	seq     int
}

// NewTracer returns a tracer for a capture that starts at the beginning of a connection.
// Until the IDSizes reply is seen, only packets without identifiers can be decoded.
func NewTracer(log logr.Logger) *Tracer {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Tracer{
		log:   log,
		codec: jdwp.NewBootstrapCodec(),
		pending: map[Direction]*jdwp.Outstanding{
			FromDebugger: jdwp.NewOutstanding(),
			FromVM:       jdwp.NewOutstanding(),
		},
		seqs: make(map[commandKey]int),
	}
}

// NewTracerWithSizes returns a tracer for a capture whose ID sizes are known up front,
// for example one that starts in the middle of a connection.
func NewTracerWithSizes(sizes wire.IDSizes, log logr.Logger) (*Tracer, error) {
	codec, err := jdwp.NewCodec(sizes)
	if err != nil {
		return nil, err
	}
	t := NewTracer(log)
	t.codec = codec
	return t, nil
}

func (t *Tracer) IDSizes() wire.IDSizes {
	return t.codec.IDSizes()
}

// Observe decodes one packet sent in the given direction. Decoding problems are
// reported in the record; they never stop the trace.
func (t *Tracer) Observe(dir Direction, data []byte) Record {
	t.seq++
	rec := Record{Seq: t.seq, Direction: dir}

	h, err := jdwp.ParseHeader(data)
	if err != nil {
		rec.Kind = "invalid"
		rec.Error = err.Error()
		return rec
	}
	rec.Header = h

	if h.IsReply() {
		t.observeReply(dir, data, &rec)
	} else {
		t.observeCommand(dir, data, &rec)
	}
	return rec
}

func (t *Tracer) observeCommand(dir Direction, data []byte, rec *Record) {
	h := rec.Header
	rec.Name = h.Code().String()
	rec.Kind = jdwp.KindCommand.String()
	if h.CommandSet.IsEvent() {
		rec.Kind = jdwp.KindEvent.String()
	}

	pkt, err := t.codec.Decode(data, nil)
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Message = pkt.Message
	}

	if h.CommandSet.IsEvent() {
		return
	}

	// Register even commands that failed to decode so that their replies can still be paired.
	table := t.pending[dir]
	if table.Abandon(h.ID) {
		t.log.V(1).Info("Command id reused before its reply was seen", "direction", dir.String(), "id", h.ID)
	}
	if _, registerErr := table.Register(h.ID, h.Code()); registerErr != nil {
		// Cannot happen after the Abandon above.
		t.log.Error(registerErr, "Failed to track command", "id", h.ID)
		return
	}
	t.seqs[commandKey{dir: dir, id: h.ID}] = rec.Seq
}

func (t *Tracer) observeReply(dir Direction, data []byte, rec *Record) {
	rec.Kind = jdwp.KindReply.String()
	requester := dir.opposite()
	key := commandKey{dir: requester, id: rec.Header.ID}

	pkt, err := t.codec.Decode(data, t.pending[requester])
	if err != nil {
		rec.Error = err.Error()
		var derr *jdwp.DecodeError
		if errors.As(err, &derr) && derr.Pending != nil {
			rec.Name = derr.Pending.Expect.String()
			rec.RequestSeq = t.seqs[key]
			delete(t.seqs, key)
		}
		return
	}

	rec.Name = pkt.Pending.Expect.String()
	rec.Message = pkt.Message
	rec.RequestSeq = t.seqs[key]
	delete(t.seqs, key)

	if reply, isIDSizes := pkt.Message.(jdwp.IDSizesReply); isIDSizes {
		t.learn(reply.Sizes)
	}
}

func (t *Tracer) learn(sizes wire.IDSizes) {
	codec, err := jdwp.NewCodec(sizes)
	if err != nil {
		t.log.Error(err, "Ignoring invalid ID sizes reported by the VM")
		return
	}
	t.codec = codec
	t.log.V(1).Info("Learned ID sizes", "idSizes", sizes.String())
}

// Pending returns the number of commands sent in the given direction that have not been answered.
func (t *Tracer) Pending(dir Direction) int {
	return t.pending[dir].Len()
}
