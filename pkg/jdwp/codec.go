/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"
	"math"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

// Codec encodes messages into packets and decodes packets into messages for one connection.
// It holds nothing but the connection's ID sizes, so one Codec may be shared by any number
// of goroutines. Every Writer and Reader it creates uses the same sizes.
type Codec struct {
	sizes wire.IDSizes
}

// NewCodec returns a codec for a connection whose ID sizes have been negotiated.
func NewCodec(sizes wire.IDSizes) (*Codec, error) {
	if err := sizes.Validate(); err != nil {
		return nil, err
	}
	return &Codec{sizes: sizes}, nil
}

// NewBootstrapCodec returns a codec for use before ID sizes are known. It can handle
// every packet whose payload carries no identifiers, which includes
// VirtualMachine.IDSizes and VirtualMachine.Version.
func NewBootstrapCodec() *Codec {
	return &Codec{}
}

func (c *Codec) IDSizes() wire.IDSizes {
	return c.sizes
}

// EncodeCommand frames m as a command packet with the given id.
func (c *Codec) EncodeCommand(id uint32, m Message) ([]byte, error) {
	code := m.Code()
	return c.encode(Header{ID: id, CommandSet: code.Set, Command: code.Command}, m)
}

// EncodeReply frames m as the reply to the request with the given id.
// An ErrorReply is sent as its error code with an empty payload.
func (c *Codec) EncodeReply(id uint32, m Message) ([]byte, error) {
	h := Header{ID: id, Flags: ReplyFlag}
	if er, isError := m.(ErrorReply); isError {
		h.ErrorCode = er.ErrorCode
		return c.frame(h, nil)
	}
	return c.encode(h, m)
}

// EncodeAndRegister encodes m as a command and registers it in table under id.
// Either both happen or neither does.
func (c *Codec) EncodeAndRegister(id uint32, m Message, table *Outstanding) ([]byte, *Pending, error) {
	p, err := table.Track(id, m)
	if err != nil {
		return nil, nil, err
	}

	data, err := c.EncodeCommand(id, m)
	if err != nil {
		table.Abandon(id)
		return nil, nil, err
	}
	return data, p, nil
}

func (c *Codec) encode(h Header, m Message) ([]byte, error) {
	w := wire.NewWriter(c.sizes)
	m.WritePayload(w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode %v: %w", m.Code(), err)
	}
	return c.frame(h, w.Bytes())
}

func (c *Codec) frame(h Header, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32-HeaderLength {
		return nil, fmt.Errorf("payload of %d bytes does not fit in a JDWP packet", len(payload))
	}

	h.Length = uint32(HeaderLength + len(payload))
	buf := make([]byte, 0, h.Length)
	buf = appendHeader(buf, h)
	return append(buf, payload...), nil
}

// Decode decodes one complete packet.
//
// A reply is matched against table by its id. The matching entry is removed and resolved
// with the decoded packet, or with the decode error if the reply cannot be parsed.
// A reply with a non-zero error code decodes to an ErrorReply without looking at its payload.
// A reply with no matching entry fails with ErrUnmatchedReply and leaves the table untouched.
//
// Commands and events are decoded through the registry and never consult the table.
//
// Every failure is a *DecodeError carrying the complete packet.
func (c *Codec) Decode(data []byte, table *Outstanding) (*Packet, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, &DecodeError{Raw: data, Err: err}
	}
	if int64(h.Length) != int64(len(data)) {
		return nil, &DecodeError{
			Header: h,
			Raw:    data,
			Err:    fmt.Errorf("%w: length field %d disagrees with %d bytes received", ErrMalformedPacket, h.Length, len(data)),
		}
	}

	if h.IsReply() {
		return c.decodeReply(h, data, table)
	}

	kind := KindCommand
	if h.CommandSet.IsEvent() {
		kind = KindEvent
	}

	reg, found := registry[h.Code()]
	if !found {
		return nil, &DecodeError{Header: h, Raw: data, Err: fmt.Errorf("%w: %v", ErrUnsupportedCommand, h.Code())}
	}

	msg, err := reg.command(wire.NewReader(data[HeaderLength:], c.sizes))
	if err != nil {
		return nil, &DecodeError{Header: h, Raw: data, Err: err}
	}
	return &Packet{Header: h, Kind: kind, Message: msg}, nil
}

func (c *Codec) decodeReply(h Header, data []byte, table *Outstanding) (*Packet, error) {
	var p *Pending
	found := false
	if table != nil {
		p, found = table.take(h.ID)
	}
	if !found {
		return nil, &DecodeError{Header: h, Raw: data, Err: fmt.Errorf("%w: id %d", ErrUnmatchedReply, h.ID)}
	}

	if h.ErrorCode != ErrorNone {
		pkt := &Packet{Header: h, Kind: KindReply, Message: ErrorReply{Of: p.Expect, ErrorCode: h.ErrorCode}, Pending: p}
		p.resolve(pkt, nil)
		return pkt, nil
	}

	msg, err := c.parseReply(p.Expect, data[HeaderLength:])
	if err != nil {
		derr := &DecodeError{Header: h, Raw: data, Pending: p, Err: err}
		p.resolve(nil, derr)
		return nil, derr
	}

	pkt := &Packet{Header: h, Kind: KindReply, Message: msg, Pending: p}
	p.resolve(pkt, nil)
	return pkt, nil
}

func (c *Codec) parseReply(expect Code, payload []byte) (Message, error) {
	reg, found := registry[expect]
	if !found {
		return nil, fmt.Errorf("%w: reply to %v", ErrUnsupportedCommand, expect)
	}

	r := wire.NewReader(payload, c.sizes)
	if reg.reply == nil {
		return parseEmptyReply(expect, r)
	}
	return reg.reply(r)
}
