/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderLength is the size of every JDWP packet header.
	HeaderLength = 11

	// ReplyFlag is set in the flags byte of reply packets.
	ReplyFlag uint8 = 0x80

	// DefaultMaxPacketLength bounds the packets ReadPacket accepts when no limit is given.
	DefaultMaxPacketLength = 16 * 1024 * 1024
)

// Header is a decoded packet header. CommandSet and Command are set for commands and events,
// ErrorCode for replies.
type Header struct {
	Length     uint32     `json:"length"`
	ID         uint32     `json:"id"`
	Flags      uint8      `json:"flags"`
	CommandSet CommandSet `json:"commandSet,omitempty"`
	Command    uint8      `json:"command,omitempty"`
	ErrorCode  ErrorCode  `json:"errorCode,omitempty"`
}

func (h Header) IsReply() bool {
	return h.Flags&ReplyFlag != 0
}

// Code returns the command code of a command or event header.
func (h Header) Code() Code {
	return Code{Set: h.CommandSet, Command: h.Command}
}

// PayloadLength returns the number of payload bytes the header announces.
func (h Header) PayloadLength() int {
	if h.Length < HeaderLength {
		return 0
	}
	return int(h.Length) - HeaderLength
}

func (h Header) String() string {
	if h.IsReply() {
		return fmt.Sprintf("reply id=%d len=%d error=%v", h.ID, h.Length, h.ErrorCode)
	}
	return fmt.Sprintf("command %v id=%d len=%d", h.Code(), h.ID, h.Length)
}

// ParseHeader decodes the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderLength {
		return Header{}, fmt.Errorf("%w: packet of %d bytes is shorter than the %d-byte header", ErrMalformedPacket, len(data), HeaderLength)
	}

	h := Header{
		Length: binary.BigEndian.Uint32(data[0:4]),
		ID:     binary.BigEndian.Uint32(data[4:8]),
		Flags:  data[8],
	}
	if h.IsReply() {
		h.ErrorCode = ErrorCode(binary.BigEndian.Uint16(data[9:11]))
	} else {
		h.CommandSet = CommandSet(data[9])
		h.Command = data[10]
	}
	return h, nil
}

func appendHeader(buf []byte, h Header) []byte {
	buf = binary.BigEndian.AppendUint32(buf, h.Length)
	buf = binary.BigEndian.AppendUint32(buf, h.ID)
	buf = append(buf, h.Flags)
	if h.IsReply() {
		return binary.BigEndian.AppendUint16(buf, uint16(h.ErrorCode))
	}
	return append(buf, byte(h.CommandSet), h.Command)
}

// ReadPacket reads one complete packet from r: the 4-byte length first, then the rest.
// Packets longer than maxLength are rejected before their body is read; a maxLength
// of zero means DefaultMaxPacketLength.
func ReadPacket(r io.Reader, maxLength int) ([]byte, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxPacketLength
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length < HeaderLength {
		return nil, fmt.Errorf("%w: packet length %d is shorter than the header", ErrMalformedPacket, length)
	}
	if uint64(length) > uint64(maxLength) {
		return nil, fmt.Errorf("%w: packet length %d exceeds maximum %d", ErrMalformedPacket, length, maxLength)
	}

	packet := make([]byte, length)
	copy(packet, lenBuf[:])
	if _, err := io.ReadFull(r, packet[4:]); err != nil {
		return nil, fmt.Errorf("failed to read packet body: %w", err)
	}
	return packet, nil
}

// PacketKind distinguishes the three kinds of decoded packets.
type PacketKind int

const (
	KindCommand PacketKind = iota
	KindReply
	KindEvent
)

func (k PacketKind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindReply:
		return "reply"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Packet is a decoded packet.
type Packet struct {
	Header  Header
	Kind    PacketKind
	Message Message

	// Pending is the request a reply was matched to. It is nil for commands and events.
	Pending *Pending
}
