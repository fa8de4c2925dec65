/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

// ChunkType is the four-character type of an Android DDM chunk, packed big-endian.
type ChunkType uint32

// ChunkTypeOf packs a four-character chunk name. It panics if name is not four bytes long.
func ChunkTypeOf(name string) ChunkType {
	if len(name) != 4 {
		panic(fmt.Sprintf("DDM chunk type must be 4 characters, got %q", name))
	}
	return ChunkType(uint32(name[0])<<24 | uint32(name[1])<<16 | uint32(name[2])<<8 | uint32(name[3]))
}

var (
	ChunkHELO = ChunkTypeOf("HELO")
	ChunkFEAT = ChunkTypeOf("FEAT")
	ChunkAPNM = ChunkTypeOf("APNM")
	ChunkWAIT = ChunkTypeOf("WAIT")
	ChunkEXIT = ChunkTypeOf("EXIT")
	ChunkFAIL = ChunkTypeOf("FAIL")
	ChunkHPIF = ChunkTypeOf("HPIF")
	ChunkHPGC = ChunkTypeOf("HPGC")
	ChunkHPDU = ChunkTypeOf("HPDU")
	ChunkHPDS = ChunkTypeOf("HPDS")
	ChunkREAE = ChunkTypeOf("REAE")
	ChunkREAQ = ChunkTypeOf("REAQ")
	ChunkREAL = ChunkTypeOf("REAL")
	ChunkMPRS = ChunkTypeOf("MPRS")
	ChunkMPRQ = ChunkTypeOf("MPRQ")
	ChunkMPSS = ChunkTypeOf("MPSS")
	ChunkMPSE = ChunkTypeOf("MPSE")
	ChunkSPSS = ChunkTypeOf("SPSS")
	ChunkSPSE = ChunkTypeOf("SPSE")
)

func (t ChunkType) String() string {
	b := []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(t))
		}
	}
	return string(b)
}

func (t ChunkType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DDMChunk is the payload of a DDM packet. Commands and replies share the shape.
type DDMChunk struct {
	Type ChunkType `json:"type"`
	Data []byte    `json:"data"`
}

func (DDMChunk) Code() Code { return CmdDDMChunk }

func (m DDMChunk) WritePayload(w *wire.Writer) {
	w.Uint32(uint32(m.Type))
	w.Uint32(uint32(len(m.Data)))
	w.Raw(m.Data)
}

func (m *DDMChunk) readPayload(r *wire.Reader) {
	m.Type = ChunkType(r.Uint32())
	n := r.Uint32()
	if r.Err() != nil {
		return
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.Fail(fmt.Errorf("%w: DDM chunk %v declares %d bytes, %d remaining", ErrMalformedPacket, m.Type, n, r.Remaining()))
		return
	}
	if n > 0 {
		m.Data = r.Raw(int(n))
	}
}
