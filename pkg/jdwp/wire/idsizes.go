/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPacket is returned when a payload is shorter than its shape requires,
	// or when a length field is inconsistent with the bytes actually present.
	ErrMalformedPacket = errors.New("malformed JDWP packet")

	// ErrIDSizesNotNegotiated is returned when an identifier is read or written
	// before the ID sizes of the target VM are known.
	ErrIDSizesNotNegotiated = errors.New("JDWP ID sizes have not been negotiated")
)

// MaxIDSize is the widest identifier JDWP allows.
const MaxIDSize = 8

// IDSizes holds the byte widths of the variable-size identifiers for one connection.
// Field order matches the VirtualMachine.IDSizes reply.
//
// The zero value means the sizes are not negotiated yet. Only identifier-free
// packets (such as the IDSizes command itself) can be encoded or decoded with it.
type IDSizes struct {
	FieldIDSize         int `json:"fieldIDSize"`
	MethodIDSize        int `json:"methodIDSize"`
	ObjectIDSize        int `json:"objectIDSize"`
	ReferenceTypeIDSize int `json:"referenceTypeIDSize"`
	FrameIDSize         int `json:"frameIDSize"`
}

// UniformIDSizes returns an IDSizes value where every identifier kind uses the same width.
func UniformIDSizes(width int) IDSizes {
	return IDSizes{
		FieldIDSize:         width,
		MethodIDSize:        width,
		ObjectIDSize:        width,
		ReferenceTypeIDSize: width,
		FrameIDSize:         width,
	}
}

// IsZero reports whether the sizes have not been negotiated.
func (s IDSizes) IsZero() bool {
	return s == IDSizes{}
}

// Validate checks that every width is between 1 and MaxIDSize bytes.
func (s IDSizes) Validate() error {
	checks := []struct {
		name  string
		width int
	}{
		{"field", s.FieldIDSize},
		{"method", s.MethodIDSize},
		{"object", s.ObjectIDSize},
		{"reference type", s.ReferenceTypeIDSize},
		{"frame", s.FrameIDSize},
	}

	for _, c := range checks {
		if c.width < 1 || c.width > MaxIDSize {
			return fmt.Errorf("invalid %s ID size %d: must be between 1 and %d", c.name, c.width, MaxIDSize)
		}
	}

	return nil
}

func (s IDSizes) String() string {
	return fmt.Sprintf("field=%d method=%d object=%d refType=%d frame=%d",
		s.FieldIDSize, s.MethodIDSize, s.ObjectIDSize, s.ReferenceTypeIDSize, s.FrameIDSize)
}
