/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package wire

import (
	"encoding/binary"
	"fmt"
)

// Reader is a cursor over a JDWP payload. Like Writer, it keeps the first error:
// once a read fails every later read returns the zero value.
type Reader struct {
	sizes IDSizes
	data  []byte
	pos   int
	err   error
}

// NewReader creates a Reader over data that decodes identifiers using the given sizes.
func NewReader(data []byte, sizes IDSizes) *Reader {
	return &Reader{sizes: sizes, data: data}
}

func (r *Reader) IDSizes() IDSizes {
	return r.sizes
}

func (r *Reader) Err() error {
	return r.err
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of bytes not consumed yet.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Fail records err unless an earlier error is already recorded.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// ExpectEnd fails the reader if any payload bytes were left unconsumed.
func (r *Reader) ExpectEnd() {
	if r.err == nil && r.Remaining() != 0 {
		r.err = fmt.Errorf("%w: %d unexpected trailing bytes at offset %d", ErrMalformedPacket, r.Remaining(), r.pos)
	}
}

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.err = fmt.Errorf("%w: reading %s needs %d bytes at offset %d, %d remaining",
			ErrMalformedPacket, what, n, r.pos, r.Remaining())
		return nil
	}

	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) Uint8() uint8 {
	b := r.take(1, "uint8")
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Uint16() uint16 {
	b := r.take(2, "uint16")
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4, "uint32")
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8, "uint64")
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *Reader) Int8() int8   { return int8(r.Uint8()) }
func (r *Reader) Int16() int16 { return int16(r.Uint16()) }
func (r *Reader) Int32() int32 { return int32(r.Uint32()) }
func (r *Reader) Int64() int64 { return int64(r.Uint64()) }

func (r *Reader) Bool() bool {
	return r.Uint8() != 0
}

// String reads a 4-byte length and that many bytes.
func (r *Reader) String() string {
	start := r.pos
	n := r.Uint32()
	if r.err != nil {
		return ""
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.err = fmt.Errorf("%w: string length %d at offset %d overruns %d remaining bytes",
			ErrMalformedPacket, n, start, r.Remaining())
		return ""
	}
	return string(r.take(int(n), "string"))
}

// Raw consumes n bytes and returns a copy of them.
func (r *Reader) Raw(n int) []byte {
	b := r.take(n, "raw bytes")
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Rest consumes and returns a copy of every remaining byte.
func (r *Reader) Rest() []byte {
	return r.Raw(r.Remaining())
}

// Count reads a 4-byte element count and checks it against the remaining bytes,
// assuming every element occupies at least minElemSize bytes, and never less than one.
// It returns 0 on failure so callers can size slices from it directly.
func (r *Reader) Count(minElemSize int) int {
	minElemSize = max(minElemSize, 1)

	start := r.pos
	n := r.Int32()
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.err = fmt.Errorf("%w: negative element count %d at offset %d", ErrMalformedPacket, n, start)
		return 0
	}
	if int64(n)*int64(minElemSize) > int64(r.Remaining()) {
		r.err = fmt.Errorf("%w: %d elements at offset %d cannot fit in %d remaining bytes",
			ErrMalformedPacket, n, start, r.Remaining())
		return 0
	}
	return int(n)
}

func (r *Reader) ReferenceTypeID() ReferenceTypeID {
	return ReferenceTypeID(r.id(r.sizes.ReferenceTypeIDSize, "reference type"))
}

func (r *Reader) ClassID() ClassID {
	return ClassID(r.id(r.sizes.ReferenceTypeIDSize, "class"))
}

func (r *Reader) ObjectID() ObjectID {
	return ObjectID(r.id(r.sizes.ObjectIDSize, "object"))
}

func (r *Reader) ThreadID() ThreadID {
	return ThreadID(r.id(r.sizes.ObjectIDSize, "thread"))
}

func (r *Reader) ThreadGroupID() ThreadGroupID {
	return ThreadGroupID(r.id(r.sizes.ObjectIDSize, "thread group"))
}

func (r *Reader) StringID() StringID {
	return StringID(r.id(r.sizes.ObjectIDSize, "string"))
}

func (r *Reader) MethodID() MethodID {
	return MethodID(r.id(r.sizes.MethodIDSize, "method"))
}

func (r *Reader) FieldID() FieldID {
	return FieldID(r.id(r.sizes.FieldIDSize, "field"))
}

func (r *Reader) FrameID() FrameID {
	return FrameID(r.id(r.sizes.FrameIDSize, "frame"))
}

func (r *Reader) Location() Location {
	return Location{
		TypeTag: TypeTag(r.Uint8()),
		Class:   r.ClassID(),
		Method:  r.MethodID(),
		Index:   r.Uint64(),
	}
}

func (r *Reader) TaggedObjectID() TaggedObjectID {
	tag := Tag(r.Uint8())
	return TaggedObjectID{Tag: tag, Object: r.ObjectID()}
}

// Value reads a tag byte followed by the value it describes.
func (r *Reader) Value() Value {
	start := r.pos
	tag := Tag(r.Uint8())
	if r.err != nil {
		return Value{}
	}
	if !tag.IsObject() && tag.primitiveWidth() < 0 {
		r.err = fmt.Errorf("%w: unknown value tag %d at offset %d", ErrMalformedPacket, uint8(tag), start)
		return Value{}
	}
	return r.UntaggedValue(tag)
}

// UntaggedValue reads a value whose tag is known from context.
func (r *Reader) UntaggedValue(tag Tag) Value {
	if tag.IsObject() {
		return Value{Tag: tag, Bits: uint64(r.ObjectID())}
	}

	v := Value{Tag: tag}
	switch tag.primitiveWidth() {
	case 0:
	case 1:
		v.Bits = uint64(r.Uint8())
	case 2:
		v.Bits = uint64(r.Uint16())
	case 4:
		v.Bits = uint64(r.Uint32())
	case 8:
		v.Bits = r.Uint64()
	default:
		r.Fail(fmt.Errorf("%w: unknown value tag %d at offset %d", ErrMalformedPacket, uint8(tag), r.pos))
	}
	return v
}

func (r *Reader) id(width int, kind string) uint64 {
	if r.err != nil {
		return 0
	}
	if width == 0 {
		r.err = fmt.Errorf("cannot read %s ID: %w", kind, ErrIDSizesNotNegotiated)
		return 0
	}

	b := r.take(width, kind+" ID")
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
