/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package wire

import (
	"encoding/binary"
	"fmt"
)

// Writer is an append-only, big-endian producer of JDWP payload bytes.
// The first error encountered is kept and every later write becomes a no-op,
// so callers write a whole shape and check Err once.
type Writer struct {
	sizes IDSizes
	buf   []byte
	err   error
}

// NewWriter creates a Writer that encodes identifiers using the given sizes.
func NewWriter(sizes IDSizes) *Writer {
	return &Writer{sizes: sizes}
}

// IDSizes returns the configuration identifiers are written with.
func (w *Writer) IDSizes() IDSizes {
	return w.sizes
}

// Bytes returns the bytes written so far. The slice must not be modified.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Err() error {
	return w.err
}

// Fail records err unless an earlier error is already recorded.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) Uint8(v uint8) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, v)
}

func (w *Writer) Uint16(v uint16) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) Uint32(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) Uint64(v uint64) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *Writer) Int8(v int8)   { w.Uint8(uint8(v)) }
func (w *Writer) Int16(v int16) { w.Uint16(uint16(v)) }
func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }
func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

// String writes a 4-byte length followed by the raw bytes, with no terminator.
func (w *Writer) String(s string) {
	w.Uint32(uint32(len(s)))
	w.Raw([]byte(s))
}

// Raw appends bytes with no length prefix.
func (w *Writer) Raw(b []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, b...)
}

func (w *Writer) ReferenceTypeID(id ReferenceTypeID) {
	w.id(uint64(id), w.sizes.ReferenceTypeIDSize, "reference type")
}

func (w *Writer) ClassID(id ClassID) {
	w.id(uint64(id), w.sizes.ReferenceTypeIDSize, "class")
}

func (w *Writer) ObjectID(id ObjectID) {
	w.id(uint64(id), w.sizes.ObjectIDSize, "object")
}

func (w *Writer) ThreadID(id ThreadID) {
	w.id(uint64(id), w.sizes.ObjectIDSize, "thread")
}

func (w *Writer) ThreadGroupID(id ThreadGroupID) {
	w.id(uint64(id), w.sizes.ObjectIDSize, "thread group")
}

func (w *Writer) StringID(id StringID) {
	w.id(uint64(id), w.sizes.ObjectIDSize, "string")
}

func (w *Writer) MethodID(id MethodID) {
	w.id(uint64(id), w.sizes.MethodIDSize, "method")
}

func (w *Writer) FieldID(id FieldID) {
	w.id(uint64(id), w.sizes.FieldIDSize, "field")
}

func (w *Writer) FrameID(id FrameID) {
	w.id(uint64(id), w.sizes.FrameIDSize, "frame")
}

func (w *Writer) Location(l Location) {
	w.Uint8(uint8(l.TypeTag))
	w.ClassID(l.Class)
	w.MethodID(l.Method)
	w.Uint64(l.Index)
}

func (w *Writer) TaggedObjectID(t TaggedObjectID) {
	w.Uint8(uint8(t.Tag))
	w.ObjectID(t.Object)
}

// Value writes a tag byte followed by the untagged value.
func (w *Writer) Value(v Value) {
	w.Uint8(uint8(v.Tag))
	w.UntaggedValue(v)
}

// UntaggedValue writes the value bits only, sized by the value's tag.
func (w *Writer) UntaggedValue(v Value) {
	if v.Tag.IsObject() {
		w.ObjectID(ObjectID(v.Bits))
		return
	}

	switch v.Tag.primitiveWidth() {
	case 0:
	case 1:
		w.Uint8(uint8(v.Bits))
	case 2:
		w.Uint16(uint16(v.Bits))
	case 4:
		w.Uint32(uint32(v.Bits))
	case 8:
		w.Uint64(v.Bits)
	default:
		w.Fail(fmt.Errorf("cannot encode value with unknown tag %d", uint8(v.Tag)))
	}
}

func (w *Writer) id(v uint64, width int, kind string) {
	if w.err != nil {
		return
	}
	if width == 0 {
		w.err = fmt.Errorf("cannot write %s ID: %w", kind, ErrIDSizesNotNegotiated)
		return
	}
	if width < 0 || width > MaxIDSize {
		w.err = fmt.Errorf("cannot write %s ID with invalid width %d", kind, width)
		return
	}
	if width < MaxIDSize && v>>(8*uint(width)) != 0 {
		w.err = fmt.Errorf("%s ID %d does not fit in %d bytes", kind, v, width)
		return
	}

	for i := width - 1; i >= 0; i-- {
		w.buf = append(w.buf, byte(v>>(8*uint(i))))
	}
}
