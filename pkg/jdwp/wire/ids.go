/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package wire

import (
	"fmt"
	"math"
)

// Identifier types. Each kind is a distinct type so that, for example, a MethodID
// cannot be passed where a ReferenceTypeID is expected. The width used on the wire
// comes from IDSizes, never from the type.
type (
	ReferenceTypeID uint64
	ClassID         uint64 // reference-type width
	ObjectID        uint64
	ThreadID        uint64 // object width
	ThreadGroupID   uint64 // object width
	StringID        uint64 // object width
	MethodID        uint64
	FieldID         uint64
	FrameID         uint64
)

// TypeTag identifies the kind of a reference type.
type TypeTag uint8

const (
	TypeTagClass     TypeTag = 1
	TypeTagInterface TypeTag = 2
	TypeTagArray     TypeTag = 3
)

func (t TypeTag) String() string {
	switch t {
	case TypeTagClass:
		return "class"
	case TypeTagInterface:
		return "interface"
	case TypeTagArray:
		return "array"
	default:
		return fmt.Sprintf("typeTag(%d)", uint8(t))
	}
}

// Tag is the JDWP signature tag that prefixes a tagged value.
type Tag uint8

const (
	TagArray       Tag = '['
	TagByte        Tag = 'B'
	TagChar        Tag = 'C'
	TagObject      Tag = 'L'
	TagFloat       Tag = 'F'
	TagDouble      Tag = 'D'
	TagInt         Tag = 'I'
	TagLong        Tag = 'J'
	TagShort       Tag = 'S'
	TagVoid        Tag = 'V'
	TagBoolean     Tag = 'Z'
	TagString      Tag = 's'
	TagThread      Tag = 't'
	TagThreadGroup Tag = 'g'
	TagClassLoader Tag = 'l'
	TagClassObject Tag = 'c'
)

// IsObject reports whether values with this tag carry an object ID.
func (t Tag) IsObject() bool {
	switch t {
	case TagArray, TagObject, TagString, TagThread, TagThreadGroup, TagClassLoader, TagClassObject:
		return true
	default:
		return false
	}
}

// primitiveWidth returns the encoded size of a primitive value, or -1 for unknown tags.
func (t Tag) primitiveWidth() int {
	switch t {
	case TagVoid:
		return 0
	case TagByte, TagBoolean:
		return 1
	case TagChar, TagShort:
		return 2
	case TagInt, TagFloat:
		return 4
	case TagLong, TagDouble:
		return 8
	default:
		return -1
	}
}

func (t Tag) String() string {
	if t.IsObject() || t.primitiveWidth() >= 0 {
		return string(rune(t))
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Location is an executable position: a method in a class plus a code index.
type Location struct {
	TypeTag TypeTag  `json:"typeTag"`
	Class   ClassID  `json:"class"`
	Method  MethodID `json:"method"`
	Index   uint64   `json:"index"`
}

// TaggedObjectID is an object ID preceded by the tag of its runtime type.
type TaggedObjectID struct {
	Tag    Tag      `json:"tag"`
	Object ObjectID `json:"object"`
}

// Value is a tagged JDWP value. Primitive values keep their raw bits in Bits;
// object values keep the object ID in Bits.
type Value struct {
	Tag  Tag    `json:"tag"`
	Bits uint64 `json:"bits"`
}

func BooleanValue(v bool) Value {
	if v {
		return Value{Tag: TagBoolean, Bits: 1}
	}
	return Value{Tag: TagBoolean}
}

func ByteValue(v int8) Value     { return Value{Tag: TagByte, Bits: uint64(uint8(v))} }
func CharValue(v uint16) Value   { return Value{Tag: TagChar, Bits: uint64(v)} }
func ShortValue(v int16) Value   { return Value{Tag: TagShort, Bits: uint64(uint16(v))} }
func IntValue(v int32) Value     { return Value{Tag: TagInt, Bits: uint64(uint32(v))} }
func LongValue(v int64) Value    { return Value{Tag: TagLong, Bits: uint64(v)} }
func FloatValue(v float32) Value { return Value{Tag: TagFloat, Bits: uint64(math.Float32bits(v))} }
func DoubleValue(v float64) Value {
	return Value{Tag: TagDouble, Bits: math.Float64bits(v)}
}
func VoidValue() Value { return Value{Tag: TagVoid} }

// ObjectValue returns a value referring to an object. The tag must be an object tag.
func ObjectValue(tag Tag, id ObjectID) Value {
	return Value{Tag: tag, Bits: uint64(id)}
}

func (v Value) Boolean() bool    { return v.Bits != 0 }
func (v Value) Int() int32       { return int32(uint32(v.Bits)) }
func (v Value) Long() int64      { return int64(v.Bits) }
func (v Value) Float() float32   { return math.Float32frombits(uint32(v.Bits)) }
func (v Value) Double() float64  { return math.Float64frombits(v.Bits) }
func (v Value) Object() ObjectID { return ObjectID(v.Bits) }

func (v Value) String() string {
	switch v.Tag {
	case TagBoolean:
		return fmt.Sprintf("Z:%t", v.Boolean())
	case TagByte:
		return fmt.Sprintf("B:%d", int8(v.Bits))
	case TagChar:
		return fmt.Sprintf("C:%d", uint16(v.Bits))
	case TagShort:
		return fmt.Sprintf("S:%d", int16(v.Bits))
	case TagInt:
		return fmt.Sprintf("I:%d", v.Int())
	case TagLong:
		return fmt.Sprintf("J:%d", v.Long())
	case TagFloat:
		return fmt.Sprintf("F:%g", v.Float())
	case TagDouble:
		return fmt.Sprintf("D:%g", v.Double())
	case TagVoid:
		return "V"
	default:
		return fmt.Sprintf("%s:%d", v.Tag, v.Bits)
	}
}
