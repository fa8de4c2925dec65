/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import "github.com/microsoft/jdwpwire/pkg/jdwp/wire"

// StackFrame command set.

// SlotRequest names a local variable slot and the tag of the value expected in it.
type SlotRequest struct {
	Slot int32    `json:"slot"`
	Tag  wire.Tag `json:"tag"`
}

type GetFrameValuesCommand struct {
	Thread wire.ThreadID `json:"thread"`
	Frame  wire.FrameID  `json:"frame"`
	Slots  []SlotRequest `json:"slots"`
}

func (GetFrameValuesCommand) Code() Code { return CmdStackFrameGetValues }

func (m GetFrameValuesCommand) WritePayload(w *wire.Writer) {
	w.ThreadID(m.Thread)
	w.FrameID(m.Frame)
	w.Int32(int32(len(m.Slots)))
	for _, s := range m.Slots {
		w.Int32(s.Slot)
		w.Uint8(uint8(s.Tag))
	}
}

func (m *GetFrameValuesCommand) readPayload(r *wire.Reader) {
	m.Thread = r.ThreadID()
	m.Frame = r.FrameID()
	n := r.Count(4 + 1)
	if n > 0 {
		m.Slots = make([]SlotRequest, n)
	}
	for i := 0; i < n; i++ {
		m.Slots[i] = SlotRequest{Slot: r.Int32(), Tag: wire.Tag(r.Uint8())}
	}
}

type GetFrameValuesReply struct {
	Values []wire.Value `json:"values"`
}

func (GetFrameValuesReply) Code() Code { return CmdStackFrameGetValues }

func (m GetFrameValuesReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Values)))
	for _, v := range m.Values {
		w.Value(v)
	}
}

func (m *GetFrameValuesReply) readPayload(r *wire.Reader) {
	n := r.Count(1)
	if n > 0 {
		m.Values = make([]wire.Value, n)
	}
	for i := 0; i < n; i++ {
		m.Values[i] = r.Value()
	}
}

type ThisObjectCommand struct {
	Thread wire.ThreadID `json:"thread"`
	Frame  wire.FrameID  `json:"frame"`
}

func (ThisObjectCommand) Code() Code { return CmdStackFrameThisObject }

func (m ThisObjectCommand) WritePayload(w *wire.Writer) {
	w.ThreadID(m.Thread)
	w.FrameID(m.Frame)
}

func (m *ThisObjectCommand) readPayload(r *wire.Reader) {
	m.Thread = r.ThreadID()
	m.Frame = r.FrameID()
}

type ThisObjectReply struct {
	// Object is zero for static and native frames.
	Object wire.TaggedObjectID `json:"object"`
}

func (ThisObjectReply) Code() Code { return CmdStackFrameThisObject }

func (m ThisObjectReply) WritePayload(w *wire.Writer) { w.TaggedObjectID(m.Object) }

func (m *ThisObjectReply) readPayload(r *wire.Reader) { m.Object = r.TaggedObjectID() }
