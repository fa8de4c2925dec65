/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

// ModKind identifies an event request modifier.
type ModKind uint8

const (
	ModKindCount           ModKind = 1
	ModKindConditional     ModKind = 2
	ModKindThreadOnly      ModKind = 3
	ModKindClassOnly       ModKind = 4
	ModKindClassMatch      ModKind = 5
	ModKindClassExclude    ModKind = 6
	ModKindLocationOnly    ModKind = 7
	ModKindExceptionOnly   ModKind = 8
	ModKindFieldOnly       ModKind = 9
	ModKindStep            ModKind = 10
	ModKindInstanceOnly    ModKind = 11
	ModKindSourceNameMatch ModKind = 12
)

// EventModifier restricts which events an event request reports.
type EventModifier interface {
	ModKind() ModKind
	writeModifier(w *wire.Writer)
}

// CountModifier reports only the Count-th event, then expires the request.
type CountModifier struct {
	Count int32 `json:"count"`
}

type ConditionalModifier struct {
	ExprID int32 `json:"exprID"`
}

type ThreadOnlyModifier struct {
	Thread wire.ThreadID `json:"thread"`
}

type ClassOnlyModifier struct {
	Class wire.ReferenceTypeID `json:"class"`
}

// ClassMatchModifier matches class names against a pattern with an optional leading or trailing '*'.
type ClassMatchModifier struct {
	Pattern string `json:"pattern"`
}

type ClassExcludeModifier struct {
	Pattern string `json:"pattern"`
}

type LocationOnlyModifier struct {
	Location wire.Location `json:"location"`
}

// ExceptionOnlyModifier restricts exception events. A zero Exception matches every exception type.
type ExceptionOnlyModifier struct {
	Exception wire.ReferenceTypeID `json:"exception"`
	Caught    bool                 `json:"caught"`
	Uncaught  bool                 `json:"uncaught"`
}

type FieldOnlyModifier struct {
	Declaring wire.ReferenceTypeID `json:"declaring"`
	Field     wire.FieldID         `json:"field"`
}

type StepModifier struct {
	Thread wire.ThreadID `json:"thread"`
	Size   StepSize      `json:"size"`
	Depth  StepDepth     `json:"depth"`
}

type InstanceOnlyModifier struct {
	Instance wire.ObjectID `json:"instance"`
}

type SourceNameMatchModifier struct {
	Pattern string `json:"pattern"`
}

func (CountModifier) ModKind() ModKind           { return ModKindCount }
func (ConditionalModifier) ModKind() ModKind     { return ModKindConditional }
func (ThreadOnlyModifier) ModKind() ModKind      { return ModKindThreadOnly }
func (ClassOnlyModifier) ModKind() ModKind       { return ModKindClassOnly }
func (ClassMatchModifier) ModKind() ModKind      { return ModKindClassMatch }
func (ClassExcludeModifier) ModKind() ModKind    { return ModKindClassExclude }
func (LocationOnlyModifier) ModKind() ModKind    { return ModKindLocationOnly }
func (ExceptionOnlyModifier) ModKind() ModKind   { return ModKindExceptionOnly }
func (FieldOnlyModifier) ModKind() ModKind       { return ModKindFieldOnly }
func (StepModifier) ModKind() ModKind            { return ModKindStep }
func (InstanceOnlyModifier) ModKind() ModKind    { return ModKindInstanceOnly }
func (SourceNameMatchModifier) ModKind() ModKind { return ModKindSourceNameMatch }

func (m CountModifier) writeModifier(w *wire.Writer)        { w.Int32(m.Count) }
func (m ConditionalModifier) writeModifier(w *wire.Writer)  { w.Int32(m.ExprID) }
func (m ThreadOnlyModifier) writeModifier(w *wire.Writer)   { w.ThreadID(m.Thread) }
func (m ClassOnlyModifier) writeModifier(w *wire.Writer)    { w.ReferenceTypeID(m.Class) }
func (m ClassMatchModifier) writeModifier(w *wire.Writer)   { w.String(m.Pattern) }
func (m ClassExcludeModifier) writeModifier(w *wire.Writer) { w.String(m.Pattern) }
func (m LocationOnlyModifier) writeModifier(w *wire.Writer) { w.Location(m.Location) }

func (m ExceptionOnlyModifier) writeModifier(w *wire.Writer) {
	w.ReferenceTypeID(m.Exception)
	w.Bool(m.Caught)
	w.Bool(m.Uncaught)
}

func (m FieldOnlyModifier) writeModifier(w *wire.Writer) {
	w.ReferenceTypeID(m.Declaring)
	w.FieldID(m.Field)
}

func (m StepModifier) writeModifier(w *wire.Writer) {
	w.ThreadID(m.Thread)
	w.Int32(int32(m.Size))
	w.Int32(int32(m.Depth))
}

func (m InstanceOnlyModifier) writeModifier(w *wire.Writer)    { w.ObjectID(m.Instance) }
func (m SourceNameMatchModifier) writeModifier(w *wire.Writer) { w.String(m.Pattern) }

func readModifier(r *wire.Reader) EventModifier {
	offset := r.Offset()
	kind := ModKind(r.Uint8())
	if r.Err() != nil {
		return nil
	}

	switch kind {
	case ModKindCount:
		return CountModifier{Count: r.Int32()}
	case ModKindConditional:
		return ConditionalModifier{ExprID: r.Int32()}
	case ModKindThreadOnly:
		return ThreadOnlyModifier{Thread: r.ThreadID()}
	case ModKindClassOnly:
		return ClassOnlyModifier{Class: r.ReferenceTypeID()}
	case ModKindClassMatch:
		return ClassMatchModifier{Pattern: r.String()}
	case ModKindClassExclude:
		return ClassExcludeModifier{Pattern: r.String()}
	case ModKindLocationOnly:
		return LocationOnlyModifier{Location: r.Location()}
	case ModKindExceptionOnly:
		return ExceptionOnlyModifier{Exception: r.ReferenceTypeID(), Caught: r.Bool(), Uncaught: r.Bool()}
	case ModKindFieldOnly:
		return FieldOnlyModifier{Declaring: r.ReferenceTypeID(), Field: r.FieldID()}
	case ModKindStep:
		return StepModifier{Thread: r.ThreadID(), Size: StepSize(r.Int32()), Depth: StepDepth(r.Int32())}
	case ModKindInstanceOnly:
		return InstanceOnlyModifier{Instance: r.ObjectID()}
	case ModKindSourceNameMatch:
		return SourceNameMatchModifier{Pattern: r.String()}
	default:
		r.Fail(fmt.Errorf("%w: unknown event modifier kind %d at offset %d", ErrMalformedPacket, uint8(kind), offset))
		return nil
	}
}

// SetEventRequestCommand asks the VM to report events of one kind.
type SetEventRequestCommand struct {
	EventKind     EventKind       `json:"eventKind"`
	SuspendPolicy SuspendPolicy   `json:"suspendPolicy"`
	Modifiers     []EventModifier `json:"modifiers"`
}

func (SetEventRequestCommand) Code() Code { return CmdEventRequestSet }

func (m SetEventRequestCommand) WritePayload(w *wire.Writer) {
	w.Uint8(uint8(m.EventKind))
	w.Uint8(uint8(m.SuspendPolicy))
	w.Int32(int32(len(m.Modifiers)))
	for i, mod := range m.Modifiers {
		if mod == nil {
			w.Fail(fmt.Errorf("event request modifier %d is nil", i))
			return
		}
		w.Uint8(uint8(mod.ModKind()))
		mod.writeModifier(w)
	}
}

func (m *SetEventRequestCommand) readPayload(r *wire.Reader) {
	m.EventKind = EventKind(r.Uint8())
	m.SuspendPolicy = SuspendPolicy(r.Uint8())
	n := r.Count(1)
	if n > 0 {
		m.Modifiers = make([]EventModifier, 0, n)
	}
	for i := 0; i < n && r.Err() == nil; i++ {
		m.Modifiers = append(m.Modifiers, readModifier(r))
	}
}

type SetEventRequestReply struct {
	RequestID int32 `json:"requestID"`
}

func (SetEventRequestReply) Code() Code { return CmdEventRequestSet }

func (m SetEventRequestReply) WritePayload(w *wire.Writer) { w.Int32(m.RequestID) }

func (m *SetEventRequestReply) readPayload(r *wire.Reader) { m.RequestID = r.Int32() }

type ClearEventRequestCommand struct {
	EventKind EventKind `json:"eventKind"`
	RequestID int32     `json:"requestID"`
}

func (ClearEventRequestCommand) Code() Code { return CmdEventRequestClear }

func (m ClearEventRequestCommand) WritePayload(w *wire.Writer) {
	w.Uint8(uint8(m.EventKind))
	w.Int32(m.RequestID)
}

func (m *ClearEventRequestCommand) readPayload(r *wire.Reader) {
	m.EventKind = EventKind(r.Uint8())
	m.RequestID = r.Int32()
}
