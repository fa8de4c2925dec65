/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

// Event is one event inside a composite event packet.
// RequestID is the id returned by EventRequest.Set, or 0 for automatically generated events.
type Event interface {
	EventKind() EventKind
	writeEvent(w *wire.Writer)
}

type VMStartEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
}

type SingleStepEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
	Location  wire.Location `json:"location"`
}

type BreakpointEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
	Location  wire.Location `json:"location"`
}

type MethodEntryEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
	Location  wire.Location `json:"location"`
}

type MethodExitEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
	Location  wire.Location `json:"location"`
}

type MethodExitWithReturnValueEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
	Location  wire.Location `json:"location"`
	Value     wire.Value    `json:"value"`
}

type MonitorContendedEnterEvent struct {
	RequestID int32               `json:"requestID"`
	Thread    wire.ThreadID       `json:"thread"`
	Object    wire.TaggedObjectID `json:"object"`
	Location  wire.Location       `json:"location"`
}

type MonitorContendedEnteredEvent struct {
	RequestID int32               `json:"requestID"`
	Thread    wire.ThreadID       `json:"thread"`
	Object    wire.TaggedObjectID `json:"object"`
	Location  wire.Location       `json:"location"`
}

type MonitorWaitEvent struct {
	RequestID int32               `json:"requestID"`
	Thread    wire.ThreadID       `json:"thread"`
	Object    wire.TaggedObjectID `json:"object"`
	Location  wire.Location       `json:"location"`
	Timeout   int64               `json:"timeout"`
}

type MonitorWaitedEvent struct {
	RequestID int32               `json:"requestID"`
	Thread    wire.ThreadID       `json:"thread"`
	Object    wire.TaggedObjectID `json:"object"`
	Location  wire.Location       `json:"location"`
	TimedOut  bool                `json:"timedOut"`
}

// ExceptionEvent reports a thrown exception. CatchLocation is zero when the exception is uncaught.
type ExceptionEvent struct {
	RequestID     int32               `json:"requestID"`
	Thread        wire.ThreadID       `json:"thread"`
	Location      wire.Location       `json:"location"`
	Exception     wire.TaggedObjectID `json:"exception"`
	CatchLocation wire.Location       `json:"catchLocation"`
}

type ThreadStartEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
}

type ThreadDeathEvent struct {
	RequestID int32         `json:"requestID"`
	Thread    wire.ThreadID `json:"thread"`
}

type ClassPrepareEvent struct {
	RequestID  int32                `json:"requestID"`
	Thread     wire.ThreadID        `json:"thread"`
	RefTypeTag wire.TypeTag         `json:"refTypeTag"`
	TypeID     wire.ReferenceTypeID `json:"typeID"`
	Signature  string               `json:"signature"`
	Status     ClassStatus          `json:"status"`
}

type ClassUnloadEvent struct {
	RequestID int32  `json:"requestID"`
	Signature string `json:"signature"`
}

type FieldAccessEvent struct {
	RequestID  int32                `json:"requestID"`
	Thread     wire.ThreadID        `json:"thread"`
	Location   wire.Location        `json:"location"`
	RefTypeTag wire.TypeTag         `json:"refTypeTag"`
	TypeID     wire.ReferenceTypeID `json:"typeID"`
	Field      wire.FieldID         `json:"field"`
	// Object is zero for static fields.
	Object wire.TaggedObjectID `json:"object"`
}

type FieldModificationEvent struct {
	RequestID  int32                `json:"requestID"`
	Thread     wire.ThreadID        `json:"thread"`
	Location   wire.Location        `json:"location"`
	RefTypeTag wire.TypeTag         `json:"refTypeTag"`
	TypeID     wire.ReferenceTypeID `json:"typeID"`
	Field      wire.FieldID         `json:"field"`
	Object     wire.TaggedObjectID  `json:"object"`
	ValueToBe  wire.Value           `json:"valueToBe"`
}

type VMDeathEvent struct {
	RequestID int32 `json:"requestID"`
}

func (VMStartEvent) EventKind() EventKind                   { return EventKindVMStart }
func (SingleStepEvent) EventKind() EventKind                { return EventKindSingleStep }
func (BreakpointEvent) EventKind() EventKind                { return EventKindBreakpoint }
func (MethodEntryEvent) EventKind() EventKind               { return EventKindMethodEntry }
func (MethodExitEvent) EventKind() EventKind                { return EventKindMethodExit }
func (MonitorWaitEvent) EventKind() EventKind               { return EventKindMonitorWait }
func (MonitorWaitedEvent) EventKind() EventKind             { return EventKindMonitorWaited }
func (ExceptionEvent) EventKind() EventKind                 { return EventKindException }
func (ThreadStartEvent) EventKind() EventKind               { return EventKindThreadStart }
func (ThreadDeathEvent) EventKind() EventKind               { return EventKindThreadDeath }
func (ClassPrepareEvent) EventKind() EventKind              { return EventKindClassPrepare }
func (ClassUnloadEvent) EventKind() EventKind               { return EventKindClassUnload }
func (FieldAccessEvent) EventKind() EventKind               { return EventKindFieldAccess }
func (FieldModificationEvent) EventKind() EventKind         { return EventKindFieldModification }
func (VMDeathEvent) EventKind() EventKind                   { return EventKindVMDeath }
func (MonitorContendedEnterEvent) EventKind() EventKind     { return EventKindMonitorContendedEnter }
func (MonitorContendedEnteredEvent) EventKind() EventKind   { return EventKindMonitorContendedEntered }
func (MethodExitWithReturnValueEvent) EventKind() EventKind { return EventKindMethodExitWithReturnValue }

func writeLocatable(w *wire.Writer, requestID int32, thread wire.ThreadID, loc wire.Location) {
	w.Int32(requestID)
	w.ThreadID(thread)
	w.Location(loc)
}

func writeMonitor(w *wire.Writer, requestID int32, thread wire.ThreadID, obj wire.TaggedObjectID, loc wire.Location) {
	w.Int32(requestID)
	w.ThreadID(thread)
	w.TaggedObjectID(obj)
	w.Location(loc)
}

func (e VMStartEvent) writeEvent(w *wire.Writer) {
	w.Int32(e.RequestID)
	w.ThreadID(e.Thread)
}

func (e SingleStepEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
}

func (e BreakpointEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
}

func (e MethodEntryEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
}

func (e MethodExitEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
}

func (e MethodExitWithReturnValueEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
	w.Value(e.Value)
}

func (e MonitorContendedEnterEvent) writeEvent(w *wire.Writer) {
	writeMonitor(w, e.RequestID, e.Thread, e.Object, e.Location)
}

func (e MonitorContendedEnteredEvent) writeEvent(w *wire.Writer) {
	writeMonitor(w, e.RequestID, e.Thread, e.Object, e.Location)
}

func (e MonitorWaitEvent) writeEvent(w *wire.Writer) {
	writeMonitor(w, e.RequestID, e.Thread, e.Object, e.Location)
	w.Int64(e.Timeout)
}

func (e MonitorWaitedEvent) writeEvent(w *wire.Writer) {
	writeMonitor(w, e.RequestID, e.Thread, e.Object, e.Location)
	w.Bool(e.TimedOut)
}

func (e ExceptionEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
	w.TaggedObjectID(e.Exception)
	w.Location(e.CatchLocation)
}

func (e ThreadStartEvent) writeEvent(w *wire.Writer) {
	w.Int32(e.RequestID)
	w.ThreadID(e.Thread)
}

func (e ThreadDeathEvent) writeEvent(w *wire.Writer) {
	w.Int32(e.RequestID)
	w.ThreadID(e.Thread)
}

func (e ClassPrepareEvent) writeEvent(w *wire.Writer) {
	w.Int32(e.RequestID)
	w.ThreadID(e.Thread)
	w.Uint8(uint8(e.RefTypeTag))
	w.ReferenceTypeID(e.TypeID)
	w.String(e.Signature)
	w.Int32(int32(e.Status))
}

func (e ClassUnloadEvent) writeEvent(w *wire.Writer) {
	w.Int32(e.RequestID)
	w.String(e.Signature)
}

func (e FieldAccessEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
	w.Uint8(uint8(e.RefTypeTag))
	w.ReferenceTypeID(e.TypeID)
	w.FieldID(e.Field)
	w.TaggedObjectID(e.Object)
}

func (e FieldModificationEvent) writeEvent(w *wire.Writer) {
	writeLocatable(w, e.RequestID, e.Thread, e.Location)
	w.Uint8(uint8(e.RefTypeTag))
	w.ReferenceTypeID(e.TypeID)
	w.FieldID(e.Field)
	w.TaggedObjectID(e.Object)
	w.Value(e.ValueToBe)
}

func (e VMDeathEvent) writeEvent(w *wire.Writer) {
	w.Int32(e.RequestID)
}

// readEvent parses one event. An unknown kind fails the reader with ErrUnsupportedCommand
// because the size of its body, and so the start of the next event, is unknown.
func readEvent(r *wire.Reader) Event {
	offset := r.Offset()
	kind := EventKind(r.Uint8())
	if r.Err() != nil {
		return nil
	}

	switch kind {
	case EventKindVMStart:
		return VMStartEvent{RequestID: r.Int32(), Thread: r.ThreadID()}
	case EventKindSingleStep:
		return SingleStepEvent{RequestID: r.Int32(), Thread: r.ThreadID(), Location: r.Location()}
	case EventKindBreakpoint:
		return BreakpointEvent{RequestID: r.Int32(), Thread: r.ThreadID(), Location: r.Location()}
	case EventKindMethodEntry:
		return MethodEntryEvent{RequestID: r.Int32(), Thread: r.ThreadID(), Location: r.Location()}
	case EventKindMethodExit:
		return MethodExitEvent{RequestID: r.Int32(), Thread: r.ThreadID(), Location: r.Location()}
	case EventKindMethodExitWithReturnValue:
		return MethodExitWithReturnValueEvent{
			RequestID: r.Int32(),
			Thread:    r.ThreadID(),
			Location:  r.Location(),
			Value:     r.Value(),
		}
	case EventKindMonitorContendedEnter:
		return MonitorContendedEnterEvent{
			RequestID: r.Int32(),
			Thread:    r.ThreadID(),
			Object:    r.TaggedObjectID(),
			Location:  r.Location(),
		}
	case EventKindMonitorContendedEntered:
		return MonitorContendedEnteredEvent{
			RequestID: r.Int32(),
			Thread:    r.ThreadID(),
			Object:    r.TaggedObjectID(),
			Location:  r.Location(),
		}
	case EventKindMonitorWait:
		return MonitorWaitEvent{
			RequestID: r.Int32(),
			Thread:    r.ThreadID(),
			Object:    r.TaggedObjectID(),
			Location:  r.Location(),
			Timeout:   r.Int64(),
		}
	case EventKindMonitorWaited:
		return MonitorWaitedEvent{
			RequestID: r.Int32(),
			Thread:    r.ThreadID(),
			Object:    r.TaggedObjectID(),
			Location:  r.Location(),
			TimedOut:  r.Bool(),
		}
	case EventKindException:
		return ExceptionEvent{
			RequestID:     r.Int32(),
			Thread:        r.ThreadID(),
			Location:      r.Location(),
			Exception:     r.TaggedObjectID(),
			CatchLocation: r.Location(),
		}
	case EventKindThreadStart:
		return ThreadStartEvent{RequestID: r.Int32(), Thread: r.ThreadID()}
	case EventKindThreadDeath:
		return ThreadDeathEvent{RequestID: r.Int32(), Thread: r.ThreadID()}
	case EventKindClassPrepare:
		return ClassPrepareEvent{
			RequestID:  r.Int32(),
			Thread:     r.ThreadID(),
			RefTypeTag: wire.TypeTag(r.Uint8()),
			TypeID:     r.ReferenceTypeID(),
			Signature:  r.String(),
			Status:     ClassStatus(r.Int32()),
		}
	case EventKindClassUnload:
		return ClassUnloadEvent{RequestID: r.Int32(), Signature: r.String()}
	case EventKindFieldAccess:
		return FieldAccessEvent{
			RequestID:  r.Int32(),
			Thread:     r.ThreadID(),
			Location:   r.Location(),
			RefTypeTag: wire.TypeTag(r.Uint8()),
			TypeID:     r.ReferenceTypeID(),
			Field:      r.FieldID(),
			Object:     r.TaggedObjectID(),
		}
	case EventKindFieldModification:
		return FieldModificationEvent{
			RequestID:  r.Int32(),
			Thread:     r.ThreadID(),
			Location:   r.Location(),
			RefTypeTag: wire.TypeTag(r.Uint8()),
			TypeID:     r.ReferenceTypeID(),
			Field:      r.FieldID(),
			Object:     r.TaggedObjectID(),
			ValueToBe:  r.Value(),
		}
	case EventKindVMDeath:
		return VMDeathEvent{RequestID: r.Int32()}
	default:
		r.Fail(fmt.Errorf("%w: event kind %v at offset %d", ErrUnsupportedCommand, kind, offset))
		return nil
	}
}

// CompositeEvent is the only command of the Event command set. The VM sends it
// unsolicited; it groups events that happened at the same time.
type CompositeEvent struct {
	SuspendPolicy SuspendPolicy `json:"suspendPolicy"`
	Events        []Event       `json:"events"`
}

func (CompositeEvent) Code() Code { return CmdEventComposite }

func (m CompositeEvent) WritePayload(w *wire.Writer) {
	w.Uint8(uint8(m.SuspendPolicy))
	w.Int32(int32(len(m.Events)))
	for i, e := range m.Events {
		if e == nil {
			w.Fail(fmt.Errorf("composite event %d is nil", i))
			return
		}
		w.Uint8(uint8(e.EventKind()))
		e.writeEvent(w)
	}
}

func (m *CompositeEvent) readPayload(r *wire.Reader) {
	m.SuspendPolicy = SuspendPolicy(r.Uint8())
	n := r.Count(1 + 4)
	if n > 0 {
		m.Events = make([]Event, 0, n)
	}
	for i := 0; i < n && r.Err() == nil; i++ {
		m.Events = append(m.Events, readEvent(r))
	}
}
