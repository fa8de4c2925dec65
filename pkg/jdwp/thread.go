/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

type threadCommand struct {
	Thread wire.ThreadID `json:"thread"`
}

func (m threadCommand) WritePayload(w *wire.Writer) { w.ThreadID(m.Thread) }

func (m *threadCommand) readPayload(r *wire.Reader) { m.Thread = r.ThreadID() }

type ThreadNameCommand struct{ threadCommand }
type SuspendThreadCommand struct{ threadCommand }
type ResumeThreadCommand struct{ threadCommand }
type ThreadStatusCommand struct{ threadCommand }
type ThreadGroupCommand struct{ threadCommand }
type FrameCountCommand struct{ threadCommand }
type SuspendCountCommand struct{ threadCommand }

func NewThreadNameCommand(t wire.ThreadID) ThreadNameCommand {
	return ThreadNameCommand{threadCommand{t}}
}

func NewSuspendThreadCommand(t wire.ThreadID) SuspendThreadCommand {
	return SuspendThreadCommand{threadCommand{t}}
}

func NewResumeThreadCommand(t wire.ThreadID) ResumeThreadCommand {
	return ResumeThreadCommand{threadCommand{t}}
}

func NewThreadStatusCommand(t wire.ThreadID) ThreadStatusCommand {
	return ThreadStatusCommand{threadCommand{t}}
}

func NewThreadGroupCommand(t wire.ThreadID) ThreadGroupCommand {
	return ThreadGroupCommand{threadCommand{t}}
}

func NewFrameCountCommand(t wire.ThreadID) FrameCountCommand {
	return FrameCountCommand{threadCommand{t}}
}

func NewSuspendCountCommand(t wire.ThreadID) SuspendCountCommand {
	return SuspendCountCommand{threadCommand{t}}
}

func (ThreadNameCommand) Code() Code    { return CmdThreadReferenceName }
func (SuspendThreadCommand) Code() Code { return CmdThreadReferenceSuspend }
func (ResumeThreadCommand) Code() Code  { return CmdThreadReferenceResume }
func (ThreadStatusCommand) Code() Code  { return CmdThreadReferenceStatus }
func (ThreadGroupCommand) Code() Code   { return CmdThreadReferenceThreadGroup }
func (FrameCountCommand) Code() Code    { return CmdThreadReferenceFrameCount }
func (SuspendCountCommand) Code() Code  { return CmdThreadReferenceSuspendCount }

// Suspend and resume adjust a counter in the VM, so repeats are distinct requests
// and those commands are not keyed.
func (m ThreadNameCommand) Key() string   { return idKey(uint64(m.Thread)) }
func (m ThreadStatusCommand) Key() string { return idKey(uint64(m.Thread)) }
func (m ThreadGroupCommand) Key() string  { return idKey(uint64(m.Thread)) }
func (m FrameCountCommand) Key() string   { return idKey(uint64(m.Thread)) }
func (m SuspendCountCommand) Key() string { return idKey(uint64(m.Thread)) }

type ThreadNameReply struct {
	Name string `json:"name"`
}

func (ThreadNameReply) Code() Code { return CmdThreadReferenceName }

func (m ThreadNameReply) WritePayload(w *wire.Writer) { w.String(m.Name) }

func (m *ThreadNameReply) readPayload(r *wire.Reader) { m.Name = r.String() }

type ThreadStatusReply struct {
	ThreadStatus  ThreadStatus `json:"threadStatus"`
	SuspendStatus int32        `json:"suspendStatus"`
}

func (ThreadStatusReply) Code() Code { return CmdThreadReferenceStatus }

func (m ThreadStatusReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(m.ThreadStatus))
	w.Int32(m.SuspendStatus)
}

func (m *ThreadStatusReply) readPayload(r *wire.Reader) {
	m.ThreadStatus = ThreadStatus(r.Int32())
	m.SuspendStatus = r.Int32()
}

func (m ThreadStatusReply) Suspended() bool {
	return m.SuspendStatus&SuspendStatusSuspended != 0
}

type ThreadGroupReply struct {
	Group wire.ThreadGroupID `json:"group"`
}

func (ThreadGroupReply) Code() Code { return CmdThreadReferenceThreadGroup }

func (m ThreadGroupReply) WritePayload(w *wire.Writer) { w.ThreadGroupID(m.Group) }

func (m *ThreadGroupReply) readPayload(r *wire.Reader) { m.Group = r.ThreadGroupID() }

// FramesCommand asks for Length frames of a suspended thread starting at StartFrame.
// A Length of -1 means all remaining frames.
type FramesCommand struct {
	Thread     wire.ThreadID `json:"thread"`
	StartFrame int32         `json:"startFrame"`
	Length     int32         `json:"length"`
}

func (FramesCommand) Code() Code { return CmdThreadReferenceFrames }

func (m FramesCommand) WritePayload(w *wire.Writer) {
	w.ThreadID(m.Thread)
	w.Int32(m.StartFrame)
	w.Int32(m.Length)
}

func (m *FramesCommand) readPayload(r *wire.Reader) {
	m.Thread = r.ThreadID()
	m.StartFrame = r.Int32()
	m.Length = r.Int32()
}

func (m FramesCommand) Key() string {
	return fmt.Sprintf("%d-%d-%d", m.Thread, m.StartFrame, m.Length)
}

type FrameInfo struct {
	Frame    wire.FrameID  `json:"frame"`
	Location wire.Location `json:"location"`
}

type FramesReply struct {
	Frames []FrameInfo `json:"frames"`
}

func (FramesReply) Code() Code { return CmdThreadReferenceFrames }

func (m FramesReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Frames)))
	for _, f := range m.Frames {
		w.FrameID(f.Frame)
		w.Location(f.Location)
	}
}

func (m *FramesReply) readPayload(r *wire.Reader) {
	sizes := r.IDSizes()
	n := r.Count(sizes.FrameIDSize + 1 + sizes.ReferenceTypeIDSize + sizes.MethodIDSize + 8)
	if n > 0 {
		m.Frames = make([]FrameInfo, n)
	}
	for i := 0; i < n; i++ {
		m.Frames[i] = FrameInfo{Frame: r.FrameID(), Location: r.Location()}
	}
}

type FrameCountReply struct {
	Count int32 `json:"count"`
}

func (FrameCountReply) Code() Code { return CmdThreadReferenceFrameCount }

func (m FrameCountReply) WritePayload(w *wire.Writer) { w.Int32(m.Count) }

func (m *FrameCountReply) readPayload(r *wire.Reader) { m.Count = r.Int32() }

type SuspendCountReply struct {
	Count int32 `json:"count"`
}

func (SuspendCountReply) Code() Code { return CmdThreadReferenceSuspendCount }

func (m SuspendCountReply) WritePayload(w *wire.Writer) { w.Int32(m.Count) }

func (m *SuspendCountReply) readPayload(r *wire.Reader) { m.Count = r.Int32() }

type ThreadGroupNameCommand struct {
	Group wire.ThreadGroupID `json:"group"`
}

func (ThreadGroupNameCommand) Code() Code { return CmdThreadGroupReferenceName }

func (m ThreadGroupNameCommand) WritePayload(w *wire.Writer) { w.ThreadGroupID(m.Group) }

func (m *ThreadGroupNameCommand) readPayload(r *wire.Reader) { m.Group = r.ThreadGroupID() }

func (m ThreadGroupNameCommand) Key() string { return idKey(uint64(m.Group)) }

type ThreadGroupNameReply struct {
	Name string `json:"name"`
}

func (ThreadGroupNameReply) Code() Code { return CmdThreadGroupReferenceName }

func (m ThreadGroupNameReply) WritePayload(w *wire.Writer) { w.String(m.Name) }

func (m *ThreadGroupNameReply) readPayload(r *wire.Reader) { m.Name = r.String() }
