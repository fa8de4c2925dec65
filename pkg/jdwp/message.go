/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

// Message is a command, reply or event payload together with the command it belongs to.
// A reply reports the code of the command it answers.
type Message interface {
	Code() Code

	// WritePayload emits the message fields in protocol order.
	// Errors are recorded on the writer.
	WritePayload(w *wire.Writer)
}

// Keyable is implemented by requests whose identity is defined by a subset of their fields.
// Two requests with the same identifying fields produce the same key. The key never
// includes the request id or anything else that differs between repeats of a request.
type Keyable interface {
	Key() string
}

// MatchKey scopes a request key to its command, so keys of different commands never collide.
type MatchKey struct {
	Code Code
	Key  string
}

func (k MatchKey) String() string {
	return fmt.Sprintf("%v[%s]", k.Code, k.Key)
}

// KeyOf returns the match key of m if m is Keyable.
func KeyOf(m Message) (MatchKey, bool) {
	k, isKeyable := m.(Keyable)
	if !isKeyable {
		return MatchKey{}, false
	}
	return MatchKey{Code: m.Code(), Key: k.Key()}, true
}

func idKey(ids ...uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, "-")
}

// EmptyReply is the reply to a command that returns no data.
type EmptyReply struct {
	Of Code `json:"of"`
}

func (r EmptyReply) Code() Code                   { return r.Of }
func (r EmptyReply) WritePayload(_ *wire.Writer) {}

// RawMessage is a message whose payload is kept undecoded. It lets callers forward
// or re-encode packets for commands this package has no shape for.
type RawMessage struct {
	Of      Code   `json:"of"`
	Payload []byte `json:"payload"`
}

func (m RawMessage) Code() Code { return m.Of }

func (m RawMessage) WritePayload(w *wire.Writer) {
	w.Raw(m.Payload)
}

// payloadReader is implemented by pointers to message types that can parse themselves.
type payloadReader[T any] interface {
	*T
	readPayload(r *wire.Reader)
}

// parser returns a parse function for messages of type T.
func parser[T Message, PT payloadReader[T]]() parseFunc {
	return func(r *wire.Reader) (Message, error) {
		var m T
		PT(&m).readPayload(r)
		r.ExpectEnd()
		if err := r.Err(); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Empty commands.

type (
	VersionCommand               struct{}
	AllClassesCommand            struct{}
	AllThreadsCommand            struct{}
	TopLevelThreadGroupsCommand  struct{}
	DisposeCommand               struct{}
	IDSizesCommand               struct{}
	SuspendVMCommand             struct{}
	ResumeVMCommand              struct{}
	CapabilitiesCommand          struct{}
	ClassPathsCommand            struct{}
	HoldEventsCommand            struct{}
	ReleaseEventsCommand         struct{}
	AllClassesWithGenericCommand struct{}
	ClearAllBreakpointsCommand   struct{}
)

func (VersionCommand) Code() Code               { return CmdVirtualMachineVersion }
func (AllClassesCommand) Code() Code            { return CmdVirtualMachineAllClasses }
func (AllThreadsCommand) Code() Code            { return CmdVirtualMachineAllThreads }
func (TopLevelThreadGroupsCommand) Code() Code  { return CmdVirtualMachineTopLevelThreadGroups }
func (DisposeCommand) Code() Code               { return CmdVirtualMachineDispose }
func (IDSizesCommand) Code() Code               { return CmdVirtualMachineIDSizes }
func (SuspendVMCommand) Code() Code             { return CmdVirtualMachineSuspend }
func (ResumeVMCommand) Code() Code              { return CmdVirtualMachineResume }
func (CapabilitiesCommand) Code() Code          { return CmdVirtualMachineCapabilities }
func (ClassPathsCommand) Code() Code            { return CmdVirtualMachineClassPaths }
func (HoldEventsCommand) Code() Code            { return CmdVirtualMachineHoldEvents }
func (ReleaseEventsCommand) Code() Code         { return CmdVirtualMachineReleaseEvents }
func (AllClassesWithGenericCommand) Code() Code { return CmdVirtualMachineAllClassesWithGeneric }
func (ClearAllBreakpointsCommand) Code() Code   { return CmdEventRequestClearAllBreakpoints }

func (VersionCommand) WritePayload(*wire.Writer)               {}
func (AllClassesCommand) WritePayload(*wire.Writer)            {}
func (AllThreadsCommand) WritePayload(*wire.Writer)            {}
func (TopLevelThreadGroupsCommand) WritePayload(*wire.Writer)  {}
func (DisposeCommand) WritePayload(*wire.Writer)               {}
func (IDSizesCommand) WritePayload(*wire.Writer)               {}
func (SuspendVMCommand) WritePayload(*wire.Writer)             {}
func (ResumeVMCommand) WritePayload(*wire.Writer)              {}
func (CapabilitiesCommand) WritePayload(*wire.Writer)          {}
func (ClassPathsCommand) WritePayload(*wire.Writer)            {}
func (HoldEventsCommand) WritePayload(*wire.Writer)            {}
func (ReleaseEventsCommand) WritePayload(*wire.Writer)         {}
func (AllClassesWithGenericCommand) WritePayload(*wire.Writer) {}
func (ClearAllBreakpointsCommand) WritePayload(*wire.Writer)   {}

func (*VersionCommand) readPayload(*wire.Reader)               {}
func (*AllClassesCommand) readPayload(*wire.Reader)            {}
func (*AllThreadsCommand) readPayload(*wire.Reader)            {}
func (*TopLevelThreadGroupsCommand) readPayload(*wire.Reader)  {}
func (*DisposeCommand) readPayload(*wire.Reader)               {}
func (*IDSizesCommand) readPayload(*wire.Reader)               {}
func (*SuspendVMCommand) readPayload(*wire.Reader)             {}
func (*ResumeVMCommand) readPayload(*wire.Reader)              {}
func (*CapabilitiesCommand) readPayload(*wire.Reader)          {}
func (*ClassPathsCommand) readPayload(*wire.Reader)            {}
func (*HoldEventsCommand) readPayload(*wire.Reader)            {}
func (*ReleaseEventsCommand) readPayload(*wire.Reader)         {}
func (*AllClassesWithGenericCommand) readPayload(*wire.Reader) {}
func (*ClearAllBreakpointsCommand) readPayload(*wire.Reader)   {}

// Singleton queries share one key: any two in flight are the same question.
func (VersionCommand) Key() string              { return "" }
func (AllClassesCommand) Key() string           { return "" }
func (AllThreadsCommand) Key() string           { return "" }
func (TopLevelThreadGroupsCommand) Key() string { return "" }
func (IDSizesCommand) Key() string              { return "" }
func (CapabilitiesCommand) Key() string         { return "" }
func (ClassPathsCommand) Key() string           { return "" }
