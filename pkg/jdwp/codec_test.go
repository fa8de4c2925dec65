/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

var (
	testLocation = wire.Location{TypeTag: wire.TypeTagClass, Class: 0x1234, Method: 0x55, Index: 9}
	testObject   = wire.TaggedObjectID{Tag: wire.TagObject, Object: 77}

	// Messages embed unexported payload structs; compare them field by field anyway.
	exportAll = cmp.Exporter(func(reflect.Type) bool { return true })
)

func sampleCommands() []Message {
	return []Message{
		VersionCommand{},
		ClassesBySignatureCommand{Signature: "Ljava/lang/String;"},
		AllClassesCommand{},
		AllThreadsCommand{},
		TopLevelThreadGroupsCommand{},
		DisposeCommand{},
		IDSizesCommand{},
		SuspendVMCommand{},
		ResumeVMCommand{},
		ExitCommand{ExitCode: 3},
		CreateStringCommand{Value: "hello"},
		CapabilitiesCommand{},
		ClassPathsCommand{},
		HoldEventsCommand{},
		ReleaseEventsCommand{},
		AllClassesWithGenericCommand{},

		NewSignatureCommand(100),
		NewClassLoaderCommand(100),
		NewModifiersCommand(100),
		NewFieldsCommand(100),
		NewMethodsCommand(100),
		NewSourceFileCommand(100),
		NewClassStatusCommand(100),
		NewInterfacesCommand(100),
		SuperclassCommand{Class: 101},

		NewLineTableCommand(100, 7),
		NewVariableTableCommand(100, 7),
		NewBytecodesCommand(100, 7),
		NewIsObsoleteCommand(100, 7),

		NewObjectReferenceTypeCommand(200),
		NewDisableCollectionCommand(200),
		NewEnableCollectionCommand(200),
		NewIsCollectedCommand(200),
		StringValueCommand{String: 201},

		NewThreadNameCommand(300),
		NewSuspendThreadCommand(300),
		NewResumeThreadCommand(300),
		NewThreadStatusCommand(300),
		NewThreadGroupCommand(300),
		FramesCommand{Thread: 300, StartFrame: 0, Length: -1},
		NewFrameCountCommand(300),
		NewSuspendCountCommand(300),
		ThreadGroupNameCommand{Group: 301},

		SetEventRequestCommand{
			EventKind:     EventKindBreakpoint,
			SuspendPolicy: SuspendPolicyAll,
			Modifiers: []EventModifier{
				CountModifier{Count: 2},
				ConditionalModifier{ExprID: 4},
				ThreadOnlyModifier{Thread: 300},
				ClassOnlyModifier{Class: 100},
				ClassMatchModifier{Pattern: "com.example.*"},
				ClassExcludeModifier{Pattern: "java.*"},
				LocationOnlyModifier{Location: testLocation},
				ExceptionOnlyModifier{Exception: 0, Caught: true, Uncaught: false},
				FieldOnlyModifier{Declaring: 100, Field: 8},
				StepModifier{Thread: 300, Size: StepSizeLine, Depth: StepDepthOver},
				InstanceOnlyModifier{Instance: 200},
				SourceNameMatchModifier{Pattern: "*.kt"},
			},
		},
		ClearEventRequestCommand{EventKind: EventKindBreakpoint, RequestID: 5},
		ClearAllBreakpointsCommand{},

		GetFrameValuesCommand{Thread: 300, Frame: 400, Slots: []SlotRequest{{Slot: 0, Tag: wire.TagInt}, {Slot: 1, Tag: wire.TagObject}}},
		ThisObjectCommand{Thread: 300, Frame: 400},

		sampleCompositeEvent(),

		DDMChunk{Type: ChunkHELO, Data: []byte{0, 0, 0, 1}},
	}
}

func sampleCompositeEvent() CompositeEvent {
	return CompositeEvent{
		SuspendPolicy: SuspendPolicyEventThread,
		Events: []Event{
			VMStartEvent{RequestID: 0, Thread: 300},
			SingleStepEvent{RequestID: 1, Thread: 300, Location: testLocation},
			BreakpointEvent{RequestID: 2, Thread: 300, Location: testLocation},
			MethodEntryEvent{RequestID: 3, Thread: 300, Location: testLocation},
			MethodExitEvent{RequestID: 4, Thread: 300, Location: testLocation},
			MethodExitWithReturnValueEvent{RequestID: 5, Thread: 300, Location: testLocation, Value: wire.LongValue(-1)},
			MonitorContendedEnterEvent{RequestID: 6, Thread: 300, Object: testObject, Location: testLocation},
			MonitorContendedEnteredEvent{RequestID: 7, Thread: 300, Object: testObject, Location: testLocation},
			MonitorWaitEvent{RequestID: 8, Thread: 300, Object: testObject, Location: testLocation, Timeout: 1000},
			MonitorWaitedEvent{RequestID: 9, Thread: 300, Object: testObject, Location: testLocation, TimedOut: true},
			ExceptionEvent{RequestID: 10, Thread: 300, Location: testLocation, Exception: testObject},
			ThreadStartEvent{RequestID: 11, Thread: 302},
			ThreadDeathEvent{RequestID: 12, Thread: 302},
			ClassPrepareEvent{
				RequestID:  13,
				Thread:     300,
				RefTypeTag: wire.TypeTagClass,
				TypeID:     100,
				Signature:  "Lcom/example/Main;",
				Status:     ClassStatusVerified | ClassStatusPrepared,
			},
			ClassUnloadEvent{RequestID: 14, Signature: "Lcom/example/Gone;"},
			FieldAccessEvent{
				RequestID:  15,
				Thread:     300,
				Location:   testLocation,
				RefTypeTag: wire.TypeTagClass,
				TypeID:     100,
				Field:      8,
				Object:     testObject,
			},
			FieldModificationEvent{
				RequestID:  16,
				Thread:     300,
				Location:   testLocation,
				RefTypeTag: wire.TypeTagClass,
				TypeID:     100,
				Field:      8,
				ValueToBe:  wire.IntValue(42),
			},
			VMDeathEvent{RequestID: 17},
		},
	}
}

func sampleReplies() []Message {
	return []Message{
		VersionReply{Description: "Java Debug Wire Protocol", JDWPMajor: 17, JDWPMinor: 0, VMVersion: "17.0.2", VMName: "OpenJDK 64-Bit Server VM"},
		ClassesBySignatureReply{Classes: []ClassInfo{{RefTypeTag: wire.TypeTagClass, TypeID: 100, Status: ClassStatusVerified | ClassStatusPrepared | ClassStatusInitialized}}},
		AllClassesReply{Classes: []ClassEntry{{RefTypeTag: wire.TypeTagInterface, TypeID: 102, Signature: "Ljava/lang/Runnable;", Status: ClassStatusPrepared}}},
		AllThreadsReply{Threads: []wire.ThreadID{300, 302}},
		TopLevelThreadGroupsReply{Groups: []wire.ThreadGroupID{301}},
		EmptyReply{Of: CmdVirtualMachineDispose},
		IDSizesReply{Sizes: wire.UniformIDSizes(8)},
		CreateStringReply{String: 201},
		CapabilitiesReply{CanWatchFieldModification: true, CanGetBytecodes: true, CanGetMonitorInfo: true},
		ClassPathsReply{BaseDir: "/app", ClassPaths: []string{"a.jar", "b.jar"}},
		AllClassesWithGenericReply{Classes: []GenericClassEntry{{
			RefTypeTag:       wire.TypeTagClass,
			TypeID:           103,
			Signature:        "Ljava/util/List;",
			GenericSignature: "<E:Ljava/lang/Object;>Ljava/lang/Object;",
			Status:           ClassStatusInitialized,
		}}},

		SignatureReply{Signature: "Lcom/example/Main;"},
		ClassLoaderReply{ClassLoader: 0},
		ModifiersReply{ModBits: 0x0001},
		FieldsReply{Fields: []FieldInfo{{Field: 8, Name: "count", Signature: "I", ModBits: 0x0002}}},
		MethodsReply{Methods: []MethodInfo{{Method: 7, Name: "main", Signature: "([Ljava/lang/String;)V", ModBits: 0x0009}}},
		SourceFileReply{SourceFile: "Main.java"},
		ClassStatusReply{Status: ClassStatusVerified},
		InterfacesReply{Interfaces: []wire.ReferenceTypeID{102}},
		SuperclassReply{Superclass: 104},

		LineTableReply{Start: 0, End: 20, Lines: []LineTableEntry{{CodeIndex: 0, LineNumber: 10}, {CodeIndex: 4, LineNumber: 11}}},
		VariableTableReply{ArgCount: 1, Slots: []VariableSlot{{CodeIndex: 0, Name: "args", Signature: "[Ljava/lang/String;", Length: 20, Slot: 0}}},
		BytecodesReply{Bytecodes: []byte{0x2a, 0xb1}},
		IsObsoleteReply{Obsolete: false},

		ObjectReferenceTypeReply{RefTypeTag: wire.TypeTagClass, TypeID: 100},
		EmptyReply{Of: CmdObjectReferenceDisableCollection},
		IsCollectedReply{Collected: true},
		StringValueReply{Value: "hello"},

		ThreadNameReply{Name: "main"},
		EmptyReply{Of: CmdThreadReferenceSuspend},
		ThreadStatusReply{ThreadStatus: ThreadStatusRunning, SuspendStatus: SuspendStatusSuspended},
		ThreadGroupReply{Group: 301},
		FramesReply{Frames: []FrameInfo{{Frame: 400, Location: testLocation}, {Frame: 401, Location: testLocation}}},
		FrameCountReply{Count: 2},
		SuspendCountReply{Count: 1},
		ThreadGroupNameReply{Name: "system"},

		SetEventRequestReply{RequestID: 5},
		EmptyReply{Of: CmdEventRequestClear},

		GetFrameValuesReply{Values: []wire.Value{wire.IntValue(3), wire.ObjectValue(wire.TagObject, 77), wire.BooleanValue(true)}},
		ThisObjectReply{Object: testObject},

		DDMChunk{Type: ChunkHELO, Data: []byte("vm")},
	}
}

var testSizes = []wire.IDSizes{
	wire.UniformIDSizes(4),
	wire.UniformIDSizes(8),
	{FieldIDSize: 4, MethodIDSize: 8, ObjectIDSize: 8, ReferenceTypeIDSize: 8, FrameIDSize: 8},
}

func mustCodec(t *testing.T, sizes wire.IDSizes) *Codec {
	t.Helper()
	codec, err := NewCodec(sizes)
	require.NoError(t, err)
	return codec
}

func TestRoundTrip_Commands(t *testing.T) {
	t.Parallel()

	for _, sizes := range testSizes {
		codec := mustCodec(t, sizes)
		for i, m := range sampleCommands() {
			name := fmt.Sprintf("%v/%v", sizes, m.Code())
			data, err := codec.EncodeCommand(uint32(i+1), m)
			require.NoError(t, err, name)

			pkt, err := codec.Decode(data, nil)
			require.NoError(t, err, name)

			expectedKind := KindCommand
			if m.Code().Set.IsEvent() {
				expectedKind = KindEvent
			}
			assert.Equal(t, expectedKind, pkt.Kind, name)
			assert.Equal(t, uint32(i+1), pkt.Header.ID, name)
			assert.Nil(t, pkt.Pending, name)
			if diff := cmp.Diff(m, pkt.Message, exportAll); diff != "" {
				t.Errorf("%s: round trip mismatch (-want +got):\n%s", name, diff)
			}
		}
	}
}

func TestRoundTrip_Replies(t *testing.T) {
	t.Parallel()

	for _, sizes := range testSizes {
		codec := mustCodec(t, sizes)
		table := NewOutstanding()
		for i, m := range sampleReplies() {
			name := fmt.Sprintf("%v/%v", sizes, m.Code())
			id := uint32(1000 + i)

			p, err := table.Register(id, m.Code())
			require.NoError(t, err, name)

			data, err := codec.EncodeReply(id, m)
			require.NoError(t, err, name)

			pkt, err := codec.Decode(data, table)
			require.NoError(t, err, name)
			assert.Equal(t, KindReply, pkt.Kind, name)
			assert.Same(t, p, pkt.Pending, name)
			if diff := cmp.Diff(m, pkt.Message, exportAll); diff != "" {
				t.Errorf("%s: round trip mismatch (-want +got):\n%s", name, diff)
			}

			select {
			case <-p.Done():
				resolved, resolveErr := p.Result()
				assert.NoError(t, resolveErr, name)
				assert.Same(t, pkt, resolved, name)
			default:
				t.Errorf("%s: pending request was not resolved by its reply", name)
			}
		}
		assert.Equal(t, 0, table.Len())
	}
}

func TestHeaderLengthMatchesPayload(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	messages := append(sampleCommands(), sampleReplies()...)
	for i, m := range messages {
		w := wire.NewWriter(codec.IDSizes())
		m.WritePayload(w)
		require.NoError(t, w.Err())

		data, err := codec.EncodeCommand(uint32(i), m)
		require.NoError(t, err)

		h, err := ParseHeader(data)
		require.NoError(t, err)
		assert.Equal(t, uint32(HeaderLength+w.Len()), h.Length, m.Code().String())
		assert.Equal(t, len(data), int(h.Length), m.Code().String())
		assert.True(t, bytes.Equal(w.Bytes(), data[HeaderLength:]), m.Code().String())
	}
}

func TestLineTableScenario(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	cmd := NewLineTableCommand(100, 7)

	data, err := codec.EncodeCommand(42, cmd)
	require.NoError(t, err)

	expected := []byte{
		0, 0, 0, 27, // length
		0, 0, 0, 42, // id
		0,    // flags
		6, 1, // Method.LineTable
		0, 0, 0, 0, 0, 0, 0, 100, // refType
		0, 0, 0, 0, 0, 0, 0, 7, // methodID
	}
	assert.Equal(t, expected, data)

	pkt, err := codec.Decode(data, nil)
	require.NoError(t, err)
	decoded, isLineTable := pkt.Message.(LineTableCommand)
	require.True(t, isLineTable)
	assert.Equal(t, wire.ReferenceTypeID(100), decoded.RefType)
	assert.Equal(t, wire.MethodID(7), decoded.Method)
	assert.Equal(t, "100-7", decoded.Key())

	key, keyable := KeyOf(decoded)
	require.True(t, keyable)
	assert.Equal(t, MatchKey{Code: CmdMethodLineTable, Key: "100-7"}, key)
}

func TestKeysAreStable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NewLineTableCommand(100, 7).Key(), NewLineTableCommand(100, 7).Key())
	assert.NotEqual(t, NewLineTableCommand(100, 7).Key(), NewLineTableCommand(100, 8).Key())

	lineTable, _ := KeyOf(NewLineTableCommand(100, 7))
	variables, _ := KeyOf(NewVariableTableCommand(100, 7))
	assert.Equal(t, lineTable.Key, variables.Key)
	assert.NotEqual(t, lineTable, variables, "keys of different commands must not collide")

	frames := FramesCommand{Thread: 300, StartFrame: 0, Length: -1}
	assert.Equal(t, "300-0--1", frames.Key())

	assert.Equal(t, "Ljava/lang/String;", ClassesBySignatureCommand{Signature: "Ljava/lang/String;"}.Key())
	assert.Equal(t, "100", NewSignatureCommand(100).Key())
	assert.Equal(t, "", VersionCommand{}.Key())

	_, keyable := KeyOf(NewSuspendThreadCommand(300))
	assert.False(t, keyable, "commands that change VM state are not keyed")
	_, keyable = KeyOf(SetEventRequestCommand{EventKind: EventKindBreakpoint})
	assert.False(t, keyable)
}

func TestIdentifierWidthChangesPacketSize(t *testing.T) {
	t.Parallel()

	cmd := NewLineTableCommand(100, 7)

	narrow, err := mustCodec(t, wire.UniformIDSizes(4)).EncodeCommand(1, cmd)
	require.NoError(t, err)
	wide, err := mustCodec(t, wire.UniformIDSizes(8)).EncodeCommand(1, cmd)
	require.NoError(t, err)

	assert.Len(t, narrow, HeaderLength+8)
	assert.Len(t, wide, HeaderLength+16)

	pkt, err := mustCodec(t, wire.UniformIDSizes(4)).Decode(narrow, nil)
	require.NoError(t, err)
	assert.Equal(t, cmd, pkt.Message)

	_, err = mustCodec(t, wire.UniformIDSizes(8)).Decode(narrow, nil)
	assert.True(t, IsMalformed(err), "a packet encoded with narrow IDs must not decode with wide IDs")
}

func TestDecode_UnsupportedCommandKeepsRawBytes(t *testing.T) {
	t.Parallel()

	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	data := binary.BigEndian.AppendUint32(nil, uint32(HeaderLength+len(payload)))
	data = binary.BigEndian.AppendUint32(data, 9)
	data = append(data, 0, 99, 1)
	data = append(data, payload...)
	original := bytes.Clone(data)

	_, err := mustCodec(t, wire.UniformIDSizes(8)).Decode(data, NewOutstanding())
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))

	var derr *DecodeError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, Code{Set: 99, Command: 1}, derr.Header.Code())
	assert.Equal(t, original, derr.Raw)
	assert.Equal(t, payload, derr.Payload())
}

func TestDecode_UnmatchedReplyLeavesTableUntouched(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	table := NewOutstanding()
	p, err := table.Register(5, CmdThreadReferenceName)
	require.NoError(t, err)

	data, err := codec.EncodeReply(6, ThreadNameReply{Name: "main"})
	require.NoError(t, err)

	_, err = codec.Decode(data, table)
	require.Error(t, err)
	assert.True(t, IsUnmatched(err))
	assert.Equal(t, 1, table.Len())

	still, found := table.Get(5)
	require.True(t, found)
	assert.Same(t, p, still)
	select {
	case <-p.Done():
		t.Fatal("unrelated pending request must not be resolved")
	default:
	}
}

func TestDecode_ReplyAfterAbandon(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	table := NewOutstanding()
	p, err := table.Register(7, CmdMethodLineTable)
	require.NoError(t, err)

	assert.True(t, table.Abandon(7))
	assert.False(t, table.Abandon(7), "abandoning twice is a no-op")

	_, resolveErr := p.Result()
	assert.ErrorIs(t, resolveErr, ErrRequestAbandoned)

	data, err := codec.EncodeReply(7, LineTableReply{Start: 0, End: 1})
	require.NoError(t, err)

	pkt, err := codec.Decode(data, table)
	assert.Nil(t, pkt)
	assert.True(t, IsUnmatched(err))
	assert.Equal(t, 0, table.Len())
}

func TestDecode_ErrorReply(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	table := NewOutstanding()
	_, err := table.Register(3, CmdThreadReferenceFrames)
	require.NoError(t, err)

	data, err := codec.EncodeReply(3, ErrorReply{ErrorCode: ErrorThreadNotSuspended})
	require.NoError(t, err)
	assert.Len(t, data, HeaderLength)
	assert.Equal(t, ReplyFlag, data[8])
	assert.Equal(t, []byte{0, 13}, data[9:11])

	pkt, err := codec.Decode(data, table)
	require.NoError(t, err, "an error reply is a value, not a decode failure")
	assert.Equal(t, ErrorReply{Of: CmdThreadReferenceFrames, ErrorCode: ErrorThreadNotSuspended}, pkt.Message)
	assert.Equal(t, ErrorThreadNotSuspended, pkt.Header.ErrorCode)
	assert.Equal(t, 0, table.Len())
	assert.Contains(t, pkt.Message.(ErrorReply).Error(), "THREAD_NOT_SUSPENDED")
}

func TestDecode_MalformedReplyResolvesPending(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	table := NewOutstanding()
	p, err := table.Register(11, CmdThreadReferenceFrameCount)
	require.NoError(t, err)

	// FrameCount replies carry 4 bytes; send 2.
	data := binary.BigEndian.AppendUint32(nil, HeaderLength+2)
	data = binary.BigEndian.AppendUint32(data, 11)
	data = append(data, ReplyFlag, 0, 0, 0, 1)

	_, err = codec.Decode(data, table)
	require.Error(t, err)
	assert.True(t, IsMalformed(err))

	var derr *DecodeError
	require.True(t, errors.As(err, &derr))
	assert.Same(t, p, derr.Pending)
	assert.Equal(t, 0, table.Len())

	_, resolveErr := p.Result()
	assert.True(t, IsMalformed(resolveErr))
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	valid, err := codec.EncodeCommand(1, NewLineTableCommand(100, 7))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "shorter than header", data: valid[:5]},
		{name: "truncated payload", data: valid[:len(valid)-1]},
		{name: "trailing bytes", data: func() []byte {
			d := append(bytes.Clone(valid), 0)
			binary.BigEndian.PutUint32(d, uint32(len(d)))
			return d
		}()},
		{name: "string overruns packet", data: func() []byte {
			d, encodeErr := codec.EncodeCommand(1, ClassesBySignatureCommand{Signature: "abc"})
			require.NoError(t, encodeErr)
			binary.BigEndian.PutUint32(d[HeaderLength:], 100)
			return d
		}()},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, decodeErr := codec.Decode(tc.data, nil)
			require.Error(t, decodeErr)
			assert.True(t, IsMalformed(decodeErr), decodeErr.Error())
		})
	}
}

func TestDecode_UnknownEventKind(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	w := wire.NewWriter(codec.IDSizes())
	w.Uint8(uint8(SuspendPolicyNone))
	w.Int32(1)
	w.Uint8(77)
	w.Int32(0)

	data, err := codec.EncodeCommand(1, RawMessage{Of: CmdEventComposite, Payload: w.Bytes()})
	require.NoError(t, err)

	_, err = codec.Decode(data, nil)
	assert.True(t, IsUnsupported(err))
}

func TestDecode_HugeCountBeforeSizesAreKnown(t *testing.T) {
	t.Parallel()

	table := NewOutstanding()
	p, err := table.Register(1, CmdVirtualMachineAllThreads)
	require.NoError(t, err)

	data := binary.BigEndian.AppendUint32(nil, HeaderLength+4)
	data = binary.BigEndian.AppendUint32(data, 1)
	data = append(data, 0x80, 0, 0)
	data = binary.BigEndian.AppendUint32(data, 0x7fffffff)

	_, err = NewBootstrapCodec().Decode(data, table)
	require.Error(t, err)
	assert.True(t, IsMalformed(err), "the count must be rejected before any identifier is read, got %v", err)
	assert.False(t, errors.Is(err, ErrIDSizesNotNegotiated))

	_, pendingErr := p.Result()
	assert.Error(t, pendingErr)
}

func TestEncode_NilElements(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))

	_, err := codec.EncodeCommand(1, CompositeEvent{SuspendPolicy: SuspendPolicyNone, Events: []Event{nil}})
	assert.ErrorContains(t, err, "composite event 0 is nil")

	_, err = codec.EncodeCommand(2, SetEventRequestCommand{EventKind: EventKindBreakpoint, Modifiers: []EventModifier{nil}})
	assert.ErrorContains(t, err, "event request modifier 0 is nil")
}

func TestEncodeAndRegister(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(4))
	table := NewOutstanding()

	data, p, err := codec.EncodeAndRegister(1, NewLineTableCommand(100, 7), table)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, CmdMethodLineTable, p.Expect)
	key, keyed := p.Key()
	assert.True(t, keyed)
	assert.Equal(t, "100-7", key.Key)

	_, _, err = codec.EncodeAndRegister(1, NewLineTableCommand(100, 8), table)
	assert.ErrorIs(t, err, ErrDuplicateRequestID)

	// An identifier too wide for the connection cannot be encoded; the registration must not survive.
	_, _, err = codec.EncodeAndRegister(2, NewLineTableCommand(1<<40, 7), table)
	require.Error(t, err)
	_, found := table.Get(2)
	assert.False(t, found)
	assert.Equal(t, 1, table.Len())
}

func TestBootstrapCodec(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(wire.IDSizes{})
	assert.Error(t, err, "a negotiated codec needs valid sizes")

	codec := NewBootstrapCodec()
	table := NewOutstanding()

	data, _, err := codec.EncodeAndRegister(1, IDSizesCommand{}, table)
	require.NoError(t, err)
	assert.Len(t, data, HeaderLength)

	reply, err := codec.EncodeReply(1, IDSizesReply{Sizes: wire.UniformIDSizes(8)})
	require.NoError(t, err)
	pkt, err := codec.Decode(reply, table)
	require.NoError(t, err)
	assert.Equal(t, wire.UniformIDSizes(8), pkt.Message.(IDSizesReply).Sizes)

	_, err = codec.EncodeCommand(2, NewLineTableCommand(100, 7))
	assert.ErrorIs(t, err, ErrIDSizesNotNegotiated)
}

func TestReadPacket(t *testing.T) {
	t.Parallel()

	codec := mustCodec(t, wire.UniformIDSizes(8))
	first, err := codec.EncodeCommand(1, NewLineTableCommand(100, 7))
	require.NoError(t, err)
	second, err := codec.EncodeCommand(2, VersionCommand{})
	require.NoError(t, err)

	stream := bytes.NewReader(append(bytes.Clone(first), second...))

	got, err := ReadPacket(stream, 0)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = ReadPacket(stream, 0)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = ReadPacket(stream, 0)
	assert.Error(t, err)

	_, err = ReadPacket(bytes.NewReader(first), 20)
	assert.True(t, IsMalformed(err), "packets over the limit are rejected")

	_, err = ReadPacket(bytes.NewReader([]byte{0, 0, 0, 3}), 0)
	assert.True(t, IsMalformed(err))
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Method.LineTable", CmdMethodLineTable.String())
	assert.Equal(t, "Event.Composite", CmdEventComposite.String())
	assert.Equal(t, "99.1", Code{Set: 99, Command: 1}.String())

	name, found := Lookup(CmdVirtualMachineIDSizes)
	assert.True(t, found)
	assert.Equal(t, "IDSizes", name)

	_, found = Lookup(Code{Set: CommandSetVirtualMachine, Command: 200})
	assert.False(t, found)

	codes := Registered()
	assert.Equal(t, CmdVirtualMachineVersion, codes[0])
	assert.Equal(t, CmdDDMChunk, codes[len(codes)-1])

	sent := map[Code]bool{}
	for _, m := range sampleCommands() {
		sent[m.Code()] = true
	}
	for _, code := range codes {
		assert.True(t, sent[code], "registered command %v has no round trip sample", code)
	}
}

func TestCommandSetIsEvent(t *testing.T) {
	t.Parallel()

	assert.True(t, CommandSetEvent.IsEvent())
	assert.True(t, CommandSet(127).IsEvent())
	assert.False(t, CommandSet(128).IsEvent())
	assert.False(t, CommandSetStackFrame.IsEvent())
	assert.False(t, CommandSetDDM.IsEvent())
}
