/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"
	"slices"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

type parseFunc func(r *wire.Reader) (Message, error)

type registration struct {
	name    string
	command parseFunc

	// reply is nil for commands whose reply has no payload.
	reply parseFunc
}

// registry maps every supported command to its parsers. It is filled once in init
// and never modified afterwards.
var registry = map[Code]registration{}

func register(code Code, name string, command, reply parseFunc) {
	if _, exists := registry[code]; exists {
		panic(fmt.Sprintf("JDWP command %v registered twice", code))
	}
	registry[code] = registration{name: name, command: command, reply: reply}
}

func init() {
	register(CmdVirtualMachineVersion, "Version", parser[VersionCommand](), parser[VersionReply]())
	register(CmdVirtualMachineClassesBySignature, "ClassesBySignature", parser[ClassesBySignatureCommand](), parser[ClassesBySignatureReply]())
	register(CmdVirtualMachineAllClasses, "AllClasses", parser[AllClassesCommand](), parser[AllClassesReply]())
	register(CmdVirtualMachineAllThreads, "AllThreads", parser[AllThreadsCommand](), parser[AllThreadsReply]())
	register(CmdVirtualMachineTopLevelThreadGroups, "TopLevelThreadGroups", parser[TopLevelThreadGroupsCommand](), parser[TopLevelThreadGroupsReply]())
	register(CmdVirtualMachineDispose, "Dispose", parser[DisposeCommand](), nil)
	register(CmdVirtualMachineIDSizes, "IDSizes", parser[IDSizesCommand](), parser[IDSizesReply]())
	register(CmdVirtualMachineSuspend, "Suspend", parser[SuspendVMCommand](), nil)
	register(CmdVirtualMachineResume, "Resume", parser[ResumeVMCommand](), nil)
	register(CmdVirtualMachineExit, "Exit", parser[ExitCommand](), nil)
	register(CmdVirtualMachineCreateString, "CreateString", parser[CreateStringCommand](), parser[CreateStringReply]())
	register(CmdVirtualMachineCapabilities, "Capabilities", parser[CapabilitiesCommand](), parser[CapabilitiesReply]())
	register(CmdVirtualMachineClassPaths, "ClassPaths", parser[ClassPathsCommand](), parser[ClassPathsReply]())
	register(CmdVirtualMachineHoldEvents, "HoldEvents", parser[HoldEventsCommand](), nil)
	register(CmdVirtualMachineReleaseEvents, "ReleaseEvents", parser[ReleaseEventsCommand](), nil)
	register(CmdVirtualMachineAllClassesWithGeneric, "AllClassesWithGeneric", parser[AllClassesWithGenericCommand](), parser[AllClassesWithGenericReply]())

	register(CmdReferenceTypeSignature, "Signature", parser[SignatureCommand](), parser[SignatureReply]())
	register(CmdReferenceTypeClassLoader, "ClassLoader", parser[ClassLoaderCommand](), parser[ClassLoaderReply]())
	register(CmdReferenceTypeModifiers, "Modifiers", parser[ModifiersCommand](), parser[ModifiersReply]())
	register(CmdReferenceTypeFields, "Fields", parser[FieldsCommand](), parser[FieldsReply]())
	register(CmdReferenceTypeMethods, "Methods", parser[MethodsCommand](), parser[MethodsReply]())
	register(CmdReferenceTypeSourceFile, "SourceFile", parser[SourceFileCommand](), parser[SourceFileReply]())
	register(CmdReferenceTypeStatus, "Status", parser[ClassStatusCommand](), parser[ClassStatusReply]())
	register(CmdReferenceTypeInterfaces, "Interfaces", parser[InterfacesCommand](), parser[InterfacesReply]())

	register(CmdClassTypeSuperclass, "Superclass", parser[SuperclassCommand](), parser[SuperclassReply]())

	register(CmdMethodLineTable, "LineTable", parser[LineTableCommand](), parser[LineTableReply]())
	register(CmdMethodVariableTable, "VariableTable", parser[VariableTableCommand](), parser[VariableTableReply]())
	register(CmdMethodBytecodes, "Bytecodes", parser[BytecodesCommand](), parser[BytecodesReply]())
	register(CmdMethodIsObsolete, "IsObsolete", parser[IsObsoleteCommand](), parser[IsObsoleteReply]())

	register(CmdObjectReferenceReferenceType, "ReferenceType", parser[ObjectReferenceTypeCommand](), parser[ObjectReferenceTypeReply]())
	register(CmdObjectReferenceDisableCollection, "DisableCollection", parser[DisableCollectionCommand](), nil)
	register(CmdObjectReferenceEnableCollection, "EnableCollection", parser[EnableCollectionCommand](), nil)
	register(CmdObjectReferenceIsCollected, "IsCollected", parser[IsCollectedCommand](), parser[IsCollectedReply]())

	register(CmdStringReferenceValue, "Value", parser[StringValueCommand](), parser[StringValueReply]())

	register(CmdThreadReferenceName, "Name", parser[ThreadNameCommand](), parser[ThreadNameReply]())
	register(CmdThreadReferenceSuspend, "Suspend", parser[SuspendThreadCommand](), nil)
	register(CmdThreadReferenceResume, "Resume", parser[ResumeThreadCommand](), nil)
	register(CmdThreadReferenceStatus, "Status", parser[ThreadStatusCommand](), parser[ThreadStatusReply]())
	register(CmdThreadReferenceThreadGroup, "ThreadGroup", parser[ThreadGroupCommand](), parser[ThreadGroupReply]())
	register(CmdThreadReferenceFrames, "Frames", parser[FramesCommand](), parser[FramesReply]())
	register(CmdThreadReferenceFrameCount, "FrameCount", parser[FrameCountCommand](), parser[FrameCountReply]())
	register(CmdThreadReferenceSuspendCount, "SuspendCount", parser[SuspendCountCommand](), parser[SuspendCountReply]())

	register(CmdThreadGroupReferenceName, "Name", parser[ThreadGroupNameCommand](), parser[ThreadGroupNameReply]())

	register(CmdEventRequestSet, "Set", parser[SetEventRequestCommand](), parser[SetEventRequestReply]())
	register(CmdEventRequestClear, "Clear", parser[ClearEventRequestCommand](), nil)
	register(CmdEventRequestClearAllBreakpoints, "ClearAllBreakpoints", parser[ClearAllBreakpointsCommand](), nil)

	register(CmdStackFrameGetValues, "GetValues", parser[GetFrameValuesCommand](), parser[GetFrameValuesReply]())
	register(CmdStackFrameThisObject, "ThisObject", parser[ThisObjectCommand](), parser[ThisObjectReply]())

	register(CmdEventComposite, "Composite", parser[CompositeEvent](), nil)

	register(CmdDDMChunk, "Chunk", parser[DDMChunk](), parser[DDMChunk]())
}

// Lookup returns the name of a supported command.
func Lookup(code Code) (name string, found bool) {
	reg, found := registry[code]
	return reg.name, found
}

// Registered returns every supported command, ordered by command set and command.
func Registered() []Code {
	codes := make([]Code, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.SortFunc(codes, func(a, b Code) int {
		if a.Set != b.Set {
			return int(a.Set) - int(b.Set)
		}
		return int(a.Command) - int(b.Command)
	})
	return codes
}

func parseEmptyReply(code Code, r *wire.Reader) (Message, error) {
	r.ExpectEnd()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return EmptyReply{Of: code}, nil
}
