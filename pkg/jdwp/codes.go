/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import "fmt"

// CommandSet is the namespace of a command.
type CommandSet uint8

const (
	CommandSetVirtualMachine       CommandSet = 1
	CommandSetReferenceType        CommandSet = 2
	CommandSetClassType            CommandSet = 3
	CommandSetArrayType            CommandSet = 4
	CommandSetInterfaceType        CommandSet = 5
	CommandSetMethod               CommandSet = 6
	CommandSetField                CommandSet = 8
	CommandSetObjectReference      CommandSet = 9
	CommandSetStringReference      CommandSet = 10
	CommandSetThreadReference      CommandSet = 11
	CommandSetThreadGroupReference CommandSet = 12
	CommandSetArrayReference       CommandSet = 13
	CommandSetClassLoaderReference CommandSet = 14
	CommandSetEventRequest         CommandSet = 15
	CommandSetStackFrame           CommandSet = 16
	CommandSetClassObjectReference CommandSet = 17
	CommandSetEvent                CommandSet = 64

	// Android DDM (Dalvik Debug Monitor) vendor command set.
	CommandSetDDM CommandSet = 0xc7
)

const (
	firstEventCommandSet CommandSet = 64
	lastEventCommandSet  CommandSet = 127
)

// IsEvent reports whether commands in this set are events sent by the target VM.
// JDWP reserves sets 64-127 for them.
func (s CommandSet) IsEvent() bool {
	return s >= firstEventCommandSet && s <= lastEventCommandSet
}

func (s CommandSet) String() string {
	switch s {
	case CommandSetVirtualMachine:
		return "VirtualMachine"
	case CommandSetReferenceType:
		return "ReferenceType"
	case CommandSetClassType:
		return "ClassType"
	case CommandSetArrayType:
		return "ArrayType"
	case CommandSetInterfaceType:
		return "InterfaceType"
	case CommandSetMethod:
		return "Method"
	case CommandSetField:
		return "Field"
	case CommandSetObjectReference:
		return "ObjectReference"
	case CommandSetStringReference:
		return "StringReference"
	case CommandSetThreadReference:
		return "ThreadReference"
	case CommandSetThreadGroupReference:
		return "ThreadGroupReference"
	case CommandSetArrayReference:
		return "ArrayReference"
	case CommandSetClassLoaderReference:
		return "ClassLoaderReference"
	case CommandSetEventRequest:
		return "EventRequest"
	case CommandSetStackFrame:
		return "StackFrame"
	case CommandSetClassObjectReference:
		return "ClassObjectReference"
	case CommandSetEvent:
		return "Event"
	case CommandSetDDM:
		return "DDM"
	}
	return fmt.Sprint(int(s))
}

// Code identifies a command by its command set and command number.
type Code struct {
	Set     CommandSet `json:"set"`
	Command uint8      `json:"command"`
}

func (c Code) String() string {
	if reg, found := registry[c]; found {
		return fmt.Sprintf("%v.%s", c.Set, reg.name)
	}
	return fmt.Sprintf("%v.%d", c.Set, c.Command)
}

var (
	CmdVirtualMachineVersion               = Code{CommandSetVirtualMachine, 1}
	CmdVirtualMachineClassesBySignature    = Code{CommandSetVirtualMachine, 2}
	CmdVirtualMachineAllClasses            = Code{CommandSetVirtualMachine, 3}
	CmdVirtualMachineAllThreads            = Code{CommandSetVirtualMachine, 4}
	CmdVirtualMachineTopLevelThreadGroups  = Code{CommandSetVirtualMachine, 5}
	CmdVirtualMachineDispose               = Code{CommandSetVirtualMachine, 6}
	CmdVirtualMachineIDSizes               = Code{CommandSetVirtualMachine, 7}
	CmdVirtualMachineSuspend               = Code{CommandSetVirtualMachine, 8}
	CmdVirtualMachineResume                = Code{CommandSetVirtualMachine, 9}
	CmdVirtualMachineExit                  = Code{CommandSetVirtualMachine, 10}
	CmdVirtualMachineCreateString          = Code{CommandSetVirtualMachine, 11}
	CmdVirtualMachineCapabilities          = Code{CommandSetVirtualMachine, 12}
	CmdVirtualMachineClassPaths            = Code{CommandSetVirtualMachine, 13}
	CmdVirtualMachineHoldEvents            = Code{CommandSetVirtualMachine, 15}
	CmdVirtualMachineReleaseEvents         = Code{CommandSetVirtualMachine, 16}
	CmdVirtualMachineAllClassesWithGeneric = Code{CommandSetVirtualMachine, 20}

	CmdReferenceTypeSignature   = Code{CommandSetReferenceType, 1}
	CmdReferenceTypeClassLoader = Code{CommandSetReferenceType, 2}
	CmdReferenceTypeModifiers   = Code{CommandSetReferenceType, 3}
	CmdReferenceTypeFields      = Code{CommandSetReferenceType, 4}
	CmdReferenceTypeMethods     = Code{CommandSetReferenceType, 5}
	CmdReferenceTypeSourceFile  = Code{CommandSetReferenceType, 7}
	CmdReferenceTypeStatus      = Code{CommandSetReferenceType, 9}
	CmdReferenceTypeInterfaces  = Code{CommandSetReferenceType, 10}

	CmdClassTypeSuperclass = Code{CommandSetClassType, 1}

	CmdMethodLineTable     = Code{CommandSetMethod, 1}
	CmdMethodVariableTable = Code{CommandSetMethod, 2}
	CmdMethodBytecodes     = Code{CommandSetMethod, 3}
	CmdMethodIsObsolete    = Code{CommandSetMethod, 4}

	CmdObjectReferenceReferenceType     = Code{CommandSetObjectReference, 1}
	CmdObjectReferenceDisableCollection = Code{CommandSetObjectReference, 7}
	CmdObjectReferenceEnableCollection  = Code{CommandSetObjectReference, 8}
	CmdObjectReferenceIsCollected       = Code{CommandSetObjectReference, 9}

	CmdStringReferenceValue = Code{CommandSetStringReference, 1}

	CmdThreadReferenceName         = Code{CommandSetThreadReference, 1}
	CmdThreadReferenceSuspend      = Code{CommandSetThreadReference, 2}
	CmdThreadReferenceResume       = Code{CommandSetThreadReference, 3}
	CmdThreadReferenceStatus       = Code{CommandSetThreadReference, 4}
	CmdThreadReferenceThreadGroup  = Code{CommandSetThreadReference, 5}
	CmdThreadReferenceFrames       = Code{CommandSetThreadReference, 6}
	CmdThreadReferenceFrameCount   = Code{CommandSetThreadReference, 7}
	CmdThreadReferenceSuspendCount = Code{CommandSetThreadReference, 12}

	CmdThreadGroupReferenceName = Code{CommandSetThreadGroupReference, 1}

	CmdEventRequestSet                 = Code{CommandSetEventRequest, 1}
	CmdEventRequestClear               = Code{CommandSetEventRequest, 2}
	CmdEventRequestClearAllBreakpoints = Code{CommandSetEventRequest, 3}

	CmdStackFrameGetValues  = Code{CommandSetStackFrame, 1}
	CmdStackFrameThisObject = Code{CommandSetStackFrame, 3}

	CmdEventComposite = Code{CommandSetEvent, 100}

	CmdDDMChunk = Code{CommandSetDDM, 1}
)
