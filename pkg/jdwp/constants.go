/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"fmt"
	"strings"
)

// EventKind identifies the kind of an event and of an event request.
type EventKind uint8

const (
	EventKindSingleStep                EventKind = 1
	EventKindBreakpoint                EventKind = 2
	EventKindFramePop                  EventKind = 3
	EventKindException                 EventKind = 4
	EventKindUserDefined               EventKind = 5
	EventKindThreadStart               EventKind = 6
	EventKindThreadDeath               EventKind = 7
	EventKindClassPrepare              EventKind = 8
	EventKindClassUnload               EventKind = 9
	EventKindClassLoad                 EventKind = 10
	EventKindFieldAccess               EventKind = 20
	EventKindFieldModification         EventKind = 21
	EventKindExceptionCatch            EventKind = 30
	EventKindMethodEntry               EventKind = 40
	EventKindMethodExit                EventKind = 41
	EventKindMethodExitWithReturnValue EventKind = 42
	EventKindMonitorContendedEnter     EventKind = 43
	EventKindMonitorContendedEntered   EventKind = 44
	EventKindMonitorWait               EventKind = 45
	EventKindMonitorWaited             EventKind = 46
	EventKindVMStart                   EventKind = 90
	EventKindVMDeath                   EventKind = 99
)

func (k EventKind) String() string {
	switch k {
	case EventKindSingleStep:
		return "SingleStep"
	case EventKindBreakpoint:
		return "Breakpoint"
	case EventKindFramePop:
		return "FramePop"
	case EventKindException:
		return "Exception"
	case EventKindUserDefined:
		return "UserDefined"
	case EventKindThreadStart:
		return "ThreadStart"
	case EventKindThreadDeath:
		return "ThreadDeath"
	case EventKindClassPrepare:
		return "ClassPrepare"
	case EventKindClassUnload:
		return "ClassUnload"
	case EventKindClassLoad:
		return "ClassLoad"
	case EventKindFieldAccess:
		return "FieldAccess"
	case EventKindFieldModification:
		return "FieldModification"
	case EventKindExceptionCatch:
		return "ExceptionCatch"
	case EventKindMethodEntry:
		return "MethodEntry"
	case EventKindMethodExit:
		return "MethodExit"
	case EventKindMethodExitWithReturnValue:
		return "MethodExitWithReturnValue"
	case EventKindMonitorContendedEnter:
		return "MonitorContendedEnter"
	case EventKindMonitorContendedEntered:
		return "MonitorContendedEntered"
	case EventKindMonitorWait:
		return "MonitorWait"
	case EventKindMonitorWaited:
		return "MonitorWaited"
	case EventKindVMStart:
		return "VMStart"
	case EventKindVMDeath:
		return "VMDeath"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// SuspendPolicy says which threads the VM suspends when an event fires.
type SuspendPolicy uint8

const (
	SuspendPolicyNone        SuspendPolicy = 0
	SuspendPolicyEventThread SuspendPolicy = 1
	SuspendPolicyAll         SuspendPolicy = 2
)

func (p SuspendPolicy) String() string {
	switch p {
	case SuspendPolicyNone:
		return "none"
	case SuspendPolicyEventThread:
		return "eventThread"
	case SuspendPolicyAll:
		return "all"
	default:
		return fmt.Sprintf("SuspendPolicy(%d)", uint8(p))
	}
}

// ClassStatus is a set of class preparation flags.
type ClassStatus int32

const (
	ClassStatusVerified    ClassStatus = 1
	ClassStatusPrepared    ClassStatus = 2
	ClassStatusInitialized ClassStatus = 4
	ClassStatusError       ClassStatus = 8
)

func (s ClassStatus) String() string {
	var flags []string
	for _, f := range []struct {
		bit  ClassStatus
		name string
	}{
		{ClassStatusVerified, "VERIFIED"},
		{ClassStatusPrepared, "PREPARED"},
		{ClassStatusInitialized, "INITIALIZED"},
		{ClassStatusError, "ERROR"},
	} {
		if s&f.bit != 0 {
			flags = append(flags, f.name)
		}
	}
	if len(flags) == 0 {
		return fmt.Sprint(int32(s))
	}
	return strings.Join(flags, "|")
}

// ThreadStatus is the execution state of a thread.
type ThreadStatus int32

const (
	ThreadStatusZombie   ThreadStatus = 0
	ThreadStatusRunning  ThreadStatus = 1
	ThreadStatusSleeping ThreadStatus = 2
	ThreadStatusMonitor  ThreadStatus = 3
	ThreadStatusWait     ThreadStatus = 4
)

func (s ThreadStatus) String() string {
	switch s {
	case ThreadStatusZombie:
		return "zombie"
	case ThreadStatusRunning:
		return "running"
	case ThreadStatusSleeping:
		return "sleeping"
	case ThreadStatusMonitor:
		return "monitor"
	case ThreadStatusWait:
		return "wait"
	default:
		return fmt.Sprintf("ThreadStatus(%d)", int32(s))
	}
}

// SuspendStatusSuspended is set in a thread's suspend status when the debugger suspended it.
const SuspendStatusSuspended int32 = 1

type StepSize int32

const (
	StepSizeMin  StepSize = 0
	StepSizeLine StepSize = 1
)

type StepDepth int32

const (
	StepDepthInto StepDepth = 0
	StepDepthOver StepDepth = 1
	StepDepthOut  StepDepth = 2
)
