/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import "github.com/microsoft/jdwpwire/pkg/jdwp/wire"

// VirtualMachine command set.

type VersionReply struct {
	Description string `json:"description"`
	JDWPMajor   int32  `json:"jdwpMajor"`
	JDWPMinor   int32  `json:"jdwpMinor"`
	VMVersion   string `json:"vmVersion"`
	VMName      string `json:"vmName"`
}

func (VersionReply) Code() Code { return CmdVirtualMachineVersion }

func (m VersionReply) WritePayload(w *wire.Writer) {
	w.String(m.Description)
	w.Int32(m.JDWPMajor)
	w.Int32(m.JDWPMinor)
	w.String(m.VMVersion)
	w.String(m.VMName)
}

func (m *VersionReply) readPayload(r *wire.Reader) {
	m.Description = r.String()
	m.JDWPMajor = r.Int32()
	m.JDWPMinor = r.Int32()
	m.VMVersion = r.String()
	m.VMName = r.String()
}

type ClassesBySignatureCommand struct {
	Signature string `json:"signature"`
}

func (ClassesBySignatureCommand) Code() Code { return CmdVirtualMachineClassesBySignature }

func (m ClassesBySignatureCommand) WritePayload(w *wire.Writer) { w.String(m.Signature) }

func (m *ClassesBySignatureCommand) readPayload(r *wire.Reader) { m.Signature = r.String() }

func (m ClassesBySignatureCommand) Key() string { return m.Signature }

// ClassInfo is a loaded reference type matching a signature.
type ClassInfo struct {
	RefTypeTag wire.TypeTag         `json:"refTypeTag"`
	TypeID     wire.ReferenceTypeID `json:"typeID"`
	Status     ClassStatus          `json:"status"`
}

type ClassesBySignatureReply struct {
	Classes []ClassInfo `json:"classes"`
}

func (ClassesBySignatureReply) Code() Code { return CmdVirtualMachineClassesBySignature }

func (m ClassesBySignatureReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Classes)))
	for _, c := range m.Classes {
		w.Uint8(uint8(c.RefTypeTag))
		w.ReferenceTypeID(c.TypeID)
		w.Int32(int32(c.Status))
	}
}

func (m *ClassesBySignatureReply) readPayload(r *wire.Reader) {
	n := r.Count(1 + r.IDSizes().ReferenceTypeIDSize + 4)
	if n > 0 {
		m.Classes = make([]ClassInfo, n)
	}
	for i := 0; i < n; i++ {
		m.Classes[i] = ClassInfo{
			RefTypeTag: wire.TypeTag(r.Uint8()),
			TypeID:     r.ReferenceTypeID(),
			Status:     ClassStatus(r.Int32()),
		}
	}
}

// ClassEntry is a loaded reference type together with its signature.
type ClassEntry struct {
	RefTypeTag wire.TypeTag         `json:"refTypeTag"`
	TypeID     wire.ReferenceTypeID `json:"typeID"`
	Signature  string               `json:"signature"`
	Status     ClassStatus          `json:"status"`
}

type AllClassesReply struct {
	Classes []ClassEntry `json:"classes"`
}

func (AllClassesReply) Code() Code { return CmdVirtualMachineAllClasses }

func (m AllClassesReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Classes)))
	for _, c := range m.Classes {
		w.Uint8(uint8(c.RefTypeTag))
		w.ReferenceTypeID(c.TypeID)
		w.String(c.Signature)
		w.Int32(int32(c.Status))
	}
}

func (m *AllClassesReply) readPayload(r *wire.Reader) {
	n := r.Count(1 + r.IDSizes().ReferenceTypeIDSize + 4 + 4)
	if n > 0 {
		m.Classes = make([]ClassEntry, n)
	}
	for i := 0; i < n; i++ {
		m.Classes[i] = ClassEntry{
			RefTypeTag: wire.TypeTag(r.Uint8()),
			TypeID:     r.ReferenceTypeID(),
			Signature:  r.String(),
			Status:     ClassStatus(r.Int32()),
		}
	}
}

// GenericClassEntry is a loaded reference type with its generic signature, if any.
type GenericClassEntry struct {
	RefTypeTag       wire.TypeTag         `json:"refTypeTag"`
	TypeID           wire.ReferenceTypeID `json:"typeID"`
	Signature        string               `json:"signature"`
	GenericSignature string               `json:"genericSignature"`
	Status           ClassStatus          `json:"status"`
}

type AllClassesWithGenericReply struct {
	Classes []GenericClassEntry `json:"classes"`
}

func (AllClassesWithGenericReply) Code() Code { return CmdVirtualMachineAllClassesWithGeneric }

func (m AllClassesWithGenericReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Classes)))
	for _, c := range m.Classes {
		w.Uint8(uint8(c.RefTypeTag))
		w.ReferenceTypeID(c.TypeID)
		w.String(c.Signature)
		w.String(c.GenericSignature)
		w.Int32(int32(c.Status))
	}
}

func (m *AllClassesWithGenericReply) readPayload(r *wire.Reader) {
	n := r.Count(1 + r.IDSizes().ReferenceTypeIDSize + 4 + 4 + 4)
	if n > 0 {
		m.Classes = make([]GenericClassEntry, n)
	}
	for i := 0; i < n; i++ {
		m.Classes[i] = GenericClassEntry{
			RefTypeTag:       wire.TypeTag(r.Uint8()),
			TypeID:           r.ReferenceTypeID(),
			Signature:        r.String(),
			GenericSignature: r.String(),
			Status:           ClassStatus(r.Int32()),
		}
	}
}

type AllThreadsReply struct {
	Threads []wire.ThreadID `json:"threads"`
}

func (AllThreadsReply) Code() Code { return CmdVirtualMachineAllThreads }

func (m AllThreadsReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Threads)))
	for _, t := range m.Threads {
		w.ThreadID(t)
	}
}

func (m *AllThreadsReply) readPayload(r *wire.Reader) {
	n := r.Count(r.IDSizes().ObjectIDSize)
	if n > 0 {
		m.Threads = make([]wire.ThreadID, n)
	}
	for i := 0; i < n; i++ {
		m.Threads[i] = r.ThreadID()
	}
}

type TopLevelThreadGroupsReply struct {
	Groups []wire.ThreadGroupID `json:"groups"`
}

func (TopLevelThreadGroupsReply) Code() Code { return CmdVirtualMachineTopLevelThreadGroups }

func (m TopLevelThreadGroupsReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Groups)))
	for _, g := range m.Groups {
		w.ThreadGroupID(g)
	}
}

func (m *TopLevelThreadGroupsReply) readPayload(r *wire.Reader) {
	n := r.Count(r.IDSizes().ObjectIDSize)
	if n > 0 {
		m.Groups = make([]wire.ThreadGroupID, n)
	}
	for i := 0; i < n; i++ {
		m.Groups[i] = r.ThreadGroupID()
	}
}

// IDSizesReply carries the identifier widths the VM uses.
// Its payload contains no identifiers, so it decodes before sizes are negotiated.
type IDSizesReply struct {
	Sizes wire.IDSizes `json:"sizes"`
}

func (IDSizesReply) Code() Code { return CmdVirtualMachineIDSizes }

func (m IDSizesReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(m.Sizes.FieldIDSize))
	w.Int32(int32(m.Sizes.MethodIDSize))
	w.Int32(int32(m.Sizes.ObjectIDSize))
	w.Int32(int32(m.Sizes.ReferenceTypeIDSize))
	w.Int32(int32(m.Sizes.FrameIDSize))
}

func (m *IDSizesReply) readPayload(r *wire.Reader) {
	m.Sizes.FieldIDSize = int(r.Int32())
	m.Sizes.MethodIDSize = int(r.Int32())
	m.Sizes.ObjectIDSize = int(r.Int32())
	m.Sizes.ReferenceTypeIDSize = int(r.Int32())
	m.Sizes.FrameIDSize = int(r.Int32())
}

type ExitCommand struct {
	ExitCode int32 `json:"exitCode"`
}

func (ExitCommand) Code() Code { return CmdVirtualMachineExit }

func (m ExitCommand) WritePayload(w *wire.Writer) { w.Int32(m.ExitCode) }

func (m *ExitCommand) readPayload(r *wire.Reader) { m.ExitCode = r.Int32() }

type CreateStringCommand struct {
	Value string `json:"value"`
}

func (CreateStringCommand) Code() Code { return CmdVirtualMachineCreateString }

func (m CreateStringCommand) WritePayload(w *wire.Writer) { w.String(m.Value) }

func (m *CreateStringCommand) readPayload(r *wire.Reader) { m.Value = r.String() }

type CreateStringReply struct {
	String wire.StringID `json:"string"`
}

func (CreateStringReply) Code() Code { return CmdVirtualMachineCreateString }

func (m CreateStringReply) WritePayload(w *wire.Writer) { w.StringID(m.String) }

func (m *CreateStringReply) readPayload(r *wire.Reader) { m.String = r.StringID() }

type CapabilitiesReply struct {
	CanWatchFieldModification     bool `json:"canWatchFieldModification"`
	CanWatchFieldAccess           bool `json:"canWatchFieldAccess"`
	CanGetBytecodes               bool `json:"canGetBytecodes"`
	CanGetSyntheticAttribute      bool `json:"canGetSyntheticAttribute"`
	CanGetOwnedMonitorInfo        bool `json:"canGetOwnedMonitorInfo"`
	CanGetCurrentContendedMonitor bool `json:"canGetCurrentContendedMonitor"`
	CanGetMonitorInfo             bool `json:"canGetMonitorInfo"`
}

func (CapabilitiesReply) Code() Code { return CmdVirtualMachineCapabilities }

func (m CapabilitiesReply) WritePayload(w *wire.Writer) {
	w.Bool(m.CanWatchFieldModification)
	w.Bool(m.CanWatchFieldAccess)
	w.Bool(m.CanGetBytecodes)
	w.Bool(m.CanGetSyntheticAttribute)
	w.Bool(m.CanGetOwnedMonitorInfo)
	w.Bool(m.CanGetCurrentContendedMonitor)
	w.Bool(m.CanGetMonitorInfo)
}

func (m *CapabilitiesReply) readPayload(r *wire.Reader) {
	m.CanWatchFieldModification = r.Bool()
	m.CanWatchFieldAccess = r.Bool()
	m.CanGetBytecodes = r.Bool()
	m.CanGetSyntheticAttribute = r.Bool()
	m.CanGetOwnedMonitorInfo = r.Bool()
	m.CanGetCurrentContendedMonitor = r.Bool()
	m.CanGetMonitorInfo = r.Bool()
}

type ClassPathsReply struct {
	BaseDir        string   `json:"baseDir"`
	ClassPaths     []string `json:"classPaths"`
	BootClassPaths []string `json:"bootClassPaths"`
}

func (ClassPathsReply) Code() Code { return CmdVirtualMachineClassPaths }

func (m ClassPathsReply) WritePayload(w *wire.Writer) {
	w.String(m.BaseDir)
	writeStrings(w, m.ClassPaths)
	writeStrings(w, m.BootClassPaths)
}

func (m *ClassPathsReply) readPayload(r *wire.Reader) {
	m.BaseDir = r.String()
	m.ClassPaths = readStrings(r)
	m.BootClassPaths = readStrings(r)
}

func writeStrings(w *wire.Writer, values []string) {
	w.Int32(int32(len(values)))
	for _, v := range values {
		w.String(v)
	}
}

func readStrings(r *wire.Reader) []string {
	n := r.Count(4)
	if n == 0 {
		return nil
	}
	values := make([]string, n)
	for i := range values {
		values[i] = r.String()
	}
	return values
}
