/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import "github.com/microsoft/jdwpwire/pkg/jdwp/wire"

// methodCommand is the payload of every Method command: the declaring type and the method.
// Its key is "refType-method", in decimal.
type methodCommand struct {
	RefType wire.ReferenceTypeID `json:"refType"`
	Method  wire.MethodID        `json:"method"`
}

func (m methodCommand) WritePayload(w *wire.Writer) {
	w.ReferenceTypeID(m.RefType)
	w.MethodID(m.Method)
}

func (m *methodCommand) readPayload(r *wire.Reader) {
	m.RefType = r.ReferenceTypeID()
	m.Method = r.MethodID()
}

func (m methodCommand) Key() string { return idKey(uint64(m.RefType), uint64(m.Method)) }

type LineTableCommand struct{ methodCommand }
type VariableTableCommand struct{ methodCommand }
type BytecodesCommand struct{ methodCommand }
type IsObsoleteCommand struct{ methodCommand }

func NewLineTableCommand(t wire.ReferenceTypeID, method wire.MethodID) LineTableCommand {
	return LineTableCommand{methodCommand{t, method}}
}

func NewVariableTableCommand(t wire.ReferenceTypeID, method wire.MethodID) VariableTableCommand {
	return VariableTableCommand{methodCommand{t, method}}
}

func NewBytecodesCommand(t wire.ReferenceTypeID, method wire.MethodID) BytecodesCommand {
	return BytecodesCommand{methodCommand{t, method}}
}

func NewIsObsoleteCommand(t wire.ReferenceTypeID, method wire.MethodID) IsObsoleteCommand {
	return IsObsoleteCommand{methodCommand{t, method}}
}

func (LineTableCommand) Code() Code     { return CmdMethodLineTable }
func (VariableTableCommand) Code() Code { return CmdMethodVariableTable }
func (BytecodesCommand) Code() Code     { return CmdMethodBytecodes }
func (IsObsoleteCommand) Code() Code    { return CmdMethodIsObsolete }

type LineTableEntry struct {
	CodeIndex  int64 `json:"codeIndex"`
	LineNumber int32 `json:"lineNumber"`
}

// LineTableReply maps code indices of a method to source lines.
// Start and End are -1 for native methods.
type LineTableReply struct {
	Start int64            `json:"start"`
	End   int64            `json:"end"`
	Lines []LineTableEntry `json:"lines"`
}

func (LineTableReply) Code() Code { return CmdMethodLineTable }

func (m LineTableReply) WritePayload(w *wire.Writer) {
	w.Int64(m.Start)
	w.Int64(m.End)
	w.Int32(int32(len(m.Lines)))
	for _, l := range m.Lines {
		w.Int64(l.CodeIndex)
		w.Int32(l.LineNumber)
	}
}

func (m *LineTableReply) readPayload(r *wire.Reader) {
	m.Start = r.Int64()
	m.End = r.Int64()
	n := r.Count(8 + 4)
	if n > 0 {
		m.Lines = make([]LineTableEntry, n)
	}
	for i := 0; i < n; i++ {
		m.Lines[i] = LineTableEntry{CodeIndex: r.Int64(), LineNumber: r.Int32()}
	}
}

// VariableSlot describes a local variable visible in [CodeIndex, CodeIndex+Length).
type VariableSlot struct {
	CodeIndex int64  `json:"codeIndex"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Length    int32  `json:"length"`
	Slot      int32  `json:"slot"`
}

type VariableTableReply struct {
	ArgCount int32          `json:"argCount"`
	Slots    []VariableSlot `json:"slots"`
}

func (VariableTableReply) Code() Code { return CmdMethodVariableTable }

func (m VariableTableReply) WritePayload(w *wire.Writer) {
	w.Int32(m.ArgCount)
	w.Int32(int32(len(m.Slots)))
	for _, s := range m.Slots {
		w.Int64(s.CodeIndex)
		w.String(s.Name)
		w.String(s.Signature)
		w.Int32(s.Length)
		w.Int32(s.Slot)
	}
}

func (m *VariableTableReply) readPayload(r *wire.Reader) {
	m.ArgCount = r.Int32()
	n := r.Count(8 + 4 + 4 + 4 + 4)
	if n > 0 {
		m.Slots = make([]VariableSlot, n)
	}
	for i := 0; i < n; i++ {
		m.Slots[i] = VariableSlot{
			CodeIndex: r.Int64(),
			Name:      r.String(),
			Signature: r.String(),
			Length:    r.Int32(),
			Slot:      r.Int32(),
		}
	}
}

type BytecodesReply struct {
	Bytecodes []byte `json:"bytecodes"`
}

func (BytecodesReply) Code() Code { return CmdMethodBytecodes }

func (m BytecodesReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Bytecodes)))
	w.Raw(m.Bytecodes)
}

func (m *BytecodesReply) readPayload(r *wire.Reader) {
	n := r.Count(1)
	if n > 0 {
		m.Bytecodes = r.Raw(n)
	}
}

type IsObsoleteReply struct {
	Obsolete bool `json:"obsolete"`
}

func (IsObsoleteReply) Code() Code { return CmdMethodIsObsolete }

func (m IsObsoleteReply) WritePayload(w *wire.Writer) { w.Bool(m.Obsolete) }

func (m *IsObsoleteReply) readPayload(r *wire.Reader) { m.Obsolete = r.Bool() }
