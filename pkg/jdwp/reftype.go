/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import "github.com/microsoft/jdwpwire/pkg/jdwp/wire"

// ReferenceType and ClassType command sets. Every command here is addressed to
// one reference type and is keyed by it.

// refTypeCommand is the payload shared by ReferenceType commands that take only a type.
type refTypeCommand struct {
	RefType wire.ReferenceTypeID `json:"refType"`
}

func (m refTypeCommand) WritePayload(w *wire.Writer) { w.ReferenceTypeID(m.RefType) }

func (m *refTypeCommand) readPayload(r *wire.Reader) { m.RefType = r.ReferenceTypeID() }

func (m refTypeCommand) Key() string { return idKey(uint64(m.RefType)) }

type SignatureCommand struct{ refTypeCommand }
type ClassLoaderCommand struct{ refTypeCommand }
type ModifiersCommand struct{ refTypeCommand }
type FieldsCommand struct{ refTypeCommand }
type MethodsCommand struct{ refTypeCommand }
type SourceFileCommand struct{ refTypeCommand }
type ClassStatusCommand struct{ refTypeCommand }
type InterfacesCommand struct{ refTypeCommand }

func NewSignatureCommand(t wire.ReferenceTypeID) SignatureCommand {
	return SignatureCommand{refTypeCommand{t}}
}

func NewClassLoaderCommand(t wire.ReferenceTypeID) ClassLoaderCommand {
	return ClassLoaderCommand{refTypeCommand{t}}
}

func NewModifiersCommand(t wire.ReferenceTypeID) ModifiersCommand {
	return ModifiersCommand{refTypeCommand{t}}
}

func NewFieldsCommand(t wire.ReferenceTypeID) FieldsCommand {
	return FieldsCommand{refTypeCommand{t}}
}

func NewMethodsCommand(t wire.ReferenceTypeID) MethodsCommand {
	return MethodsCommand{refTypeCommand{t}}
}

func NewSourceFileCommand(t wire.ReferenceTypeID) SourceFileCommand {
	return SourceFileCommand{refTypeCommand{t}}
}

func NewClassStatusCommand(t wire.ReferenceTypeID) ClassStatusCommand {
	return ClassStatusCommand{refTypeCommand{t}}
}

func NewInterfacesCommand(t wire.ReferenceTypeID) InterfacesCommand {
	return InterfacesCommand{refTypeCommand{t}}
}

func (SignatureCommand) Code() Code   { return CmdReferenceTypeSignature }
func (ClassLoaderCommand) Code() Code { return CmdReferenceTypeClassLoader }
func (ModifiersCommand) Code() Code   { return CmdReferenceTypeModifiers }
func (FieldsCommand) Code() Code      { return CmdReferenceTypeFields }
func (MethodsCommand) Code() Code     { return CmdReferenceTypeMethods }
func (SourceFileCommand) Code() Code  { return CmdReferenceTypeSourceFile }
func (ClassStatusCommand) Code() Code { return CmdReferenceTypeStatus }
func (InterfacesCommand) Code() Code  { return CmdReferenceTypeInterfaces }

type SignatureReply struct {
	Signature string `json:"signature"`
}

func (SignatureReply) Code() Code { return CmdReferenceTypeSignature }

func (m SignatureReply) WritePayload(w *wire.Writer) { w.String(m.Signature) }

func (m *SignatureReply) readPayload(r *wire.Reader) { m.Signature = r.String() }

type ClassLoaderReply struct {
	// ClassLoader is zero for the bootstrap loader.
	ClassLoader wire.ObjectID `json:"classLoader"`
}

func (ClassLoaderReply) Code() Code { return CmdReferenceTypeClassLoader }

func (m ClassLoaderReply) WritePayload(w *wire.Writer) { w.ObjectID(m.ClassLoader) }

func (m *ClassLoaderReply) readPayload(r *wire.Reader) { m.ClassLoader = r.ObjectID() }

type ModifiersReply struct {
	ModBits int32 `json:"modBits"`
}

func (ModifiersReply) Code() Code { return CmdReferenceTypeModifiers }

func (m ModifiersReply) WritePayload(w *wire.Writer) { w.Int32(m.ModBits) }

func (m *ModifiersReply) readPayload(r *wire.Reader) { m.ModBits = r.Int32() }

type FieldInfo struct {
	Field     wire.FieldID `json:"field"`
	Name      string       `json:"name"`
	Signature string       `json:"signature"`
	ModBits   int32        `json:"modBits"`
}

type FieldsReply struct {
	Fields []FieldInfo `json:"fields"`
}

func (FieldsReply) Code() Code { return CmdReferenceTypeFields }

func (m FieldsReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Fields)))
	for _, f := range m.Fields {
		w.FieldID(f.Field)
		w.String(f.Name)
		w.String(f.Signature)
		w.Int32(f.ModBits)
	}
}

func (m *FieldsReply) readPayload(r *wire.Reader) {
	n := r.Count(r.IDSizes().FieldIDSize + 4 + 4 + 4)
	if n > 0 {
		m.Fields = make([]FieldInfo, n)
	}
	for i := 0; i < n; i++ {
		m.Fields[i] = FieldInfo{
			Field:     r.FieldID(),
			Name:      r.String(),
			Signature: r.String(),
			ModBits:   r.Int32(),
		}
	}
}

type MethodInfo struct {
	Method    wire.MethodID `json:"method"`
	Name      string        `json:"name"`
	Signature string        `json:"signature"`
	ModBits   int32         `json:"modBits"`
}

type MethodsReply struct {
	Methods []MethodInfo `json:"methods"`
}

func (MethodsReply) Code() Code { return CmdReferenceTypeMethods }

func (m MethodsReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Methods)))
	for _, mi := range m.Methods {
		w.MethodID(mi.Method)
		w.String(mi.Name)
		w.String(mi.Signature)
		w.Int32(mi.ModBits)
	}
}

func (m *MethodsReply) readPayload(r *wire.Reader) {
	n := r.Count(r.IDSizes().MethodIDSize + 4 + 4 + 4)
	if n > 0 {
		m.Methods = make([]MethodInfo, n)
	}
	for i := 0; i < n; i++ {
		m.Methods[i] = MethodInfo{
			Method:    r.MethodID(),
			Name:      r.String(),
			Signature: r.String(),
			ModBits:   r.Int32(),
		}
	}
}

type SourceFileReply struct {
	SourceFile string `json:"sourceFile"`
}

func (SourceFileReply) Code() Code { return CmdReferenceTypeSourceFile }

func (m SourceFileReply) WritePayload(w *wire.Writer) { w.String(m.SourceFile) }

func (m *SourceFileReply) readPayload(r *wire.Reader) { m.SourceFile = r.String() }

type ClassStatusReply struct {
	Status ClassStatus `json:"status"`
}

func (ClassStatusReply) Code() Code { return CmdReferenceTypeStatus }

func (m ClassStatusReply) WritePayload(w *wire.Writer) { w.Int32(int32(m.Status)) }

func (m *ClassStatusReply) readPayload(r *wire.Reader) { m.Status = ClassStatus(r.Int32()) }

type InterfacesReply struct {
	Interfaces []wire.ReferenceTypeID `json:"interfaces"`
}

func (InterfacesReply) Code() Code { return CmdReferenceTypeInterfaces }

func (m InterfacesReply) WritePayload(w *wire.Writer) {
	w.Int32(int32(len(m.Interfaces)))
	for _, i := range m.Interfaces {
		w.ReferenceTypeID(i)
	}
}

func (m *InterfacesReply) readPayload(r *wire.Reader) {
	n := r.Count(r.IDSizes().ReferenceTypeIDSize)
	if n > 0 {
		m.Interfaces = make([]wire.ReferenceTypeID, n)
	}
	for i := 0; i < n; i++ {
		m.Interfaces[i] = r.ReferenceTypeID()
	}
}

type SuperclassCommand struct {
	Class wire.ClassID `json:"class"`
}

func (SuperclassCommand) Code() Code { return CmdClassTypeSuperclass }

func (m SuperclassCommand) WritePayload(w *wire.Writer) { w.ClassID(m.Class) }

func (m *SuperclassCommand) readPayload(r *wire.Reader) { m.Class = r.ClassID() }

func (m SuperclassCommand) Key() string { return idKey(uint64(m.Class)) }

type SuperclassReply struct {
	// Superclass is zero for java.lang.Object.
	Superclass wire.ClassID `json:"superclass"`
}

func (SuperclassReply) Code() Code { return CmdClassTypeSuperclass }

func (m SuperclassReply) WritePayload(w *wire.Writer) { w.ClassID(m.Superclass) }

func (m *SuperclassReply) readPayload(r *wire.Reader) { m.Superclass = r.ClassID() }
