/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import "github.com/microsoft/jdwpwire/pkg/jdwp/wire"

// ObjectReference and StringReference command sets.

type objectCommand struct {
	Object wire.ObjectID `json:"object"`
}

func (m objectCommand) WritePayload(w *wire.Writer) { w.ObjectID(m.Object) }

func (m *objectCommand) readPayload(r *wire.Reader) { m.Object = r.ObjectID() }

type ObjectReferenceTypeCommand struct{ objectCommand }
type DisableCollectionCommand struct{ objectCommand }
type EnableCollectionCommand struct{ objectCommand }
type IsCollectedCommand struct{ objectCommand }

func NewObjectReferenceTypeCommand(o wire.ObjectID) ObjectReferenceTypeCommand {
	return ObjectReferenceTypeCommand{objectCommand{o}}
}

func NewDisableCollectionCommand(o wire.ObjectID) DisableCollectionCommand {
	return DisableCollectionCommand{objectCommand{o}}
}

func NewEnableCollectionCommand(o wire.ObjectID) EnableCollectionCommand {
	return EnableCollectionCommand{objectCommand{o}}
}

func NewIsCollectedCommand(o wire.ObjectID) IsCollectedCommand {
	return IsCollectedCommand{objectCommand{o}}
}

func (ObjectReferenceTypeCommand) Code() Code { return CmdObjectReferenceReferenceType }
func (DisableCollectionCommand) Code() Code   { return CmdObjectReferenceDisableCollection }
func (EnableCollectionCommand) Code() Code    { return CmdObjectReferenceEnableCollection }
func (IsCollectedCommand) Code() Code         { return CmdObjectReferenceIsCollected }

// Collection control changes VM state on every send, so those commands are not keyed.
func (m ObjectReferenceTypeCommand) Key() string { return idKey(uint64(m.Object)) }
func (m IsCollectedCommand) Key() string         { return idKey(uint64(m.Object)) }

type ObjectReferenceTypeReply struct {
	RefTypeTag wire.TypeTag         `json:"refTypeTag"`
	TypeID     wire.ReferenceTypeID `json:"typeID"`
}

func (ObjectReferenceTypeReply) Code() Code { return CmdObjectReferenceReferenceType }

func (m ObjectReferenceTypeReply) WritePayload(w *wire.Writer) {
	w.Uint8(uint8(m.RefTypeTag))
	w.ReferenceTypeID(m.TypeID)
}

func (m *ObjectReferenceTypeReply) readPayload(r *wire.Reader) {
	m.RefTypeTag = wire.TypeTag(r.Uint8())
	m.TypeID = r.ReferenceTypeID()
}

type IsCollectedReply struct {
	Collected bool `json:"collected"`
}

func (IsCollectedReply) Code() Code { return CmdObjectReferenceIsCollected }

func (m IsCollectedReply) WritePayload(w *wire.Writer) { w.Bool(m.Collected) }

func (m *IsCollectedReply) readPayload(r *wire.Reader) { m.Collected = r.Bool() }

type StringValueCommand struct {
	String wire.StringID `json:"string"`
}

func (StringValueCommand) Code() Code { return CmdStringReferenceValue }

func (m StringValueCommand) WritePayload(w *wire.Writer) { w.StringID(m.String) }

func (m *StringValueCommand) readPayload(r *wire.Reader) { m.String = r.StringID() }

func (m StringValueCommand) Key() string { return idKey(uint64(m.String)) }

type StringValueReply struct {
	Value string `json:"value"`
}

func (StringValueReply) Code() Code { return CmdStringReferenceValue }

func (m StringValueReply) WritePayload(w *wire.Writer) { w.String(m.Value) }

func (m *StringValueReply) readPayload(r *wire.Reader) { m.Value = r.String() }
