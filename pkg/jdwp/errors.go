/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"errors"
	"fmt"

	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

var (
	// ErrMalformedPacket is returned when a packet is shorter than its shape requires,
	// its length field disagrees with the bytes received, or a string overruns the buffer.
	ErrMalformedPacket = wire.ErrMalformedPacket

	// ErrIDSizesNotNegotiated is returned when an identifier is encoded or decoded
	// before the target VM's ID sizes are known.
	ErrIDSizesNotNegotiated = wire.ErrIDSizesNotNegotiated

	// ErrUnsupportedCommand is returned when no parser is registered for a command set/command pair.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrUnmatchedReply is returned when a reply arrives for an id with no outstanding request.
	ErrUnmatchedReply = errors.New("reply does not match any outstanding request")

	// ErrDuplicateRequestID is returned when a request id is registered while still outstanding.
	ErrDuplicateRequestID = errors.New("request id is already outstanding")

	// ErrRequestAbandoned resolves a pending request that was abandoned before its reply arrived.
	ErrRequestAbandoned = errors.New("request abandoned")

	// ErrSessionClosed resolves pending requests when their connection goes away.
	ErrSessionClosed = errors.New("session is closed")

	// ErrHandshakeFailed is returned when the peer does not answer the JDWP handshake.
	ErrHandshakeFailed = errors.New("JDWP handshake failed")
)

// IsMalformed returns true if the error indicates a packet that could not be parsed.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedPacket)
}

// IsUnsupported returns true if the error indicates a command with no registered parser.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedCommand)
}

// IsUnmatched returns true if the error indicates a reply with no outstanding request.
// Callers should treat it as a sign that the connection is out of sync.
func IsUnmatched(err error) bool {
	return errors.Is(err, ErrUnmatchedReply)
}

// DecodeError describes a packet that could not be turned into a message.
// Raw always holds the complete packet exactly as received.
type DecodeError struct {
	Header Header

	// Raw is the complete packet, header included.
	Raw []byte

	// Pending is the outstanding request the packet was matched to, if any.
	// A malformed reply still consumes its table entry, and the entry is reported here.
	Pending *Pending

	Err error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Header.IsReply():
		return fmt.Sprintf("failed to decode reply %d: %v", e.Header.ID, e.Err)
	case e.Header.Length == 0:
		return fmt.Sprintf("failed to decode packet: %v", e.Err)
	default:
		return fmt.Sprintf("failed to decode %v packet %d: %v", e.Header.Code(), e.Header.ID, e.Err)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Payload returns the still-unparsed payload bytes of the packet.
func (e *DecodeError) Payload() []byte {
	if len(e.Raw) < HeaderLength {
		return nil
	}
	return e.Raw[HeaderLength:]
}

// ErrorCode is the error code carried by a reply packet. Zero means success.
type ErrorCode uint16

const (
	ErrorNone                                ErrorCode = 0
	ErrorInvalidThread                       ErrorCode = 10
	ErrorInvalidThreadGroup                  ErrorCode = 11
	ErrorInvalidPriority                     ErrorCode = 12
	ErrorThreadNotSuspended                  ErrorCode = 13
	ErrorThreadSuspended                     ErrorCode = 14
	ErrorThreadNotAlive                      ErrorCode = 15
	ErrorInvalidObject                       ErrorCode = 20
	ErrorInvalidClass                        ErrorCode = 21
	ErrorClassNotPrepared                    ErrorCode = 22
	ErrorInvalidMethodID                     ErrorCode = 23
	ErrorInvalidLocation                     ErrorCode = 24
	ErrorInvalidFieldID                      ErrorCode = 25
	ErrorInvalidFrameID                      ErrorCode = 30
	ErrorNoMoreFrames                        ErrorCode = 31
	ErrorOpaqueFrame                         ErrorCode = 32
	ErrorNotCurrentFrame                     ErrorCode = 33
	ErrorTypeMismatch                        ErrorCode = 34
	ErrorInvalidSlot                         ErrorCode = 35
	ErrorDuplicate                           ErrorCode = 40
	ErrorNotFound                            ErrorCode = 41
	ErrorInvalidMonitor                      ErrorCode = 50
	ErrorNotMonitorOwner                     ErrorCode = 51
	ErrorInterrupt                           ErrorCode = 52
	ErrorInvalidClassFormat                  ErrorCode = 60
	ErrorCircularClassDefinition             ErrorCode = 61
	ErrorFailsVerification                   ErrorCode = 62
	ErrorAddMethodNotImplemented             ErrorCode = 63
	ErrorSchemaChangeNotImplemented          ErrorCode = 64
	ErrorInvalidTypestate                    ErrorCode = 65
	ErrorHierarchyChangeNotImplemented       ErrorCode = 66
	ErrorDeleteMethodNotImplemented          ErrorCode = 67
	ErrorUnsupportedVersion                  ErrorCode = 68
	ErrorNamesDontMatch                      ErrorCode = 69
	ErrorClassModifiersChangeNotImplemented  ErrorCode = 70
	ErrorMethodModifiersChangeNotImplemented ErrorCode = 71
	ErrorNotImplemented                      ErrorCode = 99
	ErrorNullPointer                         ErrorCode = 100
	ErrorAbsentInformation                   ErrorCode = 101
	ErrorInvalidEventType                    ErrorCode = 102
	ErrorIllegalArgument                     ErrorCode = 103
	ErrorOutOfMemory                         ErrorCode = 110
	ErrorAccessDenied                        ErrorCode = 111
	ErrorVMDead                              ErrorCode = 112
	ErrorInternal                            ErrorCode = 113
	ErrorUnattachedThread                    ErrorCode = 115
	ErrorInvalidTag                          ErrorCode = 500
	ErrorAlreadyInvoking                     ErrorCode = 502
	ErrorInvalidIndex                        ErrorCode = 503
	ErrorInvalidLength                       ErrorCode = 504
	ErrorInvalidString                       ErrorCode = 506
	ErrorInvalidClassLoader                  ErrorCode = 507
	ErrorInvalidArray                        ErrorCode = 508
	ErrorTransportLoad                       ErrorCode = 509
	ErrorTransportInit                       ErrorCode = 510
	ErrorNativeMethod                        ErrorCode = 511
	ErrorInvalidCount                        ErrorCode = 512
)

var errorCodeNames = map[ErrorCode]string{
	ErrorNone:                                "NONE",
	ErrorInvalidThread:                       "INVALID_THREAD",
	ErrorInvalidThreadGroup:                  "INVALID_THREAD_GROUP",
	ErrorInvalidPriority:                     "INVALID_PRIORITY",
	ErrorThreadNotSuspended:                  "THREAD_NOT_SUSPENDED",
	ErrorThreadSuspended:                     "THREAD_SUSPENDED",
	ErrorThreadNotAlive:                      "THREAD_NOT_ALIVE",
	ErrorInvalidObject:                       "INVALID_OBJECT",
	ErrorInvalidClass:                        "INVALID_CLASS",
	ErrorClassNotPrepared:                    "CLASS_NOT_PREPARED",
	ErrorInvalidMethodID:                     "INVALID_METHODID",
	ErrorInvalidLocation:                     "INVALID_LOCATION",
	ErrorInvalidFieldID:                      "INVALID_FIELDID",
	ErrorInvalidFrameID:                      "INVALID_FRAMEID",
	ErrorNoMoreFrames:                        "NO_MORE_FRAMES",
	ErrorOpaqueFrame:                         "OPAQUE_FRAME",
	ErrorNotCurrentFrame:                     "NOT_CURRENT_FRAME",
	ErrorTypeMismatch:                        "TYPE_MISMATCH",
	ErrorInvalidSlot:                         "INVALID_SLOT",
	ErrorDuplicate:                           "DUPLICATE",
	ErrorNotFound:                            "NOT_FOUND",
	ErrorInvalidMonitor:                      "INVALID_MONITOR",
	ErrorNotMonitorOwner:                     "NOT_MONITOR_OWNER",
	ErrorInterrupt:                           "INTERRUPT",
	ErrorInvalidClassFormat:                  "INVALID_CLASS_FORMAT",
	ErrorCircularClassDefinition:             "CIRCULAR_CLASS_DEFINITION",
	ErrorFailsVerification:                   "FAILS_VERIFICATION",
	ErrorAddMethodNotImplemented:             "ADD_METHOD_NOT_IMPLEMENTED",
	ErrorSchemaChangeNotImplemented:          "SCHEMA_CHANGE_NOT_IMPLEMENTED",
	ErrorInvalidTypestate:                    "INVALID_TYPESTATE",
	ErrorHierarchyChangeNotImplemented:       "HIERARCHY_CHANGE_NOT_IMPLEMENTED",
	ErrorDeleteMethodNotImplemented:          "DELETE_METHOD_NOT_IMPLEMENTED",
	ErrorUnsupportedVersion:                  "UNSUPPORTED_VERSION",
	ErrorNamesDontMatch:                      "NAMES_DONT_MATCH",
	ErrorClassModifiersChangeNotImplemented:  "CLASS_MODIFIERS_CHANGE_NOT_IMPLEMENTED",
	ErrorMethodModifiersChangeNotImplemented: "METHOD_MODIFIERS_CHANGE_NOT_IMPLEMENTED",
	ErrorNotImplemented:                      "NOT_IMPLEMENTED",
	ErrorNullPointer:                         "NULL_POINTER",
	ErrorAbsentInformation:                   "ABSENT_INFORMATION",
	ErrorInvalidEventType:                    "INVALID_EVENT_TYPE",
	ErrorIllegalArgument:                     "ILLEGAL_ARGUMENT",
	ErrorOutOfMemory:                         "OUT_OF_MEMORY",
	ErrorAccessDenied:                        "ACCESS_DENIED",
	ErrorVMDead:                              "VM_DEAD",
	ErrorInternal:                            "INTERNAL",
	ErrorUnattachedThread:                    "UNATTACHED_THREAD",
	ErrorInvalidTag:                          "INVALID_TAG",
	ErrorAlreadyInvoking:                     "ALREADY_INVOKING",
	ErrorInvalidIndex:                        "INVALID_INDEX",
	ErrorInvalidLength:                       "INVALID_LENGTH",
	ErrorInvalidString:                       "INVALID_STRING",
	ErrorInvalidClassLoader:                  "INVALID_CLASS_LOADER",
	ErrorInvalidArray:                        "INVALID_ARRAY",
	ErrorTransportLoad:                       "TRANSPORT_LOAD",
	ErrorTransportInit:                       "TRANSPORT_INIT",
	ErrorNativeMethod:                        "NATIVE_METHOD",
	ErrorInvalidCount:                        "INVALID_COUNT",
}

func (c ErrorCode) String() string {
	if name, found := errorCodeNames[c]; found {
		return name
	}
	return fmt.Sprintf("ERROR_%d", uint16(c))
}

// ErrorReply is the decoded form of a reply whose error code is not zero.
// It carries only the code; no payload is parsed for it.
// ErrorReply is a regular decoded value, and also satisfies error so that
// request helpers can return it directly.
type ErrorReply struct {
	// Of is the command the failed request was sent as. It is zero when the
	// reply could not be matched to a request.
	Of        Code      `json:"of"`
	ErrorCode ErrorCode `json:"errorCode"`
}

func (r ErrorReply) Code() Code                   { return r.Of }
func (r ErrorReply) WritePayload(_ *wire.Writer) {}

func (r ErrorReply) Error() string {
	return fmt.Sprintf("%v failed with error %v (%d)", r.Of, r.ErrorCode, uint16(r.ErrorCode))
}
