/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package session

import (
	"context"
	"fmt"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

const negotiationRequestID uint32 = 1

// NegotiateIDSizes asks the VM for its identifier widths using the bootstrap codec.
//
// Packets that arrive before the reply (typically the VMStart event) cannot be decoded
// yet; they are returned undecoded, in order, so that a Session can replay them once
// the sizes are known.
//
// If ctx ends before the reply arrives, a read may still be pending on t; the caller
// should close the transport.
func NegotiateIDSizes(ctx context.Context, t Transport) (wire.IDSizes, [][]byte, error) {
	codec := jdwp.NewBootstrapCodec()
	table := jdwp.NewOutstanding()

	data, _, err := codec.EncodeAndRegister(negotiationRequestID, jdwp.IDSizesCommand{}, table)
	if err != nil {
		return wire.IDSizes{}, nil, err
	}
	if writeErr := t.WritePacket(data); writeErr != nil {
		return wire.IDSizes{}, nil, fmt.Errorf("failed to send IDSizes command: %w", writeErr)
	}

	var early [][]byte
	for {
		packet, readErr := readPacketContext(ctx, t)
		if readErr != nil {
			return wire.IDSizes{}, early, fmt.Errorf("failed to read IDSizes reply: %w", readErr)
		}

		h, headerErr := jdwp.ParseHeader(packet)
		if headerErr != nil {
			return wire.IDSizes{}, early, headerErr
		}
		if !h.IsReply() || h.ID != negotiationRequestID {
			early = append(early, packet)
			continue
		}

		pkt, decodeErr := codec.Decode(packet, table)
		if decodeErr != nil {
			return wire.IDSizes{}, early, decodeErr
		}
		switch reply := pkt.Message.(type) {
		case jdwp.ErrorReply:
			return wire.IDSizes{}, early, reply
		case jdwp.IDSizesReply:
			if validateErr := reply.Sizes.Validate(); validateErr != nil {
				return wire.IDSizes{}, early, fmt.Errorf("VM reported unusable ID sizes: %w", validateErr)
			}
			return reply.Sizes, early, nil
		default:
			return wire.IDSizes{}, early, fmt.Errorf("unexpected reply to IDSizes: %T", pkt.Message)
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

func readPacketContext(ctx context.Context, t Transport) ([]byte, error) {
	results := make(chan readResult, 1)
	go func() {
		data, err := t.ReadPacket()
		results <- readResult{data: data, err: err}
	}()

	select {
	case res := <-results:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
