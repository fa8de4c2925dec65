/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/microsoft/jdwpwire/pkg/jdwp/trace"
	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

var errDecodeProblems = errors.New("some packets could not be decoded")

type decodeOptions struct {
	packets     []string
	idSize      int
	output      string
	failOnError bool
}

func NewDecodeCommand(log logr.Logger) *cobra.Command {
	opts := &decodeOptions{}

	decodeCmd := &cobra.Command{
		Use:   "decode [capture-file] [--packet '> hex']... [--id-size n] [--output text|json|yaml] [--fail-on-error]",
		Short: "Decodes a recorded JDWP conversation",
		Long: `Decodes a recorded JDWP conversation.

A capture has one packet per line: '>' for packets sent by the debugger or '<' for packets
sent by the VM, followed by the packet bytes in hex. Lines starting with '#' are ignored.
The capture is read from the file argument, or from standard input if the argument is
omitted or is '-'. Packets can also be passed directly with --packet.

Identifier sizes are learned from the VirtualMachine.IDSizes reply. For a capture that does
not start at the beginning of a connection, pass the identifier width with --id-size.`,
		RunE: runDecode(log, opts),
		Args: cobra.MaximumNArgs(1),
	}

	decodeCmd.Flags().StringArrayVarP(&opts.packets, "packet", "p", nil, "A packet in capture line form, e.g. '> 0000000b0000000100 0101'. Can be repeated.")
	decodeCmd.Flags().IntVar(&opts.idSize, "id-size", 0, "The width of every identifier in bytes. If zero, sizes are learned from the capture.")
	decodeCmd.Flags().StringVarP(&opts.output, "output", "o", string(trace.FormatText), "Output format: text, json or yaml.")
	decodeCmd.Flags().BoolVar(&opts.failOnError, "fail-on-error", false, "Exit with an error if any packet could not be decoded.")

	return decodeCmd
}

func runDecode(log logr.Logger, opts *decodeOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log = log.WithName("decode")

		format, err := trace.ParseFormat(opts.output)
		if err != nil {
			return err
		}

		tracer, err := newTracer(opts.idSize, log)
		if err != nil {
			log.Error(err, "Invocation parameters are invalid")
			return err
		}

		rw, err := trace.NewRecordWriter(cmd.OutOrStdout(), format)
		if err != nil {
			return err
		}

		packets, problems := 0, 0
		observe := func(dir trace.Direction, data []byte) error {
			rec := tracer.Observe(dir, data)
			packets++
			if rec.Error != "" {
				problems++
			}
			return rw.Write(rec)
		}

		if len(opts.packets) > 0 {
			err = observePackets(opts.packets, observe)
		}
		if err == nil && (len(args) > 0 || len(opts.packets) == 0) {
			err = observeCapture(cmd.InOrStdin(), args, observe)
		}
		if closeErr := rw.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			log.Error(err, "Could not decode the capture")
			return err
		}

		log.V(1).Info("Capture decoded", "packets", packets, "problems", problems, "pendingCommands", tracer.Pending(trace.FromDebugger)+tracer.Pending(trace.FromVM))
		if opts.failOnError && problems > 0 {
			return fmt.Errorf("%w: %d of %d", errDecodeProblems, problems, packets)
		}
		return nil
	}
}

func newTracer(idSize int, log logr.Logger) (*trace.Tracer, error) {
	if idSize == 0 {
		return trace.NewTracer(log), nil
	}
	return trace.NewTracerWithSizes(wire.UniformIDSizes(idSize), log)
}

func observePackets(packets []string, observe func(trace.Direction, []byte) error) error {
	for i, line := range packets {
		dir, data, ok, err := trace.ParseCaptureLine(line)
		if err != nil {
			return fmt.Errorf("packet %d: %w", i+1, err)
		}
		if !ok {
			continue
		}
		if err = observe(dir, data); err != nil {
			return err
		}
	}
	return nil
}

func observeCapture(stdin io.Reader, args []string, observe func(trace.Direction, []byte) error) error {
	if len(args) == 0 || args[0] == "-" {
		return trace.ReadCapture(stdin, observe)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	return trace.ReadCapture(f, observe)
}
