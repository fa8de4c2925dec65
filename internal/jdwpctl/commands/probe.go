/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/microsoft/jdwpwire/pkg/jdwp"
	"github.com/microsoft/jdwpwire/pkg/jdwp/session"
	"github.com/microsoft/jdwpwire/pkg/jdwp/trace"
	"github.com/microsoft/jdwpwire/pkg/jdwp/wire"
)

const (
	// Address of the VM to probe when --address is not given
	JDWP_ADDRESS = "JDWP_ADDRESS"

	defaultProbeTimeout = 30 * time.Second
)

type probeOptions struct {
	address string
	envFile string
	timeout time.Duration
	output  string
}

type probeResult struct {
	Address      string                 `json:"address" yaml:"address"`
	IDSizes      wire.IDSizes           `json:"idSizes" yaml:"idSizes"`
	Version      jdwp.VersionReply      `json:"version" yaml:"version"`
	Capabilities jdwp.CapabilitiesReply `json:"capabilities" yaml:"capabilities"`
}

func NewProbeCommand(log logr.Logger) *cobra.Command {
	opts := &probeOptions{}

	probeCmd := &cobra.Command{
		Use:   "probe [--address host:port] [--env-file file] [--timeout duration] [--output text|json|yaml]",
		Short: "Connects to a Java VM and reports its version and capabilities",
		Long: `Connects to a Java VM that listens for a debugger, negotiates identifier sizes
and reports the VM version and capabilities.

If --address is not given, the JDWP_ADDRESS variable is read from the file passed
with --env-file, then from the environment.`,
		RunE: runProbe(log, opts),
		Args: cobra.NoArgs,
	}

	probeCmd.Flags().StringVarP(&opts.address, "address", "a", "", "The host:port the VM listens on for a debugger.")
	probeCmd.Flags().StringVar(&opts.envFile, "env-file", "", "A .env file to read JDWP_ADDRESS from.")
	probeCmd.Flags().DurationVar(&opts.timeout, "timeout", defaultProbeTimeout, "How long to wait for the VM, including connection retries.")
	probeCmd.Flags().StringVarP(&opts.output, "output", "o", string(trace.FormatText), "Output format: text, json or yaml.")

	return probeCmd
}

func runProbe(log logr.Logger, opts *probeOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log = log.WithName("probe")

		format, formatErr := trace.ParseFormat(opts.output)
		if formatErr != nil {
			return formatErr
		}

		address, addressErr := resolveAddress(opts)
		if addressErr != nil {
			log.Error(addressErr, "Invocation parameters are invalid")
			return addressErr
		}
		log = log.WithValues("address", address)

		ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
		defer cancel()

		result, err := probe(ctx, address, log)
		if err != nil {
			log.Error(err, "Could not probe the VM")
			return err
		}

		return writeProbeResult(cmd.OutOrStdout(), format, result)
	}
}

// resolveAddress picks the VM address: the flag wins over the env file, which wins over the environment.
func resolveAddress(opts *probeOptions) (string, error) {
	if opts.address != "" {
		return opts.address, nil
	}

	if opts.envFile != "" {
		env, err := godotenv.Read(opts.envFile)
		if err != nil {
			return "", fmt.Errorf("failed to read environment file '%s': %w", opts.envFile, err)
		}
		if address := env[JDWP_ADDRESS]; address != "" {
			return address, nil
		}
	}

	if address := os.Getenv(JDWP_ADDRESS); address != "" {
		return address, nil
	}

	return "", errors.New("the VM address must be specified with --address or the JDWP_ADDRESS variable")
}

func probe(ctx context.Context, address string, log logr.Logger) (probeResult, error) {
	transport, err := session.DialTCP(ctx, address, session.DialConfig{Logger: log})
	if err != nil {
		return probeResult{}, err
	}

	s, err := session.Open(ctx, transport, session.Config{Logger: log})
	if err != nil {
		_ = transport.Close()
		return probeResult{}, err
	}
	defer func() { _ = s.Close() }()

	result := probeResult{Address: address, IDSizes: s.Codec().IDSizes()}

	versionPkt, err := s.Send(ctx, jdwp.VersionCommand{})
	if err != nil {
		return probeResult{}, err
	}
	result.Version = versionPkt.Message.(jdwp.VersionReply)

	capabilitiesPkt, err := s.Send(ctx, jdwp.CapabilitiesCommand{})
	if err != nil {
		return probeResult{}, err
	}
	result.Capabilities = capabilitiesPkt.Message.(jdwp.CapabilitiesReply)

	log.V(1).Info("Probed the VM", "vmName", result.Version.VMName, "idSizes", result.IDSizes.String())
	return result, nil
}

func writeProbeResult(w io.Writer, format trace.Format, result probeResult) error {
	switch format {
	case trace.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)

	case trace.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()

	default:
		v := result.Version
		_, err := fmt.Fprintf(w, "Address:      %s\nVM:           %s %s\nJDWP:         %d.%d\nID sizes:     %s\nCapabilities: %+v\n",
			result.Address, v.VMName, v.VMVersion, v.JDWPMajor, v.JDWPMinor, result.IDSizes.String(), result.Capabilities)
		return err
	}
}
