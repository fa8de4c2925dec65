/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	cmds "github.com/microsoft/jdwpwire/internal/commands"
	"github.com/microsoft/jdwpwire/pkg/logger"
)

func NewRootCommand(logger *logger.Logger) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		SilenceErrors: true,
		Use:           "jdwpctl",
		Short:         "Talks to and decodes the Java Debug Wire Protocol",
		Long: `Talks to and decodes the Java Debug Wire Protocol.

	jdwpctl can connect to a Java VM started with a JDWP agent and query it, or decode
	a recorded JDWP conversation into readable text, JSON or YAML.`,
		SilenceUsage:     true,
		PersistentPreRun: cmds.LogVersion(logger.Logger, "Starting jdwpctl..."),
	}

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	logger.AddLevelFlag(rootCmd.PersistentFlags())

	var err error
	var cmd *cobra.Command

	if cmd, err = cmds.NewVersionCommand(logger.Logger); err != nil {
		return nil, fmt.Errorf("could not set up 'version' command: %w", err)
	} else {
		rootCmd.AddCommand(cmd)
	}

	if cmd, err = cmds.NewInfoCommand(logger.Logger); err != nil {
		return nil, fmt.Errorf("could not set up 'info' command: %w", err)
	} else {
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewProbeCommand(logger.Logger))
	rootCmd.AddCommand(NewDecodeCommand(logger.Logger))

	return rootCmd, nil
}
