/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/microsoft/jdwpwire/internal/version"
	"github.com/microsoft/jdwpwire/pkg/jdwp"
)

func NewInfoCommand(log logr.Logger) (*cobra.Command, error) {
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Prints information about the program and the JDWP commands it supports.",
		Long:  `Prints information about the program and the JDWP commands it supports.`,
		RunE:  getInfo(log),
		Args:  cobra.NoArgs,
	}

	return infoCmd, nil
}

type supportedCommand struct {
	Name    string `json:"name"`
	Set     uint8  `json:"set"`
	Command uint8  `json:"command"`
}

type information struct {
	version.VersionOutput
	Commands []supportedCommand `json:"commands"`
}

func getInfo(log logr.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log = log.WithName("info")

		info := information{VersionOutput: version.Version()}
		for _, code := range jdwp.Registered() {
			info.Commands = append(info.Commands, supportedCommand{
				Name:    code.String(),
				Set:     uint8(code.Set),
				Command: code.Command,
			})
		}

		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			log.Error(err, "Could not serialize information")
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
}
