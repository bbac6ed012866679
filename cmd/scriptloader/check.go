// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bhuisgen/scriptloader/internal/app/scriptloader"
)

// CheckCmd is the check command.
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configuration.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := scriptloader.LoadConfig(configFile)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Failed to load configuration: %v\n", err)
			return fmt.Errorf("load config: %w", err)
		}

		if err := scriptloader.New(config).Check(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is not valid")
			return fmt.Errorf("check: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")

		return nil
	},
}
