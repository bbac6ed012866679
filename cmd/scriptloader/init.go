// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bhuisgen/scriptloader/internal/app/scriptloader"
)

var initTemplate string

// InitCmd is the init command.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a new configuration.",
	Long: "Generate a new configuration file with an index page and demo scripts. " +
		"An existing configuration file is never overwritten.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := scriptloader.GenerateConfig(configFile, initTemplate)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Failed to generate configuration: %v\n", err)
			return err
		}
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", f)
		}
		return nil
	},
}

func init() {
	InitCmd.Flags().StringVarP(&initTemplate, "template", "t", "default",
		fmt.Sprintf("Template name (%s)", strings.Join(scriptloader.Templates(), ",")))
}
