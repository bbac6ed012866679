// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bhuisgen/scriptloader/internal/app/scriptloader"
	"github.com/bhuisgen/scriptloader/pkg/log"
)

var (
	configFile string
	debugLog   bool
)

const (
	envPrefix string = "SCRIPTLOADER"
)

// RootCmd is the root command.
var RootCmd = &cobra.Command{
	Use:           "scriptloader",
	Short:         "Scriptloader loads scripts in order into a document.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindEnv(cmd); err != nil {
			return err
		}
		log.SetDebug(debugLog)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// bindEnv sets the flags not given on the command line from the environment.
func bindEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if e := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); e != nil {
			err = fmt.Errorf("invalid value for flag '%s' from environment: %w", f.Name, e)
		}
	})
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", scriptloader.DefaultConfigFile,
		"Configuration file")
	RootCmd.PersistentFlags().BoolVarP(&debugLog, "debug", "d", false, "Enable debug logging")

	RootCmd.AddCommand(InitCmd, CheckCmd, RunCmd, VersionCmd)
}
