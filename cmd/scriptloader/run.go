// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bhuisgen/scriptloader/internal/app/scriptloader"
)

// RunCmd is the run command.
var RunCmd = &cobra.Command{
	Use:   "run [LOCATOR...]",
	Short: "Load scripts in order.",
	Long: "Load the given scripts in order into the document, each script being loaded once the previous " +
		"one is executed. Without arguments, the scripts of the configured manifest or list are loaded.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := scriptloader.LoadConfig(configFile)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Failed to load configuration: %v\n", err)
			return fmt.Errorf("load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := scriptloader.New(config).Run(ctx, args)
		if report != nil {
			printReport(cmd.OutOrStdout(), report)
		}
		if err != nil {
			return err
		}

		return nil
	},
}

var (
	reportStateColors = map[string]*color.Color{
		"loaded":                        color.New(color.FgGreen),
		"failed":                        color.New(color.FgRed),
		"pending":                       color.New(color.FgYellow),
		scriptloader.ScriptStateSkipped: color.New(color.Faint),
	}
	reportErrorColor = color.New(color.FgRed, color.Bold)
)

// printReport prints the run report.
func printReport(w io.Writer, report *scriptloader.Report) {
	for i, s := range report.Scripts {
		state := s.State
		if c, ok := reportStateColors[s.State]; ok {
			state = c.Sprintf("%-8s", s.State)
		}
		fmt.Fprintf(w, "%2d. %s %-40s %8s\n", i+1, state, s.Src, s.Duration.Round(time.Millisecond))
		if s.Err != nil {
			fmt.Fprintf(w, "    %s\n", reportErrorColor.Sprint(s.Err))
		}
	}
	if report.Failed() {
		fmt.Fprintf(w, "%s in %s\n", reportErrorColor.Sprint("FAILED"), report.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "%s in %s\n", color.GreenString("OK"), report.Duration.Round(time.Millisecond))
}
