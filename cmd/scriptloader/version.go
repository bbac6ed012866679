// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var (
	Name    string = "Scriptloader"
	Version string = "dev"
	Commit  string = "-"
	Date    string = "-"
)

// VersionCmd is the version command.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s\n", Name)
		fmt.Fprintf(w, " %-19s%s\n", "Version:", Version)
		fmt.Fprintf(w, " %-19s%s\n", "Commit:", Commit)
		fmt.Fprintf(w, " %-19s%s\n", "Built:", Date)
		fmt.Fprintf(w, " %-19s%s\n", "OS/Arch:", strings.Join([]string{runtime.GOOS, runtime.GOARCH}, "/"))
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(w, " %-19s%s\n", "Go version:", buildInfo.GoVersion)
		}
	},
}
