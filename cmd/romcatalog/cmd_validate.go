/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/support"
)

var (
	validateReportModified bool
	validateVerbose        bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the support files of every catalogued program",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateReportModified, "report-modified", true, "Compare checksums to detect modified files")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Print every validated file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	srv, cleanup, err := openServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	summary, err := srv.Catalog().ValidateAll(ctx, support.Options{ReportIfModified: validateReportModified},
		func(crc uint32, kind support.Kind, state support.State) {
			if validateVerbose {
				fmt.Fprintf(out, "%s %-12s %s\n", description.FormatCrc(crc), kind, state)
			}
		})
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	fmt.Fprintf(out, "Validated %d files\n", summary.Total())
	for _, state := range support.States() {
		if n := summary[state]; n > 0 {
			fmt.Fprintf(out, "  %-24s %d\n", state, n)
		}
	}
	return nil
}
