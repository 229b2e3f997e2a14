/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/romcatalog/internal/integrity"
)

var integrityRepair bool

var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Report inconsistencies in the stored catalog",
	Long: `Check stored programs against their descriptions, find validation results
of deleted programs and scans that never finished.

Examples:
  # Report only
  romcatalog integrity

  # Repair every repairable finding
  romcatalog integrity --repair
`,
	RunE: runIntegrity,
}

func init() {
	integrityCmd.Flags().BoolVar(&integrityRepair, "repair", false, "Repair every repairable finding")
	rootCmd.AddCommand(integrityCmd)
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	srv, cleanup, err := openServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := srv.Integrity()
	report, err := svc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("integrity scan: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d findings\n", report.Total)
	for _, f := range report.Findings {
		fmt.Fprintf(out, "  [%s] %s %s: %s\n", f.Severity, f.Type, f.ResourceID, f.Summary)
		if !integrityRepair || !f.Repairable {
			continue
		}
		result, err := svc.Repair(ctx, integrity.RepairInput{Type: f.Type, ResourceID: f.ResourceID})
		if err != nil {
			return fmt.Errorf("repair %s: %w", f.ID, err)
		}
		fmt.Fprintf(out, "    %s\n", result.Message)
	}
	return nil
}
