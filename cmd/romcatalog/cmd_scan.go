/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/romcatalog/internal/catalog"
)

var (
	scanDir     string
	scanWorkers int
	scanRescan  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Describe every ROM image below a storage prefix",
	Long: `Walk storage, compute the CRC of every ROM image and store a description
for each one not yet catalogued.

Examples:
  # Scan the whole storage root
  romcatalog scan

  # Scan one directory with 8 workers, re-describing known images
  romcatalog scan --dir homebrew --workers 8 --rescan
`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanDir, "dir", "", "Storage prefix to scan (default: the whole root)")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Parallel workers (default: ROMCAT_SCAN_WORKERS)")
	scanCmd.Flags().BoolVar(&scanRescan, "rescan", false, "Describe images that are already catalogued, rehashing cached checksums")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	srv, cleanup, err := openServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	workers := scanWorkers
	if workers < 1 {
		workers = cfg.ScanWorkers
	}

	run, err := srv.Catalog().Scan(ctx, catalog.ScanOptions{Root: scanDir, Workers: workers, Rescan: scanRescan})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scan %s: %d files, %d described, %d skipped, %d failed\n",
		run.Status, run.FilesSeen, run.Described, run.Skipped, run.Failed)
	return nil
}
