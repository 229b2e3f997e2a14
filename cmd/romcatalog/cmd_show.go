/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/romcatalog/internal/description"
	"github.com/friendsincode/romcatalog/internal/program"
)

var describeConfig string

var showCmd = &cobra.Command{
	Use:   "show <crc>",
	Short: "Print the stored description of a program as XML",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var describeCmd = &cobra.Command{
	Use:   "describe <rom-path>",
	Short: "Describe one ROM image, store it and print it as XML",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	describeCmd.Flags().StringVar(&describeConfig, "config", "", "Configuration file for .bin images (default: sibling .cfg)")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(describeCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	crc, err := description.ParseCrc(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv, cleanup, err := openServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := srv.Catalog().Get(ctx, crc)
	if err != nil {
		return err
	}
	return description.Encode(cmd.OutOrStdout(), d)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	srv, cleanup, err := openServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := srv.Catalog().Describe(ctx, program.NewRom(args[0], describeConfig))
	if err != nil {
		return fmt.Errorf("describe %s: %w", args[0], err)
	}
	return description.Encode(cmd.OutOrStdout(), d)
}
