/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import "testing"

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "scan", "validate", "show", "describe", "integrity"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}
}

func TestScanFlags(t *testing.T) {
	for _, flag := range []string{"dir", "workers", "rescan"} {
		if scanCmd.Flags().Lookup(flag) == nil {
			t.Errorf("scan is missing --%s", flag)
		}
	}
	if f := validateCmd.Flags().Lookup("report-modified"); f == nil || f.DefValue != "true" {
		t.Errorf("validate --report-modified default = %v, want true", f)
	}
}
