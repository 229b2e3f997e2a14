/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current version of romcatalog.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/romcatalog/internal/version.Version=X.Y.Z
var Version = "0.1.0"

// String describes the build for --version output.
func String() string {
	return fmt.Sprintf("%s (%s, %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
