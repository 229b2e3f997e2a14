/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupWithWriter("production", &buf)
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("unexpected production level: %v", logger.GetLevel())
	}
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message written in production: %s", out)
	}
	if !strings.Contains(out, `"service":"romcatalog"`) {
		t.Fatalf("missing service field: %s", out)
	}

	if got := Setup("development").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("unexpected development level: %v", got)
	}
}
