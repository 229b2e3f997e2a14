/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package romdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/friendsincode/romcatalog/internal/catalogerr"
)

// stockConfigs are the legacy jzIntv memory maps selected by number.
var stockConfigs = [...]string{
	0: "[mapping]\n$0000 - $1FFF = $5000\n$2000 - $2FFF = $D000\n$3000 - $3FFF = $F000\n",
	1: "[mapping]\n$0000 - $1FFF = $5000\n$2000 - $4FFF = $D000\n",
	2: "[mapping]\n$0000 - $1FFF = $5000\n$2000 - $4FFF = $9000\n$5000 - $5FFF = $D000\n",
	3: "[mapping]\n$0000 - $1FFF = $5000\n$2000 - $3FFF = $9000\n$4000 - $4FFF = $D000\n$5000 - $5FFF = $F000\n",
	4: "[mapping]\n$0000 - $1FFF = $5000\n\n[memattr]\n$D000 - $D3FF = RAM 8\n",
	5: "[mapping]\n$0000 - $2FFF = $5000\n$3000 - $5FFF = $9000\n",
	6: "[mapping]\n$0000 - $1FFF = $6000\n",
	7: "[mapping]\n$0000 - $1FFF = $4800\n",
	8: "[mapping]\n$0000 - $0FFF = $5000\n$1000 - $1FFF = $7000\n",
	9: "[mapping]\n$0000 - $1FFF = $5000\n$2000 - $3FFF = $9000\n$4000 - $4FFF = $D000\n$5000 - $5FFF = $F000\n\n[memattr]\n$8800 - $8FFF = RAM 8\n",
}

// NumStockConfigs is the number of stock memory maps.
const NumStockConfigs = len(stockConfigs)

// StockConfig returns stock memory map n.
func StockConfig(n int) ([]byte, error) {
	if n < 0 || n >= NumStockConfigs {
		return nil, fmt.Errorf("stock config %d: %w", n, catalogerr.ErrKeyNotFound)
	}
	return []byte(stockConfigs[n]), nil
}

// ParseBinConfig interprets a bin_cfg cell. A number selects a stock memory
// map; anything else must be configuration text with at least one section
// header.
func ParseBinConfig(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("bin config: empty: %w", catalogerr.ErrFormat)
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		cfg, err := StockConfig(n)
		if err != nil {
			return nil, fmt.Errorf("bin config: %w: %w", catalogerr.ErrFormat, err)
		}
		return cfg, nil
	}
	if !hasSection(trimmed) {
		return nil, fmt.Errorf("bin config: no section header: %w", catalogerr.ErrFormat)
	}
	return []byte(text), nil
}

func hasSection(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 2 && line[0] == '[' && line[len(line)-1] == ']' {
			return true
		}
	}
	return false
}
