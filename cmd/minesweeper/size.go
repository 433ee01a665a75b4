package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSize reads "COLUMNS,ROWS".
func parseSize(s string) (cols, rows int, err error) {
	c, r, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("size must be COLUMNS,ROWS, got %q", s)
	}
	if cols, err = strconv.Atoi(strings.TrimSpace(c)); err != nil || cols <= 0 {
		return 0, 0, fmt.Errorf("invalid column count %q", c)
	}
	if rows, err = strconv.Atoi(strings.TrimSpace(r)); err != nil || rows <= 0 {
		return 0, 0, fmt.Errorf("invalid row count %q", r)
	}
	return cols, rows, nil
}
