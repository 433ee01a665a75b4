package mines

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseBoard reads a board description: a header line "columns rows"
// followed by one line per row holding columns 0/1 tokens. Blank lines
// after the last row are ignored.
func ParseBoard(r io.Reader) (rows, cols int, m BombMatrix, err error) {
	sc := bufio.NewScanner(r)
	lineNo := 0

	nextLine := func() ([]string, bool) {
		for sc.Scan() {
			lineNo++
			if fields := strings.Fields(sc.Text()); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	header, ok := nextLine()
	if !ok {
		if err := sc.Err(); err != nil {
			return 0, 0, nil, fmt.Errorf("read board: %w", err)
		}
		return 0, 0, nil, malformed(0, "missing header")
	}
	if len(header) != 2 {
		return 0, 0, nil, malformed(lineNo, "header must be \"columns rows\", got %q", strings.Join(header, " "))
	}
	if cols, err = strconv.Atoi(header[0]); err != nil || cols <= 0 {
		return 0, 0, nil, malformed(lineNo, "invalid column count %q", header[0])
	}
	if rows, err = strconv.Atoi(header[1]); err != nil || rows <= 0 {
		return 0, 0, nil, malformed(lineNo, "invalid row count %q", header[1])
	}

	m = make(BombMatrix, 0, rows)
	for {
		fields, ok := nextLine()
		if !ok {
			break
		}
		if len(m) == rows {
			return 0, 0, nil, malformed(lineNo, "more than %d rows", rows)
		}
		if len(fields) != cols {
			return 0, 0, nil, malformed(lineNo, "expected %d values, got %d", cols, len(fields))
		}
		row := make([]int, cols)
		for x, f := range fields {
			switch f {
			case "0":
			case "1":
				row[x] = 1
			default:
				return 0, 0, nil, malformed(lineNo, "value %q is not 0 or 1", f)
			}
		}
		m = append(m, row)
	}
	if err := sc.Err(); err != nil {
		return 0, 0, nil, fmt.Errorf("read board: %w", err)
	}
	if len(m) != rows {
		return 0, 0, nil, malformed(lineNo, "expected %d rows, got %d", rows, len(m))
	}
	return rows, cols, m, nil
}

// LoadBoard builds a grid from the board file at path.
func LoadBoard(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open board file: %w", err)
	}
	defer f.Close()

	rows, cols, m, err := ParseBoard(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(rows, cols, m)
}
