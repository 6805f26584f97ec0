// Package unihan parses the Unicode Han Database source files and derives
// the calculated fields stored for every character.
// Pure functions: file paths in, domain structs out. No database dependencies.
package unihan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

// errSkipLine signals that a line should be skipped (comment, empty, malformed).
var errSkipLine = errors.New("skip line")

// maxLineSize covers the longest kDefinition rows of the Unihan files.
const maxLineSize = 1 << 20

// Stats holds parser statistics for logging.
type Stats struct {
	TotalLines     int
	CommentLines   int
	MalformedLines int
	ParsedLines    int
	Codepoints     int
}

// RadicalTable is the parsed radical table keyed by radical number string,
// suffix included, so "9" and "9'" are distinct.
type RadicalTable map[string]domain.RadicalDescriptor

// Lookup resolves the radical number part of a kRSUnicode token.
func (t RadicalTable) Lookup(key string) (domain.RadicalDescriptor, error) {
	d, ok := t[key]
	if !ok {
		return domain.RadicalDescriptor{}, fmt.Errorf("radical %q: %w", key, domain.ErrUnknownRadical)
	}
	return d, nil
}

// ParseRadicalFile reads a CJKRadicals.txt file.
func ParseRadicalFile(path string) (RadicalTable, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ParseRadicals(f)
}

// ParseRadicals reads semicolon-delimited rows of
// "radical_number[']; radical_symbol; ideograph_hex".
// The middle field is unused. A key that appears twice keeps its last row.
func ParseRadicals(r io.Reader) (RadicalTable, Stats, error) {
	var stats Stats
	table := make(RadicalTable)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		stats.TotalLines++
		line := scanner.Text()

		d, err := parseRadicalLine(line)
		if errors.Is(err, errSkipLine) {
			if strings.HasPrefix(line, "#") {
				stats.CommentLines++
			} else if strings.TrimSpace(line) != "" {
				stats.MalformedLines++
			}
			continue
		}

		stats.ParsedLines++
		table[d.Key] = d
	}
	if err := scanner.Err(); err != nil {
		return nil, Stats{}, fmt.Errorf("scanner error: %w", err)
	}

	stats.Codepoints = len(table)
	return table, stats, nil
}

func parseRadicalLine(line string) (domain.RadicalDescriptor, error) {
	if line == "" || strings.HasPrefix(line, "#") {
		return domain.RadicalDescriptor{}, errSkipLine
	}

	fields := strings.Split(line, ";")
	if len(fields) != 3 {
		return domain.RadicalDescriptor{}, errSkipLine
	}

	key := strings.TrimSpace(fields[0])
	number, simplified, err := parseRadicalNumber(key)
	if err != nil {
		return domain.RadicalDescriptor{}, errSkipLine
	}

	cp, err := cjk.ParseCodepoint(fields[2])
	if err != nil {
		return domain.RadicalDescriptor{}, errSkipLine
	}

	return domain.RadicalDescriptor{
		Key:        key,
		Number:     number,
		Simplified: simplified,
		Codepoint:  cp,
	}, nil
}

// parseRadicalNumber splits "120'" into 120 and simplified=true.
// Unicode 15.1 added "''" for non-Chinese simplified forms; any number of
// apostrophes marks the radical as simplified.
func parseRadicalNumber(s string) (int, bool, error) {
	trimmed := strings.TrimRight(s, "'")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false, fmt.Errorf("radical number %q: %w", s, err)
	}
	return n, len(trimmed) != len(s), nil
}
