package unihan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

// Field names read from the Unihan property files.
const (
	FieldRSUnicode                  = "kRSUnicode"
	FieldDefinition                 = "kDefinition"
	FieldMandarin                   = "kMandarin"
	FieldHanyuPinyin                = "kHanyuPinyin"
	FieldTraditionalVariant         = "kTraditionalVariant"
	FieldSimplifiedVariant          = "kSimplifiedVariant"
	FieldSemanticVariant            = "kSemanticVariant"
	FieldSpecializedSemanticVariant = "kSpecializedSemanticVariant"
)

// RawRecord maps a Unihan field name to its raw value for one codepoint.
type RawRecord map[string]string

// Records holds raw records for every codepoint seen in the property files.
type Records map[rune]RawRecord

// Merge adds every field of src into r. Distinct fields accumulate; a field
// present in both takes the value from src.
func (r Records) Merge(src Records) {
	for cp, fields := range src {
		dst, ok := r[cp]
		if !ok {
			r[cp] = fields
			continue
		}
		for k, v := range fields {
			dst[k] = v
		}
	}
}

// PropertyFile is the result of parsing a single Unihan_*.txt file.
type PropertyFile struct {
	Path    string
	Records Records
	Stats   Stats
}

// ParsePropertyFile reads one tab-delimited Unihan property file.
func ParsePropertyFile(path string) (PropertyFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return PropertyFile{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	records, stats, err := ParseProperties(f)
	if err != nil {
		return PropertyFile{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return PropertyFile{Path: path, Records: records, Stats: stats}, nil
}

// ParseProperties reads rows of "U+XXXX<TAB>field<TAB>value". Comment lines
// and rows that do not have exactly three fields are skipped.
func ParseProperties(r io.Reader) (Records, Stats, error) {
	var stats Stats
	records := make(Records)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		stats.TotalLines++
		line := scanner.Text()

		cp, field, value, err := parsePropertyLine(line)
		if errors.Is(err, errSkipLine) {
			if strings.HasPrefix(line, "#") {
				stats.CommentLines++
			} else if line != "" {
				stats.MalformedLines++
			}
			continue
		}

		stats.ParsedLines++
		rec, ok := records[cp]
		if !ok {
			rec = make(RawRecord)
			records[cp] = rec
		}
		rec[field] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, Stats{}, fmt.Errorf("scanner error: %w", err)
	}

	stats.Codepoints = len(records)
	return records, stats, nil
}

func parsePropertyLine(line string) (rune, string, string, error) {
	if line == "" || strings.HasPrefix(line, "#") {
		return 0, "", "", errSkipLine
	}

	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return 0, "", "", errSkipLine
	}

	cp, err := cjk.ParseCodepoint(fields[0])
	if err != nil {
		return 0, "", "", errSkipLine
	}
	return cp, fields[1], fields[2], nil
}

// ParsePropertyFiles parses the given files concurrently and merges them in
// the order given, so the result does not depend on scheduling.
func ParsePropertyFiles(ctx context.Context, paths []string) (Records, []PropertyFile, error) {
	files := make([]PropertyFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pf, err := ParsePropertyFile(path)
			if err != nil {
				return err
			}
			files[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged := make(Records)
	for _, pf := range files {
		merged.Merge(pf.Records)
	}
	return merged, files, nil
}
