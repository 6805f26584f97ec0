package unihan

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

// maxReadings bounds the Mandarin summary.
const maxReadings = 2

// Derived is a character with all calculated fields filled in, together
// with the radical its kRSUnicode value cites.
type Derived struct {
	Character domain.Character
	Radical   domain.RadicalDescriptor
}

// Derive computes the stored fields of cp from its raw record.
// The radical it cites must exist in radicals.
func Derive(cp rune, rec RawRecord, radicals RadicalTable) (Derived, error) {
	rs, ok := rec[FieldRSUnicode]
	if !ok {
		return Derived{}, fmt.Errorf("%s %s: %w", cjk.FormatCodepoint(cp), FieldRSUnicode, domain.ErrMissingField)
	}

	radicalKey, strokes, err := parseRadicalStroke(rs)
	if err != nil {
		return Derived{}, fmt.Errorf("%s: %w", cjk.FormatCodepoint(cp), err)
	}

	radical, err := radicals.Lookup(radicalKey)
	if err != nil {
		return Derived{}, fmt.Errorf("%s: %w", cjk.FormatCodepoint(cp), err)
	}

	sortKey, err := SortKey(SortKeyInput{
		Codepoint:       cp,
		Radical:         radical.Number,
		Simplified:      radical.Simplified,
		ResidualStrokes: strokes,
	})
	if err != nil {
		return Derived{}, err
	}

	radicalID := radical.ID()
	return Derived{
		Character: domain.Character{
			Codepoint:           cp,
			Glyph:               string(cp),
			Definition:          rec[FieldDefinition],
			Mandarin:            MandarinSummary(rec[FieldMandarin], rec[FieldHanyuPinyin]),
			RadicalID:           &radicalID,
			ResidualStrokes:     strokes,
			TraditionalVariants: Variants(cp, rec[FieldTraditionalVariant]),
			SimplifiedVariants:  Variants(cp, rec[FieldSimplifiedVariant]),
			SemanticVariants:    Variants(cp, rec[FieldSemanticVariant], rec[FieldSpecializedSemanticVariant]),
			SortOrder:           sortKey,
		},
		Radical: radical,
	}, nil
}

// DeriveAll derives every record, ordered by codepoint. The first failure
// aborts the whole run.
func DeriveAll(records Records, radicals RadicalTable) ([]Derived, error) {
	codepoints := make([]rune, 0, len(records))
	for cp := range records {
		codepoints = append(codepoints, cp)
	}
	slices.Sort(codepoints)

	out := make([]Derived, 0, len(codepoints))
	for _, cp := range codepoints {
		d, err := Derive(cp, records[cp], radicals)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// parseRadicalStroke reads the first token of a kRSUnicode value,
// e.g. "120'.3 120.5" gives ("120'", 3).
func parseRadicalStroke(value string) (string, int, error) {
	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return "", 0, fmt.Errorf("%s: %w", FieldRSUnicode, domain.ErrMissingField)
	}

	radical, strokes, ok := strings.Cut(tokens[0], ".")
	if !ok || radical == "" {
		return "", 0, fmt.Errorf("%s %q: malformed", FieldRSUnicode, tokens[0])
	}

	n, err := strconv.Atoi(strokes)
	if err != nil {
		return "", 0, fmt.Errorf("%s %q: %w", FieldRSUnicode, tokens[0], err)
	}
	return radical, n, nil
}

// MandarinSummary returns at most two space-separated readings: the last
// kMandarin token (the Taiwan reading when two are listed) followed by the
// first distinct kHanyuPinyin reading. Returns "" when neither field has data.
func MandarinSummary(mandarin, hanyuPinyin string) string {
	var readings []string
	if tokens := strings.Fields(mandarin); len(tokens) > 0 {
		readings = append(readings, tokens[len(tokens)-1])
	}

	for _, entry := range strings.Fields(hanyuPinyin) {
		if i := strings.LastIndex(entry, ":"); i >= 0 {
			entry = entry[i+1:]
		}
		for _, reading := range strings.Split(entry, ",") {
			if len(readings) == maxReadings {
				return strings.Join(readings, " ")
			}
			reading = strings.TrimSpace(reading)
			if reading == "" || slices.Contains(readings, reading) {
				continue
			}
			readings = append(readings, reading)
		}
	}
	return strings.Join(readings, " ")
}

// Variants joins the distinct characters listed in the given variant
// fields ("U+8AAA<kMatthews U+8AAC"), sorted by codepoint and without self.
// Tokens that are not codepoints are ignored.
func Variants(self rune, values ...string) string {
	var out []rune
	for _, value := range values {
		for _, token := range strings.Fields(value) {
			token, _, _ = strings.Cut(token, "<")
			r, err := cjk.ParseCodepoint(token)
			if err != nil || r == self || slices.Contains(out, r) {
				continue
			}
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return string(out)
}
