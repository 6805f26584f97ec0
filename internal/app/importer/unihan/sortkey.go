package unihan

import (
	"fmt"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

// Sort key layout, most significant first:
//
//	block(8) simplified(1) radical(8) strokes(7) first_stroke(4) codepoint(21)
//
// Comparing keys as integers orders characters by block, then traditional
// before simplified radicals, then radical number, residual strokes and
// finally codepoint. The codepoint field makes every key unique.
const (
	codepointBits   = 21
	firstStrokeBits = 4
	strokeBits      = 7
	radicalBits     = 8
	simplifiedBits  = 1

	firstStrokeShift = codepointBits
	strokeShift      = firstStrokeShift + firstStrokeBits
	radicalShift     = strokeShift + strokeBits
	simplifiedShift  = radicalShift + radicalBits
	blockShift       = simplifiedShift + simplifiedBits

	maxStrokes = 1<<strokeBits - 1
	maxRadical = 1<<radicalBits - 1
)

// SortKeyInput is everything the sort key is computed from.
type SortKeyInput struct {
	Codepoint       rune
	Radical         int
	Simplified      bool
	ResidualStrokes int
}

// SortKey packs in into a single integer. A codepoint outside every known
// CJK block is reported as domain.ErrUnknownBlock.
func SortKey(in SortKeyInput) (int64, error) {
	block := cjk.Classify(in.Codepoint)
	if block < 0 {
		return 0, fmt.Errorf("sort key for %s: %w", cjk.FormatCodepoint(in.Codepoint), domain.ErrUnknownBlock)
	}
	if in.Radical < 0 || in.Radical > maxRadical {
		return 0, fmt.Errorf("sort key for %s: radical %d out of range", cjk.FormatCodepoint(in.Codepoint), in.Radical)
	}

	strokes := min(max(in.ResidualStrokes, 0), maxStrokes)

	var simplified int64
	if in.Simplified {
		simplified = 1
	}

	// The first residual stroke is not computed and stays zero.
	const firstStroke = 0

	key := int64(block)<<blockShift |
		simplified<<simplifiedShift |
		int64(in.Radical)<<radicalShift |
		int64(strokes)<<strokeShift |
		firstStroke<<firstStrokeShift |
		int64(in.Codepoint)
	return key, nil
}
