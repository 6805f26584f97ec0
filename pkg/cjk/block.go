// Package cjk classifies codepoints into the Unicode blocks covered by the
// Unihan database. Pure functions over a fixed range table, no I/O.
package cjk

import "sort"

// Block is the classification index of a Unihan block. Unified ideograph
// blocks are numbered from 0 in the order they were added to Unicode; the
// two compatibility blocks use the reserved values 253 and 254.
type Block int

// NotUnihan is returned by Classify for codepoints outside every Unihan block.
const NotUnihan Block = -1

const (
	Unified Block = iota
	ExtensionA
	ExtensionB
	ExtensionC
	ExtensionD
	ExtensionE
	ExtensionF
	ExtensionG
	ExtensionH
	ExtensionI
)

const (
	Compatibility           Block = 253
	CompatibilitySupplement Block = 254
)

type blockRange struct {
	lo, hi rune
	block  Block
	name   string
}

// blocks is sorted by lo and the ranges never overlap.
var blocks = []blockRange{
	{0x3400, 0x4DBF, ExtensionA, "CJK Unified Ideographs Extension A"},
	{0x4E00, 0x9FFF, Unified, "CJK Unified Ideographs"},
	{0xF900, 0xFAFF, Compatibility, "CJK Compatibility Ideographs"},
	{0x20000, 0x2A6DF, ExtensionB, "CJK Unified Ideographs Extension B"},
	{0x2A700, 0x2B73F, ExtensionC, "CJK Unified Ideographs Extension C"},
	{0x2B740, 0x2B81F, ExtensionD, "CJK Unified Ideographs Extension D"},
	{0x2B820, 0x2CEAF, ExtensionE, "CJK Unified Ideographs Extension E"},
	{0x2CEB0, 0x2EBEF, ExtensionF, "CJK Unified Ideographs Extension F"},
	{0x2EBF0, 0x2EE5F, ExtensionI, "CJK Unified Ideographs Extension I"},
	{0x2F800, 0x2FA1F, CompatibilitySupplement, "CJK Compatibility Ideographs Supplement"},
	{0x30000, 0x3134F, ExtensionG, "CJK Unified Ideographs Extension G"},
	{0x31350, 0x323AF, ExtensionH, "CJK Unified Ideographs Extension H"},
}

// Classify returns the Unihan block of r, or NotUnihan.
func Classify(r rune) Block {
	// Fast path for Latin text.
	if r < blocks[0].lo {
		return NotUnihan
	}
	i := sort.Search(len(blocks), func(i int) bool { return blocks[i].hi >= r })
	if i < len(blocks) && blocks[i].lo <= r {
		return blocks[i].block
	}
	return NotUnihan
}

// IsUnihan reports whether r falls in one of the Unihan blocks.
func IsUnihan(r rune) bool {
	return Classify(r) >= 0
}

// String returns the Unicode block name.
func (b Block) String() string {
	for _, br := range blocks {
		if br.block == b {
			return br.name
		}
	}
	return "not Unihan"
}
