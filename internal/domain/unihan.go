package domain

// RadicalID identifies a Radical. It equals the codepoint of the
// character the radical is drawn from, so it is known before insert.
type RadicalID int32

// RadicalDescriptor is one row of the radical table.
type RadicalDescriptor struct {
	// Key is the radical number as written in the source, including any
	// trailing apostrophes ("9", "120'").
	Key        string
	Number     int
	Simplified bool
	Codepoint  rune
}

// ID returns the identifier the persisted Radical will have.
func (d RadicalDescriptor) ID() RadicalID {
	return RadicalID(d.Codepoint)
}

// Radical converts the descriptor into its persisted form.
func (d RadicalDescriptor) Radical() Radical {
	return Radical{
		ID:         d.ID(),
		Number:     d.Number,
		Simplified: d.Simplified,
		Glyph:      string(d.Codepoint),
	}
}

// Radical is a Kangxi radical (or a simplified form of one). It is backed
// one-to-one by the Character with codepoint == ID.
type Radical struct {
	ID         RadicalID
	Number     int
	Simplified bool
	Glyph      string
}

// Character is a Unihan ideograph with its derived dictionary fields.
// String fields are never null: absent data is stored as "".
type Character struct {
	Codepoint       rune
	Glyph           string
	Definition      string
	Mandarin        string
	RadicalID       *RadicalID
	ResidualStrokes int

	SimplifiedVariants  string
	TraditionalVariants string
	SemanticVariants    string

	SortOrder int64

	// Radical is populated on reads when RadicalID is set.
	Radical *Radical
}

// Variants returns every variant character of c, in field order
// traditional, simplified, semantic, without duplicates.
func (c Character) Variants() []rune {
	var out []rune
	seen := make(map[rune]bool)
	for _, s := range []string{c.TraditionalVariants, c.SimplifiedVariants, c.SemanticVariants} {
		for _, r := range s {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

// RadicalLink points a character at its radical. Used to close the
// character -> radical -> character cycle after both rows exist.
type RadicalLink struct {
	Codepoint rune
	RadicalID RadicalID
}

// AnnotatedCharacter is a Character returned by an annotation call,
// labelled with the caller-supplied tag.
type AnnotatedCharacter struct {
	Character
	Tag string
}

// AnnotationMap maps each resolved character of a text to its record.
type AnnotationMap map[rune]AnnotatedCharacter
