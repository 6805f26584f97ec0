package annotate

import (
	"strings"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// Pinyin renders text as the space-separated first reading of each
// annotated character. Everything else is dropped.
func Pinyin(text string, m domain.AnnotationMap) string {
	var parts []string
	for _, r := range text {
		c, ok := m[r]
		if !ok {
			continue
		}
		if reading, _, _ := strings.Cut(c.Mandarin, " "); reading != "" {
			parts = append(parts, reading)
		}
	}
	return strings.Join(parts, " ")
}

// Gloss joins the reading and definition of c, skipping empty parts.
func Gloss(c domain.Character) string {
	switch {
	case c.Mandarin == "":
		return c.Definition
	case c.Definition == "":
		return c.Mandarin
	default:
		return c.Mandarin + " - " + c.Definition
	}
}
