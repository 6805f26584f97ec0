package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/internal/service/annotate"
	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

// defaultAnnotateTag is used when an annotate request carries no tag.
const defaultAnnotateTag = "annotate"

// bytesPerRune bounds the request body relative to max_text_length.
const bytesPerRune = 4

type unihanService interface {
	Annotate(ctx context.Context, text string, maxLookups int, tag string) (domain.AnnotationMap, error)
	Lookup(ctx context.Context, query string) (*domain.Character, error)
	Detail(ctx context.Context, r rune) (*annotate.Detail, error)
}

// UnihanHandler serves character lookup, detail and annotation endpoints.
type UnihanHandler struct {
	svc unihanService
	cfg config.AnnotateConfig
	log *slog.Logger
}

// NewUnihanHandler creates a UnihanHandler.
func NewUnihanHandler(svc unihanService, cfg config.AnnotateConfig, logger *slog.Logger) *UnihanHandler {
	return &UnihanHandler{
		svc: svc,
		cfg: cfg,
		log: logger.With("handler", "unihan"),
	}
}

// ---------------------------------------------------------------------------
// Response types
// ---------------------------------------------------------------------------

type radicalResponse struct {
	Number     int    `json:"number"`
	Simplified bool   `json:"simplified"`
	Char       string `json:"char"`
}

type characterResponse struct {
	Codepoint           string           `json:"codepoint"`
	Char                string           `json:"char"`
	Definition          string           `json:"definition"`
	Mandarin            string           `json:"mandarin"`
	Gloss               string           `json:"gloss"`
	Radical             *radicalResponse `json:"radical,omitempty"`
	ResidualStrokes     int              `json:"residual_strokes"`
	SimplifiedVariants  string           `json:"simplified_variants"`
	TraditionalVariants string           `json:"traditional_variants"`
	SemanticVariants    string           `json:"semantic_variants"`
	SortOrder           int64            `json:"sort_order"`
	Tag                 string           `json:"tag,omitempty"`
}

type detailResponse struct {
	Character characterResponse            `json:"character"`
	Related   map[string]characterResponse `json:"related"`
}

type annotateRequest struct {
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

type annotateResponse struct {
	Characters map[string]characterResponse `json:"characters"`
	Pinyin     string                       `json:"pinyin"`
}

func toCharacterResponse(c domain.Character, tag string) characterResponse {
	resp := characterResponse{
		Codepoint:           cjk.FormatCodepoint(c.Codepoint),
		Char:                c.Glyph,
		Definition:          c.Definition,
		Mandarin:            c.Mandarin,
		Gloss:               annotate.Gloss(c),
		ResidualStrokes:     c.ResidualStrokes,
		SimplifiedVariants:  c.SimplifiedVariants,
		TraditionalVariants: c.TraditionalVariants,
		SemanticVariants:    c.SemanticVariants,
		SortOrder:           c.SortOrder,
		Tag:                 tag,
	}
	if c.Radical != nil {
		resp.Radical = &radicalResponse{
			Number:     c.Radical.Number,
			Simplified: c.Radical.Simplified,
			Char:       c.Radical.Glyph,
		}
	}
	return resp
}

func toCharacterMap(m domain.AnnotationMap) map[string]characterResponse {
	out := make(map[string]characterResponse, len(m))
	for r, ac := range m {
		out[string(r)] = toCharacterResponse(ac.Character, ac.Tag)
	}
	return out
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// Character returns a character with its radical and variants.
// GET /unihan/characters/{char}, where char is the character itself or "U+XXXX".
func (h *UnihanHandler) Character(w http.ResponseWriter, r *http.Request) {
	cp, err := parseCharParam(chi.URLParam(r, "char"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	detail, err := h.svc.Detail(r.Context(), cp)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{
		Character: toCharacterResponse(*detail.Character, ""),
		Related:   toCharacterMap(detail.Related),
	})
}

// Lookup returns the record of a single character.
// GET /unihan/lookup?q=魚
func (h *UnihanHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Lookup(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCharacterResponse(*c, ""))
}

// Annotate resolves the Han characters of a text and renders its pinyin.
// POST /unihan/annotate {"text": "...", "tag": "..."}
func (h *UnihanHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.MaxTextLength*bytesPerRune+1024))

	var req annotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(h.log, w, r, domain.NewValidationError("text", "too long"))
			return
		}
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if !utf8.ValidString(req.Text) {
		handleError(h.log, w, r, domain.NewValidationError("text", "must be valid UTF-8"))
		return
	}
	if utf8.RuneCountInString(req.Text) > h.cfg.MaxTextLength {
		handleError(h.log, w, r, domain.NewValidationError("text", "too long"))
		return
	}

	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		tag = defaultAnnotateTag
	}

	m, err := h.svc.Annotate(r.Context(), req.Text, h.cfg.MaxLookups, tag)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, annotateResponse{
		Characters: toCharacterMap(m),
		Pinyin:     annotate.Pinyin(req.Text, m),
	})
}

// parseCharParam accepts a single character or its "U+XXXX" form.
func parseCharParam(s string) (rune, error) {
	if utf8.ValidString(s) && utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	}
	if len(s) > 2 && strings.EqualFold(s[:2], "U+") {
		r, err := cjk.ParseCodepoint(s)
		if err == nil {
			return r, nil
		}
	}
	return 0, domain.NewValidationError("char", "must be a single character or U+XXXX")
}
