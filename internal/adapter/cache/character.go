package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// DefaultCharacterTTL applies when NewCharacterCache is given a non-positive TTL.
const DefaultCharacterTTL = 24 * time.Hour

type characterStore interface {
	GetCharacterByCodepoint(ctx context.Context, cp rune) (*domain.Character, error)
}

// CharacterCache serves GetCharacterByCodepoint from redis and falls back
// to the wrapped store. Only hits are cached. Redis failures are logged
// and never surface to the caller.
type CharacterCache struct {
	log    *slog.Logger
	client *redis.Client
	store  characterStore
	ttl    time.Duration
}

// NewCharacterCache wraps store with a redis read-through cache.
func NewCharacterCache(logger *slog.Logger, client *redis.Client, store characterStore, ttl time.Duration) *CharacterCache {
	if ttl <= 0 {
		ttl = DefaultCharacterTTL
	}
	return &CharacterCache{
		log:    logger.With("component", "character_cache"),
		client: client,
		store:  store,
		ttl:    ttl,
	}
}

// characterKey returns the redis key for a codepoint.
func characterKey(cp rune) string {
	return fmt.Sprintf("unihan:char:%d", cp)
}

// GetCharacterByCodepoint returns the cached record or loads it from the store.
func (c *CharacterCache) GetCharacterByCodepoint(ctx context.Context, cp rune) (*domain.Character, error) {
	key := characterKey(cp)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		ch, decodeErr := decodeCharacter(raw)
		if decodeErr == nil {
			return ch, nil
		}
		c.log.WarnContext(ctx, "discarding undecodable cache entry",
			slog.String("key", key), slog.String("error", decodeErr.Error()))
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	ch, err := c.store.GetCharacterByCodepoint(ctx, cp)
	if err != nil {
		return nil, err
	}

	if raw, err := encodeCharacter(ch); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "cache write failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	return ch, nil
}

// cachedCharacter is the JSON form of a Character in redis.
type cachedCharacter struct {
	Codepoint           rune    `json:"cp"`
	Glyph               string  `json:"utf8"`
	Definition          string  `json:"definition,omitempty"`
	Mandarin            string  `json:"mandarin,omitempty"`
	ResidualStrokes     int     `json:"residual_strokes"`
	SimplifiedVariants  string  `json:"simplified_variants,omitempty"`
	TraditionalVariants string  `json:"traditional_variants,omitempty"`
	SemanticVariants    string  `json:"semantic_variants,omitempty"`
	SortOrder           int64   `json:"sort_order"`
	Radical             *radical `json:"radical,omitempty"`
}

type radical struct {
	ID         int32  `json:"id"`
	Number     int    `json:"number"`
	Simplified bool   `json:"simplified,omitempty"`
	Glyph      string `json:"utf8"`
}

func encodeCharacter(c *domain.Character) ([]byte, error) {
	cc := cachedCharacter{
		Codepoint:           c.Codepoint,
		Glyph:               c.Glyph,
		Definition:          c.Definition,
		Mandarin:            c.Mandarin,
		ResidualStrokes:     c.ResidualStrokes,
		SimplifiedVariants:  c.SimplifiedVariants,
		TraditionalVariants: c.TraditionalVariants,
		SemanticVariants:    c.SemanticVariants,
		SortOrder:           c.SortOrder,
	}
	if c.Radical != nil {
		cc.Radical = &radical{
			ID:         int32(c.Radical.ID),
			Number:     c.Radical.Number,
			Simplified: c.Radical.Simplified,
			Glyph:      c.Radical.Glyph,
		}
	} else if c.RadicalID != nil {
		cc.Radical = &radical{ID: int32(*c.RadicalID)}
	}
	return json.Marshal(cc)
}

func decodeCharacter(raw []byte) (*domain.Character, error) {
	var cc cachedCharacter
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, err
	}

	c := &domain.Character{
		Codepoint:           cc.Codepoint,
		Glyph:               cc.Glyph,
		Definition:          cc.Definition,
		Mandarin:            cc.Mandarin,
		ResidualStrokes:     cc.ResidualStrokes,
		SimplifiedVariants:  cc.SimplifiedVariants,
		TraditionalVariants: cc.TraditionalVariants,
		SemanticVariants:    cc.SemanticVariants,
		SortOrder:           cc.SortOrder,
	}
	if cc.Radical != nil {
		id := domain.RadicalID(cc.Radical.ID)
		c.RadicalID = &id
		if cc.Radical.Number > 0 {
			c.Radical = &domain.Radical{
				ID:         id,
				Number:     cc.Radical.Number,
				Simplified: cc.Radical.Simplified,
				Glyph:      cc.Radical.Glyph,
			}
		}
	}
	return c, nil
}
