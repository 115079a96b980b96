package resources

import (
	"fmt"
	"maps"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
)

// GlyphProvider resolves icon keys to icon-font glyphs.
type GlyphProvider struct {
	glyphs map[string]string
}

// NewGlyphProvider creates a provider over the built-in icon table plus any
// extra entries. Extras override built-ins with the same key.
func NewGlyphProvider(extra map[string]string) *GlyphProvider {
	glyphs := maps.Clone(constants.IconKeys)
	maps.Copy(glyphs, extra)
	return &GlyphProvider{glyphs: glyphs}
}

func (p *GlyphProvider) Resolve(key string) (Resource, error) {
	glyph, ok := p.glyphs[key]
	if !ok {
		return Resource{}, fmt.Errorf("%w: glyph %q", ErrNotFound, key)
	}
	return Resource{Key: key, Kind: KindGlyph, Glyph: glyph}, nil
}
