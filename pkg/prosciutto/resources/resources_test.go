package resources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
)

func TestGlyphProvider(t *testing.T) {
	p := NewGlyphProvider(map[string]string{"icon.custom": "X", "icon.home": "H"})

	res, err := p.Resolve("icon.back")
	require.NoError(t, err)
	assert.Equal(t, KindGlyph, res.Kind)
	assert.Equal(t, constants.Back, res.Glyph)
	assert.Equal(t, constants.Back, res.Label())

	res, err = p.Resolve("icon.home")
	require.NoError(t, err)
	assert.Equal(t, "H", res.Glyph, "extras override built-ins")

	_, err = p.Resolve("icon.nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// The built-in table is never modified.
	assert.Equal(t, constants.Home, constants.IconKeys["icon.home"])
}

func TestLocalizer(t *testing.T) {
	l, err := NewLocalizer("fr")
	require.NoError(t, err)

	res, err := l.Resolve("nav.settings")
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, "Paramètres", res.Label())

	require.NoError(t, l.SetLanguages("en"))
	assert.Equal(t, []string{"en"}, l.Languages())

	text, err := l.Localize("nav.back", nil)
	require.NoError(t, err)
	assert.Equal(t, "Back", text)

	_, err = l.Resolve("nav.unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalizerFallsBackToEnglish(t *testing.T) {
	l, err := NewLocalizer("de")
	require.NoError(t, err)

	text, err := l.Localize("nav.home", nil)
	require.NoError(t, err)
	assert.Equal(t, "Home", text)
}

func TestLocalizerPlural(t *testing.T) {
	l, err := NewLocalizer("en")
	require.NoError(t, err)

	one, err := l.LocalizeCount("nav.depth", 1)
	require.NoError(t, err)
	assert.Equal(t, "1 screen", one)

	many, err := l.LocalizeCount("nav.depth", 3)
	require.NoError(t, err)
	assert.Equal(t, "3 screens", many)

	require.NoError(t, l.SetLanguages("fr"))
	many, err = l.LocalizeCount("nav.depth", 2)
	require.NoError(t, err)
	assert.Equal(t, "2 écrans", many)
}

func TestLocalizerRejectsBadLanguage(t *testing.T) {
	_, err := NewLocalizer("not a language!")
	assert.Error(t, err)

	l, err := NewLocalizer()
	require.NoError(t, err)
	assert.Error(t, l.SetLanguages("???"))
	assert.Empty(t, l.Languages())
}

func TestSVGProvider(t *testing.T) {
	p, err := NewSVGProvider(32, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())

	res, err := p.Resolve("svg.back")
	require.NoError(t, err)
	assert.Equal(t, KindImage, res.Kind)
	require.NotNil(t, res.Image)
	assert.Equal(t, 32, res.Image.Bounds().Dx())
	assert.Equal(t, "svg.back", res.Label())

	// Cached bitmaps are reused.
	again, err := p.Resolve("svg.back")
	require.NoError(t, err)
	assert.Same(t, res.Image, again.Image)

	_, err = p.Resolve("svg.missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSVGProviderAdd(t *testing.T) {
	p, err := NewSVGProvider(0, 0)
	require.NoError(t, err)

	p.Add("svg.dot", []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 2 2"><rect width="2" height="2" fill="#ff0000"/></svg>`))
	res, err := p.Resolve("svg.dot")
	require.NoError(t, err)
	assert.Equal(t, DefaultIconSize, res.Image.Bounds().Dx())

	r, _, _, a := res.Image.At(DefaultIconSize/2, DefaultIconSize/2).RGBA()
	assert.NotZero(t, a)
	assert.NotZero(t, r)
}

func TestCache(t *testing.T) {
	var evicted []string
	c := NewCache[int](2, func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // b is now least recently used
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("a", 10)
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, c.Len())

	c.Remove("a")
	c.Remove("a")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"b"}, evicted, "remove does not report evictions")

	c.Purge()
	assert.Zero(t, c.Len())
	assert.Equal(t, []string{"b", "c"}, evicted)
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")
	glyphs := NewGlyphProvider(nil)
	failing := ProviderFunc(func(key string) (Resource, error) {
		if key == "explode" {
			return Resource{}, boom
		}
		return Resource{}, ErrNotFound
	})
	text := ProviderFunc(func(key string) (Resource, error) {
		return Resource{Key: key, Kind: KindText, Text: "text:" + key}, nil
	})

	chain := Chain{glyphs, failing, text}

	res, err := chain.Resolve("icon.back")
	require.NoError(t, err)
	assert.Equal(t, KindGlyph, res.Kind)

	res, err = chain.Resolve("nav.anything")
	require.NoError(t, err)
	assert.Equal(t, "text:nav.anything", res.Text)

	_, err = chain.Resolve("explode")
	assert.ErrorIs(t, err, boom)

	_, err = Chain{glyphs}.Resolve("nav.anything")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "glyph", KindGlyph.String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "image", KindImage.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}
