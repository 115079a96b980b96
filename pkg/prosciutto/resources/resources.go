// Package resources maps symbolic keys ("icon.back", "nav.settings.title")
// to renderable resources: icon-font glyphs, localized text and rasterized
// SVG images. The router resolves entry titles and icons through a Provider.
package resources

import (
	"errors"
	"fmt"
	"image"
)

// ErrNotFound is returned when no provider knows a key.
var ErrNotFound = errors.New("resources: not found")

// Kind identifies what a Resource carries.
type Kind int

const (
	KindGlyph Kind = iota // icon-font code point(s) in Glyph
	KindText              // localized string in Text
	KindImage             // rasterized bitmap in Image
)

func (k Kind) String() string {
	switch k {
	case KindGlyph:
		return "glyph"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Resource is something a host can render.
type Resource struct {
	Key   string
	Kind  Kind
	Glyph string
	Text  string
	Image *image.RGBA
}

// Label returns the textual form of the resource: the text for text
// resources, the glyph for glyphs, and the key otherwise.
func (r Resource) Label() string {
	switch {
	case r.Text != "":
		return r.Text
	case r.Glyph != "":
		return r.Glyph
	default:
		return r.Key
	}
}

// Provider resolves a symbolic key.
type Provider interface {
	Resolve(key string) (Resource, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(key string) (Resource, error)

func (f ProviderFunc) Resolve(key string) (Resource, error) {
	return f(key)
}

// Chain asks each provider in turn and returns the first hit. Errors other
// than ErrNotFound stop the search.
type Chain []Provider

func (c Chain) Resolve(key string) (Resource, error) {
	for _, p := range c {
		res, err := p.Resolve(key)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Resource{}, err
		}
	}
	return Resource{}, fmt.Errorf("%w: %q", ErrNotFound, key)
}
