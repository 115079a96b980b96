package resources

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/constants"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed icons/*.svg
var iconFS embed.FS

// DefaultIconSize is the edge length, in pixels, of rasterized icons.
const DefaultIconSize = constants.DefaultIconSize

// SVGProvider rasterizes SVG icons registered under "svg.<name>" keys.
// Rasterized bitmaps are kept in an LRU cache.
type SVGProvider struct {
	mu      sync.Mutex
	sources map[string][]byte
	size    int
	cache   *Cache[*image.RGBA]
}

// NewSVGProvider creates a provider preloaded with the embedded icon set.
// size is the rasterized edge length; cacheSize bounds the bitmap cache.
func NewSVGProvider(size, cacheSize int) (*SVGProvider, error) {
	if size <= 0 {
		size = DefaultIconSize
	}

	p := &SVGProvider{
		sources: make(map[string][]byte),
		size:    size,
		cache:   NewCache[*image.RGBA](cacheSize, nil),
	}

	files, err := fs.ReadDir(iconFS, "icons")
	if err != nil {
		return nil, fmt.Errorf("resources: read embedded icons: %w", err)
	}
	for _, f := range files {
		data, err := iconFS.ReadFile(path.Join("icons", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("resources: read %s: %w", f.Name(), err)
		}
		p.sources["svg."+strings.TrimSuffix(f.Name(), ".svg")] = data
	}
	return p, nil
}

// Add registers an SVG document under key, replacing any previous source.
func (p *SVGProvider) Add(key string, svg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sources[key] = svg
	p.cache.Remove(key)
}

// Len returns the number of known icon sources.
func (p *SVGProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sources)
}

func (p *SVGProvider) Resolve(key string) (Resource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if img, ok := p.cache.Get(key); ok {
		return Resource{Key: key, Kind: KindImage, Image: img}, nil
	}

	src, ok := p.sources[key]
	if !ok {
		return Resource{}, fmt.Errorf("%w: svg %q", ErrNotFound, key)
	}

	img, err := rasterize(src, p.size)
	if err != nil {
		return Resource{}, fmt.Errorf("resources: rasterize %q: %w", key, err)
	}
	p.cache.Set(key, img)
	return Resource{Key: key, Kind: KindImage, Image: img}, nil
}

func rasterize(src []byte, size int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(src), oksvg.WarnErrorMode)
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1)
	return img, nil
}
