// Package templatebank loads and indexes the match templates used by
// the matcher (spec §4.5, C5). Templates are immutable once loaded and
// content-addressed so the same image loaded twice never duplicates
// storage or match work.
package templatebank

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// ErrBadTemplate is returned when a path cannot be decoded as an image.
var ErrBadTemplate = errors.New("templatebank: invalid template image")

// Template is one loaded template with its pyramid of pre-scaled
// variants, keyed by the scale that produced them.
type Template struct {
	ID        string
	Path      string
	BGR       image.Image
	Grayscale image.Image
	Pyramid   map[float64]Variant
}

// Variant is one (grayscale, BGR) pair at a given scale.
type Variant struct {
	Scale     float64
	BGR       image.Image
	Grayscale image.Image
}

// Bank holds every loaded template, indexed by content hash so a
// duplicate load is a no-op that returns the existing id.
type Bank struct {
	mu        sync.RWMutex
	byID      map[string]*Template
	byHash    map[string]string // sha256 hex -> id
	loadOrder []string
	scales    []float64
}

// New returns an empty bank that builds pyramid variants at the given
// scales on every Load call.
func New(scales []float64) *Bank {
	if len(scales) == 0 {
		scales = []float64{1.0}
	}
	return &Bank{
		byID:   make(map[string]*Template),
		byHash: make(map[string]string),
		scales: scales,
	}
}

// Load decodes path, derives grayscale and pyramid variants, and
// returns its content-addressed id: a sha256 of the decoded pixels and
// their dimensions. Loading the same image twice returns the existing
// id without growing the bank.
func (b *Bank) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("templatebank: read %s: %w", path, err)
	}

	img, _, err := image.Decode(byteReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBadTemplate, path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	hasher := sha256.New()
	fmt.Fprintf(hasher, "%dx%d:", bounds.Dx(), bounds.Dy())
	hasher.Write(rgba.Pix)
	id := hex.EncodeToString(hasher.Sum(nil))

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.byHash[id]; ok {
		return existing, nil
	}

	gray := toGrayscale(img)
	pyramid := buildPyramid(img, gray, b.scales)

	b.byID[id] = &Template{
		ID:        id,
		Path:      path,
		BGR:       img,
		Grayscale: gray,
		Pyramid:   pyramid,
	}
	b.byHash[id] = id
	b.loadOrder = append(b.loadOrder, id)

	return id, nil
}

// ReloadAll re-decodes every template from its original path, dropping
// ones that now fail to decode (so a removed file does not wedge the
// scanner). Returns the ids that failed to reload.
func (b *Bank) ReloadAll() []string {
	b.mu.RLock()
	paths := make(map[string]string, len(b.byID))
	order := append([]string(nil), b.loadOrder...)
	for id, t := range b.byID {
		paths[id] = t.Path
	}
	b.mu.RUnlock()

	var failed []string
	for _, id := range order {
		path := paths[id]
		data, err := os.ReadFile(path)
		if err != nil {
			failed = append(failed, id)
			continue
		}
		img, _, err := image.Decode(byteReader(data))
		if err != nil {
			failed = append(failed, id)
			continue
		}

		gray := toGrayscale(img)
		b.mu.Lock()
		b.byID[id] = &Template{
			ID:        id,
			Path:      path,
			BGR:       img,
			Grayscale: gray,
			Pyramid:   buildPyramid(img, gray, b.scales),
		}
		b.mu.Unlock()
	}

	if len(failed) > 0 {
		b.mu.Lock()
		for _, id := range failed {
			delete(b.byID, id)
			delete(b.byHash, id)
		}
		kept := b.loadOrder[:0]
		for _, id := range b.loadOrder {
			if _, ok := b.byID[id]; ok {
				kept = append(kept, id)
			}
		}
		b.loadOrder = kept
		b.mu.Unlock()
	}
	return failed
}

// Get returns the template for id.
func (b *Bank) Get(id string) (*Template, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.byID[id]
	return t, ok
}

// All returns every loaded template in load order, the order the
// matcher's early-exit semantics (spec §4.6) depend on.
func (b *Bank) All() []*Template {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Template, 0, len(b.loadOrder))
	for _, id := range b.loadOrder {
		if t, ok := b.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}
