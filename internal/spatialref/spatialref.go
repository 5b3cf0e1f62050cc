// Package spatialref turns wire spatial references into parsed projection
// frames and builds point transformers between them.
package spatialref

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/ctessum/geom/proj"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
)

// Frame is a resolved spatial reference. Each Frame owns its own copy of the
// parsed definition because the projection code mutates it while
// transforming.
type Frame struct {
	Ref *model.SpatialRef
	sr  *proj.SR
}

// Geographic reports whether coordinates are longitude/latitude degrees.
func (f *Frame) Geographic() bool { return f != nil && f.sr.Name == "longlat" }

func (f *Frame) Key() string {
	if f == nil {
		return ""
	}
	return f.Ref.Key()
}

func (f *Frame) String() string {
	if f == nil {
		return "none"
	}
	return f.Ref.String()
}

// Same reports whether f and g are the same frame; two nil frames are.
func Same(f, g *Frame) bool { return f.Key() == g.Key() }

// Transformer maps one coordinate between frames.
type Transformer = proj.Transformer

// NewTransform builds a transformer from f to g. Identical frames give the
// identity transform.
func NewTransform(f, g *Frame) (Transformer, error) {
	if f == nil || g == nil {
		return nil, fmt.Errorf("transform %s -> %s: both frames must be declared", f, g)
	}
	if Same(f, g) {
		return func(x, y float64) (float64, float64, error) { return x, y, nil }, nil
	}
	t, err := f.sr.NewTransform(g.sr)
	if err != nil {
		return nil, fmt.Errorf("transform %s -> %s: %w", f, g, err)
	}
	return t, nil
}

// Registry stores custom definitions for identifiers missing from the
// built-in catalog.
type Registry interface {
	Lookup(ctx context.Context, wkid int) (def string, ok bool, err error)
}

type Options struct {
	CacheSize int
	Registry  Registry
	Logger    *slog.Logger
}

// Resolver parses references, caching parsed definitions by a hash of their
// canonical key. It is safe for concurrent use.
type Resolver struct {
	cache *lru.Cache[uint64, *proj.SR]
	reg   Registry
	log   *slog.Logger
}

func NewResolver(opts Options) (*Resolver, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c, err := lru.New[uint64, *proj.SR](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("spatialref cache: %w", err)
	}
	return &Resolver{cache: c, reg: opts.Registry, log: opts.Logger}, nil
}

// Resolve returns nil for an absent reference. Unknown identifiers and
// unparsable definitions are invalid arguments.
func (r *Resolver) Resolve(ctx context.Context, ref *model.SpatialRef) (*Frame, error) {
	c := ref.Canonical()
	if c == nil {
		return nil, nil
	}
	key := xxhash.Sum64String(c.Key())
	if tmpl, ok := r.cache.Get(key); ok {
		observability.IncSpatialRefCache("hit")
		return newFrame(c, tmpl), nil
	}
	observability.IncSpatialRefCache("miss")

	def, err := r.definition(ctx, c)
	if err != nil {
		return nil, err
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, operr.Invalid("spatial reference", "%s: %v", c, err)
	}
	r.cache.Add(key, sr)
	return newFrame(c, sr), nil
}

func (r *Resolver) definition(ctx context.Context, c *model.SpatialRef) (string, error) {
	switch {
	case c.WKT != "":
		return c.WKT, nil
	case c.Proj4 != "":
		return c.Proj4, nil
	}
	if def, ok := CatalogDefinition(c.WKID); ok {
		return def, nil
	}
	if r.reg != nil {
		def, ok, err := r.reg.Lookup(ctx, c.WKID)
		if err != nil {
			r.log.Warn("spatial reference registry lookup failed", "wkid", c.WKID, "err", err)
		} else if ok {
			return def, nil
		}
	}
	return "", operr.Invalid("spatial reference", "unknown wkid %d", c.WKID)
}

// Forget drops the cached definition for wkid so a re-registered definition
// takes effect on the next Resolve.
func (r *Resolver) Forget(wkid int) {
	key := (&model.SpatialRef{WKID: wkid}).Key()
	r.cache.Remove(xxhash.Sum64String(key))
}

func newFrame(ref *model.SpatialRef, tmpl *proj.SR) *Frame {
	cp := *tmpl
	return &Frame{Ref: ref, sr: &cp}
}

var wgs84Template = sync.OnceValues(func() (*proj.SR, error) {
	return proj.Parse(fixed[WKIDWGS84])
})

// MustWGS84 returns the WGS84 geographic frame.
func MustWGS84() *Frame {
	sr, err := wgs84Template()
	if err != nil {
		panic(fmt.Sprintf("spatialref: builtin wgs84: %v", err))
	}
	return newFrame(&model.SpatialRef{WKID: WKIDWGS84}, sr)
}

// Validate parses def without caching it.
func Validate(def string) error {
	if _, err := proj.Parse(def); err != nil {
		return fmt.Errorf("parse definition: %w", err)
	}
	return nil
}

// LocalFrame returns a meter-based transverse Mercator frame centered on
// lon, lat, for running planar algorithms with geodesic distances.
func LocalFrame(lon, lat float64) (*Frame, error) {
	def := fmt.Sprintf("+proj=tmerc +lat_0=%.9f +lon_0=%.9f +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs", lat, lon)
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("local frame at (%v, %v): %w", lon, lat, err)
	}
	return &Frame{Ref: &model.SpatialRef{Proj4: def}, sr: sr}, nil
}
