// Package catalog keeps compiled engines for several map documents, keyed
// by the content hash of each document, so map versions can coexist in one
// process without recompiling.
package catalog

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"formmap/internal/engine"
	"formmap/internal/mapping"
)

// DefaultSize is the number of compiled engines kept by default.
const DefaultSize = 64

// Catalog is a bounded cache of compiled engines. It is safe for
// concurrent use; concurrent loads of the same document compile once.
type Catalog struct {
	cache *lru.Cache[string, *engine.Engine]
	group singleflight.Group
	opts  []engine.Option
	log   zerolog.Logger
}

// New returns a catalog holding up to size engines, each compiled with opts.
func New(size int, log zerolog.Logger, opts ...engine.Option) (*Catalog, error) {
	if size <= 0 {
		size = DefaultSize
	}

	cache, err := lru.New[string, *engine.Engine](size)
	if err != nil {
		return nil, fmt.Errorf("create engine cache: %w", err)
	}

	return &Catalog{
		cache: cache,
		opts:  append([]engine.Option{engine.WithLogger(log)}, opts...),
		log:   log,
	}, nil
}

// Load returns the engine for a map document, compiling it on first use.
// Compile failures are not cached.
func (c *Catalog) Load(data []byte) (*engine.Engine, error) {
	key := mapping.Fingerprint(data)

	if e, ok := c.cache.Get(key); ok {
		c.log.Debug().Str("fingerprint", short(key)).Str("map", e.Name()).Msg("engine cache hit")
		return e, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.cache.Get(key); ok {
			return e, nil
		}

		mf, err := mapping.Parse(data)
		if err != nil {
			return nil, err
		}

		e, err := engine.New(mf, c.opts...)
		if err != nil {
			return nil, err
		}

		c.cache.Add(key, e)
		c.log.Debug().Str("fingerprint", short(key)).Str("map", e.Name()).Msg("engine compiled")

		return e, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*engine.Engine), nil
}

// LoadFile reads a map document and returns its engine.
func (c *Catalog) LoadFile(path string) (*engine.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file %s: %w", path, err)
	}

	e, err := c.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return e, nil
}

// Len returns the number of cached engines.
func (c *Catalog) Len() int {
	return c.cache.Len()
}

// Purge drops every cached engine.
func (c *Catalog) Purge() {
	c.cache.Purge()
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}

	return fingerprint
}
