package texture

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/posefx/stage/cache"
)

// Default loader tuning.
const (
	// DefaultQueueSize bounds the async completion channel. The
	// pipeline drains it every render tick, so it only fills when
	// rendering has stalled.
	DefaultQueueSize = 16
)

// Loaded is one async load completion. Either Texture or Err is set.
type Loaded struct {
	Path    string
	Texture *Texture
	Err     error
}

// LoaderStats is a point-in-time snapshot of loader activity.
type LoaderStats struct {
	Loads    uint64 // synchronous decodes performed
	Failures uint64 // loads that returned an error
	Dropped  uint64 // async completions discarded on a full queue
	Cache    cache.Stats
}

// Loader decodes textures from disk with a bounded path-keyed cache.
//
// Load is synchronous. LoadAsync decodes on a background goroutine and
// delivers the result on Ready; the caller consumes completions at a
// point where mutating shared texture state is safe. Both paths share
// the cache, so a texture is decoded at most once per path while it
// stays resident.
type Loader struct {
	cache *cache.Bounded[string, *Texture]
	ready chan Loaded

	loads    atomic.Uint64
	failures atomic.Uint64
	dropped  atomic.Uint64
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	capacity  int
	queueSize int
}

// WithCapacity sets the texture cache capacity.
func WithCapacity(n int) LoaderOption {
	return func(c *loaderConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithQueueSize sets the async completion queue length.
func WithQueueSize(n int) LoaderOption {
	return func(c *loaderConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// NewLoader creates a texture loader.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := loaderConfig{
		capacity:  cache.DefaultCapacity,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{
		cache: cache.New[string, *Texture](cfg.capacity),
		ready: make(chan Loaded, cfg.queueSize),
	}
}

// Load returns the texture at path, decoding it on a cache miss.
// Failed loads are not cached, so a path that appears later (an asset
// still being written, a fixed filename) retries on the next call.
func (l *Loader) Load(path string) (*Texture, error) {
	if tex, ok := l.cache.Get(path); ok {
		return tex, nil
	}

	tex, err := l.decode(path)
	if err != nil {
		l.failures.Add(1)
		logger().Warn("texture load failed", "path", path, "error", err)
		return nil, err
	}

	l.cache.Set(path, tex)
	return tex, nil
}

// LoadAsync decodes path on a background goroutine. The completion —
// success or failure — arrives on Ready. Cache hits are delivered the
// same way so callers have a single consumption point.
func (l *Loader) LoadAsync(path string) {
	if tex, ok := l.cache.Get(path); ok {
		l.deliver(Loaded{Path: path, Texture: tex})
		return
	}

	go func() {
		tex, err := l.decode(path)
		if err != nil {
			l.failures.Add(1)
			logger().Warn("texture load failed", "path", path, "error", err)
			l.deliver(Loaded{Path: path, Err: err})
			return
		}
		l.cache.Set(path, tex)
		l.deliver(Loaded{Path: path, Texture: tex})
	}()
}

// Peek returns the cached texture for path without decoding. Render
// paths use it to skip a pass gracefully while an async load is still
// in flight.
func (l *Loader) Peek(path string) (*Texture, bool) {
	return l.cache.Get(path)
}

// Ready returns the async completion channel.
func (l *Loader) Ready() <-chan Loaded { return l.ready }

// Drain consumes all currently queued completions without blocking and
// returns them. The pipeline calls this at the start of each render
// tick.
func (l *Loader) Drain() []Loaded {
	var out []Loaded
	for {
		select {
		case ld := <-l.ready:
			out = append(out, ld)
		default:
			return out
		}
	}
}

// Invalidate drops the cached texture for path, forcing the next load
// to decode again.
func (l *Loader) Invalidate(path string) bool {
	return l.cache.Delete(path)
}

// Stats returns a snapshot of loader counters.
func (l *Loader) Stats() LoaderStats {
	return LoaderStats{
		Loads:    l.loads.Load(),
		Failures: l.failures.Load(),
		Dropped:  l.dropped.Load(),
		Cache:    l.cache.Stats(),
	}
}

// decode opens and decodes one file.
func (l *Loader) decode(path string) (*Texture, error) {
	l.loads.Add(1)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", path, err)
	}

	logger().Debug("texture loaded",
		"path", path,
		"format", format,
		"size", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()))
	return &Texture{path: path, img: img}, nil
}

// deliver queues one completion, dropping it if the queue is full.
func (l *Loader) deliver(ld Loaded) {
	select {
	case l.ready <- ld:
	default:
		l.dropped.Add(1)
		logger().Warn("texture completion dropped, queue full", "path", ld.Path)
	}
}
