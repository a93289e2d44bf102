package stage

import (
	"fmt"

	"github.com/posefx/stage/surface"
	"github.com/posefx/stage/texture"
)

// overlayKey captures everything that determines a nature overlay's
// rendered output. Re-rendering is triggered by key change, not every
// frame, so an unchanged overlay costs nothing per frame even though
// its surface supports continuous animation.
type overlayKey struct {
	path      string
	region    string
	opacity   float64
	mode      surface.BlendMode
	particles string
}

// NatureLayer renders a themed overlay confined to a named region of
// the overlay surface: either a static image stretched into the region
// or, when a particle descriptor is configured, nothing at all — the
// particle system owns the overlay then, and the two modes are
// mutually exclusive per overlay.
type NatureLayer struct {
	LayerBase

	loader  *texture.Loader
	regions *surface.Registry

	path       string
	regionName string
	region     surface.Region
	particles  Settings
	last       overlayKey
}

// NewNatureLayer returns an empty nature overlay spanning the full
// surface. Images are fetched through loader asynchronously.
func NewNatureLayer(name string, z int, loader *texture.Loader, regions *surface.Registry) *NatureLayer {
	return &NatureLayer{
		LayerBase: NewLayerBase(name, z),
		loader:    loader,
		regions:   regions,
		region:    surface.Full,
	}
}

// Region returns the normalized region the overlay is confined to.
func (l *NatureLayer) Region() surface.Region { return l.region }

// ParticleSettings returns the configured particle descriptor, or nil
// when the overlay is static.
func (l *NatureLayer) ParticleSettings() Settings { return l.particles }

// Configure applies settings. Recognized keys: "image" (path, empty
// clears), "region" (registered region name), "opacity", "blend"
// (normal, multiply, screen, overlay), "particles" (a nested settings
// record handing the overlay to the particle system; nil hands it
// back). The layer re-renders only when the resulting overlay key
// differs from the previous one.
func (l *NatureLayer) Configure(cfg Settings) {
	if p, ok := cfg["image"]; ok {
		if s, ok := p.(string); ok {
			l.path = s
			if s != "" && l.loader != nil {
				l.loader.LoadAsync(s)
			}
		} else {
			Logger().Warn("setting has wrong type", "key", "image", "value", p, "want", "string")
		}
	}

	if name := cfg.String("region", l.regionName); name != l.regionName {
		if l.regions == nil {
			Logger().Warn("no region registry, keeping region", "layer", l.Name(), "region", name)
		} else if r, ok := l.regions.Lookup(name); ok {
			l.regionName = name
			l.region = r
		} else {
			Logger().Warn("unknown region, keeping previous", "layer", l.Name(), "region", name)
		}
	}

	l.SetOpacity(cfg.Float("opacity", l.Opacity()))
	if s, ok := cfg["blend"].(string); ok {
		mode, err := surface.ParseBlendMode(s)
		if err != nil {
			Logger().Warn("unknown blend mode, keeping previous", "layer", l.Name(), "blend", s)
		} else {
			l.SetBlendMode(mode)
		}
	}

	if v, ok := cfg["particles"]; ok {
		switch pc := v.(type) {
		case nil:
			l.particles = nil
		case Settings:
			l.particles = pc
		case map[string]any:
			l.particles = Settings(pc)
		default:
			Logger().Warn("setting has wrong type", "key", "particles", "value", v, "want", "settings record")
		}
	}

	key := overlayKey{
		path:    l.path,
		region:  l.regionName,
		opacity: l.Opacity(),
		mode:    l.BlendMode(),
	}
	if l.particles != nil {
		// fmt prints map keys in sorted order, so equal descriptors
		// always produce equal strings.
		key.particles = fmt.Sprint(map[string]any(l.particles))
	}
	if key != l.last {
		l.last = key
		l.MarkDirty()
	}
}

// Render draws the static overlay image into its region. Returns false
// when the overlay is animated (the particle system draws instead),
// unconfigured, or its image has not finished loading.
func (l *NatureLayer) Render(*FramePacket) bool {
	if l.particles != nil || l.path == "" || l.loader == nil {
		return false
	}
	surf := l.Surface()
	if surf == nil {
		return false
	}
	tex, ok := l.loader.Peek(l.path)
	if !ok {
		l.loader.LoadAsync(l.path)
		Logger().Debug("overlay image not ready, skipping", "layer", l.Name(), "path", l.path)
		return false
	}

	dst := l.region.Pixels(surf.Width(), surf.Height())
	surf.DrawQuad(tex.Image(), dst, nil)
	l.ClearDirty()
	return true
}
