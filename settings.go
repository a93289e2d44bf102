package stage

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Settings is a plain key→value configuration record. Layer and
// particle configuration arrives as Settings merged over class-level
// defaults; there is no schema. Unknown keys are ignored by consumers
// and type mismatches fall back to the default with a warning, never a
// hard failure.
type Settings map[string]any

// Merge returns a new Settings with over's entries layered on top of s.
// Neither input is modified.
func (s Settings) Merge(over Settings) Settings {
	out := make(Settings, len(s)+len(over))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Float reads a numeric key. Integers widen; anything else logs a
// warning and returns def.
func (s Settings) Float(key string, def float64) float64 {
	v, ok := s[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	Logger().Warn("setting has wrong type", "key", key, "value", v, "want", "number")
	return def
}

// Int reads an integer key. Floats with no fractional part narrow;
// anything else logs a warning and returns def.
func (s Settings) Int(key string, def int) int {
	v, ok := s[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	Logger().Warn("setting has wrong type", "key", key, "value", v, "want", "integer")
	return def
}

// String reads a string key.
func (s Settings) String(key, def string) string {
	v, ok := s[key]
	if !ok {
		return def
	}
	if str, ok := v.(string); ok {
		return str
	}
	Logger().Warn("setting has wrong type", "key", key, "value", v, "want", "string")
	return def
}

// Bool reads a boolean key.
func (s Settings) Bool(key string, def bool) bool {
	v, ok := s[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	Logger().Warn("setting has wrong type", "key", key, "value", v, "want", "bool")
	return def
}

// Color reads a color key holding either a color.Color or a hex string
// like "#1b998b". Malformed values log a warning and return def.
func (s Settings) Color(key string, def color.RGBA) color.RGBA {
	v, ok := s[key]
	if !ok {
		return def
	}
	switch c := v.(type) {
	case color.RGBA:
		return c
	case color.Color:
		r, g, b, a := c.RGBA()
		return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	case string:
		parsed, err := colorful.Hex(c)
		if err != nil {
			Logger().Warn("setting has malformed color", "key", key, "value", c, "error", err)
			return def
		}
		r, g, b := parsed.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
	Logger().Warn("setting has wrong type", "key", key, "value", v, "want", "color")
	return def
}
