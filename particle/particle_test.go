package particle

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/posefx/stage/surface"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"floating", KindFloating, false},
		{"flying", KindFlying, false},
		{"falling", KindFalling, false},
		{"rising", KindRising, false},
		{"sideways", KindFloating, true},
		{"", KindFloating, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindFalling.String(); got != "falling" {
		t.Errorf("String() = %q, want falling", got)
	}
	if got := Kind(9).String(); got != "Kind(9)" {
		t.Errorf("String() = %q, want Kind(9)", got)
	}
}

func TestTintRampAt(t *testing.T) {
	ramp := TintRamp{
		From: colorful.Color{R: 1, G: 0, B: 0},
		To:   colorful.Color{R: 0, G: 0, B: 1},
	}

	r0, _, b0, _ := ramp.At(0).RGBA()
	if r0 < 0xf000 || b0 > 0x1000 {
		t.Errorf("At(0) = (r=%#x, b=%#x), want red", r0, b0)
	}

	r1, _, b1, _ := ramp.At(1).RGBA()
	if b1 < 0xf000 || r1 > 0x1000 {
		t.Errorf("At(1) = (r=%#x, b=%#x), want blue", r1, b1)
	}

	// Out-of-range t clamps instead of extrapolating.
	rc, _, _, _ := ramp.At(-3).RGBA()
	if rc != r0 {
		t.Errorf("At(-3) red = %#x, want clamp to At(0) = %#x", rc, r0)
	}
}

func TestSettingsSanitize(t *testing.T) {
	s := Settings{SpawnRate: -1, MaxParticles: 0, Region: surface.Region{}}
	s.sanitize()

	def := DefaultSettings()
	if s.SpawnRate != def.SpawnRate {
		t.Errorf("SpawnRate = %v, want default %v", s.SpawnRate, def.SpawnRate)
	}
	if s.MaxParticles != def.MaxParticles {
		t.Errorf("MaxParticles = %v, want default %v", s.MaxParticles, def.MaxParticles)
	}
	if s.Region != surface.Full {
		t.Errorf("Region = %v, want Full", s.Region)
	}
	if s.AlphaStart == 0 && s.AlphaEnd == 0 {
		t.Error("sanitize left particles fully transparent")
	}
	if s.LifeMax < s.LifeMin {
		t.Errorf("LifeMax %v < LifeMin %v after sanitize", s.LifeMax, s.LifeMin)
	}
}
