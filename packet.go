package stage

import (
	"image"
	"time"

	"github.com/posefx/stage/pose"
)

// FramePacket is the shared per-frame input every layer receives. The
// caller supplies the raw frame inputs; the manager stamps the derived
// fields (dimensions, timestamp) at the top of each render call. The
// packet is passed by reference down the layer chain and never retained
// past the call.
//
// Pixels is the read-write composite: each enabled layer sees the
// mutations of every layer before it in z-order. Mask and Landmarks are
// read-only.
type FramePacket struct {
	// Source is the original frame, untouched by layer effects. Layers
	// that need pristine pixels (ghost, blur source) read it instead of
	// the evolving composite.
	Source *Pixmap

	// Pixels is the mutable composite buffer.
	Pixels *Pixmap

	// Mask is the foreground confidence buffer, same dimensions as
	// Pixels. Nil when the segmentation model produced nothing this
	// frame; mask-driven layers skip.
	Mask *Mask

	// Landmarks is the pose estimate, or nil.
	Landmarks []pose.Landmark

	// Width and Height are the canvas dimensions.
	Width  int
	Height int

	// Timestamp is the frame time used for time-driven effects.
	Timestamp time.Time
}

// SourceImage returns the original frame as an image, for layers that
// feed it to scaling or blurring helpers.
func (p *FramePacket) SourceImage() *image.RGBA {
	if p.Source == nil {
		return nil
	}
	return p.Source.ToImage()
}
