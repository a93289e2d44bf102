// Package stage composites pose-reactive visual layers over a live
// camera feed.
//
// # Overview
//
// stage takes three inputs per frame — an RGBA camera image, a
// foreground-confidence mask, and a skeletal landmark list — and
// produces a layered composite whose content follows the subject's
// body pose. Layers are independent passes over one shared pixel
// buffer: background replacement (blur, removal, solid), foreground
// masked-texture blending, themed nature overlays, and a continuous
// particle simulation. A two-gate pose classifier (stability window
// plus switch cooldown) decides when the visuals are allowed to
// change, and a mesh deformer makes grid meshes follow the torso.
//
// # Quick Start
//
//	main := surface.NewImageSurface(640, 480)
//	over := surface.NewImageSurface(640, 480)
//	p := stage.NewPipeline(main, over)
//	defer p.Close()
//
//	p.AddLayer(stage.NewBackgroundLayer("background", 0))
//	p.AddLayer(stage.NewForegroundLayer("subject", 10, p.Loader()))
//	p.AddLayer(stage.NewNatureLayer("nature", 20, p.Loader(), p.Regions()))
//
//	p.BindPose("arms_up", stage.PoseBinding{
//		"background": {"effect": "blur", "blur_radius": 12.0},
//		"subject":    {"effect": "texture", "texture": "art/leaves.png"},
//	})
//
//	p.Start(ctx)                // animation tick: particles, mesh
//	p.OnFrame(pkt, rawPose)     // per camera frame, from the model callback
//
// # Architecture
//
// The package is organized into:
//   - Root: pipeline, layer manager, layers, effect primitives
//   - surface: drawing-target contract and the CPU implementation
//   - texture: image decoding, async loading, scaling
//   - particle: the particle simulation
//   - pose: landmarks, stability classifier, switch gate
//   - mesh: landmark-driven mesh deformation
//   - cache: bounded insertion-order cache for derived assets
//
// # Render Model
//
// Rendering is single-threaded and strictly ordered: within one
// render call each enabled layer mutates the shared buffer in
// ascending z order, so later layers always see earlier layers'
// output. There is no locking below the pipeline because there is no
// parallelism. Animated overlay content (particles, deformed meshes)
// draws on a second surface on its own wall-clock tick, so the
// compositing cadence and the animation cadence stay independent.
//
// # Failure Model
//
// Nothing in this package is fatal to the embedding process. Missing
// inputs skip the affected pass, asset-load failures fall back to
// neutral defaults, unknown configuration values log a warning and
// keep the previous state, and a panicking layer contributes nothing
// that frame while the remaining layers still render.
package stage
