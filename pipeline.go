package stage

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/posefx/stage/mesh"
	"github.com/posefx/stage/particle"
	"github.com/posefx/stage/pose"
	"github.com/posefx/stage/surface"
	"github.com/posefx/stage/texture"
)

var (
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("stage: pipeline closed")

	// ErrRunning is returned by Start when the tick loop is already up.
	ErrRunning = errors.New("stage: pipeline already running")
)

// DefaultTickInterval is the animation cadence for particles and mesh
// deformation when no interval is configured.
const DefaultTickInterval = 33 * time.Millisecond

// PoseBinding maps layer names to the settings applied to them when a
// pose becomes the active one.
type PoseBinding map[string]Settings

// PipelineStats is a point-in-time snapshot across the whole pipeline.
type PipelineStats struct {
	Frames   uint64
	Ticks    uint64
	Switches uint64

	Stable  pose.Classification
	Applied pose.Classification

	Manager   ManagerStats
	Particles particle.Stats
	Loader    texture.LoaderStats
}

// Pipeline wires the layer manager, pose machinery, particle system
// and mesh deformer together behind one mutex. It is reactive: frames
// and pose results arrive through callbacks, and only the animation
// tick runs on its own clock.
//
// All methods are safe for concurrent use; internally everything is
// serialized, so layers and surfaces never see parallel access.
type Pipeline struct {
	mu sync.Mutex

	main    surface.Surface
	overlay surface.Surface

	manager    *LayerManager
	loader     *texture.Loader
	regions    *surface.Registry
	classifier *pose.StabilityClassifier
	gate       *pose.SwitchGate
	particles  *particle.System
	deformer   *mesh.Deformer

	bindings map[pose.Classification]PoseBinding
	applied  pose.Classification

	interval     time.Duration
	lastTick     time.Time
	particlesOn  bool
	overlayDrawn bool

	closed  bool
	running bool
	stop    chan struct{}
	done    chan struct{}

	frames   uint64
	ticks    uint64
	switches uint64
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTickInterval sets the animation tick cadence.
func WithTickInterval(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLoader substitutes a shared texture loader.
func WithLoader(l *texture.Loader) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.loader = l
		}
	}
}

// WithRegions substitutes a region registry.
func WithRegions(r *surface.Registry) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.regions = r
		}
	}
}

// WithPoseTiming overrides the stability window and the minimum
// interval between applied switches.
func WithPoseTiming(window, cooldown time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.classifier = pose.NewStabilityClassifier(pose.WithStabilityWindow(window))
		p.gate = pose.NewSwitchGate(cooldown)
	}
}

// NewPipeline builds a pipeline compositing into main, with animated
// content on overlay. Both surfaces belong to the caller and are not
// closed by the pipeline.
func NewPipeline(main, overlay surface.Surface, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		main:       main,
		overlay:    overlay,
		loader:     texture.NewLoader(),
		regions:    surface.NewRegistry(),
		classifier: pose.NewStabilityClassifier(),
		gate:       pose.NewSwitchGate(pose.DefaultSwitchCooldown),
		bindings:   make(map[pose.Classification]PoseBinding),
		interval:   DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.manager = NewLayerManager(main, overlay)

	ow, oh := main.Width(), main.Height()
	if overlay != nil {
		ow, oh = overlay.Width(), overlay.Height()
	}
	p.particles = particle.NewSystem(ow, oh, particle.DefaultSettings())
	return p
}

// Regions returns the registry overlay configuration resolves region
// names against.
func (p *Pipeline) Regions() *surface.Registry { return p.regions }

// Loader returns the shared texture loader.
func (p *Pipeline) Loader() *texture.Loader { return p.loader }

// AddLayer registers a layer with the manager.
func (p *Pipeline) AddLayer(l Layer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager.AddLayer(l)
}

// ConfigureLayer applies a settings record to a layer, then
// synchronizes overlay state (particle handoff) if the layer is a
// nature overlay.
func (p *Pipeline) ConfigureLayer(name string, cfg Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.manager.ConfigureLayer(name, cfg); err != nil {
		return err
	}
	p.syncOverlay(name)
	return nil
}

// SetLayerEnabled toggles a layer. Disabling stops future renders of
// it synchronously; nothing in flight is interrupted.
func (p *Pipeline) SetLayerEnabled(name string, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager.SetLayerEnabled(name, on)
}

// SetLayerOpacity sets a layer's opacity in [0, 1].
func (p *Pipeline) SetLayerOpacity(name string, alpha float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager.SetLayerOpacity(name, alpha)
}

// SetLayerBlendMode sets a layer's blend mode.
func (p *Pipeline) SetLayerBlendMode(name string, mode surface.BlendMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager.SetLayerBlendMode(name, mode)
}

// InvalidateLayer discards one layer's cached derived data.
func (p *Pipeline) InvalidateLayer(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager.InvalidateLayer(name)
}

// InvalidateAll discards every layer's cached derived data.
func (p *Pipeline) InvalidateAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.manager.InvalidateAll()
}

// BindPose associates a pose with the per-layer settings applied when
// it becomes the stable pose.
func (p *Pipeline) BindPose(c pose.Classification, b PoseBinding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindings[c] = b
}

// AttachMesh hands the pipeline a deformable mesh to drive from pose
// landmarks. The returned deformer is live: Bind vertex targets on it
// directly. The mesh is drawn onto the overlay surface each tick.
func (p *Pipeline) AttachMesh(m *surface.Mesh, cfg mesh.Config) *mesh.Deformer {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, h := p.main.Width(), p.main.Height()
	if p.overlay != nil {
		w, h = p.overlay.Width(), p.overlay.Height()
	}
	p.deformer = mesh.NewDeformer(m, w, h, cfg)
	return p.deformer
}

// DetachMesh stops driving and drawing the mesh.
func (p *Pipeline) DetachMesh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deformer = nil
}

// OnFrame ingests one camera frame. The packet carries the pixels,
// mask and landmarks produced by the external models; raw is the
// per-frame pose classification. The call advances the pose state
// machine, updates the mesh deformer, renders every layer and commits
// the composite — synchronously, before returning.
func (p *Pipeline) OnFrame(pkt *FramePacket, raw pose.Classification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.frames++
	p.drainLoader()

	if pkt == nil {
		Logger().Warn("nil frame packet, nothing rendered")
		return
	}
	now := pkt.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	p.observePose(raw, now)
	if p.deformer != nil && pkt.Landmarks != nil {
		p.deformer.Update(pkt.Landmarks)
	}
	p.manager.Render(pkt, now)
}

// OnPose ingests a pose result that arrived without a new frame. The
// stability machine and mesh deformer advance; nothing is composited.
func (p *Pipeline) OnPose(lms []pose.Landmark, raw pose.Classification, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.observePose(raw, now)
	if p.deformer != nil && lms != nil {
		p.deformer.Update(lms)
	}
}

// observePose advances the two-gate pose machinery and applies the
// bound configuration when a switch is both stable and off cooldown.
func (p *Pipeline) observePose(raw pose.Classification, now time.Time) {
	stable, _ := p.classifier.Observe(raw, now)
	if stable == pose.Unknown || stable == p.applied {
		return
	}
	if p.applyBinding(stable, now) {
		p.applied = stable
		p.switches++
		Logger().Info("pose applied", "pose", stable)
	}
}

// applyBinding applies a pose's per-layer settings, all or nothing:
// if any bound layer is still inside its switch cooldown, nothing
// changes and the caller retries on a later observation.
func (p *Pipeline) applyBinding(c pose.Classification, now time.Time) bool {
	b := p.bindings[c]
	if len(b) == 0 {
		return true
	}
	for name := range b {
		if !p.gate.Allow(name, now) {
			return false
		}
	}
	for name, cfg := range b {
		if err := p.manager.ConfigureLayer(name, cfg); err != nil {
			Logger().Warn("pose binding skipped unknown layer", "layer", name, "pose", c)
			continue
		}
		p.gate.MarkApplied(name, now)
		p.syncOverlay(name)
	}
	return true
}

// syncOverlay pushes a nature layer's particle descriptor into the
// particle system, or takes the system offline when the overlay went
// static. Caller holds p.mu.
func (p *Pipeline) syncOverlay(name string) {
	l, ok := p.manager.Layer(name)
	if !ok {
		return
	}
	n, ok := l.(*NatureLayer)
	if !ok {
		return
	}
	if cfg := n.ParticleSettings(); cfg != nil {
		p.particles.Configure(p.particleSettings(cfg, n.Region()))
		p.particlesOn = true
		return
	}
	if p.particlesOn {
		p.particles.Reset()
		p.particlesOn = false
	}
}

// particleSettings builds particle settings from a descriptor record
// merged over the defaults. Caller holds p.mu.
func (p *Pipeline) particleSettings(cfg Settings, region surface.Region) particle.Settings {
	s := particle.DefaultSettings()
	if name := cfg.String("kind", s.Kind.String()); name != s.Kind.String() {
		k, err := particle.ParseKind(name)
		if err != nil {
			Logger().Warn("unknown particle kind, using default", "kind", name)
		} else {
			s.Kind = k
		}
	}
	s.SpawnRate = cfg.Float("rate", s.SpawnRate)
	s.MaxParticles = cfg.Int("max", s.MaxParticles)
	s.SpeedMin = cfg.Float("speed_min", s.SpeedMin)
	s.SpeedMax = cfg.Float("speed_max", s.SpeedMax)
	s.LifeMin = cfg.Float("life_min", s.LifeMin)
	s.LifeMax = cfg.Float("life_max", s.LifeMax)
	s.SizeMin = cfg.Float("size_min", s.SizeMin)
	s.SizeMax = cfg.Float("size_max", s.SizeMax)
	s.AlphaStart = cfg.Float("alpha_start", s.AlphaStart)
	s.AlphaEnd = cfg.Float("alpha_end", s.AlphaEnd)
	s.SwayAmp = cfg.Float("sway_amp", s.SwayAmp)
	s.SwayFreq = cfg.Float("sway_freq", s.SwayFreq)
	s.Region = region

	if from, to := cfg.String("tint_from", ""), cfg.String("tint_to", ""); from != "" && to != "" {
		cf, errF := colorful.Hex(from)
		ct, errT := colorful.Hex(to)
		if errF != nil || errT != nil {
			Logger().Warn("malformed particle tint, ignoring", "from", from, "to", to)
		} else {
			s.Tint = &particle.TintRamp{From: cf, To: ct}
		}
	}
	if path := cfg.String("sprite", ""); path != "" {
		if tex, ok := p.loader.Peek(path); ok {
			s.Sprite = tex.Image()
		} else {
			p.loader.LoadAsync(path)
		}
	}
	return s
}

// drainLoader consumes async texture completions. Loaded art means
// layers that skipped a pass can now draw it, so their caches are
// flushed; nature overlays are re-synchronized in case a particle
// sprite just arrived. Caller holds p.mu.
func (p *Pipeline) drainLoader() {
	loaded := p.loader.Drain()
	if len(loaded) == 0 {
		return
	}
	for _, ld := range loaded {
		if ld.Err != nil {
			Logger().Warn("texture load failed", "path", ld.Path, "error", ld.Err)
			continue
		}
		Logger().Debug("texture ready", "path", ld.Path)
	}
	p.manager.InvalidateAll()
	for _, name := range p.manager.Order() {
		p.syncOverlay(name)
	}
}

// Start launches the animation tick loop. It stops when ctx is
// cancelled, Stop is called, or the pipeline is closed.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.running {
		return ErrRunning
	}
	p.running = true
	p.lastTick = time.Now()
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(ctx, p.stop, p.done)
	Logger().Info("pipeline started", "interval", p.interval)
	return nil
}

func (p *Pipeline) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case now := <-t.C:
			p.Tick(now)
		}
	}
}

// Stop halts the animation tick loop and waits for the in-flight tick,
// if any, to finish. Safe to call multiple times.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
}

// Tick advances the animated content by the wall-clock delta since the
// previous tick: particle simulation, then a full overlay redraw
// (static overlays, particles, deformed mesh). The tick loop calls it;
// embedders running their own scheduler may call it directly instead
// of Start.
func (p *Pipeline) Tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.overlay == nil {
		return
	}
	p.ticks++

	dt := now.Sub(p.lastTick)
	if dt < 0 {
		dt = 0
	}
	p.lastTick = now

	if p.particlesOn {
		p.particles.Update(dt)
	}

	animated := p.particlesOn || p.deformer != nil
	if !animated {
		if !p.manager.HasOverlayLayer() {
			if p.overlayDrawn {
				p.overlay.Clear(color.RGBA{})
				p.overlayDrawn = false
			}
			return
		}
		if p.overlayDrawn && !p.manager.OverlayDirty() {
			return
		}
	}

	p.overlay.Clear(color.RGBA{})
	p.manager.RenderOverlay(now)
	if p.particlesOn {
		p.particles.Draw(p.overlay)
	}
	if p.deformer != nil {
		p.overlay.DrawMesh(p.deformer.Mesh())
	}
	p.overlayDrawn = true
}

// Stats returns a snapshot across the pipeline.
func (p *Pipeline) Stats() PipelineStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PipelineStats{
		Frames:    p.frames,
		Ticks:     p.ticks,
		Switches:  p.switches,
		Stable:    p.classifier.Stable(),
		Applied:   p.applied,
		Manager:   p.manager.Stats(),
		Particles: p.particles.Stats(),
		Loader:    p.loader.Stats(),
	}
}

// Close stops the tick loop and closes every layer. The surfaces
// belong to the caller and stay open. Close is idempotent.
func (p *Pipeline) Close() error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.manager.Close()
}
