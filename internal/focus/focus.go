// Package focus turns screen taps into camera focus targets.
//
// A Controller owns the point cloud and pick parameters. Each Tap builds a
// ray from the pointer, samples the cloud, matches the ray against the
// samples and records the outcome as a Snapshot. Callers that need to
// observe picking state (camera animation, tests, the pick history store)
// read Snapshot values instead of reaching into shared globals.
package focus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/tapfocus/internal/config"
	"github.com/banshee-data/tapfocus/internal/monitoring"
	"github.com/banshee-data/tapfocus/internal/pick"
	"github.com/banshee-data/tapfocus/internal/pointcloud"
	"github.com/banshee-data/tapfocus/internal/timeutil"
)

// Snapshot is the read-only outcome of one tap.
type Snapshot struct {
	TapID   uuid.UUID
	Seq     uint64
	Time    time.Time
	Elapsed time.Duration // time spent building the ray, sampling and matching

	Pointer  pick.Pixel
	Viewport pick.Viewport
	Ray      pick.Ray

	// Sampling
	Stride  int
	Sampled int

	// Matching. Fields below are zero when Matched is false.
	Matched     bool
	SourceIndex int
	Target      r3.Vec
	DistSq      float64
	RayDistance float64

	// Marker placement: Target projected back to the screen.
	MarkerVisible  bool
	Marker         pick.Pixel
	MarkerOffsetPx float64
	MarkerOnTarget bool
}

// Recorder receives every snapshot after a tap completes.
type Recorder interface {
	RecordPick(ctx context.Context, s Snapshot) error
}

// Controller runs taps against one point cloud. It is safe for concurrent use.
type Controller struct {
	cloud *pointcloud.Cloud
	cfg   *config.PickConfig
	conv  pick.AxisConvention
	clock timeutil.Clock

	mu       sync.Mutex
	sampler  pick.Sampler
	samples  []float64
	last     Snapshot
	seq      uint64
	recorder Recorder
}

// NewController validates cloud and cfg and returns a controller.
// A nil cfg uses the defaults.
func NewController(cloud *pointcloud.Cloud, cfg *config.PickConfig) (*Controller, error) {
	if cloud == nil {
		return nil, errors.New("nil point cloud")
	}
	if err := cloud.Validate(); err != nil {
		return nil, fmt.Errorf("invalid point cloud: %w", err)
	}
	if cfg == nil {
		cfg = config.DefaultPickConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pick config: %w", err)
	}

	return &Controller{
		cloud: cloud,
		cfg:   cfg,
		conv:  cfg.GetAxisConvention(),
		clock: timeutil.RealClock{},
	}, nil
}

// SetClock replaces the clock used to timestamp taps.
func (c *Controller) SetClock(clock timeutil.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

// SetRecorder installs r to receive snapshots. Pass nil to disable.
func (c *Controller) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// Camera returns a camera at eye looking at target using the configured
// field of view and clip planes.
func (c *Controller) Camera(eye, target r3.Vec) pick.Camera {
	return pick.Camera{
		Eye:     eye,
		Target:  target,
		Up:      r3.Vec{Y: 1},
		FovYDeg: c.cfg.GetFovYDeg(),
		Near:    c.cfg.GetNear(),
		Far:     c.cfg.GetFar(),
	}
}

// Tap picks the point under pointer as seen through cam and returns the
// resulting snapshot. A tap that selects nothing is not an error.
func (c *Controller) Tap(ctx context.Context, pointer pick.Pixel, vp pick.Viewport, cam pick.Camera) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return Snapshot{}, fmt.Errorf("invalid viewport %vx%v", vp.Width, vp.Height)
	}

	c.mu.Lock()
	clock := c.clock
	c.mu.Unlock()
	start := clock.Now()

	viewProj := cam.ViewProjection(vp.Aspect())
	inv, err := pick.InvertViewProjection(viewProj)
	if err != nil {
		return Snapshot{}, err
	}
	ray := pick.ScreenToRay(pointer, vp, inv)

	c.mu.Lock()
	set, err := c.sampler.Sample(c.cloud.Encoded, c.cloud.Count, c.cfg.GetTargetSampleCount(), c.conv)
	if err != nil {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("sample point cloud: %w", err)
	}
	m, ok, err := pick.FindClosest(set.Points, ray, c.cfg.GetMaxDistanceSquared())
	if err != nil {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("match tap: %w", err)
	}

	c.seq++
	snap := Snapshot{
		TapID:    uuid.New(),
		Seq:      c.seq,
		Time:     start,
		Pointer:  pointer,
		Viewport: vp,
		Ray:      ray,
		Stride:   set.Stride,
		Sampled:  set.Count,
	}

	if ok {
		src := set.SourceIndex(m.Offset)
		target, err := c.cloud.Position(src, c.conv)
		if err != nil {
			c.mu.Unlock()
			return Snapshot{}, fmt.Errorf("fetch matched point: %w", err)
		}
		snap.Matched = true
		snap.SourceIndex = src
		snap.Target = target
		snap.DistSq = m.DistSq
		snap.RayDistance = m.RayDistance

		if ndc, visible := pick.Project(target, viewProj); visible {
			snap.MarkerVisible = true
			snap.Marker = pick.NDCToPixel(ndc, vp)
			snap.MarkerOffsetPx = pick.PixelDistance(ndc, vp, pointer)
			snap.MarkerOnTarget = snap.MarkerOffsetPx <= c.cfg.GetMarkerTolerancePx()
		}
	}

	snap.Elapsed = clock.Since(start)
	c.samples = append(c.samples[:0], set.Points...)
	c.last = snap
	rec := c.recorder
	c.mu.Unlock()

	if snap.Matched {
		monitoring.Debugf("tap %d: source=%d distSq=%.6g rayDist=%.4g marker=%.2fpx stride=%d sampled=%d in %v",
			snap.Seq, snap.SourceIndex, snap.DistSq, snap.RayDistance, snap.MarkerOffsetPx, snap.Stride, snap.Sampled, snap.Elapsed)
	} else {
		monitoring.Debugf("tap %d: no match (stride=%d sampled=%d) in %v", snap.Seq, snap.Stride, snap.Sampled, snap.Elapsed)
	}

	if rec != nil {
		if err := rec.RecordPick(ctx, snap); err != nil {
			monitoring.Logf("failed to record tap %s: %v", snap.TapID, err)
		}
	}

	return snap, nil
}

// Snapshot returns the outcome of the most recent tap. ok is false before
// the first tap.
func (c *Controller) Snapshot() (s Snapshot, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.seq > 0
}

// FocusTarget returns the point the camera should animate towards, if the
// most recent tap selected one.
func (c *Controller) FocusTarget() (r3.Vec, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Target, c.last.Matched
}

// LastSamples returns a copy of the decoded samples used by the most recent tap.
func (c *Controller) LastSamples() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.samples))
	copy(out, c.samples)
	return out
}
