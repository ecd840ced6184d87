package focus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/tapfocus/internal/config"
	"github.com/banshee-data/tapfocus/internal/pick"
	"github.com/banshee-data/tapfocus/internal/pointcloud"
	"github.com/banshee-data/tapfocus/internal/testutil"
	"github.com/banshee-data/tapfocus/internal/timeutil"
)

var testViewport = pick.Viewport{Width: 800, Height: 600}

func identityConfig() *config.PickConfig {
	cfg := config.DefaultPickConfig()
	conv := "identity"
	cfg.AxisConvention = &conv
	return cfg
}

func newTestController(t *testing.T, cfg *config.PickConfig, pts ...r3.Vec) *Controller {
	t.Helper()
	c, err := NewController(pointcloud.FromPositions(pts), cfg)
	require.NoError(t, err)
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	clock.SetStep(time.Millisecond)
	c.SetClock(clock)
	return c
}

type memRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
	err   error
}

func (r *memRecorder) RecordPick(_ context.Context, s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return r.err
}

func TestTap_CentreSelectsPointOnAxis(t *testing.T) {
	c := newTestController(t, identityConfig(),
		r3.Vec{X: 1, Y: 1, Z: 0},
		r3.Vec{X: 0, Y: 0, Z: 0},
		r3.Vec{X: -2, Y: 0, Z: 1},
	)
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	snap, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)

	require.True(t, snap.Matched)
	assert.Equal(t, 1, snap.SourceIndex)
	assert.Equal(t, r3.Vec{}, snap.Target)
	assert.InDelta(t, 0, snap.DistSq, 1e-12)
	assert.InDelta(t, 5-cam.Near, snap.RayDistance, 1e-6)
	assert.Equal(t, 1, snap.Stride)
	assert.Equal(t, 3, snap.Sampled)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.NotEqual(t, uuid.Nil, snap.TapID)
	assert.Equal(t, time.Unix(1700000000, 0), snap.Time)
	assert.Equal(t, time.Millisecond, snap.Elapsed)

	require.True(t, snap.MarkerVisible)
	assert.InDelta(t, 400, snap.Marker.X, 1e-6)
	assert.InDelta(t, 300, snap.Marker.Y, 1e-6)
	assert.InDelta(t, 0, snap.MarkerOffsetPx, 1e-6)
	assert.True(t, snap.MarkerOnTarget)

	target, ok := c.FocusTarget()
	assert.True(t, ok)
	testutil.AssertVecNear(t, target, r3.Vec{}, 0)
}

func TestTap_DefaultConventionFlipsAxes(t *testing.T) {
	// Stored at z=+2; flip_yz places it at z=-2, in front of a camera at z=5.
	c := newTestController(t, nil, r3.Vec{X: 0, Y: 0, Z: 2})
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	snap, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)
	require.True(t, snap.Matched)
	testutil.AssertVecNear(t, snap.Target, r3.Vec{Z: -2}, 0)
}

func TestTap_OffCentrePointer(t *testing.T) {
	cfg := identityConfig()
	target := r3.Vec{X: 1.5, Y: -0.75, Z: -1}
	c := newTestController(t, cfg, target, r3.Vec{X: -3, Y: 2, Z: 0})
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	ndc, ok := pick.Project(target, cam.ViewProjection(testViewport.Aspect()))
	require.True(t, ok)
	pointer := pick.NDCToPixel(ndc, testViewport)

	snap, err := c.Tap(context.Background(), pointer, testViewport, cam)
	require.NoError(t, err)
	require.True(t, snap.Matched)
	assert.Equal(t, 0, snap.SourceIndex)
	assert.InDelta(t, 0, snap.MarkerOffsetPx, 1e-6)
	assert.True(t, snap.MarkerOnTarget)
}

func TestTap_NoMatchBehindCamera(t *testing.T) {
	c := newTestController(t, identityConfig(), r3.Vec{Z: 10})
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	snap, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)
	assert.False(t, snap.Matched)
	assert.False(t, snap.MarkerVisible)
	assert.Equal(t, 1, snap.Sampled)

	_, ok := c.FocusTarget()
	assert.False(t, ok)
}

func TestTap_MaxDistanceRejectsFarPoints(t *testing.T) {
	cfg := identityConfig()
	maxSq := 0.01
	cfg.MaxDistanceSquared = &maxSq
	c := newTestController(t, cfg, r3.Vec{X: 1, Y: 0, Z: 0})
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	snap, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)
	assert.False(t, snap.Matched)
}

func TestTap_UsesStrideForLargeClouds(t *testing.T) {
	cfg := identityConfig()
	target := 100
	cfg.TargetSampleCount = &target

	cloud := pointcloud.Synthetic(3, 10000)
	c, err := NewController(cloud, cfg)
	require.NoError(t, err)

	cam := c.Camera(r3.Vec{X: 0, Y: 4, Z: 12}, r3.Vec{})
	snap, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)

	assert.Equal(t, 100, snap.Stride)
	assert.Equal(t, 100, snap.Sampled)
	assert.Len(t, c.LastSamples(), 300)
	if snap.Matched {
		assert.Zero(t, snap.SourceIndex%snap.Stride, "matched index must lie on the stride walk")
	}
}

func TestSnapshot_IsolatedCopies(t *testing.T) {
	c := newTestController(t, identityConfig(), r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	_, ok := c.Snapshot()
	assert.False(t, ok, "no snapshot before first tap")

	_, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)
	first, ok := c.Snapshot()
	require.True(t, ok)

	ndc, _ := pick.Project(r3.Vec{X: 1, Y: 1, Z: 1}, cam.ViewProjection(testViewport.Aspect()))
	_, err = c.Tap(context.Background(), pick.NDCToPixel(ndc, testViewport), testViewport, cam)
	require.NoError(t, err)
	second, _ := c.Snapshot()

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, 0, first.SourceIndex)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, 1, second.SourceIndex)
	assert.NotEqual(t, first.TapID, second.TapID)

	samples := c.LastSamples()
	samples[0] = 99
	assert.NotEqual(t, 99.0, c.LastSamples()[0], "LastSamples must return a copy")
}

func TestTap_Recorder(t *testing.T) {
	c := newTestController(t, identityConfig(), r3.Vec{})
	rec := &memRecorder{}
	c.SetRecorder(rec)
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	snap, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)
	require.Len(t, rec.snaps, 1)
	assert.Equal(t, snap, rec.snaps[0])

	// Recording failures are logged, not returned.
	rec.err = errors.New("disk full")
	_, err = c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)
	assert.Len(t, rec.snaps, 2)

	c.SetRecorder(nil)
	_, err = c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
	require.NoError(t, err)
	assert.Len(t, rec.snaps, 2)
}

func TestTap_Errors(t *testing.T) {
	c := newTestController(t, identityConfig(), r3.Vec{})
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Tap(ctx, testViewport.Center(), testViewport, cam)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.Tap(context.Background(), pick.Pixel{}, pick.Viewport{}, cam)
	assert.Error(t, err)

	// Eye on target gives a NaN view matrix.
	_, err = c.Tap(context.Background(), testViewport.Center(), testViewport, c.Camera(r3.Vec{}, r3.Vec{}))
	assert.Error(t, err)

	_, ok := c.Snapshot()
	assert.False(t, ok, "failed taps must not produce snapshots")
}

func TestNewController_Validation(t *testing.T) {
	_, err := NewController(nil, nil)
	assert.Error(t, err)

	_, err = NewController(&pointcloud.Cloud{}, nil)
	assert.ErrorIs(t, err, pick.ErrInvalidPointCount)

	bad := config.EmptyPickConfig()
	zero := 0
	bad.TargetSampleCount = &zero
	_, err = NewController(pointcloud.FromPositions([]r3.Vec{{}}), bad)
	assert.Error(t, err)
}

func TestTap_Concurrent(t *testing.T) {
	c := newTestController(t, identityConfig(), r3.Vec{}, r3.Vec{X: 2})
	cam := c.Camera(r3.Vec{Z: 5}, r3.Vec{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := c.Tap(context.Background(), testViewport.Center(), testViewport, cam)
			if err != nil || !snap.Matched || snap.SourceIndex != 0 {
				t.Errorf("concurrent tap: snap=%+v err=%v", snap, err)
			}
		}()
	}
	wg.Wait()

	last, ok := c.Snapshot()
	require.True(t, ok)
	assert.Equal(t, uint64(16), last.Seq)
}
