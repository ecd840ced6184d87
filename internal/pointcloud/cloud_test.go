package pointcloud

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/tapfocus/internal/fsutil"
	"github.com/banshee-data/tapfocus/internal/pick"
)

func TestFromPositions_Position(t *testing.T) {
	c := FromPositions([]r3.Vec{
		{X: -1, Y: -2, Z: 3},
		{X: 4, Y: -0.5, Z: -2},
	})
	require.NoError(t, c.Validate())
	require.Equal(t, 2, c.Count)

	p, err := c.Position(1, pick.ConventionIdentity)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 4, Y: -0.5, Z: -2}, p)

	p, err = c.Position(0, pick.ConventionFlipYZ)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: -1, Y: 2, Z: -3}, p)

	_, err = c.Position(2, pick.ConventionIdentity)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = c.Position(-1, pick.ConventionIdentity)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestCloud_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cloud   Cloud
		wantErr error
	}{
		{"ok", Cloud{Encoded: make([]uint16, 6), Count: 2}, nil},
		{"empty", Cloud{}, pick.ErrInvalidPointCount},
		{"short", Cloud{Encoded: make([]uint16, 5), Count: 2}, pick.ErrBufferTooShort},
		{"long", Cloud{Encoded: make([]uint16, 7), Count: 2}, pick.ErrBufferTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cloud.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	orig := Synthetic(7, 500)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, orig))
	assert.Equal(t, 8+500*3*2, buf.Len())
	assert.Equal(t, Magic, buf.String()[:4])

	got, err := Load(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFile_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.f16p")
	orig := FromPositions([]r3.Vec{{X: 1, Y: 2, Z: 3}})

	require.NoError(t, WriteFile(path, orig))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig.Encoded, got.Encoded)
	assert.Equal(t, 1, got.Count)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.f16p"))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("XXXX\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00")},
		{"zero count", []byte("F16P\x00\x00\x00\x00")},
		{"truncated body", []byte("F16P\x02\x00\x00\x00\x00\x3c\x00\x3c")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(bytes.NewReader(tt.data))
			assert.Error(t, err)
		})
	}

	_, err := Load(bytes.NewReader([]byte("XXXX\x01\x00\x00\x00")))
	assert.True(t, errors.Is(err, ErrBadMagic))
}

func TestWrite_RejectsInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, &Cloud{Encoded: make([]uint16, 4), Count: 2})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestSynthetic_Deterministic(t *testing.T) {
	a := Synthetic(42, 1000)
	b := Synthetic(42, 1000)
	require.Equal(t, 1000, a.Count)
	assert.Equal(t, a.Encoded, b.Encoded)

	// Ground points sit on y=-1, sphere points on the unit sphere.
	p, err := a.Position(0, pick.ConventionIdentity)
	require.NoError(t, err)
	assert.Equal(t, -1.0, p.Y)

	p, err = a.Position(999, pick.ConventionIdentity)
	require.NoError(t, err)
	assert.InDelta(t, 1, r3.Norm(p), 2e-3)
}

func TestWriteFS_LoadFS_Memory(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	orig := Synthetic(11, 64)

	require.NoError(t, WriteFS(fsys, "clouds/scene.f16p", orig))
	assert.True(t, fsys.Exists("clouds"), "parent directory should be created")

	raw, ok := fsys.Bytes("clouds/scene.f16p")
	require.True(t, ok)
	assert.Len(t, raw, 8+64*6)

	got, err := LoadFS(fsys, "clouds/scene.f16p")
	require.NoError(t, err)
	assert.Equal(t, orig.Encoded, got.Encoded)

	_, err = LoadFS(fsys, "clouds/absent.f16p")
	assert.Error(t, err)
}
