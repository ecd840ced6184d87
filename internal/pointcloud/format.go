package pointcloud

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/tapfocus/internal/fsutil"
)

// Magic identifies an F16P file: "F16P", a little-endian uint32 point
// count, then 3*count little-endian binary16 values.
const Magic = "F16P"

const headerSize = 8

// maxPoints bounds the count read from a header before allocating.
const maxPoints = 1 << 28

// ErrBadMagic is returned when a file does not start with Magic.
var ErrBadMagic = errors.New("not an F16P point cloud")

// Load reads a cloud in F16P format.
func Load(r io.Reader) (*Cloud, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(hdr[:4]) != Magic {
		return nil, ErrBadMagic
	}
	count := binary.LittleEndian.Uint32(hdr[4:])
	if count == 0 || count > maxPoints {
		return nil, fmt.Errorf("invalid point count %d", count)
	}

	enc := make([]uint16, int(count)*3)
	if err := binary.Read(r, binary.LittleEndian, enc); err != nil {
		return nil, fmt.Errorf("failed to read %d points: %w", count, err)
	}
	return &Cloud{Encoded: enc, Count: int(count)}, nil
}

// LoadFile reads an F16P file from disk.
func LoadFile(path string) (*Cloud, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS reads an F16P file from fsys.
func LoadFS(fsys fsutil.FileSystem, path string) (*Cloud, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open point cloud: %w", err)
	}
	defer f.Close()

	c, err := Load(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Write encodes c in F16P format.
func Write(w io.Writer, c *Cloud) error {
	if err := c.Validate(); err != nil {
		return err
	}
	var hdr [headerSize]byte
	copy(hdr[:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(c.Count))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, c.Encoded); err != nil {
		return fmt.Errorf("failed to write points: %w", err)
	}
	return nil
}

// WriteFile writes c to path on disk, replacing any existing file.
func WriteFile(path string, c *Cloud) error {
	return WriteFS(fsutil.OSFileSystem{}, path, c)
}

// WriteFS writes c to path in fsys, creating parent directories.
func WriteFS(fsys fsutil.FileSystem, path string, c *Cloud) error {
	if dir := filepath.Dir(path); !fsys.Exists(dir) {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create point cloud: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, c); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush point cloud: %w", err)
	}
	return f.Close()
}
