package record

import (
	"compress/zlib"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quillaja/gravity"
)

/*

chunked compressed gob frame store. frames buffer in memory until a
chunk's worth arrive, then flush as one zlib-compressed gob file named
by the chunk's last frame. float32 is plenty for playback and halves
the footprint.

*/

// Compact is the playback form of one body.
type Compact struct {
	X, Y, Z      float32
	Mass, Radius float32
}

// Frames maps frame number -> body slot -> compact body.
type Frames map[uint32]map[uint32]Compact

// ChunkStore buffers frames and flushes fixed-size chunks to dir. it is
// a single-writer sink: frames arrive from the one simulation loop.
type ChunkStore struct {
	dir  string
	size int
	buf  Frames
	last uint32
}

// NewChunkStore creates dir if needed and returns a store flushing
// every framesPerChunk frames.
func NewChunkStore(dir string, framesPerChunk int) (*ChunkStore, error) {
	if framesPerChunk < 1 {
		return nil, fmt.Errorf("record: frames per chunk must be positive, got %d", framesPerChunk)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("record: create %s: %w", dir, err)
	}
	return &ChunkStore{dir: dir, size: framesPerChunk, buf: make(Frames, framesPerChunk)}, nil
}

// WriteFrame buffers one frame, flushing a chunk when full.
func (s *ChunkStore) WriteFrame(frame int, bodies []gravity.Snapshot) error {
	fd := make(map[uint32]Compact, len(bodies))
	for _, b := range bodies {
		fd[uint32(b.ID)] = Compact{
			X:      float32(b.Pos[0]),
			Y:      float32(b.Pos[1]),
			Z:      float32(b.Pos[2]),
			Mass:   float32(b.Mass),
			Radius: float32(b.Radius),
		}
	}
	s.buf[uint32(frame)] = fd
	if uint32(frame) > s.last {
		s.last = uint32(frame)
	}
	if len(s.buf) >= s.size {
		return s.flush()
	}
	return nil
}

// Close flushes any buffered partial chunk.
func (s *ChunkStore) Close() error {
	if len(s.buf) == 0 {
		return nil
	}
	return s.flush()
}

func (s *ChunkStore) flush() error {
	name := filepath.Join(s.dir, fmt.Sprintf("%010d.chunk", s.last))
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("record: create chunk: %w", err)
	}
	defer file.Close()

	zw := zlib.NewWriter(file)
	if err := gob.NewEncoder(zw).Encode(s.buf); err != nil {
		zw.Close()
		os.Remove(name)
		return fmt.Errorf("record: encode chunk %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("record: close chunk %s: %w", name, err)
	}

	s.buf = make(Frames, s.size)
	return nil
}

// ReadChunk loads one chunk file back into frame form.
func ReadChunk(path string) (Frames, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("record: open chunk: %w", err)
	}
	defer file.Close()

	zr, err := zlib.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("record: read chunk %s: %w", path, err)
	}
	defer zr.Close()

	var frames Frames
	if err := gob.NewDecoder(zr).Decode(&frames); err != nil {
		return nil, fmt.Errorf("record: decode chunk %s: %w", path, err)
	}
	return frames, nil
}
