package record

import (
	"os"
	"path/filepath"
	"testing"
)

func TestChunkStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cs, err := NewChunkStore(dir, 2)
	if err != nil {
		t.Fatal(err)
	}

	// five frames with a two-frame chunk size: two full chunks plus a
	// partial one flushed on close.
	for frame := 0; frame < 5; frame++ {
		if err := cs.WriteFrame(frame, snaps(0, 1, 2)); err != nil {
			t.Fatal(err)
		}
	}
	if err := cs.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("wrote %d chunks, want 3", len(entries))
	}

	seen := make(map[uint32]bool)
	for _, e := range entries {
		frames, err := ReadChunk(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		for f, bodies := range frames {
			if seen[f] {
				t.Fatalf("frame %d appears in two chunks", f)
			}
			seen[f] = true
			if len(bodies) != 3 {
				t.Errorf("frame %d holds %d bodies, want 3", f, len(bodies))
			}
			if got := bodies[2].X; got != 200 {
				t.Errorf("frame %d body 2 x = %g, want 200", f, got)
			}
		}
	}
	for f := uint32(0); f < 5; f++ {
		if !seen[f] {
			t.Errorf("frame %d missing from chunks", f)
		}
	}
}

func TestNewChunkStoreValidation(t *testing.T) {
	if _, err := NewChunkStore(t.TempDir(), 0); err == nil {
		t.Error("zero chunk size accepted")
	}
}

func TestReadChunkMissing(t *testing.T) {
	if _, err := ReadChunk(filepath.Join(t.TempDir(), "nope.chunk")); err == nil {
		t.Error("missing chunk read succeeded")
	}
}
