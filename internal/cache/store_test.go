package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestStoreWriteAndRead(t *testing.T) {
	store := newTestStore(t)
	path := "/cache/someFile/abcdef0123.js"

	if err := store.Write(context.Background(), path, "payload"); err != nil {
		t.Fatalf("write error: %v", err)
	}

	body, ok, err := store.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !ok {
		t.Fatalf("expected stored file to be found")
	}
	if body != "payload" {
		t.Fatalf("stored payload mismatch: %s", body)
	}
}

func TestStoreReadMissing(t *testing.T) {
	store := newTestStore(t)
	body, ok, err := store.Read(context.Background(), "/cache/missing.js")
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if ok || body != "" {
		t.Fatalf("expected absent result, got ok=%v body=%q", ok, body)
	}
}

func TestStoreWriteOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)
	path := "/cache/a/file.js"

	for _, body := range []string{"first", "second"} {
		if err := store.Write(context.Background(), path, body); err != nil {
			t.Fatalf("write error: %v", err)
		}
	}
	body, _, _ := store.Read(context.Background(), path)
	if body != "second" {
		t.Fatalf("expected overwrite, got %q", body)
	}

	entries, err := afero.ReadDir(fs, "/cache/a")
	if err != nil {
		t.Fatalf("readdir error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files must not linger, found %d entries", len(entries))
	}
}

func TestStoreRemoveAll(t *testing.T) {
	store := newTestStore(t)
	for _, p := range []string{"/cache/f/one.js", "/cache/f/two.js"} {
		if err := store.Write(context.Background(), p, "data"); err != nil {
			t.Fatalf("write error: %v", err)
		}
	}
	if err := store.RemoveAll(context.Background(), "/cache/f"); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if _, ok, _ := store.Read(context.Background(), "/cache/f/one.js"); ok {
		t.Fatalf("expected folder contents removed")
	}
	if err := store.RemoveAll(context.Background(), "/cache/f"); err != nil {
		t.Fatalf("removing a missing folder should be a no-op: %v", err)
	}
}

func TestStoreIgnoresDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)
	if err := fs.MkdirAll("/cache/dir.js", 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if _, ok, err := store.Read(context.Background(), "/cache/dir.js"); err != nil || ok {
		t.Fatalf("expected absent result for directory, got ok=%v err=%v", ok, err)
	}
}

func TestStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(nil)
	path := filepath.Join(dir, "nested", "deeper", "artifact.txt")

	if err := store.Write(context.Background(), path, "compiled"); err != nil {
		t.Fatalf("write error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "compiled" {
		t.Fatalf("unexpected disk content: %s", string(data))
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Write(ctx, "/cache/x.js", "data"); err == nil {
		t.Fatalf("expected context error")
	}
}

// newTestStore returns a Store backed by an in-memory filesystem.
func newTestStore(t *testing.T) Store {
	t.Helper()
	return NewStore(afero.NewMemMapFs())
}
