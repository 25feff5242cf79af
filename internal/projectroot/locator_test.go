package projectroot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestMarkerLocatorWalksUpward(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/work/app/src/deep", 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if err := afero.WriteFile(fs, "/work/app/package.json", []byte("{}"), 0o644); err != nil {
		t.Fatalf("write marker error: %v", err)
	}

	locator := &MarkerLocator{Marker: "package.json", Start: "/work/app/src/deep", Fs: fs}
	root, err := locator.Locate(context.Background())
	if err != nil {
		t.Fatalf("locate error: %v", err)
	}
	if root != "/work/app" {
		t.Fatalf("unexpected root: %s", root)
	}
}

func TestMarkerLocatorStopsAtNearestMarker(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/outer/inner", 0o755)
	_ = afero.WriteFile(fs, "/outer/go.mod", []byte("module outer"), 0o644)
	_ = afero.WriteFile(fs, "/outer/inner/go.mod", []byte("module inner"), 0o644)

	root, err := (&MarkerLocator{Marker: "go.mod", Start: "/outer/inner", Fs: fs}).Locate(context.Background())
	if err != nil {
		t.Fatalf("locate error: %v", err)
	}
	if root != "/outer/inner" {
		t.Fatalf("expected nearest marker directory, got %s", root)
	}
}

func TestMarkerLocatorIgnoresMarkerDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/repo/pkg/package.json", 0o755)
	_ = afero.WriteFile(fs, "/repo/package.json", []byte("{}"), 0o644)

	root, err := (&MarkerLocator{Marker: "package.json", Start: "/repo/pkg", Fs: fs}).Locate(context.Background())
	if err != nil {
		t.Fatalf("locate error: %v", err)
	}
	if root != "/repo" {
		t.Fatalf("directory named like the marker must be skipped, got %s", root)
	}
}

func TestMarkerLocatorNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/nowhere/at/all", 0o755)

	_, err := (&MarkerLocator{Marker: "package.json", Start: "/nowhere/at/all", Fs: fs}).Locate(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Marker != "package.json" {
		t.Fatalf("expected NotFoundError carrying marker, got %#v", err)
	}
}

func TestMarkerLocatorOnDisk(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "artcache.marker"), nil, 0o644); err != nil {
		t.Fatalf("write marker error: %v", err)
	}

	root, err := NewMarkerLocator("artcache.marker", nested).Locate(context.Background())
	if err != nil {
		t.Fatalf("locate error: %v", err)
	}
	if root != dir {
		t.Fatalf("expected %s, got %s", dir, root)
	}
}

func TestFixedLocator(t *testing.T) {
	root, err := Fixed("/srv/project").Locate(context.Background())
	if err != nil {
		t.Fatalf("fixed locate error: %v", err)
	}
	if root != "/srv/project" {
		t.Fatalf("unexpected root: %s", root)
	}
	if _, err := Fixed("").Locate(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty fixed root should report ErrNotFound, got %v", err)
	}
}
