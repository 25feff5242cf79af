package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/artcache/internal/cache"
	"github.com/any-hub/artcache/internal/profile"
)

func TestEncodeProfilesSortsAndFlagsBuiltins(t *testing.T) {
	encoded := encodeProfiles([]profile.Profile{
		{Key: "vue", Extension: ".vue.js"},
		{Key: "css", Extension: ".css"},
	})
	if len(encoded) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(encoded))
	}
	if encoded[0].Key != "css" || !encoded[0].Builtin {
		t.Fatalf("expected builtin css first, got %+v", encoded[0])
	}
	if encoded[1].Key != "vue" || encoded[1].Builtin {
		t.Fatalf("expected custom vue second, got %+v", encoded[1])
	}
}

func TestProfileDetailRoute(t *testing.T) {
	app := newDiagnosticsApp(t, &fakeStats{})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/profiles/DTS", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload profilePayload
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Extension != ".d.ts" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/-/profiles/cobol", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown profile, got %d", resp.StatusCode)
	}
}

func TestStatsRoute(t *testing.T) {
	app := newDiagnosticsApp(t, &fakeStats{stats: cache.Stats{Dir: "/p/.cache", Folders: 2, Artifacts: 3, TotalBytes: 42}})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/stats", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	var stats cache.Stats
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if stats.Artifacts != 3 || stats.TotalBytes != 42 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	failing := newDiagnosticsApp(t, &fakeStats{err: errors.New("boom")})
	resp, err = failing.Test(httptest.NewRequest("GET", "/-/stats", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func newDiagnosticsApp(t *testing.T, stats *fakeStats) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterDiagnosticsRoutes(app, builtinCatalog{}, stats)
	return app
}

type builtinCatalog struct{}

func (builtinCatalog) ProfileList() []profile.Profile { return profile.List() }

func (builtinCatalog) ResolveProfile(name string) (profile.Profile, error) {
	if p, ok := profile.Resolve(name); ok {
		return p, nil
	}
	return profile.Profile{}, errors.New("unknown profile")
}

type fakeStats struct {
	stats cache.Stats
	err   error
}

func (f *fakeStats) Stats(context.Context) (cache.Stats, error) {
	return f.stats, f.err
}
