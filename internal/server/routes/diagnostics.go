package routes

import (
	"context"
	"sort"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/artcache/internal/cache"
	"github.com/any-hub/artcache/internal/profile"
)

// ProfileCatalog 提供诊断端点需要的 profile 列表与查询。
type ProfileCatalog interface {
	ProfileList() []profile.Profile
	ResolveProfile(name string) (profile.Profile, error)
}

// StatsSource 汇报缓存目录占用。
type StatsSource interface {
	Stats(ctx context.Context) (cache.Stats, error)
}

// RegisterDiagnosticsRoutes 暴露 /-/profiles 与 /-/stats 诊断接口，供构建脚本或运维查询。
func RegisterDiagnosticsRoutes(app *fiber.App, catalog ProfileCatalog, stats StatsSource) {
	if app == nil || catalog == nil || stats == nil {
		return
	}

	app.Get("/-/profiles", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"profiles": encodeProfiles(catalog.ProfileList()),
		})
	})

	app.Get("/-/profiles/:key", func(c fiber.Ctx) error {
		key := profile.NormalizeKey(c.Params("key"))
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "profile_key_required"})
		}
		p, err := catalog.ResolveProfile(key)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "profile_not_found"})
		}
		return c.JSON(encodeProfile(p))
	})

	app.Get("/-/stats", func(c fiber.Ctx) error {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := stats.Stats(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
		}
		return c.JSON(s)
	})
}

type profilePayload struct {
	Key         string `json:"key"`
	Extension   string `json:"extension"`
	Description string `json:"description,omitempty"`
	Builtin     bool   `json:"builtin"`
}

func encodeProfiles(items []profile.Profile) []profilePayload {
	if len(items) == 0 {
		return nil
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Key < items[j].Key
	})
	result := make([]profilePayload, 0, len(items))
	for _, p := range items {
		result = append(result, encodeProfile(p))
	}
	return result
}

func encodeProfile(p profile.Profile) profilePayload {
	registered, ok := profile.Resolve(p.Key)
	builtin := ok && registered.Extension == p.Extension
	return profilePayload{
		Key:         p.Key,
		Extension:   p.Extension,
		Description: p.Description,
		Builtin:     builtin,
	}
}
