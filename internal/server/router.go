package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/artcache/internal/cache"
	"github.com/any-hub/artcache/internal/profile"
)

// ArtifactCache 是 HTTP 层依赖的缓存能力，*cache.Cache 直接满足该接口。
type ArtifactCache interface {
	Get(ctx context.Context, req cache.Request) (string, bool, error)
	Set(ctx context.Context, req cache.Request, artifact string) error
	Clear(ctx context.Context, req cache.Request) error
	Locate(ctx context.Context, req cache.Request) (string, error)
	Stats(ctx context.Context) (cache.Stats, error)
}

// ProfileResolver 将 profile 名解析为扩展名，*config.Config 满足该接口。
type ProfileResolver interface {
	ResolveProfile(name string) (profile.Profile, error)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger         *logrus.Logger
	Cache          ArtifactCache
	Profiles       ProfileResolver
	ListenPort     int
	RequestTimeout time.Duration
	BodyLimit      int
}

const contextKeyRequestID = "_artcache_request_id"

// NewApp builds a Fiber application with request-ID middleware, panic
// recovery and the /cache/* handlers.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("profile resolver is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	cfg := fiber.Config{
		CaseSensitive: true,
		ReadTimeout:   opts.RequestTimeout,
	}
	if opts.BodyLimit > 0 {
		cfg.BodyLimit = opts.BodyLimit
	}
	app := fiber.New(cfg)

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	h := &cacheHandler{
		logger:   opts.Logger,
		cache:    opts.Cache,
		profiles: opts.Profiles,
	}
	group := app.Group("/cache")
	group.Post("/get", h.get)
	group.Post("/set", h.set)
	group.Post("/clear", h.clear)
	group.Post("/locate", h.locate)

	return app, nil
}

// requestContextMiddleware 为每个请求生成请求 ID 并写回响应头。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
