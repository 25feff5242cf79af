package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/artcache/internal/cache"
	"github.com/any-hub/artcache/internal/logging"
	"github.com/any-hub/artcache/internal/profile"
	"github.com/any-hub/artcache/internal/projectroot"
)

// cacheRequestPayload 是 /cache/* 的 JSON 请求体。fileContent 缺省（而非空串）
// 表示真实源文件；fileExtension 缺省时按 profile（或默认 profile）解析。
type cacheRequestPayload struct {
	FilePath      string  `json:"filePath"`
	FileContent   *string `json:"fileContent,omitempty"`
	FileExtension *string `json:"fileExtension,omitempty"`
	Profile       string  `json:"profile,omitempty"`
	Artifact      *string `json:"artifact,omitempty"`
}

type cacheHandler struct {
	logger   *logrus.Logger
	cache    ArtifactCache
	profiles ProfileResolver
}

func (h *cacheHandler) get(c fiber.Ctx) error {
	payload, req, err := h.decode(c)
	if err != nil {
		return h.renderError(c, "get", payload, err)
	}

	artifact, ok, err := h.cache.Get(requestContext(c), req)
	if err != nil {
		return h.renderError(c, "get", payload, err)
	}
	h.logOperation(c, "get", payload, req, ok)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "cache_miss"})
	}
	return c.JSON(fiber.Map{"artifact": artifact})
}

func (h *cacheHandler) set(c fiber.Ctx) error {
	payload, req, err := h.decode(c)
	if err != nil {
		return h.renderError(c, "set", payload, err)
	}
	if payload.Artifact == nil {
		return h.renderError(c, "set", payload, errArtifactRequired)
	}

	if err := h.cache.Set(requestContext(c), req, *payload.Artifact); err != nil {
		return h.renderError(c, "set", payload, err)
	}
	h.logOperation(c, "set", payload, req, false)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *cacheHandler) clear(c fiber.Ctx) error {
	payload, req, err := h.decode(c)
	if err != nil {
		return h.renderError(c, "clear", payload, err)
	}

	if err := h.cache.Clear(requestContext(c), req); err != nil {
		return h.renderError(c, "clear", payload, err)
	}
	h.logOperation(c, "clear", payload, req, false)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *cacheHandler) locate(c fiber.Ctx) error {
	payload, req, err := h.decode(c)
	if err != nil {
		return h.renderError(c, "locate", payload, err)
	}

	path, err := h.cache.Locate(requestContext(c), req)
	if err != nil {
		return h.renderError(c, "locate", payload, err)
	}
	return c.JSON(fiber.Map{"path": path})
}

var (
	errInvalidPayload   = errors.New("invalid_payload")
	errArtifactRequired = errors.New("artifact_required")
	errUnknownProfile   = errors.New("unknown_profile")
)

// decode 将 JSON 请求体转换为 cache.Request：fileContent 存在即虚拟源。
func (h *cacheHandler) decode(c fiber.Ctx) (cacheRequestPayload, cache.Request, error) {
	var payload cacheRequestPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return payload, cache.Request{}, errInvalidPayload
	}
	if strings.TrimSpace(payload.FilePath) == "" {
		return payload, cache.Request{}, cache.ErrEmptyFilePath
	}

	var ext string
	if payload.FileExtension != nil {
		ext = profile.NormalizeExtension(*payload.FileExtension)
	} else {
		p, err := h.profiles.ResolveProfile(payload.Profile)
		if err != nil {
			return payload, cache.Request{}, errUnknownProfile
		}
		ext = p.Extension
	}

	if payload.FileContent != nil {
		return payload, cache.Virtual(payload.FilePath, *payload.FileContent, ext), nil
	}
	return payload, cache.Real(payload.FilePath, ext), nil
}

// renderError 按错误种类映射 HTTP 状态，调用方据此区分“源文件缺失”与“缓存未命中”。
func (h *cacheHandler) renderError(c fiber.Ctx, op string, payload cacheRequestPayload, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"
	var missing *cache.MissingSourceFileError

	switch {
	case errors.Is(err, errInvalidPayload), errors.Is(err, errArtifactRequired), errors.Is(err, errUnknownProfile):
		status = fiber.StatusBadRequest
		code = err.Error()
	case errors.Is(err, cache.ErrEmptyFilePath):
		status = fiber.StatusBadRequest
		code = "file_path_required"
	case errors.Is(err, cache.ErrInvalidExtension):
		status = fiber.StatusBadRequest
		code = "invalid_extension"
	case errors.Is(err, cache.ErrSourceOutsideProject):
		status = fiber.StatusForbidden
		code = "source_outside_project"
	case errors.As(err, &missing):
		status = fiber.StatusUnprocessableEntity
		code = "missing_source_file"
	case errors.Is(err, projectroot.ErrNotFound):
		code = "project_root_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = fiber.StatusServiceUnavailable
		code = "request_cancelled"
	}

	fields := logrus.Fields{
		"action":     "cache_" + op,
		"file_path":  payload.FilePath,
		"request_id": RequestID(c),
		"status":     status,
		"error":      err.Error(),
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.WithFields(fields).Error("cache request failed")
	} else {
		h.logger.WithFields(fields).Warn("cache request rejected")
	}

	body := fiber.Map{"error": code}
	if missing != nil {
		body["path"] = missing.Path
	}
	return c.Status(status).JSON(body)
}

func (h *cacheHandler) logOperation(c fiber.Ctx, op string, payload cacheRequestPayload, req cache.Request, hit bool) {
	fields := logging.CacheFields(op, payload.FilePath, req.Extension, payload.FileContent != nil, hit)
	fields["request_id"] = RequestID(c)
	h.logger.WithFields(fields).Info("cache request")
}

func requestContext(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
