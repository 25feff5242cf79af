package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/any-hub/artcache/internal/cache"
	"github.com/any-hub/artcache/internal/config"
)

func TestServeFlagsOverridePort(t *testing.T) {
	cfgPath, _ := projectConfig(t)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	flags := &serveFlags{}
	cmd := &cobra.Command{Use: "serve"}
	flags.bind(cmd)
	flags.apply(cmd, cfg)
	if cfg.Global.ListenPort != 5100 {
		t.Fatalf("未传 --port 时应保留配置端口，得到 %d", cfg.Global.ListenPort)
	}

	if err := cmd.ParseFlags([]string{"--port", "6200"}); err != nil {
		t.Fatalf("解析 flag 失败: %v", err)
	}
	flags.apply(cmd, cfg)
	if cfg.Global.ListenPort != 6200 {
		t.Fatalf("--port 应覆盖配置端口，得到 %d", cfg.Global.ListenPort)
	}
}

func TestBuildServeAppWiresCacheAndDiagnostics(t *testing.T) {
	cfgPath, projectDir := projectConfig(t)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	app, root, err := buildServeApp(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("构建服务失败: %v", err)
	}
	if root != projectDir {
		t.Fatalf("项目根目录应为 %s，得到 %s", projectDir, root)
	}

	resp := serveRequest(t, app, "POST", "/cache/set", `{"filePath":"src/a.ts","fileContent":"let a","artifact":"var a"}`)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("set 应返回 204，得到 %d", resp.StatusCode)
	}
	want := filepath.Join(projectDir, ".artcache", "src-a", cache.Hash("let a")+".js")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("缓存文件应位于 %s: %v", want, err)
	}

	resp = serveRequest(t, app, "GET", "/-/profiles/js", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("profile 诊断接口应返回 200，得到 %d", resp.StatusCode)
	}
	resp = serveRequest(t, app, "GET", "/-/stats", "")
	if body := readAll(t, resp); !strings.Contains(body, `"artifacts":1`) {
		t.Fatalf("stats 应统计到 1 个产物: %s", body)
	}
}

func TestBuildServeAppConfinesRealSources(t *testing.T) {
	cfgPath, _ := projectConfig(t)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o600); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}

	app, _, err := buildServeApp(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("构建服务失败: %v", err)
	}
	resp := serveRequest(t, app, "POST", "/cache/locate", `{"filePath":"`+outside+`"}`)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("项目外的真实源文件应返回 403，得到 %d", resp.StatusCode)
	}
}

func TestBuildServeAppFailsWithoutProjectRoot(t *testing.T) {
	cfg := &config.Config{Global: config.GlobalConfig{
		ListenPort:      5100,
		CacheDir:        ".artcache",
		ProjectMarker:   "artcache-marker-that-does-not-exist.json",
		DefaultProfile:  "js",
		MaxArtifactSize: 1 << 20,
	}}
	if _, _, err := buildServeApp(context.Background(), cfg, quietLogger()); err == nil {
		t.Fatalf("找不到项目根目录时应在监听前失败")
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func serveRequest(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test 失败: %v", err)
	}
	return resp
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("读取响应失败: %v", err)
	}
	return string(data)
}
