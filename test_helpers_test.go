package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

var repoRoot string

func init() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return
	}
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			repoRoot = dir
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func moduleRoot(t *testing.T) string {
	t.Helper()
	if repoRoot == "" {
		t.Fatal("无法定位仓库根目录")
	}
	return repoRoot
}

func configFixture(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(moduleRoot(t), "internal", "config", "testdata", name)
}

// projectConfig 创建一个临时项目目录，并写入以其为 ProjectRoot 的配置文件。
func projectConfig(t *testing.T) (configPath, projectDir string) {
	t.Helper()
	projectDir = t.TempDir()
	content := fmt.Sprintf("ProjectRoot = %q\nCacheDir = \".artcache\"\nLogLevel = \"warn\"\n", projectDir)
	configPath = filepath.Join(t.TempDir(), "artcache.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return configPath, projectDir
}
