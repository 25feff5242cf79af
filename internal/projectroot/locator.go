// Package projectroot 负责定位项目根目录：从起始目录逐级向上查找标记文件
// （例如 package.json / go.mod），返回其所在目录。缓存层以该目录作为所有
// 相对路径的基准。
package projectroot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultMarker 是未配置时使用的标记文件名。
const DefaultMarker = "package.json"

// ErrNotFound 表示向上查找到文件系统根仍未发现标记文件。
var ErrNotFound = errors.New("project root not found")

// NotFoundError 记录查找失败时的标记文件与起点，errors.Is 可匹配 ErrNotFound。
type NotFoundError struct {
	Marker string
	Start  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project root not found: no %s above %s", e.Marker, e.Start)
}

// Is 让调用方无需关心具体类型即可判断根目录缺失。
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Locator 返回项目根目录的绝对路径。
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

// MarkerLocator 通过标记文件查找根目录。Fs 为空时使用真实文件系统，
// Start 为空时从当前工作目录开始。
type MarkerLocator struct {
	Marker string
	Start  string
	Fs     afero.Fs
}

// NewMarkerLocator 构造基于真实文件系统的查找器。
func NewMarkerLocator(marker, start string) *MarkerLocator {
	return &MarkerLocator{Marker: marker, Start: start}
}

func (l *MarkerLocator) Locate(ctx context.Context) (string, error) {
	marker := l.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	start := l.Start
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		start = wd
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		info, err := fs.Stat(filepath.Join(dir, marker))
		if err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &NotFoundError{Marker: marker, Start: start}
		}
		dir = parent
	}
}

// Fixed 返回总是给出 dir 的 Locator，用于配置中显式指定的 ProjectRoot。
func Fixed(dir string) Locator {
	return fixedLocator(dir)
}

type fixedLocator string

func (f fixedLocator) Locate(context.Context) (string, error) {
	if f == "" {
		return "", &NotFoundError{Marker: "(fixed)", Start: ""}
	}
	abs, err := filepath.Abs(string(f))
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	return abs, nil
}
