package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSourceFile 表示真实源文件不存在或内容为空，errors.Is 可直接匹配。
	ErrMissingSourceFile = errors.New("missing source file")
	// ErrEmptyFilePath 表示请求没有提供源文件路径。
	ErrEmptyFilePath = errors.New("file path required")
	// ErrEmptyBaseDir 表示构建 Cache 时缺少缓存目录。
	ErrEmptyBaseDir = errors.New("cache directory required")
	// ErrInvalidExtension 表示扩展名含路径分隔符或 ".."，会让缓存文件离开源文件目录。
	ErrInvalidExtension = errors.New("invalid artifact extension")
	// ErrSourceOutsideProject 表示启用 WithConfinedSources 后，真实源文件位于项目根目录之外。
	ErrSourceOutsideProject = errors.New("source file outside project root")
)

// MissingSourceFileError 携带项目相对的源文件路径，便于 CLI/HTTP 层反馈。
type MissingSourceFileError struct {
	Path string
}

func (e *MissingSourceFileError) Error() string {
	return fmt.Sprintf("missing source file: %s", e.Path)
}

func (e *MissingSourceFileError) Is(target error) bool {
	return target == ErrMissingSourceFile
}

// SourceOutsideProjectError 携带被拒绝的源文件路径。
type SourceOutsideProjectError struct {
	Path string
}

func (e *SourceOutsideProjectError) Error() string {
	return fmt.Sprintf("source file outside project root: %s", e.Path)
}

func (e *SourceOutsideProjectError) Is(target error) bool {
	return target == ErrSourceOutsideProject
}
