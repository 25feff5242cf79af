package cache

import (
	"fmt"
	"path/filepath"
	"strings"
)

// location 是一次请求解析出的缓存位置。
type location struct {
	folder string // <root>/<baseDir>/<FolderName>
	file   string // folder/<Hash><ext>
}

// cacheRootDir 将缓存目录解析为绝对路径。项目内的绝对路径与相对路径等价；
// 项目外的绝对路径直接使用。
func cacheRootDir(projectRoot, baseDir string) string {
	return anchor(projectRoot, baseDir)
}

// sourceDiskPath 返回读取真实源文件时使用的绝对路径。
func sourceDiskPath(projectRoot, filePath string) string {
	return anchor(projectRoot, filePath)
}

func anchor(projectRoot, p string) string {
	rel := NormalizeToProjectRelative(p, projectRoot)
	if filepath.IsAbs(p) && rel == p {
		return filepath.Clean(p)
	}
	return filepath.Join(projectRoot, rel)
}

// withinRoot 判断已清理的绝对路径是否位于 projectRoot 之下。
func withinRoot(projectRoot, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(projectRoot), p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// validateExtension 拒绝会改变缓存文件所在目录的扩展名。
func validateExtension(ext string) error {
	if strings.ContainsAny(ext, `/\`) || strings.Contains(ext, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return nil
}

// resolveFolder 返回某个源文件所有缓存修订共享的目录。
func resolveFolder(projectRoot, baseDir, normalizedPath string) (string, error) {
	name := FolderName(normalizedPath)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q does not name a file", ErrEmptyFilePath, normalizedPath)
	}
	return filepath.Join(cacheRootDir(projectRoot, baseDir), name), nil
}

// resolveLocation 是 Get/Set/Clear 唯一的路径构造入口，缓存文件总是落在 folder 的直接子级。
func resolveLocation(projectRoot, baseDir, normalizedPath, content, ext string) (location, error) {
	if err := validateExtension(ext); err != nil {
		return location{}, err
	}
	folder, err := resolveFolder(projectRoot, baseDir, normalizedPath)
	if err != nil {
		return location{}, err
	}
	file := filepath.Join(folder, FileName(content, ext))
	if filepath.Dir(file) != folder {
		return location{}, fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return location{folder: folder, file: file}, nil
}
