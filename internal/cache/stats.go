package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Stats 汇总缓存目录的占用情况。
type Stats struct {
	Dir        string `json:"dir"`
	Folders    int    `json:"folders"`
	Artifacts  int    `json:"artifacts"`
	TotalBytes int64  `json:"total_bytes"`
}

// Stats 遍历缓存目录，统计源文件目录数、缓存文件数与总字节数。
// 写入过程中残留的临时文件不计入。缓存目录不存在时返回零值统计。
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	root, err := c.ProjectRoot(ctx)
	if err != nil {
		return Stats{}, err
	}
	dir := cacheRootDir(root, c.baseDir)
	stats := Stats{Dir: dir}

	if _, err := c.fs.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, err
	}

	err = afero.Walk(c.fs, dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if info.IsDir() {
			if filepath.Dir(path) == dir {
				stats.Folders++
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), tempFilePrefix) {
			return nil
		}
		stats.Artifacts++
		stats.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}
