package cache

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/artcache/internal/projectroot"
)

// Cache 以 baseDir（绝对路径或项目相对路径）为缓存目录。实例在进程生命周期内
// 复用，唯一的可变状态是首次使用时解析并记住的项目根目录。
type Cache struct {
	baseDir string
	fs      afero.Fs
	store   Store
	locator projectroot.Locator
	logger  logrus.FieldLogger

	confineSources bool

	rootMu    sync.Mutex
	root      string
	rootGroup singleflight.Group
}

// Option 调整 Cache 的协作者，主要用于注入内存文件系统或固定根目录。
type Option func(*Cache)

// WithFs 指定缓存与源文件读写使用的文件系统。
func WithFs(fsys afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fsys
	}
}

// WithLocator 指定项目根目录的查找方式。
func WithLocator(locator projectroot.Locator) Option {
	return func(c *Cache) {
		c.locator = locator
	}
}

// WithLogger 指定调试日志输出；默认丢弃。
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithConfinedSources 拒绝读取项目根目录之外的真实源文件，供对外提供服务时使用。
func WithConfinedSources() Option {
	return func(c *Cache) {
		c.confineSources = true
	}
}

// New 构建 Cache。未指定 Locator 时，从当前工作目录向上查找 package.json。
func New(baseDir string, opts ...Option) (*Cache, error) {
	if baseDir == "" {
		return nil, ErrEmptyBaseDir
	}
	c := &Cache{baseDir: baseDir}
	for _, opt := range opts {
		opt(c)
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.locator == nil {
		c.locator = &projectroot.MarkerLocator{Marker: projectroot.DefaultMarker, Fs: c.fs}
	}
	if c.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		c.logger = discard
	}
	c.store = NewStore(c.fs)
	return c, nil
}

// BaseDir 返回构造时传入的缓存目录。
func (c *Cache) BaseDir() string {
	return c.baseDir
}

// ProjectRoot 返回记忆化的项目根目录。并发的首次调用只触发一次查找；
// 查找失败不会被记住，下一次调用会重新尝试。
func (c *Cache) ProjectRoot(ctx context.Context) (string, error) {
	c.rootMu.Lock()
	root := c.root
	c.rootMu.Unlock()
	if root != "" {
		return root, nil
	}

	v, err, _ := c.rootGroup.Do("root", func() (interface{}, error) {
		c.rootMu.Lock()
		memo := c.root
		c.rootMu.Unlock()
		if memo != "" {
			return memo, nil
		}

		// 查找结果由所有等待者共享，不随首个调用方取消。
		found, err := c.locator.Locate(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		c.rootMu.Lock()
		c.root = found
		c.rootMu.Unlock()
		return found, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Get 返回缓存的产物。未命中时 ok=false 且 err=nil，调用方应重新计算。
func (c *Cache) Get(ctx context.Context, req Request) (artifact string, ok bool, err error) {
	loc, normalized, err := c.resolve(ctx, req)
	if err != nil {
		return "", false, err
	}

	artifact, ok, err = c.store.Read(ctx, loc.file)
	if err != nil {
		return "", false, err
	}
	c.logger.WithFields(logrus.Fields{
		"action":    "cache_get",
		"file_path": normalized,
		"artifact":  loc.file,
		"cache_hit": ok,
	}).Debug("cache lookup")
	return artifact, ok, nil
}

// Set 将产物写入请求对应的位置，已存在时静默覆盖。
func (c *Cache) Set(ctx context.Context, req Request, artifact string) error {
	loc, normalized, err := c.resolve(ctx, req)
	if err != nil {
		return err
	}
	if err := c.store.Write(ctx, loc.file, artifact); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{
		"action":    "cache_set",
		"file_path": normalized,
		"artifact":  loc.file,
		"bytes":     len(artifact),
	}).Debug("cache stored")
	return nil
}

// Clear 删除源文件对应的整个目录，即该文件所有内容修订的缓存；目录不存在时为空操作。
func (c *Cache) Clear(ctx context.Context, req Request) error {
	loc, normalized, err := c.resolve(ctx, req)
	if err != nil {
		return err
	}
	if err := c.store.RemoveAll(ctx, loc.folder); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{
		"action":    "cache_clear",
		"file_path": normalized,
		"folder":    loc.folder,
	}).Debug("cache cleared")
	return nil
}

// Locate 返回请求对应的缓存文件绝对路径，不读写该文件。
func (c *Cache) Locate(ctx context.Context, req Request) (string, error) {
	loc, _, err := c.resolve(ctx, req)
	if err != nil {
		return "", err
	}
	return loc.file, nil
}

// FolderPath 返回请求源文件的缓存目录绝对路径。
func (c *Cache) FolderPath(ctx context.Context, req Request) (string, error) {
	loc, _, err := c.resolve(ctx, req)
	if err != nil {
		return "", err
	}
	return loc.folder, nil
}

func (c *Cache) resolve(ctx context.Context, req Request) (location, string, error) {
	if err := validateExtension(req.Extension); err != nil {
		return location{}, "", err
	}
	root, err := c.ProjectRoot(ctx)
	if err != nil {
		return location{}, "", err
	}
	normalized, content, err := c.load(ctx, req, root)
	if err != nil {
		return location{}, "", err
	}
	loc, err := resolveLocation(root, c.baseDir, normalized, content, req.Extension)
	if err != nil {
		return location{}, "", err
	}
	return loc, normalized, nil
}
