package cache

import "context"

// Store 是缓存层依赖的最底层文本读写原语，路径均为绝对路径：
//
//	Read      → 读取 UTF-8 文本；文件不存在（或是目录）时返回 ok=false 而非 error
//	Write     → 自动创建父目录，临时文件 + rename 覆盖写入
//	RemoveAll → 递归删除目录，不存在时视为成功
//
// 除“不存在”以外的任何 I/O 错误都原样返回给调用方。
type Store interface {
	Read(ctx context.Context, path string) (content string, ok bool, err error)
	Write(ctx context.Context, path string, content string) error
	RemoveAll(ctx context.Context, dir string) error
}
