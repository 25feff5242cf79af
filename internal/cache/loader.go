package cache

import "context"

// load 规范化源路径并给出参与哈希的内容。虚拟源直接使用调用方内容；
// 真实源通过 Store.Read 读取，读到“不存在”时才升级为 MissingSourceFileError。
func (c *Cache) load(ctx context.Context, req Request, projectRoot string) (normalizedPath, content string, err error) {
	source := derefSource(req.Source)
	if source == nil || source.SourcePath() == "" {
		return "", "", ErrEmptyFilePath
	}
	normalizedPath = NormalizeToProjectRelative(source.SourcePath(), projectRoot)

	switch src := source.(type) {
	case VirtualSource:
		content = src.Content
	case RealSource:
		diskPath := sourceDiskPath(projectRoot, src.Path)
		if c.confineSources && !withinRoot(projectRoot, diskPath) {
			return "", "", &SourceOutsideProjectError{Path: src.Path}
		}
		text, ok, err := c.store.Read(ctx, diskPath)
		if err != nil {
			return "", "", err
		}
		if !ok {
			return "", "", &MissingSourceFileError{Path: normalizedPath}
		}
		content = text
	}

	if content == "" {
		return "", "", &MissingSourceFileError{Path: normalizedPath}
	}
	return normalizedPath, content, nil
}

// derefSource 将指针形态的源展开为值；nil 指针视为未提供源。
func derefSource(s Source) Source {
	switch v := s.(type) {
	case *VirtualSource:
		if v == nil {
			return nil
		}
		return *v
	case *RealSource:
		if v == nil {
			return nil
		}
		return *v
	}
	return s
}
