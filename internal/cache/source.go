package cache

// Source 区分源内容的两种来源。只有本包内的 VirtualSource 与 RealSource
// 实现该接口，调用方无法构造第三种形态。
type Source interface {
	// SourcePath 返回源文件标识，可为绝对路径或项目相对路径。
	SourcePath() string
	isSource()
}

// VirtualSource 的内容由调用方给出，源文件不必存在于磁盘。
type VirtualSource struct {
	Path    string
	Content string
}

func (s VirtualSource) SourcePath() string { return s.Path }
func (VirtualSource) isSource() {}

// RealSource 的内容需要从磁盘 Path 读取。
type RealSource struct {
	Path string
}

func (s RealSource) SourcePath() string { return s.Path }
func (RealSource) isSource() {}

// Request 描述一次缓存操作：Source 决定目录与内容哈希，Extension 原样拼接在
// 生成的缓存文件名之后（与源文件自身的扩展名无关）。
type Request struct {
	Source    Source
	Extension string
}

// Virtual 是 Request{Source: VirtualSource{...}} 的简写。
func Virtual(path, content, ext string) Request {
	return Request{Source: VirtualSource{Path: path, Content: content}, Extension: ext}
}

// Real 是 Request{Source: RealSource{...}} 的简写。
func Real(path, ext string) Request {
	return Request{Source: RealSource{Path: path}, Extension: ext}
}
