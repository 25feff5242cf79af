package profile

import "strings"

// Profile 描述一种产物类型。
type Profile struct {
	Key         string `json:"key"`
	Extension   string `json:"extension"`
	Description string `json:"description"`
}

// NormalizeExtension 去除首尾空白并补齐前导点；空字符串保持为空。
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

func init() {
	for _, p := range []Profile{
		{Key: "js", Extension: ".js", Description: "transpiled JavaScript"},
		{Key: "mjs", Extension: ".mjs", Description: "ES module output"},
		{Key: "css", Extension: ".css", Description: "compiled stylesheet"},
		{Key: "map", Extension: ".map", Description: "source map"},
		{Key: "dts", Extension: ".d.ts", Description: "TypeScript declaration output"},
		{Key: "txt", Extension: ".txt", Description: "plain text artifact"},
	} {
		MustRegister(p)
	}
}
