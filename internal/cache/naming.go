package cache

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

// hashLength 取 MD5 十六进制前 10 位（40 bit）。单个源文件的修订次数有限，
// 50 次修订内发生碰撞的概率约为三百五十万分之一。
const hashLength = 10

// sourceExtPattern 匹配文件名中的第一个 ".xxx" 片段。
var sourceExtPattern = regexp.MustCompile(`\.\w+`)

// Hash 返回 content 的截断 MD5 十六进制摘要，长度恒为 10。
func Hash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// FileName 返回缓存文件名：Hash(content) + ext，ext 原样拼接。
func FileName(content, ext string) string {
	return Hash(content) + ext
}

// FolderName 只由源文件路径决定，同一源文件的所有修订共享该目录：
//
//	"a/b/file.ts" → "a-b-file"
//	"/file.ts"    → "file"
func FolderName(filePath string) string {
	p := filepath.ToSlash(filePath)
	p = strings.TrimPrefix(p, "/")

	segments := strings.Split(p, "/")
	fileName := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	base := fileName
	if loc := sourceExtPattern.FindStringIndex(fileName); loc != nil {
		base = fileName[:loc[0]] + fileName[loc[1]:]
	}

	if len(dirs) == 0 {
		return base
	}
	return strings.Join(append(append([]string(nil), dirs...), base), "-")
}

// NormalizeToProjectRelative 去掉位于 projectRoot 下的绝对路径前缀，
// 相对路径与根目录之外的绝对路径原样返回。结果可能保留一个前导分隔符。
func NormalizeToProjectRelative(pathValue, projectRoot string) string {
	if projectRoot == "" || !filepath.IsAbs(pathValue) {
		return pathValue
	}
	root := strings.TrimSuffix(projectRoot, string(filepath.Separator))
	if pathValue == root {
		return ""
	}
	if strings.HasPrefix(pathValue, root+string(filepath.Separator)) {
		return strings.TrimPrefix(pathValue, root)
	}
	return pathValue
}
