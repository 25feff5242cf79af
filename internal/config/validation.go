package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/artcache/internal/profile"
	"github.com/any-hub/artcache/internal/projectroot"
)

// Validate 针对语义级别做进一步校验，并规范化 Profile 的键与扩展名。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := &c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", fmt.Sprintf("无法识别的日志级别: %s", g.LogLevel))
	}
	if strings.TrimSpace(g.CacheDir) == "" {
		return newFieldError("Global.CacheDir", "不能为空")
	}
	if strings.TrimSpace(g.ProjectRoot) == "" && strings.TrimSpace(g.ProjectMarker) == "" {
		return newFieldError("Global.ProjectMarker", "未指定 ProjectRoot 时不能为空")
	}
	if strings.ContainsAny(g.ProjectMarker, `/\`) {
		return newFieldError("Global.ProjectMarker", "只能是文件名，不允许包含路径")
	}
	if g.RequestTimeout.DurationValue() <= 0 {
		return newFieldError("Global.RequestTimeout", "必须大于 0")
	}
	if g.MaxArtifactSize <= 0 {
		return newFieldError("Global.MaxArtifactSize", "必须大于 0")
	}

	seen := map[string]struct{}{}
	for i := range c.Profiles {
		p := &c.Profiles[i]
		key := profile.NormalizeKey(p.Name)
		if key == "" {
			return newFieldError("Profile[].Name", "不能为空")
		}
		if _, exists := seen[key]; exists {
			return newFieldError(profileField(key, "Name"), "重复")
		}
		if _, builtin := profile.Resolve(key); builtin {
			return newFieldError(profileField(key, "Name"), "与内置 profile 冲突")
		}
		seen[key] = struct{}{}
		p.Name = key

		ext := profile.NormalizeExtension(p.Extension)
		if ext == "" {
			return newFieldError(profileField(key, "Extension"), "不能为空")
		}
		if strings.ContainsAny(ext, `/\`) || strings.Contains(ext, "..") {
			return newFieldError(profileField(key, "Extension"), "不允许包含路径分隔符或 ..")
		}
		p.Extension = ext
	}

	g.DefaultProfile = profile.NormalizeKey(g.DefaultProfile)
	if _, err := c.ResolveProfile(g.DefaultProfile); err != nil {
		return newFieldError("Global.DefaultProfile", err.Error())
	}
	return nil
}

// ResolveProfile 先查找配置中的 profile，再回退到内置注册表；name 为空时使用 DefaultProfile。
func (c *Config) ResolveProfile(name string) (profile.Profile, error) {
	key := profile.NormalizeKey(name)
	if key == "" {
		key = profile.NormalizeKey(c.Global.DefaultProfile)
	}
	for _, p := range c.Profiles {
		if profile.NormalizeKey(p.Name) == key {
			return profile.Profile{
				Key:         key,
				Extension:   profile.NormalizeExtension(p.Extension),
				Description: p.Description,
			}, nil
		}
	}
	if p, ok := profile.Resolve(key); ok {
		return p, nil
	}
	return profile.Profile{}, fmt.Errorf("未知 profile: %s", name)
}

// ProfileList 返回内置与配置 profile 的合集，按键排序。
func (c *Config) ProfileList() []profile.Profile {
	result := profile.List()
	for _, p := range c.Profiles {
		result = append(result, profile.Profile{
			Key:         profile.NormalizeKey(p.Name),
			Extension:   profile.NormalizeExtension(p.Extension),
			Description: p.Description,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Locator 根据配置构建项目根目录查找器：显式 ProjectRoot 优先，否则按标记文件向上查找。
func (c *Config) Locator() projectroot.Locator {
	if root := strings.TrimSpace(c.Global.ProjectRoot); root != "" {
		return projectroot.Fixed(root)
	}
	return projectroot.NewMarkerLocator(c.Global.ProjectMarker, "")
}
