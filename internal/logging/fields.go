package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// CacheFields 提供缓存操作、源文件与命中状态字段，供 CLI 与 HTTP 请求日志复用。
func CacheFields(operation, filePath, extension string, virtual, cacheHit bool) logrus.Fields {
	source := "real"
	if virtual {
		source = "virtual"
	}
	return logrus.Fields{
		"action":    "cache_" + operation,
		"file_path": filePath,
		"extension": extension,
		"source":    source,
		"cache_hit": cacheHit,
	}
}
