package trend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fallbackFile struct {
	Keywords []string `yaml:"fallback_keywords"`
}

// LoadFallback 读取本地兜底关键词，文件不存在时返回空列表
func LoadFallback(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read fallback keywords failed: %w", err)
	}
	var payload fallbackFile
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse fallback keywords failed: %w", err)
	}
	return payload.Keywords, nil
}
