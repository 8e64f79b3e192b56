package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// SafetyConfig 覆盖危机关键词表和两条固定回复。空字段使用内置默认值。
type SafetyConfig struct {
	Keywords     []string
	CrisisReply  string
	GenericReply string
}

// LoadSafety 读取 yaml/json 格式的安全表；path 为空时返回零值。
func LoadSafety(path string) (SafetyConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return SafetyConfig{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return SafetyConfig{}, fmt.Errorf("read SAFETY_TABLE_PATH %q: %w", path, err)
	}

	return SafetyConfig{
		Keywords:     v.GetStringSlice("keywords"),
		CrisisReply:  strings.TrimSpace(v.GetString("crisis_reply")),
		GenericReply: strings.TrimSpace(v.GetString("generic_reply")),
	}, nil
}
