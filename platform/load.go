package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// table 配置文件格式：
//
//	[profiles.uno]
//	order = "little"
//	short = 2
//	int = 2
//	...
type table struct {
	Profiles map[string]Profile `toml:"profiles" yaml:"profiles"`
}

// LoadFile 从 .toml / .yaml / .yml 文件读取命名 profile 表
// 表键作为 Name（文件内 name 字段可省略）；每个 profile 都会校验。
func LoadFile(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(filepath.Ext(path), data)
}

// Parse 按扩展名解析 profile 表
func Parse(ext string, data []byte) (map[string]Profile, error) {
	var t table
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), &t); err != nil {
			return nil, fmt.Errorf("platform: decode toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("platform: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("platform: unsupported profile file extension %q", ext)
	}
	return Normalize(t.Profiles)
}

// Normalize 以表键补全 Name 并逐个校验
func Normalize(in map[string]Profile) (map[string]Profile, error) {
	out := make(map[string]Profile, len(in))
	for name, p := range in {
		if p.Name == "" {
			p.Name = name
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}
