// Package config 读取 wirebeat 配置文件（TOML / YAML）
//
//	[log]
//	level = "debug"
//
//	[device]
//	profile = "uno"
//
//	[profiles.uno]
//	order = "little"
//	short = 2
//	int = 2
//	long = 4
//	float = 4
//	double = 4
//	char = 1
//
//	[dispatch]
//	policy = "buffer"
//	capacity = 64
//	overflow = "drop-oldest"
//
//	[router]
//	workers = 8
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/uniyakcom/wirebeat/dispatch"
	"github.com/uniyakcom/wirebeat/internal/logging"
	"github.com/uniyakcom/wirebeat/platform"
)

// ErrUnsupportedFormat 无法识别的配置文件扩展名
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

type Log struct {
	Level     string `toml:"level" yaml:"level"`
	Timestamp *bool  `toml:"timestamp" yaml:"timestamp"`
	NoColor   bool   `toml:"nocolor" yaml:"nocolor"`
	JSON      bool   `toml:"json" yaml:"json"`
}

type Device struct {
	Profile string `toml:"profile" yaml:"profile"`
}

type Dispatch struct {
	Policy   string `toml:"policy" yaml:"policy"`
	Capacity int    `toml:"capacity" yaml:"capacity"`
	Overflow string `toml:"overflow" yaml:"overflow"`
}

type Router struct {
	Workers int `toml:"workers" yaml:"workers"`
}

// Config 顶层配置
type Config struct {
	Log      Log                         `toml:"log" yaml:"log"`
	Device   Device                      `toml:"device" yaml:"device"`
	Profiles map[string]platform.Profile `toml:"profiles" yaml:"profiles"`
	Dispatch Dispatch                    `toml:"dispatch" yaml:"dispatch"`
	Router   Router                      `toml:"router" yaml:"router"`
}

// Default 缺省配置：native profile，无界缓冲
func Default() *Config {
	return &Config{
		Log:      Log{Level: "info"},
		Device:   Device{Profile: "native"},
		Dispatch: Dispatch{Policy: "buffer"},
	}
}

// Load 读取配置文件；path 为空或文件不存在时返回缺省配置
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(filepath.Ext(path), data)
}

// Parse 按扩展名解析配置内容，未出现的字段保持缺省值
func Parse(ext string, data []byte) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: decode toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验 profile 表与分发策略
func (c *Config) Validate() error {
	profiles, err := platform.Normalize(c.Profiles)
	if err != nil {
		return fmt.Errorf("config: profiles: %w", err)
	}
	c.Profiles = profiles
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Router.Workers < 0 {
		return fmt.Errorf("config: router workers must not be negative, got %d", c.Router.Workers)
	}
	return nil
}

// Register 把文件中的 profile 注册到 platform 预设表
func (c *Config) Register() error {
	for _, p := range c.Profiles {
		if err := platform.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Profile 解析 name（为空时用 device.profile）；文件内定义优先于内置预设
func (c *Config) Profile(name string) (platform.Profile, error) {
	if name == "" {
		name = c.Device.Profile
	}
	if name == "" {
		name = "native"
	}
	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}
	if p, ok := platform.Lookup(name); ok {
		return p, nil
	}
	return platform.Profile{}, fmt.Errorf("%w: %q", platform.ErrUnknownProfile, name)
}

// Policy 由 dispatch 段构造缺省投递策略
func (c *Config) Policy() (dispatch.Policy, error) {
	return dispatch.Parse(c.Dispatch.Policy, c.Dispatch.Capacity, c.Dispatch.Overflow)
}

// Logging 转换为日志配置，并叠加环境变量覆盖
func (c *Config) Logging(profile logging.Profile) logging.Config {
	lc := logging.DefaultConfig(profile)
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		lc.Level = lvl
	}
	if c.Log.Timestamp != nil {
		lc.Timestamp = *c.Log.Timestamp
	}
	lc.NoColor = lc.NoColor || c.Log.NoColor
	lc.JSON = c.Log.JSON
	logging.ApplyEnv(&lc)
	return lc
}

// Logger 按 log 段构造 logger
func (c *Config) Logger(app string) zerolog.Logger {
	return logging.New(app, c.Logging(logging.ProfileRuntime))
}
