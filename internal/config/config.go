// Package config 读取 .derivegen.toml 配置文件
//
// 示例:
//
//	output    = "$FILE_gen.go"
//	async     = true
//	format    = "text"
//	color     = "auto"
//	log_level = "info"
//	debounce  = "2s"
//
//	[outputs]
//	builder = "$FILE_builder.go"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/donutnomad/derivegen/internal/logger"
)

// FileName 配置文件名
const FileName = ".derivegen.toml"

// Config 配置文件内容，零值表示未设置
type Config struct {
	Output   string            `toml:"output"`
	Outputs  map[string]string `toml:"outputs"` // 插件名 -> 输出路径
	Async    *bool             `toml:"async"`
	Format   string            `toml:"format"`
	Color    string            `toml:"color"`
	LogLevel string            `toml:"log_level"`
	Debounce string            `toml:"debounce"`

	// Path 配置文件路径，未找到时为空
	Path string `toml:"-"`
}

// Find 从 startDir 向上查找配置文件
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("解析目录 %s 失败: %w", startDir, err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("读取 %s 失败: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load 读取并校验配置文件
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: 解析 TOML 失败: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: 未知配置项 %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve 加载 explicit 指定的配置文件；explicit 为空时从 dir 向上查找，找不到返回空配置
func Resolve(explicit, dir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Config{}, nil
	}
	return Load(path)
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("format 必须是 text 或 json，得到 %q", c.Format)
	}
	switch c.Color {
	case "", "auto", "on", "off":
	default:
		return fmt.Errorf("color 必须是 auto、on 或 off，得到 %q", c.Color)
	}
	if c.LogLevel != "" && !logger.Level(c.LogLevel).Valid() {
		return fmt.Errorf("未知的 log_level %q", c.LogLevel)
	}
	if _, err := c.DebounceDuration(0); err != nil {
		return err
	}
	return nil
}

// DebounceDuration 返回 debounce，未设置时返回 def
func (c *Config) DebounceDuration(def time.Duration) (time.Duration, error) {
	if c.Debounce == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 0, fmt.Errorf("debounce 格式错误: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("debounce 不能为负数: %s", c.Debounce)
	}
	return d, nil
}
