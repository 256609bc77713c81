// Package logger 对 charmbracelet/log 的简单封装，统一 CLI 与生成管线的日志输出
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// Level 日志级别
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// ToCharmlogLevel 未知级别按 info 处理
func (l Level) ToCharmlogLevel() charmlog.Level {
	switch Level(strings.ToLower(string(l))) {
	case DebugLevel:
		return charmlog.DebugLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Valid 检查级别是否合法
func (l Level) Valid() bool {
	switch Level(strings.ToLower(string(l))) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return true
	}
	return false
}

// Config 日志配置
type Config struct {
	Level      Level
	Output     io.Writer
	JSON       bool
	TimeFormat string
}

func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	}
}

// New 按配置创建 logger
func New(cfg *Config) *charmlog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: cfg.TimeFormat != "",
		TimeFormat:      cfg.TimeFormat,
		Level:           cfg.Level.ToCharmlogLevel(),
		Prefix:          "derivegen",
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	} else {
		l.SetFormatter(charmlog.TextFormatter)
	}
	return l
}

var (
	mu            sync.RWMutex
	defaultLogger = New(nil)
)

// Init 替换默认 logger
func Init(cfg *Config) {
	l := New(cfg)
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// Default 返回默认 logger
func Default() *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Discard 丢弃所有输出，测试中使用
func Discard() *charmlog.Logger {
	return New(&Config{Level: ErrorLevel, Output: io.Discard})
}
