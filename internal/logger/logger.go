package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger 全局日志实例，Init之前使用zerolog默认配置
var Logger = log.Logger

// Config 日志配置
type Config struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json 或 pretty
	TimeFormat   string `yaml:"time_format"`   // 时间戳格式，空则RFC3339
	ReportCaller bool   `yaml:"report_caller"` // 是否记录调用位置
}

// Init 根据配置初始化全局日志系统
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = timeFormat

	var output io.Writer = os.Stdout
	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: timeFormat,
		}
	}

	builder := zerolog.New(output).Level(level).With().Timestamp()
	if cfg.ReportCaller {
		builder = builder.Caller()
	}

	Logger = builder.Logger()
	log.Logger = Logger
}

// Debug 开始一条debug级日志事件
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info 开始一条info级日志事件
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn 开始一条warn级日志事件
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error 开始一条error级日志事件
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal 开始一条fatal级日志事件，记录后进程退出
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// With 基于全局logger派生带固定字段的子logger
func With() zerolog.Context {
	return Logger.With()
}

// Ctx 从上下文提取logger
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext 把全局logger放入上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}
