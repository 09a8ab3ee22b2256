package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Logger 全局日志实例
	Logger = log.Logger
)

// Config 日志配置
type Config struct {
	Level        string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format       string `json:"format" yaml:"format"` // json 或 pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"`
	// File 非空时同时写入该文件
	File string `json:"file" yaml:"file"`
	// Stderr 控制台输出改为 stderr
	Stderr bool `json:"stderr" yaml:"stderr"`
}

// Init 按配置初始化全局日志，返回用于关闭日志文件的函数
func Init(config Config) (func() error, error) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	var out io.Writer = os.Stdout
	if config.Stderr {
		out = os.Stderr
	}
	console := out
	if config.Format == "pretty" {
		console = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: config.TimeFormat,
		}
	}

	closer := func() error { return nil }
	output := console
	if config.File != "" {
		if dir := filepath.Dir(config.File); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return closer, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(config.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return closer, fmt.Errorf("open log file: %w", err)
		}
		output = zerolog.MultiLevelWriter(console, f)
		closer = f.Close
	}

	Logger = New(output, level, config.ReportCaller)
	log.Logger = Logger
	return closer, nil
}

// New 构建一个带时间戳的 logger，不修改全局状态
func New(w io.Writer, level zerolog.Level, caller bool) zerolog.Logger {
	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func Debug() *zerolog.Event {
	return Logger.Debug()
}

func Info() *zerolog.Event {
	return Logger.Info()
}

func Warn() *zerolog.Event {
	return Logger.Warn()
}

func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal 记录后程序退出
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// Ctx 从上下文取 logger，没有时回退到全局 logger
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &Logger
	}
	return l
}

// WithContext 将全局 logger 放入上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}

// WithRun 返回带 run_id 字段的上下文 logger
func WithRun(ctx context.Context, runID string) context.Context {
	l := Logger.With().Str("run_id", runID).Logger()
	return l.WithContext(ctx)
}
