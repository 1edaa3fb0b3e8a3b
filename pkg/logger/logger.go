// Package logger 基于zap构建进程级结构化日志
//
// 用法：
//
//	log, err := logger.New(cfg.Log)
//	if err != nil {
//	    panic(err)
//	}
//	defer log.Sync()
//	log.Info("库存已增加", zap.Uint("product_id", id))
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // console | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// New 根据配置创建Logger，并替换zap全局Logger（zap.L()）
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoding := "json"
	if strings.EqualFold(cfg.Format, "console") {
		encoding = "console"
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}

	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          encoding,
		EncoderConfig:     encoderConfig(encoding),
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: level > zapcore.DebugLevel,
	}

	log, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	zap.ReplaceGlobals(log)
	return log, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("无效的日志级别: %s", s)
	}
	return level, nil
}

func encoderConfig(encoding string) zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return ec
}
