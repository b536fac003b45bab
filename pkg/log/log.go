package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 未调用 Init 前使用 Nop logger，测试里不需要额外初始化。
var (
	zapLogger   = zap.NewNop()
	sugarLogger = zapLogger.Sugar()
)

// Init 根据级别、编码格式和输出目录构建全局 logger。
// format 为 console 时使用开发配置（彩色级别），否则输出 JSON。
func Init(level, format, outputpath string) {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		panic(fmt.Errorf("invalid log level: %w", err))
	}

	var zapConfig zap.Config
	if format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.Encoding = "console"
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Encoding = "json"
	}
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	zapConfig.Level = logLevel
	zapConfig.OutputPaths = []string{"stdout"}

	if outputpath != "" {
		// 同时输出到文件和 stdout
		if err := os.MkdirAll(outputpath, 0755); err != nil {
			panic(fmt.Errorf("failed to create log directory: %w", err))
		}
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, outputpath+"/app.log")
	}

	logger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}

	zapLogger = logger
	sugarLogger = logger.Sugar()
}

// Info 记录一条 info 级别的日志
func Info(msg string) {
	sugarLogger.Info(msg)
}

// Infof 使用格式化字符串记录一条 info 级别的日志
func Infof(format string, args ...interface{}) {
	sugarLogger.Infof(format, args...)
}

// Infow 使用键值对记录一条 info 级别的日志
func Infow(msg string, keysAndValues ...interface{}) {
	sugarLogger.Infow(msg, keysAndValues...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	sugarLogger.Debugw(msg, keysAndValues...)
}

// Warnf 使用格式化字符串记录一条 warn 级别的日志
func Warnf(template string, args ...interface{}) {
	sugarLogger.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugarLogger.Warnw(msg, keysAndValues...)
}

// Error 记录一条 error 级别的日志，并附带 error 信息
func Error(msg string, err error) {
	sugarLogger.Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugarLogger.Errorf(template, args...)
}

// Fatal 记录一条 fatal 级别的日志，并附带 error 信息，然后退出程序
func Fatal(msg string, err error) {
	sugarLogger.Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugarLogger.Fatalf(template, args...)
}

// Sync 将缓冲区中的日志刷新到底层 Writer，程序退出前调用。
func Sync() {
	_ = zapLogger.Sync()
}

// GetLogger 返回原始 *zap.Logger，供 zapgorm2 等需要结构化 logger 的组件使用。
func GetLogger() *zap.Logger {
	return zapLogger
}
