package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base  *zap.Logger
	sugar *zap.SugaredLogger
)

// SetupLogger 初始化日志配置：同时输出到控制台和按日期命名的日志文件
func SetupLogger() error {
	// 创建日志目录
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %v", err)
	}

	// 生成当前日期的日志文件名
	logFileName := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %v", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	// 控制台使用console编码，文件使用JSON编码，便于日志收集器解析
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		zapcore.InfoLevel,
	)
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(logFile),
		zapcore.InfoLevel,
	)

	base = zap.New(zapcore.NewTee(consoleCore, fileCore),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	).With(zap.String("service_name", "medshift-http-service"))
	sugar = base.Sugar()

	return nil
}

// ensure 允许在未显式初始化时退化为纯控制台输出
func ensure() *zap.SugaredLogger {
	if sugar == nil {
		l, _ := zap.NewProduction(zap.AddCallerSkip(1))
		base = l
		sugar = l.Sugar()
	}
	return sugar
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	ensure().Infof(format, v...)
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	ensure().Warnf(format, v...)
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	ensure().Errorf(format, v...)
}

// Sync 刷新缓冲的日志条目
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
