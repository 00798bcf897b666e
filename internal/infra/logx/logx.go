package logx

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 构造进程级 logger。
//
// 约束：
// - 日志一律写 stderr：stdout 留给快照路径等对外输出契约
// - format 只有两种：console（人读）/ json（采集）
func New(level, format string) (*zap.Logger, error) {
	var lv zapcore.Level
	switch level {
	case "debug":
		lv = zapcore.DebugLevel
	case "", "info":
		lv = zapcore.InfoLevel
	case "warn":
		lv = zapcore.WarnLevel
	case "error":
		lv = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("未知日志级别：%q", level)
	}

	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	switch format {
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	case "", "console":
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("未知日志格式：%q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), lv)
	return zap.New(core), nil
}

// Nop 返回丢弃一切的 logger（测试与库内部默认值用）。
func Nop() *zap.Logger { return zap.NewNop() }
