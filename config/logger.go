package config

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a stderr logger at the configured level and encoding
func NewLogger(l Logging) (*zap.Logger, error) {
	return newLogger(l, zapcore.Lock(os.Stderr))
}

func newLogger(l Logging, out zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, errors.Wrap(err, "logging.level")
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch l.Encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, errors.Errorf("unknown log encoding %q", l.Encoding)
	}
	return zap.New(zapcore.NewCore(enc, out, level)), nil
}
