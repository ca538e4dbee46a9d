package utilities

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction. Dev switches to the human-readable
// console encoder; production output is JSON on stdout.
type Config struct {
	Level string
	Dev   bool
}

// ConfigFromEnv reads LOG_DEV and LOG_LEVEL. Dev mode defaults to debug so
// request logging is visible, production to info.
func ConfigFromEnv() Config {
	dev := os.Getenv("LOG_DEV") == "1"
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		lvl = "info"
		if dev {
			lvl = "debug"
		}
	}
	return Config{Level: lvl, Dev: dev}
}

// Init builds the process logger. Unparseable levels fall back to info
// rather than failing startup.
func Init(cfg Config) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	if cfg.Dev {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stdout), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
