// Package observability provides the CLI logger.
package observability

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger writes human-oriented diagnostics to stderr. It is a no-op
// logger until InitCLILogger runs.
var CLILogger = zap.NewNop()

var cliLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// InitCLILogger replaces CLILogger with a console logger named name.
// verbose lowers the level to debug.
func InitCLILogger(name string, verbose bool) {
	if verbose {
		cliLevel.SetLevel(zapcore.DebugLevel)
	} else {
		cliLevel.SetLevel(zapcore.InfoLevel)
	}
	CLILogger = NewCLILogger(zapcore.Lock(os.Stderr), name, cliLevel)
}

// NewCLILogger builds a console logger writing to w.
func NewCLILogger(w zapcore.WriteSyncer, name string, level zapcore.LevelEnabler) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		NameKey:          "logger",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, level)
	return zap.New(core).Named(name)
}

// SetLevel changes the CLILogger level by name (debug, info, warn, error).
func SetLevel(level string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cliLevel.SetLevel(l)
	return nil
}

// Level returns the current CLILogger level.
func Level() zapcore.Level {
	return cliLevel.Level()
}
