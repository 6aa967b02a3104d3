// Package logger wraps the construction of the zap logger shared by the
// server and the console.
package logger

import (
	"go.uber.org/zap"
)

// Logger holds the process-wide zap logger. Log is a no-op logger until
// Init or InitFile succeeds.
type Logger struct {
	Log *zap.Logger
}

// New returns a Logger with a no-op zap logger.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init switches to a production JSON logger writing to stderr at level.
func (l *Logger) Init(level string) error {
	return l.build(level, "stderr")
}

// InitFile is like Init but appends to the file at path. The console uses it
// so log lines do not interleave with its terminal output.
func (l *Logger) InitFile(level, path string) error {
	return l.build(level, path)
}

func (l *Logger) build(level, output string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{output}

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = zl
	return nil
}
