// Package zaplog implements the domain Logger contract on top of zap.
package zaplog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nocturne-build/sofix/internal/domain/interfaces"
)

// zapLogger adapts a zap.Logger to the domain Logger interface.
type zapLogger struct {
	z *zap.Logger
}

// NewConsole builds a process-level logger writing to stderr. The returned
// flush function is safe to call on exit.
func NewConsole(verbose bool) (interfaces.Logger, func()) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	z, err := config.Build()
	if err != nil {
		// Building from a static config only fails on programmer error;
		// degrade to a no-op rather than aborting the audit.
		return &interfaces.NoOpLogger{}, func() {}
	}
	return &zapLogger{z: z}, func() { _ = z.Sync() }
}

// Debug logs debug-level messages
func (l *zapLogger) Debug(msg string, fields ...interfaces.Field) {
	l.z.Debug(msg, convert(fields)...)
}

// Info logs informational messages
func (l *zapLogger) Info(msg string, fields ...interfaces.Field) {
	l.z.Info(msg, convert(fields)...)
}

// Warn logs warning messages
func (l *zapLogger) Warn(msg string, fields ...interfaces.Field) {
	l.z.Warn(msg, convert(fields)...)
}

// Error logs error messages
func (l *zapLogger) Error(msg string, fields ...interfaces.Field) {
	l.z.Error(msg, convert(fields)...)
}

func convert(fields []interfaces.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// FileSinkFactory hands out one log file per unit of work so concurrent
// audits never interleave their diagnostics.
type FileSinkFactory struct {
	dir string
}

// NewFileSinkFactory creates a factory writing sinks under dir. An empty
// dir yields no-op sinks.
func NewFileSinkFactory(dir string) *FileSinkFactory {
	return &FileSinkFactory{dir: dir}
}

// NewSink creates a fresh file-backed sink named after the unit of work.
func (f *FileSinkFactory) NewSink(name string) (interfaces.Logger, string, func(), error) {
	if f.dir == "" {
		return &interfaces.NoOpLogger{}, "", func() {}, nil
	}

	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return nil, "", nil, err
	}

	// CreateTemp keeps same-named artifacts from different directories
	// out of each other's files.
	file, err := os.CreateTemp(f.dir, sanitize(name)+"-*.log")
	if err != nil {
		return nil, "", nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(file), zapcore.DebugLevel)
	z := zap.New(core)

	closeSink := func() {
		_ = z.Sync()
		_ = file.Close()
	}
	return &zapLogger{z: z}, file.Name(), closeSink, nil
}

func sanitize(name string) string {
	r := strings.NewReplacer("/", "_", string(os.PathSeparator), "_", "*", "_", "?", "_")
	return r.Replace(name)
}
