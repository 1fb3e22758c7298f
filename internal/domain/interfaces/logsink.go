//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

// LogSinkFactory creates a fresh diagnostic sink per artifact so that
// concurrent audits never interleave or corrupt each other's output.
type LogSinkFactory interface {
	// NewSink returns a sink scoped to the named unit of work, the path
	// its records are written to (empty for non-file sinks), and a close
	// function to flush it. Creation failures should be recovered by the
	// caller with a no-op sink; logging must never abort an audit.
	NewSink(name string) (log Logger, path string, close func(), err error)
}

// NoOpSinkFactory hands out NoOpLogger sinks (useful for tests).
type NoOpSinkFactory struct{}

// NewSink returns a no-op sink.
func (NoOpSinkFactory) NewSink(string) (Logger, string, func(), error) {
	return &NoOpLogger{}, "", func() {}, nil
}
