// Package accesslog produces the single structured line per completed
// request required by spec §7's "Access log" rule, on top of zap and
// timberjack's rotating file writer. Grounded on caddyserver/caddy's
// logging.go, which builds its request loggers the same way: a
// zapcore.Core over a rotating WriteSyncer.
package accesslog

import (
	"time"

	"github.com/DeRuina/timberjack"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes one JSON line per request to a rotated file.
type Logger struct {
	zl *zap.Logger
}

// Options configures the underlying rotation policy.
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a Logger writing to opts.Path, rotated by timberjack.
func New(opts Options) *Logger {
	rotator := &timberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), zap.InfoLevel)
	return &Logger{zl: zap.New(core)}
}

// NewNop discards everything; used when no access-log path is configured.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Request is one completed request's access-log fields, per spec §7:
// "method, URI, Host header, and final status."
type Request struct {
	RemoteAddr string
	Method     string
	URI        string
	Host       string
	Status     int
	Duration   time.Duration
}

// Log writes one structured line for a completed request, tagged with
// a fresh request ID for cross-referencing with other log sources.
func (l *Logger) Log(r Request) {
	l.zl.Info("request",
		zap.String("request_id", uuid.NewString()),
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("method", r.Method),
		zap.String("uri", r.URI),
		zap.String("host", r.Host),
		zap.Int("status", r.Status),
		zap.Duration("duration", r.Duration),
	)
}

// LogFailure records a request that failed before its Host header
// could be determined: the line carries the status, the remote
// address and a request ID, but no method, URI or host.
func (l *Logger) LogFailure(remoteAddr string, status int) {
	l.zl.Info("request",
		zap.String("request_id", uuid.NewString()),
		zap.String("remote_addr", remoteAddr),
		zap.Int("status", status),
	)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.zl.Sync() }
