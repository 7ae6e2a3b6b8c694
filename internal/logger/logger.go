package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a key/value facade over zap. Secret-looking keys are masked and
// user ids are replaced by a short stable hash unless redaction is off.
type Logger struct {
	sugar  *zap.SugaredLogger
	redact bool
}

// New builds a logger for mode: "prod"/"production" is JSON at info level,
// anything else is console output at debug level.
func New(mode string, redact bool) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if m := strings.ToLower(strings.TrimSpace(mode)); m == "prod" || m == "production" {
		cfg = zap.NewProductionConfig()
	}
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zl.Sugar(), redact: redact}, nil
}

func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// NewWithCore wraps core with redaction on; tests pass observer cores.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{sugar: zap.New(core).Sugar(), redact: true}
}

func (l *Logger) Sync() { _ = l.sugar.Sync() }

func (l *Logger) Debug(msg string, kv ...interface{}) { l.sugar.Debugw(msg, l.scrub(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.sugar.Infow(msg, l.scrub(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.sugar.Warnw(msg, l.scrub(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.sugar.Errorw(msg, l.scrub(kv)...) }

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(l.scrub(kv)...), redact: l.redact}
}

var maskedKeys = []string{"token", "password", "secret", "api_key"}

func (l *Logger) scrub(kv []interface{}) []interface{} {
	if !l.redact || len(kv) < 2 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		k := strings.ToLower(key)
		switch {
		case strings.HasSuffix(k, "user_id"):
			out[i+1] = hashID(out[i+1])
		case containsAny(k, maskedKeys):
			out[i+1] = "[REDACTED]"
		}
	}
	return out
}

func containsAny(s string, frags []string) bool {
	for _, f := range frags {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func hashID(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
