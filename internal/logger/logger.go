package logger

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Fields map[string]any

var sensitiveKeys = map[string]struct{}{
	"channelkey":    {},
	"channel_key":   {},
	"apikey":        {},
	"api_key":       {},
	"password":      {},
	"authorization": {},
}

var base = newBase()

func newBase() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func Info(message string, fields Fields) {
	base.Info(message, zapFields(fields)...)
}

func Error(message string, err error, fields Fields) {
	zf := zapFields(fields)
	if err != nil {
		zf = append(zf, zap.String("error", err.Error()))
	}
	base.Error(message, zf...)
}

// SanitizePayload renders payload through a JSON round trip with sensitive
// keys masked, so request bodies can be logged without leaking credentials.
func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func zapFields(fields Fields) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		if isSensitiveKey(key) {
			zf = append(zf, zap.String(key, "******"))
			continue
		}
		zf = append(zf, zap.Any(key, sanitizeValue(value)))
	}
	return zf
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
