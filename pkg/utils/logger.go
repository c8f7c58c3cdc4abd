// Package utils provides shared logging and vector math helpers.
package utils

import "go.uber.org/zap"

// NewLogger returns the kaiwa logger: zap's development config (console, debug level)
// when debug is set, otherwise its production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]interface{}{"service": "kaiwa"}
	return cfg.Build()
}
