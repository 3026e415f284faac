// Package utils provides small shared helpers for logging, text, and vectors.
package utils

import "go.uber.org/zap"

// NewLogger returns the application logger. Debug mode uses zap's development
// config (human-readable console output at debug level); otherwise production
// config (JSON at info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
