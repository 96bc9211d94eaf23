package models

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewLogger builds the session logger. Verbose selects the human-readable
// development encoder.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "bad log level %q", c.LogLevel)
	}
	var zc zap.Config
	if c.Verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
