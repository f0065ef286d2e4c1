package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a zap logger. "prod" and "production" select the JSON
// production config, "off" discards everything, and anything else gets the
// development console config.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "off":
		return zap.NewNop(), nil
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
