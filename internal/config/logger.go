package config

import "go.uber.org/zap"

// NewLogger returns a human readable debug logger in dev and a JSON logger
// otherwise.
func NewLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == EnvDev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
