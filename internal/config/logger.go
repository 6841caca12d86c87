package config

import "go.uber.org/zap"

// NewLogger returns a development logger in debug mode and a production one otherwise.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
