package logger

import (
	"go.uber.org/zap"

	"galactischevrienden/internal/config"
)

// New builds the application logger: JSON output in production, console output elsewhere
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
