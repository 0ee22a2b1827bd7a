package logger

import (
	"os"

	"go.uber.org/zap"
)

// InitLogger builds the process-wide zap logger. Production config by
// default, development config when STATE=dev.
func InitLogger() (*zap.Logger, error) {
	if os.Getenv("STATE") == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
