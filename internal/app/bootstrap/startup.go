// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Keepsake has no caches to warm or background workers to start, so this
// just logs the storage backend in use. Returning a non-nil error would
// abort startup and prevent the server from starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("keepsake ready",
		zap.String("storage_type", appCfg.StorageType),
		zap.Bool("export_api_enabled", appCfg.APIKey != ""),
	)
	return nil
}
