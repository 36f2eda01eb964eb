// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, closes websocket clients, and then tears
// down the DB connection.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.Runtime; rt != nil {
		if rt.Daily != nil {
			rt.Daily.Stop()
		}
		if rt.cancel != nil {
			rt.cancel()
			select {
			case <-rt.Hub.Done():
			case <-ctx.Done():
				logger.Warn("realtime hub did not stop before shutdown deadline")
			}
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
