package meta

import (
	"context"
	"fmt"

	"go-desk/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CacheRefresher periodically drops the doctype cache so metadata
// edits made by other processes become visible without a restart.
type CacheRefresher struct {
	scheduler *cron.Cron
	log       *zap.Logger
}

func NewCacheRefresher(lc fx.Lifecycle, cfg *config.Config, svc MetaService, log *zap.Logger) (*CacheRefresher, error) {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(cfg.MetaRefresh, func() {
		svc.InvalidateCache()
		log.Debug("doctype cache invalidated", zap.String("schedule", cfg.MetaRefresh))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid meta refresh schedule %q: %w", cfg.MetaRefresh, err)
	}

	r := &CacheRefresher{scheduler: scheduler, log: log}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := scheduler.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return r, nil
}
