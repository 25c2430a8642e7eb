package main

import (
	"context"
	"time"

	"github.com/nadmax/pulse/internal/cache"
	"github.com/nadmax/pulse/internal/metrics"
	"github.com/nadmax/pulse/internal/queue"
	"go.uber.org/zap"
)

// expiringCache is implemented by caches that only drop expired entries on demand.
type expiringCache interface {
	Cleanup() int
}

func startMetricsCollector(ctx context.Context, q *queue.Queue, reportCache cache.Cache, logger *zap.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateQueueMetrics(ctx, q, logger)
			sweepCache(reportCache, logger)
		}
	}
}

func sweepCache(c cache.Cache, logger *zap.Logger) int {
	ec, ok := c.(expiringCache)
	if !ok {
		return 0
	}

	removed := ec.Cleanup()
	if removed > 0 {
		logger.Debug("expired cache entries removed", zap.Int("count", removed))
	}
	return removed
}

func updateQueueMetrics(ctx context.Context, q *queue.Queue, logger *zap.Logger) {
	jobs, err := q.List(ctx)
	if err != nil {
		logger.Warn("failed to list jobs for metrics", zap.Error(err))
		return
	}

	jobsByStatus := make(map[string]map[string]int)
	for _, j := range jobs {
		status := string(j.Status)
		if jobsByStatus[status] == nil {
			jobsByStatus[status] = make(map[string]int)
		}
		jobsByStatus[status][j.Name]++
	}

	metrics.UpdateJobGauges(jobsByStatus)
	metrics.UpdateQueueDepth(q.Depth())
}
