package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/store"
)

// DefaultGCInterval is used when no interval is configured
const DefaultGCInterval = time.Hour

// GarbageCollector periodically compacts the key-value store: expired
// session sweep for the memory backend, value-log GC for badger.
type GarbageCollector struct {
	collector store.Collector
	name      string
	logger    logger.Logger
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewGarbageCollector creates a collector for kv. It returns nil when the
// backend cleans up on its own (redis expires keys natively).
func NewGarbageCollector(kv store.Store, log logger.Logger, interval time.Duration) *GarbageCollector {
	c, ok := kv.(store.Collector)
	if !ok {
		log.Debug("store has no collector, garbage collection disabled",
			logger.String("store", kv.Name()))
		return nil
	}
	if interval <= 0 {
		interval = DefaultGCInterval
	}

	return &GarbageCollector{
		collector: c,
		name:      kv.Name(),
		logger:    log,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	// Start periodic collection
	ticker := time.NewTicker(gc.interval)
	gc.wg.Add(1)
	go func() {
		defer gc.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector and waits for a running pass to finish.
// It is safe to call more than once.
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
	gc.wg.Wait()
}

// Collect runs one pass
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	start := time.Now()

	n, err := gc.collector.Collect(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		gc.logger.Info("garbage collection completed",
			logger.String("store", gc.name),
			logger.Int("reclaimed", n),
			logger.Duration("took", time.Since(start)))
	} else {
		gc.logger.Debug("no items to garbage collect",
			logger.String("store", gc.name))
	}

	return nil
}
