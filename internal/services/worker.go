package services

import (
	"context"
	"sync"

	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// LaunchWorker runs the job processor loop until ctx is cancelled.
func LaunchWorker(ctx context.Context, wg *sync.WaitGroup, processor *Processor) {
	defer wg.Done()

	logger.Info("Worker started")
	processor.Run(ctx)
	logger.Info("Worker stopped")
}
