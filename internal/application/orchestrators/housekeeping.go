package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// HousekeepingTask is one periodic maintenance job, such as purging expired client items.
type HousekeepingTask struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// ExecuteHousekeeping runs every task once. A failing task does not stop the others.
// POST: Returns the joined errors of the failed tasks
func ExecuteHousekeeping(ctx context.Context, tasks []HousekeepingTask) error {
	var errs []error
	for _, task := range tasks {
		n, err := task.Run(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", task.Name, err))
			continue
		}
		if n > 0 {
			slog.Info("housekeeping_done", "task", task.Name, "removed", n)
		}
	}
	return errors.Join(errs...)
}

// StartBackgroundWorker starts a goroutine that runs the housekeeping tasks periodically.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(tasks []HousekeepingTask, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if err := ExecuteHousekeeping(ctx, tasks); err != nil {
					slog.Error("housekeeping_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("housekeeping_worker_stopped")
				return
			}
		}
	}()
}
