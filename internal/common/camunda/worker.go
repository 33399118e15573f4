// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"loan-risk-workers/internal/common/config"
	"loan-risk-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Workers tracks the job workers opened by the process so they can be closed
// together on shutdown.
type Workers struct {
	client  zbc.Client
	name    string
	logger  logger.Logger
	workers []worker.JobWorker
}

func NewWorkers(client zbc.Client, name string, log logger.Logger) *Workers {
	return &Workers{client: client, name: name, logger: log}
}

// Start opens a job worker for taskType unless the config disables it.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	jobWorker := w.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		Name(w.name).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
	w.workers = append(w.workers, jobWorker)

	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

// Count returns the number of open workers.
func (w *Workers) Count() int {
	return len(w.workers)
}

// Close stops polling and waits for in-flight jobs.
func (w *Workers) Close() {
	for _, jw := range w.workers {
		jw.Close()
		jw.AwaitClose()
	}
	w.workers = nil
}
