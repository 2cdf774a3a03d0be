package camunda

import (
	"context"
	"time"

	"document-workflow/internal/common/config"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// HandlerFunc is the signature every task handler exposes as Handle.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Registry keeps the opened job workers so they can be closed on shutdown.
type Registry struct {
	client  zbc.Client
	obs     *observability.Observability
	logger  logger.Logger
	workers map[string]worker.JobWorker
}

// NewRegistry creates a registry; obs may be nil.
func NewRegistry(client zbc.Client, obs *observability.Observability, log logger.Logger) *Registry {
	return &Registry{
		client:  client,
		obs:     obs,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType unless the worker is disabled.
func (r *Registry) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	r.workers[taskType] = r.client.NewJobWorker().
		JobType(taskType).
		Handler(r.instrument(taskType, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// instrument records every handled job on the OpenTelemetry meter. Outcome
// metrics per error code are kept by the handlers themselves.
func (r *Registry) instrument(taskType string, handler HandlerFunc) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		handler(client, job)
		r.obs.RecordJob(context.Background(), taskType, job.Retries, time.Since(start))
	}
}

// Count returns the number of running workers.
func (r *Registry) Count() int {
	return len(r.workers)
}

// Close stops all workers and waits for in-flight jobs.
func (r *Registry) Close() {
	for taskType, w := range r.workers {
		r.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		w.Close()
		w.AwaitClose()
	}
}
