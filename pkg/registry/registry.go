// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func Load(path string) (*WorkerRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg WorkerRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry, stamping LastUpdated.
func Save(reg *WorkerRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *WorkerRegistry) Find(taskType string) (*Worker, bool) {
	for i := range r.Workers {
		if r.Workers[i].TaskType == taskType {
			return &r.Workers[i], true
		}
	}
	return nil, false
}

// SetStatus updates the implementation status of one worker.
func (r *WorkerRegistry) SetStatus(taskType, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("unknown status %q", status)
	}
	w, ok := r.Find(taskType)
	if !ok {
		return fmt.Errorf("worker %s not found", taskType)
	}
	w.Status = status
	return nil
}

// Validate checks required fields and, when known is non-empty, that every
// registered task type is actually served and every served type is registered.
func (r *WorkerRegistry) Validate(known []string) error {
	if len(r.Workers) == 0 {
		return fmt.Errorf("registry contains no workers")
	}

	seen := make(map[string]bool, len(r.Workers))
	for _, w := range r.Workers {
		if w.TaskType == "" {
			return fmt.Errorf("worker missing required field: taskType")
		}
		if seen[w.TaskType] {
			return fmt.Errorf("duplicate task type: %s", w.TaskType)
		}
		seen[w.TaskType] = true

		if w.DisplayName == "" {
			return fmt.Errorf("worker %s missing required field: displayName", w.TaskType)
		}
		if w.Category == "" {
			return fmt.Errorf("worker %s missing required field: category", w.TaskType)
		}
		if w.Status != "" && !validStatuses[w.Status] {
			return fmt.Errorf("worker %s has unknown status %q", w.TaskType, w.Status)
		}
		if w.Timeout != "" {
			if _, err := time.ParseDuration(w.Timeout); err != nil {
				return fmt.Errorf("worker %s has invalid timeout %q", w.TaskType, w.Timeout)
			}
		}
	}

	if len(known) == 0 {
		return nil
	}
	served := make(map[string]bool, len(known))
	for _, t := range known {
		served[t] = true
		if !seen[t] {
			return fmt.Errorf("task type %s is served but not registered", t)
		}
	}
	for t := range seen {
		if !served[t] {
			return fmt.Errorf("task type %s is registered but no worker serves it", t)
		}
	}
	return nil
}
