package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		Version: "1.0.0",
		Workers: []Worker{
			{TaskType: "resolve-entity", DisplayName: "Resolve Entity", Category: "entity", Status: StatusCompleted, Timeout: "30s"},
			{TaskType: "create-document", DisplayName: "Create Document", Category: "document", Status: StatusPlanned},
		},
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")

	require.NoError(t, Save(createTestRegistry(), path))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, reg.Workers, 2)
	assert.NotEmpty(t, reg.LastUpdated)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerRegistry)
		known   []string
		wantErr string
	}{
		{name: "valid without known types", mutate: func(*WorkerRegistry) {}},
		{name: "valid with matching types", mutate: func(*WorkerRegistry) {}, known: []string{"resolve-entity", "create-document"}},
		{name: "empty", mutate: func(r *WorkerRegistry) { r.Workers = nil }, wantErr: "no workers"},
		{name: "duplicate", mutate: func(r *WorkerRegistry) { r.Workers[1].TaskType = "resolve-entity" }, wantErr: "duplicate task type"},
		{name: "missing display name", mutate: func(r *WorkerRegistry) { r.Workers[0].DisplayName = "" }, wantErr: "displayName"},
		{name: "bad timeout", mutate: func(r *WorkerRegistry) { r.Workers[0].Timeout = "soon" }, wantErr: "invalid timeout"},
		{name: "bad status", mutate: func(r *WorkerRegistry) { r.Workers[0].Status = "done" }, wantErr: "unknown status"},
		{name: "served but unregistered", mutate: func(*WorkerRegistry) {}, known: []string{"resolve-entity", "create-document", "resolve-postal-code"}, wantErr: "resolve-postal-code is served"},
		{name: "registered but unserved", mutate: func(*WorkerRegistry) {}, known: []string{"resolve-entity"}, wantErr: "create-document is registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := createTestRegistry()
			tt.mutate(reg)

			err := reg.Validate(tt.known)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetStatus(t *testing.T) {
	reg := createTestRegistry()

	require.NoError(t, reg.SetStatus("create-document", StatusVerified))
	w, ok := reg.Find("create-document")
	require.True(t, ok)
	assert.Equal(t, StatusVerified, w.Status)

	assert.Error(t, reg.SetStatus("create-document", "shipped"))
	assert.Error(t, reg.SetStatus("missing", StatusCompleted))
}
