package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/repositories"
)

// RunRepository keeps finished runs in memory
type RunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*entities.RunRecord
}

// NewRunRepository creates an empty run repository
func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[uuid.UUID]*entities.RunRecord)}
}

var _ repositories.RunRepository = (*RunRepository)(nil)

// SaveRun stores the run, replacing any previous record with the same ID
func (r *RunRepository) SaveRun(_ context.Context, run *entities.RunRecord) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("cannot save run without an ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

// GetRun returns a stored run
func (r *RunRepository) GetRun(_ context.Context, id uuid.UUID) (*entities.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, repositories.ErrNotFound)
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recently started first. limit <= 0 returns all.
func (r *RunRepository) ListRuns(_ context.Context, limit int) ([]*entities.RunRecord, error) {
	r.mu.RLock()
	runs := make([]*entities.RunRecord, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
