package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// RunRepository persists finished runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *entities.RunRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*entities.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*entities.RunRecord, error)
}
