package repositories

import (
	"context"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// TaskMutator edits a private copy of the current task record. Returning an
// error aborts the update without writing.
type TaskMutator func(t *entities.Task) error

// TaskRepository is the single source of truth for task lifecycle state.
// Every write goes through Update, which serializes writers per task with
// compare-and-swap and enforces the task invariants.
type TaskRepository interface {
	Create(ctx context.Context, fileID string, cfg entities.TaskConfig) (*entities.Task, error)

	// Update applies mutate atomically. A terminal task is never handed to
	// mutate; ErrAlreadyTerminal is returned together with the stored record.
	Update(ctx context.Context, id string, mutate TaskMutator) (*entities.Task, error)

	Get(ctx context.Context, id string) (*entities.Task, error)
	GetByFileID(ctx context.Context, fileID string) (*entities.Task, error)

	// ListByStatus returns tasks oldest first. A zero limit means 100, a
	// negative one means all.
	ListByStatus(ctx context.Context, status entities.TaskStatus, limit int) ([]*entities.Task, error)
	CountByStatus(ctx context.Context) (map[entities.TaskStatus]int64, error)

	// Delete is idempotent.
	Delete(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}
