package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
)

// MemoryTaskRepository keeps tasks in process memory. Each task lives behind
// an atomic pointer; readers load immutable snapshots and writers swap in a
// new record with CompareAndSwap, so reads never block.
type MemoryTaskRepository struct {
	tasks sync.Map // id -> *atomic.Pointer[entities.Task]
	now   func() time.Time
}

var _ repositories.TaskRepository = (*MemoryTaskRepository)(nil)

// NewMemoryTaskRepository creates an empty in-memory task repository
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new pending task
func (r *MemoryTaskRepository) Create(ctx context.Context, fileID string, cfg entities.TaskConfig) (*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	task := entities.NewTask(fileID, cfg)
	slot := &atomic.Pointer[entities.Task]{}
	slot.Store(task)
	r.tasks.Store(task.ID, slot)
	return task.Clone(), nil
}

// Update applies mutate with compare-and-swap, retrying on contention
func (r *MemoryTaskRepository) Update(ctx context.Context, id string, mutate repositories.TaskMutator) (*entities.Task, error) {
	slot, ok := r.slot(id)
	if !ok {
		return nil, entities.ErrNotFound
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := slot.Load()
		if cur == nil {
			return nil, entities.ErrNotFound
		}
		if cur.Status.IsTerminal() {
			return cur.Clone(), entities.ErrAlreadyTerminal
		}

		next := cur.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		next.Settle(cur, r.now())
		if err := next.ValidateTransition(cur); err != nil {
			return nil, err
		}
		if slot.CompareAndSwap(cur, next) {
			return next.Clone(), nil
		}
	}
}

// Get returns a snapshot of the task
func (r *MemoryTaskRepository) Get(ctx context.Context, id string) (*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slot, ok := r.slot(id)
	if !ok {
		return nil, entities.ErrNotFound
	}
	t := slot.Load()
	if t == nil {
		return nil, entities.ErrNotFound
	}
	return t.Clone(), nil
}

// GetByFileID returns the task that processes the given upload
func (r *MemoryTaskRepository) GetByFileID(ctx context.Context, fileID string) (*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found *entities.Task
	r.tasks.Range(func(_, v any) bool {
		if t := v.(*atomic.Pointer[entities.Task]).Load(); t != nil && t.FileID == fileID {
			found = t.Clone()
			return false
		}
		return true
	})
	if found == nil {
		return nil, entities.ErrNotFound
	}
	return found, nil
}

// ListByStatus returns tasks with the given status, oldest first
func (r *MemoryTaskRepository) ListByStatus(ctx context.Context, status entities.TaskStatus, limit int) ([]*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 100
	}
	var out []*entities.Task
	r.tasks.Range(func(_, v any) bool {
		if t := v.(*atomic.Pointer[entities.Task]).Load(); t != nil && t.Status == status {
			out = append(out, t.Clone())
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByStatus counts stored tasks per status
func (r *MemoryTaskRepository) CountByStatus(ctx context.Context) (map[entities.TaskStatus]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[entities.TaskStatus]int64)
	r.tasks.Range(func(_, v any) bool {
		if t := v.(*atomic.Pointer[entities.Task]).Load(); t != nil {
			counts[t.Status]++
		}
		return true
	})
	return counts, nil
}

// Delete removes the task; missing ids are ignored
func (r *MemoryTaskRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v, ok := r.tasks.LoadAndDelete(id); ok {
		// Fails any writer still holding the slot.
		v.(*atomic.Pointer[entities.Task]).Store(nil)
	}
	return nil
}

// Ping always succeeds
func (r *MemoryTaskRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryTaskRepository) slot(id string) (*atomic.Pointer[entities.Task], bool) {
	v, ok := r.tasks.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*atomic.Pointer[entities.Task]), true
}
