package tasks

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	taskguard "github.com/goliatone/go-taskguard"
	"github.com/uptrace/bun"
)

// Repository is the storage surface for tasks. List is owner scoped at
// the query level so a caller can never enumerate records it does not
// own, regardless of what the handler above it does.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Task, error)
	Create(ctx context.Context, task *Task) (*Task, error)
	Update(ctx context.Context, task *Task) (*Task, error)
	Delete(ctx context.Context, id int64) error
}

type repo struct {
	db *bun.DB
}

var _ Repository = (*repo)(nil)

// NewRepository builds the bun backed task repository.
func NewRepository(db *bun.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetByID(ctx context.Context, id int64) (*Task, error) {
	record := &Task{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("task not found", errors.CategoryNotFound).
				WithTextCode("TASK_NOT_FOUND").
				WithMetadata(map[string]any{"id": id})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load task")
	}
	return record, nil
}

func (r *repo) ListByOwner(ctx context.Context, ownerID int64) ([]*Task, error) {
	records := []*Task{}
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list tasks")
	}
	return records, nil
}

func (r *repo) Create(ctx context.Context, task *Task) (*Task, error) {
	if task.OwnerID == 0 {
		return nil, taskguard.ErrOwnershipRequired
	}

	if _, err := r.db.NewInsert().Model(task).Returning("*").Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create task")
	}
	return task, nil
}

func (r *repo) Update(ctx context.Context, task *Task) (*Task, error) {
	task.UpdatedAt = time.Now()
	res, err := r.db.NewUpdate().
		Model(task).
		Column("title", "description", "done", "due_at", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not update task")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, errors.New("task not found", errors.CategoryNotFound).
			WithTextCode("TASK_NOT_FOUND").
			WithMetadata(map[string]any{"id": task.ID})
	}

	return task, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*Task)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not delete task")
	}
	return nil
}
