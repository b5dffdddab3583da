package tasks

import (
	"context"

	taskguard "github.com/goliatone/go-taskguard"
)

// Ownable is anything carrying an owner id the enforcer can check.
type Ownable interface {
	GetOwnerID() int64
}

// GetOwnerID implements Ownable.
func (t *Task) GetOwnerID() int64 {
	return t.OwnerID
}

// AuthorizeAccess is the single authorization decision: the principal
// either owns the resource or it does not. Reads and writes use the
// same rule, and a denial never reveals whether the resource exists
// for someone else.
func AuthorizeAccess(principal *taskguard.Principal, resource Ownable) error {
	if principal == nil {
		return taskguard.ErrTokenMissing
	}

	if resource == nil || !principal.Owns(resource.GetOwnerID()) {
		return taskguard.ErrOwnershipRequired
	}

	return nil
}

// Service wraps the repository with ownership enforcement. Every
// mutation follows fetch, check, act: the record is loaded, ownership
// verified, then the operation runs.
type Service struct {
	repo   Repository
	logger taskguard.Logger
}

func NewService(repo Repository, logger taskguard.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create persists a new task owned by the principal. Any owner value
// present on the incoming record is discarded.
func (s *Service) Create(ctx context.Context, principal *taskguard.Principal, task *Task) (*Task, error) {
	if principal == nil {
		return nil, taskguard.ErrTokenMissing
	}

	task.ID = 0
	task.OwnerID = principal.UserID

	return s.repo.Create(ctx, task)
}

// Get returns the task when the principal owns it.
func (s *Service) Get(ctx context.Context, principal *taskguard.Principal, id int64) (*Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeAccess(principal, task); err != nil {
		s.logger.Warn("task access denied", "task_id", id, "principal", principal)
		return nil, err
	}

	return task, nil
}

// List returns only the principal's tasks. Scoping happens in the
// repository query, not by post filtering.
func (s *Service) List(ctx context.Context, principal *taskguard.Principal) ([]*Task, error) {
	if principal == nil {
		return nil, taskguard.ErrTokenMissing
	}

	return s.repo.ListByOwner(ctx, principal.UserID)
}

// Update applies changes to an owned task. The owner id is immutable;
// whatever the payload carried is overwritten with the stored value.
func (s *Service) Update(ctx context.Context, principal *taskguard.Principal, id int64, changes *Task) (*Task, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeAccess(principal, current); err != nil {
		s.logger.Warn("task update denied", "task_id", id, "principal", principal)
		return nil, err
	}

	current.Title = changes.Title
	current.Description = changes.Description
	current.Done = changes.Done
	current.DueAt = changes.DueAt

	return s.repo.Update(ctx, current)
}

// Delete removes an owned task.
func (s *Service) Delete(ctx context.Context, principal *taskguard.Principal, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := AuthorizeAccess(principal, current); err != nil {
		s.logger.Warn("task delete denied", "task_id", id, "principal", principal)
		return err
	}

	return s.repo.Delete(ctx, id)
}
