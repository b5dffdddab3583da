package taskguard

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the repository surface for credential records.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)
var _ UserTracker = (*users)(nil)

// NewUsersRepository builds the bun backed Users repository.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound.WithMetadata(map[string]any{"id": id})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user by id")
	}
	return record, nil
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound.WithMetadata(map[string]any{"username": username})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user by username")
	}
	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if _, err := tx.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user")
	}
	return user, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: raw SQL so login_attempt_at is reset to NULL; a zero-value
	// model update would skip the column.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("login_attempts = ?", user.LoginAttempts+1).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)

	return err
}
