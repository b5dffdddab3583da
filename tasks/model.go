// Package tasks is the protected resource domain: every record has a
// single owner and every operation on it passes through the ownership
// enforcer.
package tasks

import (
	"time"

	"github.com/uptrace/bun"
)

// Task is an owned resource. OwnerID is set from the authenticated
// principal at creation and never from request payloads.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	OwnerID     int64      `bun:"owner_id,notnull" json:"ownerId"`
	Title       string     `bun:"title,notnull" json:"title"`
	Description string     `bun:"description" json:"description"`
	Done        bool       `bun:"done,notnull,default:false" json:"done"`
	DueAt       *time.Time `bun:"due_at" json:"due_at,omitempty"`

	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
