// Package audit defines the document transition trail.
//
// Services record one Entry per successful state change inside the same
// transaction as the change itself, so the trail never disagrees with the
// documents it describes.
package audit

import (
	"context"
	"time"

	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
)

// Entry is a single audit record.
type Entry struct {
	ID         id.ID          `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   id.ID          `json:"entityId"`
	Action     Action         `json:"action"`
	FromStatus string         `json:"fromStatus,omitempty"`
	ToStatus   string         `json:"toStatus,omitempty"`
	UserID     id.ID          `json:"userId"`
	Role       string         `json:"role,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Record fills identity and timestamp from ctx and writes entry.
// A nil recorder disables auditing.
func Record(ctx context.Context, r Recorder, entry Entry) error {
	if r == nil {
		return nil
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if user := appctx.GetUser(ctx); user != nil {
		if id.IsNil(entry.UserID) {
			entry.UserID = user.UserID
		}
		entry.Role = user.Role
	}
	return r.Record(ctx, entry)
}

// Transition is a shortcut for a status change entry.
func Transition(entityType string, entityID id.ID, from, to string, changes map[string]any) Entry {
	return Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     ActionTransition,
		FromStatus: from,
		ToStatus:   to,
		Changes:    changes,
	}
}

// Created is a shortcut for a creation entry.
func Created(entityType string, entityID id.ID, status string, changes map[string]any) Entry {
	return Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     ActionCreate,
		ToStatus:   status,
		Changes:    changes,
	}
}
