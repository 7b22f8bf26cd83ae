// Package repository declares the persistence interfaces the service layer
// programs against. The sqlite subpackage provides the concrete
// implementation; tests provide in-memory fakes.
package repository

import (
	"context"

	"github.com/tumgpt/chat-backend/internal/model"
)

// ListOptions carries pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts.
//
// GetByEmail and GetByUsername exist separately from GetByID because both
// fields are unique lookup keys: email is the token subject and the login
// key, username is checked for conflicts at registration. All methods return
// apperror.ErrNotFound (wrapped) when no record matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// MessageRepository persists chat messages.
//
// ListBySender and ListByCollection are the ownership-scoped queries: every
// non-admin read path goes through one of them, keyed by the owner's id.
// Deleting a user cascades to their messages at the storage level, so this
// interface has no bulk delete.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	List(ctx context.Context, opts ListOptions) ([]model.Message, error)
	ListBySender(ctx context.Context, senderID string, opts ListOptions) ([]model.Message, error)
	ListByCollection(ctx context.Context, senderID, collection string, opts ListOptions) ([]model.Message, error)
	Update(ctx context.Context, msg *model.Message) error
	Delete(ctx context.Context, id string) error
}
