package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/church-portal-be/internal/models"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=../mocks/user_store_mock.go github.com/hongminglow/church-portal-be/internal/storage UserStore

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// UserStore captures the read-only credential lookups the auth service needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// FindAdminByEmail behaves like FindByEmail but only matches admin accounts.
	FindAdminByEmail(ctx context.Context, email string) (models.User, error)
	Ping(ctx context.Context) error
}
