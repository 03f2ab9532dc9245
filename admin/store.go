package admin

import (
	"context"
	"time"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/http/middleware"
)

//go:generate mockgen -destination=mock/user_store.go -package=mock . UserStore

// A UserStore looks up and persists the users who may sign in to the Site.
//
// Lookups of users that do not exist return an error wrapping acrsample.ErrNotFound.
type UserStore interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, u *acrsample.User) error
	FindByID(ctx context.Context, id uint) (acrsample.User, error)
	FindByUsername(ctx context.Context, username string) (acrsample.User, error)
	Page(ctx context.Context, page, perPage int64) ([]acrsample.User, int64, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

// UserStorer adapts store for middleware.CurrentUser.
func UserStorer(store UserStore) middleware.UserStorer {
	return func(ctx context.Context, id uint) (middleware.User, error) {
		u, err := store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		return u, nil
	}
}
