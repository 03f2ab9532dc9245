package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/xy-planning-network/acrsample"
)

// UserStore persists acrsample.User records.
type UserStore struct {
	db *DB
}

// NewUserStore constructs a *UserStore querying db.
func NewUserStore(db *DB) *UserStore { return &UserStore{db: db} }

// Count returns how many users exist.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return s.db.WithContext(ctx).Model(new(acrsample.User)).Count()
}

// Create inserts u. A username already taken returns ErrExists.
func (s *UserStore) Create(ctx context.Context, u *acrsample.User) error {
	if u == nil || strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: username required", acrsample.ErrMissingData)
	}

	return s.db.WithContext(ctx).Create(u)
}

// FindByID retrieves the user with the primary key id.
func (s *UserStore) FindByID(ctx context.Context, id uint) (acrsample.User, error) {
	var u acrsample.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u); err != nil {
		return acrsample.User{}, err
	}

	return u, nil
}

// FindByUsername retrieves the user whose username exactly matches username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (acrsample.User, error) {
	var u acrsample.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u); err != nil {
		return acrsample.User{}, err
	}

	return u, nil
}

// Page retrieves users ordered by id alongside the total number of users.
func (s *UserStore) Page(ctx context.Context, page, perPage int64) ([]acrsample.User, int64, error) {
	pd, err := s.db.WithContext(ctx).Model(new(acrsample.User)).Order("id").Paged(page, perPage)
	if err != nil {
		return nil, 0, err
	}

	users, ok := pd.Items.(*[]acrsample.User)
	if !ok {
		return nil, 0, fmt.Errorf("%w: paged %T", acrsample.ErrUnexpected, pd.Items)
	}

	return *users, pd.TotalItems, nil
}

// UpdateLastLogin stamps the user's last successful login.
func (s *UserStore) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.db.
		WithContext(ctx).
		Model(new(acrsample.User)).
		Where("id = ?", id).
		Update(Updates{"last_login": sql.NullTime{Time: at, Valid: true}})
}
