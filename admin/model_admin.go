package admin

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/xy-planning-network/acrsample"
)

var modelNameRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// A Column renders one field of a record in a change list.
type Column struct {
	Header string
	Value  func(any) string
}

// A ModelAdmin describes how the Site presents one kind of record.
type ModelAdmin struct {
	// Name identifies the model in URLs, e.g., "user" serves /admin/user/.
	Name string

	// Verbose is the human-readable plural, e.g., "Users".
	Verbose string

	Columns []Column

	// Count reports how many records exist.
	Count func(ctx context.Context) (int64, error)

	// List retrieves one page of records alongside the total number of records.
	List func(ctx context.Context, page, perPage int64) ([]any, int64, error)
}

func (m ModelAdmin) valid() error {
	switch {
	case !modelNameRegexp.MatchString(m.Name):
		return fmt.Errorf("%w: name %q must be lowercase letters, digits or underscores", ErrBadModel, m.Name)
	case m.Verbose == "":
		return fmt.Errorf("%w: %s has no verbose name", ErrBadModel, m.Name)
	case len(m.Columns) == 0:
		return fmt.Errorf("%w: %s has no columns", ErrBadModel, m.Name)
	case m.Count == nil || m.List == nil:
		return fmt.Errorf("%w: %s cannot be queried", ErrBadModel, m.Name)
	}

	return nil
}

// UserAdmin presents the users in store.
func UserAdmin(store UserStore) ModelAdmin {
	user := func(fn func(acrsample.User) string) func(any) string {
		return func(v any) string {
			u, ok := v.(acrsample.User)
			if !ok {
				return ""
			}

			return fn(u)
		}
	}

	return ModelAdmin{
		Name:    "user",
		Verbose: "Users",
		Columns: []Column{
			{Header: "Username", Value: user(func(u acrsample.User) string { return u.Username })},
			{Header: "Email address", Value: user(func(u acrsample.User) string { return u.Email })},
			{Header: "Active", Value: user(func(u acrsample.User) string { return yesNo(u.IsActive) })},
			{Header: "Staff status", Value: user(func(u acrsample.User) string { return yesNo(u.IsStaff) })},
			{Header: "Superuser status", Value: user(func(u acrsample.User) string { return yesNo(u.IsSuperuser) })},
			{Header: "Last login", Value: user(func(u acrsample.User) string {
				if !u.LastLogin.Valid {
					return "-"
				}

				return u.LastLogin.Time.UTC().Format(time.RFC822)
			})},
		},
		Count: store.Count,
		List: func(ctx context.Context, page, perPage int64) ([]any, int64, error) {
			users, total, err := store.Page(ctx, page, perPage)
			if err != nil {
				return nil, 0, err
			}

			items := make([]any, len(users))
			for i, u := range users {
				items[i] = u
			}

			return items, total, nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}
