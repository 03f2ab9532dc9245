package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/xy-planning-network/acrsample"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// safeGORMSession forces a fresh *gorm.Statement so a query can be reused, e.g., for a count.
var safeGORMSession = &gorm.Session{}

// DB wraps *gorm.DB translating its errors into the app's sentinel errors.
type DB struct {
	// *gorm.DB's methods are generally unsafe to use.
	// Specifically, some *gorm.DB methods are not thread-safe
	// and mutate the state of the *gorm.DB backing DB.
	//
	// One solution is to use *gorm.DB.Session to force a clean pointer.
	db *gorm.DB
}

// NewDB constructs a *DB from a *gorm.DB.
func NewDB(db *gorm.DB) *DB { return &DB{db: db} }

// DB exposes the underlying *gorm.DB backing DB.
//
// NB: use in exceptional circumstances only.
func (db *DB) DB() *gorm.DB { return db.db }

// **************************************************************************
// FINISHER METHODS
//
// These methods close out a current query, executing it.
// All finisher methods are terminal and cannot be chained.
// They return any errors occurring within the query chain
// or when executing the query.
//
// **************************************************************************

// Count returns the number of records matching the current query or an error.
func (db *DB) Count() (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	var count int64
	if err := db.db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	return count, nil
}

// Create inserts value into the database, updating value with new data yielding from that insertion.
//
// If value violates a unique constraint defined by the database, ErrExists returns.
// If value is not a database table, ErrMissingData returns.
func (db *DB) Create(value any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	err := db.db.Session(&gorm.Session{FullSaveAssociations: false}).Create(value).Error
	switch {
	case err == nil:
		return nil

	case errors.Is(err, schema.ErrUnsupportedDataType), errors.Is(err, gorm.ErrInvalidData):
		return fmt.Errorf("%w: %T is not a table", acrsample.ErrMissingData, value)

	case errUniqViolation.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", acrsample.ErrExists, err)

	default:
		return fmt.Errorf("%w: failed creating %T: %s", acrsample.ErrUnexpected, value, err)
	}
}

// First retrieves a single record from the database matching the query
// and stores it in dest.
//
// If no matches are found, First returns ErrNotFound.
func (db *DB) First(dest any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	err := db.db.First(dest).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %T", acrsample.ErrNotFound, dest)

	case err != nil && errSQLSyntax.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", acrsample.ErrNotValid, err)

	case err != nil:
		return fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	return nil
}

// Paged turns the results of the current query into a paginated version: PagedData.
//
// Paged requires Model to have been called so the type of the items can be determined.
func (db *DB) Paged(page, perPage int64) (pd PagedData, err error) {
	defer func() {
		// NOTE: This method uses reflect and so can panic.
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: Paged panicked: %s", acrsample.ErrUnexpected, r)
			pd = PagedData{}
		}
	}()

	if db.db.Error != nil {
		return PagedData{}, db.db.Error
	}

	model := db.db.Statement.Model
	if model == nil {
		return PagedData{}, fmt.Errorf("%w: must use Model with Paged", acrsample.ErrMissingData)
	}

	reflectType := reflect.TypeOf(model).Elem()
	if reflectType.Kind() != reflect.Slice {
		model = reflect.New(reflect.SliceOf(reflectType)).Interface()
	}

	pd.Items = model
	pd.Page = atLeastOne(page)
	pd.PerPage = atLeastOne(perPage)

	var total int64
	if err := db.db.Session(safeGORMSession).Count(&total).Error; err != nil {
		return PagedData{}, fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	offset := int((pd.Page - 1) * pd.PerPage)
	if err := db.db.Limit(int(pd.PerPage)).Offset(offset).Find(pd.Items).Error; err != nil {
		return PagedData{}, fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	pd.TotalItems = total
	pd.TotalPages = totalPages(total, pd.PerPage)
	return pd, nil
}

// Update replaces existing data on all records matching the query with values.
//
// If no records are updated, ErrNotFound returns.
func (db *DB) Update(values Updates) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := values.valid(); err != nil {
		return err
	}

	res := db.db.Updates(map[string]any(values))
	switch {
	case res.Error == nil && res.RowsAffected == 0:
		return fmt.Errorf("%w", acrsample.ErrNotFound)

	case res.Error == nil:
		return nil

	case errUniqViolation.MatchString(res.Error.Error()):
		return fmt.Errorf("%w: %s", acrsample.ErrExists, res.Error)

	default:
		return fmt.Errorf("%w: %s", acrsample.ErrUnexpected, res.Error)
	}
}

// **************************************************************************
// QUERY BUILDING METHODS
//
// Query building methods initiate a query and then add clauses to it
// until a finisher method is called.
//
// **************************************************************************

// Model declares the table used for the query.
//
// Model computes the name for the database table from the type of model,
// taking the plural of the table, e.g., User -> users.
func (db *DB) Model(model any) *DB { return &DB{db: db.db.Model(model)} }

// Order applies an ORDER BY clause to the current query.
func (db *DB) Order(order string) *DB { return &DB{db: db.db.Order(order)} }

// Where applies the query fragment to the current query
// as a WHERE or AND clause.
//
// Where supports one or none args.
// If more than one arg is passed, finisher methods will return ErrNotValid.
func (db *DB) Where(query any, args ...any) *DB {
	if len(args) > 1 {
		gdb := db.db.Session(safeGORMSession)
		_ = gdb.AddError(fmt.Errorf("%w: Where supports one or none args", acrsample.ErrNotValid))
		return &DB{db: gdb}
	}

	return &DB{db: db.db.Where(query, args...)}
}

// WithContext runs the query under ctx.
func (db *DB) WithContext(ctx context.Context) *DB { return &DB{db: db.db.WithContext(ctx)} }

// atLeastOne clamps n to 1.
func atLeastOne(n int64) int64 {
	if n < 1 {
		return 1
	}

	return n
}

// totalPages divides total by perPage rounding up.
func totalPages(total, perPage int64) int64 {
	if total <= 0 || perPage <= 0 {
		return 0
	}

	return (total + perPage - 1) / perPage
}
