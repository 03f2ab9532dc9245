package postgres

import (
	"fmt"
	"time"

	"github.com/xy-planning-network/acrsample"
	"gorm.io/gorm"
)

// Migration is used to hold the database key and function for creating the migration.
type Migration struct {
	Executor func(*gorm.DB) error
	Key      string
}

// Migrations lists every schema change the app depends on, oldest first.
var Migrations = []Migration{
	{
		Key:      "0001_create_users",
		Executor: func(tx *gorm.DB) error { return tx.AutoMigrate(new(acrsample.User)) },
	},
}

func (m Migration) execute(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := m.Executor(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Exec(`INSERT INTO migrations (key, ran_at) VALUES (?, ?)`, m.Key, time.Now().Unix()).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// MigrateUp ensures schema and the migrations table exist,
// then runs, in order, each Migration not yet recorded.
func MigrateUp(db *gorm.DB, schema string, migrations []Migration) error {
	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
		return fmt.Errorf("%w: failed creating %s schema: %s", acrsample.ErrUnexpected, schema, err)
	}

	err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			ran_at bigint,
			key text,
			CONSTRAINT migrations_key UNIQUE (key)
		)
	`).Error
	if err != nil {
		return fmt.Errorf("%w: failed creating migrations table: %s", acrsample.ErrUnexpected, err)
	}

	toRun, err := pendingMigrations(db, migrations)
	if err != nil {
		return err
	}

	for _, m := range toRun {
		if err := m.execute(db); err != nil {
			return fmt.Errorf("%w: migration %s failed: %s", acrsample.ErrUnexpected, m.Key, err)
		}
	}

	return nil
}

// pendingMigrations filters out migrations already recorded.
func pendingMigrations(db *gorm.DB, all []Migration) ([]Migration, error) {
	var ran []string
	if err := db.Raw("SELECT key FROM migrations;").Scan(&ran).Error; err != nil {
		return nil, fmt.Errorf("%w: failed fetching ran migrations: %s", acrsample.ErrUnexpected, err)
	}

	return filterRan(all, ran), nil
}

func filterRan(all []Migration, ran []string) []Migration {
	seen := make(map[string]bool, len(ran))
	for _, key := range ran {
		seen[key] = true
	}

	toRun := make([]Migration, 0, len(all))
	for _, m := range all {
		if !seen[m.Key] {
			toRun = append(toRun, m)
		}
	}

	return toRun
}
