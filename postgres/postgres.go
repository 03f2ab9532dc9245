package postgres

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/xy-planning-network/acrsample"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const cxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

// CxnConfig holds connection information used to connect to a PostgreSQL database.
type CxnConfig struct {
	IsTestDB     bool
	URL          string
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxIdleCxns  int
	MaxOpenCxns  int
	SlowQueryLog time.Duration
}

// Connect creates a database connection through GORM according to the connection config and runs all migrations.
func Connect(config *CxnConfig, migrations []Migration, env acrsample.Environment) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no connection config", acrsample.ErrBadConfig)
	}

	// https://gorm.io/docs/logger.html
	c := logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  env.IsDevelopment(),
	}

	if config.SlowQueryLog > 0 {
		c.SlowThreshold = config.SlowQueryLog
	}

	gdb, err := gorm.Open(postgres.Open(buildCxnStr(config)), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), c),
		NamingStrategy: schema.NamingStrategy{
			NameReplacer: strings.NewReplacer("Table", ""),
		},
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed connecting: %s", acrsample.ErrBadConfig, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	if config.MaxIdleCxns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleCxns)
	}

	if config.MaxOpenCxns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenCxns)
	}

	if config.IsTestDB {
		if err := gdb.Exec("DROP SCHEMA IF EXISTS public CASCADE;").Error; err != nil {
			return nil, fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
		}
	}

	if err := MigrateUp(gdb, "public", migrations); err != nil {
		return nil, err
	}

	return NewDB(gdb), nil
}

// Close releases the connection pool.
func Close(db *DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB().DB()
	if err != nil {
		return fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	return sqlDB.Close()
}

func buildCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		cxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		sslMode,
	)
}

// WipeDB queries for all of the tables in schema and then drops the data in these tables.
func WipeDB(db *gorm.DB, schema string) error {
	var tables []string
	err := db.
		Table("information_schema.tables").
		Select("table_name").
		Where("table_schema = ?", schema).
		Not("table_type = ?", "VIEW").
		Pluck("table_name", &tables).
		Error
	if err != nil {
		return err
	}

	if len(tables) == 0 {
		return nil
	}

	return db.Exec(fmt.Sprintf("TRUNCATE %s CASCADE;", strings.Join(tables, ", "))).Error
}
