package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tle-lab/reservations/internal/config"
	"github.com/tle-lab/reservations/internal/repository"
	"github.com/tle-lab/reservations/internal/repository/docstore"
)

// Store is an opened storage backend.  DB is nil for the json driver.
type Store struct {
	Repo repository.Repository
	DB   *gorm.DB
}

// Ping checks the database connection; the json driver has nothing to
// check and returns nil.
func (s *Store) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OptionsFrom maps storage settings onto connection options.
func OptionsFrom(sc config.StoreConfig) Options {
	return Options{
		Dialect: sc.DBDialect,
		User:    sc.DBUser,
		Pass:    sc.DBPass,
		Host:    sc.DBHost,
		Port:    sc.DBPort,
		Name:    sc.DBName,
		Debug:   sc.DBDebug,
	}
}

// OpenStore opens the backend named by sc.StorageDriver.  With migrate set
// the SQL schema is brought up to date first.
func OpenStore(sc config.StoreConfig, migrate bool) (*Store, error) {
	switch sc.StorageDriver {
	case config.StorageJSON:
		ds, err := docstore.Open(sc.JSONPath)
		if err != nil {
			return nil, err
		}
		return &Store{Repo: ds}, nil
	case config.StorageSQL:
		db, err := Open(OptionsFrom(sc))
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := repository.Migrate(db); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return &Store{Repo: repository.NewSQLStore(db), DB: db}, nil
	}
	return nil, fmt.Errorf("database: unknown storage driver %q", sc.StorageDriver)
}

// ResyncSequences moves the Postgres id sequence of reservations past the
// highest stored id.  Rows inserted with explicit ids (the legacy import)
// do not advance it.  Other dialects need nothing.
func (s *Store) ResyncSequences(ctx context.Context) error {
	if s.DB == nil || s.DB.Dialector.Name() != "postgres" {
		return nil
	}
	return s.DB.WithContext(ctx).Exec(
		`SELECT setval(pg_get_serial_sequence('reservations', 'id'), COALESCE((SELECT MAX(id) FROM reservations), 0) + 1, false)`,
	).Error
}
