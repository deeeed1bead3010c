package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/tle-lab/reservations/internal/model"
)

// SQLStore implements Repository on top of gorm.  The same type serves
// both the root connection and transactional views; inside WithTransaction
// db is the *gorm.DB bound to the open transaction.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore returns a store bound to the given connection.
func NewSQLStore(db *gorm.DB) *SQLStore { return &SQLStore{db: db} }

var _ Repository = (*SQLStore)(nil)

// Migrate creates or updates the users, reservations and
// reservation_items tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Reservation{}, &model.ReservationItem{}); err != nil {
		return err
	}
	for _, stmt := range dialectDDL(db.Dialector.Name()) {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// mysqlUsernameBinary keeps usernames case-sensitive on MySQL, whose
// default utf8mb4 collations fold case in comparisons and unique indexes.
const mysqlUsernameBinary = "ALTER TABLE users MODIFY username VARCHAR(191) NOT NULL COLLATE utf8mb4_bin"

// dialectDDL lists statements Migrate runs after AutoMigrate.
func dialectDDL(dialect string) []string {
	if dialect == "mysql" {
		return []string{mysqlUsernameBinary}
	}
	return nil
}

// WithTransaction runs fn inside a database transaction.  gorm commits
// when fn returns nil and rolls back on error or panic; nested calls use
// savepoints.  Errors returned by fn come back unchanged.
func (s *SQLStore) WithTransaction(ctx context.Context, fn func(tx Repository) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&SQLStore{db: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return persistErr("transaction", err)
}

func (s *SQLStore) conn(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

// isDuplicate recognizes unique-key violations from either dialect.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
