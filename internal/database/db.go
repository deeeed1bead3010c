package database

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options describes how to reach the relational database.
type Options struct {
	Dialect string // "mysql" or "postgres"
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string
	Debug   bool // log every statement instead of warnings only
}

// MySQLDSN builds the go-sql-driver DSN.  parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps times consistent; clientFoundRows makes
// RowsAffected count matched rows so no-op updates are not reported as
// missing.
func MySQLDSN(o Options) string {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, o.Port)
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// PostgresDSN builds a libpq keyword/value DSN.
func PostgresDSN(o Options) string {
	dsn := fmt.Sprintf("host=%s user=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		o.Host, o.User, o.Name, o.Port)
	if o.Pass != "" {
		dsn += fmt.Sprintf(" password=%s", o.Pass)
	}
	return dsn
}

// Open connects through gorm and verifies the connection.
func Open(o Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch o.Dialect {
	case "", "mysql":
		dialector = gormmysql.Open(MySQLDSN(o))
	case "postgres", "postgresql", "pg":
		dialector = postgres.Open(PostgresDSN(o))
	default:
		return nil, fmt.Errorf("database: unknown dialect %q", o.Dialect)
	}

	level := logger.Warn
	if o.Debug {
		level = logger.Info
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
