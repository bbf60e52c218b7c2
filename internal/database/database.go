package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/technotronz/symposium/internal/models"
)

var (
	db      *gorm.DB
	dbErr   error
	dbOnce  sync.Once
	dbMutex sync.RWMutex
)

// Connect opens the shared connection pool and runs migrations. Repeated
// calls return the pool created by the first one.
func Connect(dsn, logLevel string) (*gorm.DB, error) {
	dbOnce.Do(func() {
		conn, err := open(dsn, logLevel)
		dbMutex.Lock()
		db, dbErr = conn, err
		dbMutex.Unlock()
	})
	return DB(), dbErr
}

// DB exposes the initialized gorm.DB instance.
func DB() *gorm.DB {
	dbMutex.RLock()
	defer dbMutex.RUnlock()
	return db
}

// Close releases the pool.
func Close() error {
	conn := DB()
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func open(dsn, logLevel string) (*gorm.DB, error) {
	if err := ensureDatabase(dsn); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	logrus.Info("database connected and migrated")
	return conn, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.EventRegistration{},
		&models.WorkshopRegistration{},
		&models.UserWorkshopStatus{},
		&models.PaymentTransaction{},
		&models.UserPayment{},
		&models.UserPaymentWorkshop{},
		&models.PasswordResetToken{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	logrus.WithField("database", dbName).Info("creating database")
	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
