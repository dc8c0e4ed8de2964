package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/postscore/internal/models"
)

// Init opens the database named by dbURL, which must start with
// "postgres://" or "sqlite://".
func Init(dbURL string, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(dbURL, "postgres://"):
		// The pgx driver takes the full URL as its DSN
		dialector = postgres.Open(dbURL)
		log.Info("Connecting to PostgreSQL database...")
	case strings.HasPrefix(dbURL, "sqlite://"):
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		dialector = sqlite.Open(dsn)
		log.WithField("path", dsn).Info("Connecting to SQLite database")
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL prefix %q: must start with 'postgres://' or 'sqlite://'", dbURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Be quiet by default
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("Database connection established.")
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ScoreRecord{})
}
