package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/Baaaki/message-board/internal/config"
	"github.com/Baaaki/message-board/internal/models"
	"github.com/Baaaki/message-board/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DSN builds a postgres:// URL from the individual settings.
// Credentials and the database name are escaped, so any character is allowed.
func DSN(cfg *config.Config) string {
	query := url.Values{}
	query.Set("sslmode", cfg.DBSSLMode)
	query.Set("connect_timeout", strconv.Itoa(int(cfg.DBConnectTimeout/time.Second)))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort)),
		Path:     "/" + cfg.DBName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Connect opens the pooled connection and verifies it with a ping
func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.IsProduction() {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := ConfigurePool(db, cfg); err != nil {
		return nil, err
	}

	logger.Log.Info("Database connected successfully",
		zap.String("host", cfg.DBHost),
		zap.Int("port", cfg.DBPort),
		zap.String("database", cfg.DBName),
		zap.Int("max_conns", cfg.DBMaxConns),
	)

	return db, nil
}

// ConfigurePool applies the pool limits to the underlying *sql.DB
func ConfigurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxConns)
	sqlDB.SetConnMaxIdleTime(cfg.DBIdleTimeout)
	return nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Message{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Log.Info("Database migration completed")
	return nil
}

// Close drains the pool. Safe to call with a nil handle.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
