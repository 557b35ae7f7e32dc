package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/config"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the process-wide connection opened by Initialize
var DB *gorm.DB

// Open connects to postgres or sqlite. Driver errors are translated so that
// unique violations surface as gorm.ErrDuplicatedKey on both backends.
func Open(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if verbose {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if driver == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY under load
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

// Initialize opens the configured database into DB
func Initialize(cfg *config.Config) error {
	db, err := Open(cfg.DBDriver, cfg.DatabaseURL, cfg.Environment == "development")
	if err != nil {
		return err
	}
	DB = db
	logger.Log.Info("Database connected", zap.String("driver", cfg.DBDriver))
	return nil
}

// OpenInMemory returns a fresh, migrated sqlite database private to the caller
func OpenInMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open("sqlite", dsn, false)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs AutoMigrate against DB
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := AutoMigrate(DB); err != nil {
		return err
	}
	logger.Log.Info("Database migrations completed")
	return nil
}

// AutoMigrate creates or updates every table and the supporting indexes
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func createIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reports_status_created ON reports (status, created_at DESC)",
	}
	if db.Dialector.Name() == "postgres" {
		stmts = append(stmts,
			"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
			"CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
			"CREATE INDEX IF NOT EXISTS idx_posts_search ON posts USING gin(to_tsvector('english', title || ' ' || coalesce(body, '')))",
		)
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
