package database

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"github.com/sangkips/mini-crm/internal/config"
	"github.com/sangkips/mini-crm/internal/domain/entity"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connector hands out the shared database handle
type Connector interface {
	Acquire() (*gorm.DB, error)
}

var _ Connector = (*Provider)(nil)

// Opener establishes a new database handle
type Opener func(cfg *config.DatabaseConfig) (*gorm.DB, error)

// Provider lazily establishes one shared database handle for the process
type Provider struct {
	cfg    *config.DatabaseConfig
	logger *zap.Logger
	open   Opener

	mu sync.Mutex
	db atomic.Pointer[gorm.DB]
}

// Option configures a Provider
type Option func(*Provider)

// WithOpener replaces the default driver-based opener
func WithOpener(open Opener) Option {
	return func(p *Provider) {
		p.open = open
	}
}

// NewProvider creates a provider. No connection is made until Acquire is called.
func NewProvider(cfg *config.DatabaseConfig, log *zap.Logger, opts ...Option) *Provider {
	p := &Provider{
		cfg:    cfg,
		logger: log,
		open:   Open,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns the shared handle, opening it on first use.
// Concurrent first callers wait for a single open; a failed open is not cached.
func (p *Provider) Acquire() (*gorm.DB, error) {
	if db := p.db.Load(); db != nil {
		return db, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if db := p.db.Load(); db != nil {
		return db, nil
	}

	db, err := p.open(p.cfg)
	if err != nil {
		p.logger.Error("Database connection failed", zap.String("driver", p.cfg.Driver), zap.Error(err))
		return nil, err
	}

	if p.cfg.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			closeDB(db)
			p.logger.Error("Database migration failed", zap.Error(err))
			return nil, err
		}
	}

	p.db.Store(db)
	p.logger.Info("Database connection established", zap.String("driver", p.cfg.Driver))
	return db, nil
}

// Reset drops the cached handle. The next Acquire opens a new one.
func (p *Provider) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	db := p.db.Swap(nil)
	if db == nil {
		return nil
	}
	return closeDB(db)
}

// Open opens a database handle for the configured driver
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres, "":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		})
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Customer{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := backfillSearchKeys(db); err != nil {
		return fmt.Errorf("failed to backfill search keys: %w", err)
	}
	return nil
}

// backfillSearchKeys fills name_key and email_key on rows stored before those columns existed
func backfillSearchKeys(db *gorm.DB) error {
	writer := db.Session(&gorm.Session{NewDB: true})
	var pending []entity.Customer
	return db.Select("id", "name", "email").
		Where("name_key = ''").
		FindInBatches(&pending, 500, func(_ *gorm.DB, _ int) error {
			for i := range pending {
				c := &pending[i]
				c.SetSearchKeys()
				err := writer.Model(&entity.Customer{}).
					Where("id = ?", c.ID).
					UpdateColumns(map[string]interface{}{
						"name_key":  c.NameKey,
						"email_key": c.EmailKey,
					}).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
