package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sangkips/mini-crm/internal/config"
	"github.com/sangkips/mini-crm/internal/domain/entity"
	"github.com/sangkips/mini-crm/internal/infrastructure/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dbSeq int64

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		_ = godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB returns a provider over an isolated, migrated database.
// SQLite in memory is used unless TEST_DB_DRIVER=postgres, in which case
// each test gets its own schema that is dropped afterwards.
func SetupTestDB(t *testing.T) *database.Provider {
	t.Helper()
	loadEnv()

	var cfg *config.DatabaseConfig
	if getEnv("TEST_DB_DRIVER", config.DriverSQLite) == config.DriverPostgres {
		cfg = setupPostgresSchema(t)
	} else {
		cfg = &config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			Path:         fmt.Sprintf("file:crm_test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), atomic.AddInt64(&dbSeq, 1)),
			AutoMigrate:  true,
			MaxOpenConns: 1,
		}
	}

	provider := database.NewProvider(cfg, zap.NewNop())
	if _, err := provider.Acquire(); err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = provider.Reset()
	})
	return provider
}

func setupPostgresSchema(t *testing.T) *config.DatabaseConfig {
	t.Helper()

	base := &config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     getEnv("DB_HOST", "127.0.0.1"),
		Port:     getEnv("DB_PORT", "5432"),
		Name:     getEnv("DB_NAME", "crm_db"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "secret"),
		SSLMode:  "disable",
		Timezone: "UTC",
	}
	schema := fmt.Sprintf("test_crm_%d", time.Now().UnixNano()%1000000)

	setupDB, err := database.Open(base)
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	closeGorm(setupDB)

	t.Cleanup(func() {
		cleanDB, err := database.Open(base)
		if err != nil {
			return
		}
		cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
		closeGorm(cleanDB)
	})

	cfg := *base
	cfg.Schema = schema
	cfg.AutoMigrate = true
	return &cfg
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest executes a request against the router. A non-nil form is sent url-encoded.
func DoRequest(r http.Handler, method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// SeedCustomer inserts a customer directly, bypassing validation
func SeedCustomer(t *testing.T, provider *database.Provider, name, email string, phone *string) *entity.Customer {
	t.Helper()
	db, err := provider.Acquire()
	if err != nil {
		t.Fatalf("Failed to acquire test database: %v", err)
	}
	customer := &entity.Customer{Name: name, Email: email, Phone: phone}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("Failed to seed test customer: %v", err)
	}
	return customer
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
