package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/auth"
	"github.com/frahmantamala/hospital-management/internal/core/events"
	"github.com/frahmantamala/hospital-management/internal/core/metrics"
	"github.com/frahmantamala/hospital-management/internal/permission"
	"github.com/frahmantamala/hospital-management/internal/role"
	rolePostgres "github.com/frahmantamala/hospital-management/internal/role/postgres"
	"github.com/frahmantamala/hospital-management/internal/user"
	userPostgres "github.com/frahmantamala/hospital-management/internal/user/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Application is the wired service graph shared by every command.
type Application struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Bus      *events.EventBus
	Metrics  *metrics.Metrics
	Registry *role.Registry
	Cache    *permission.Cache
	Roles    *role.Service
	Users    *user.Service
	Auth     *auth.Service
	Authz    *auth.RBACAuthorization
	Logger   *slog.Logger
}

func newApplication(cfg *internal.Config, lg *slog.Logger) (*Application, error) {
	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New(prometheus.NewRegistry())
	}

	timeout := cfg.Database.StorageTimeout
	registry := role.NewRegistry(rolePostgres.NewRoleRepository(gdb), timeout, bus, lg)
	cache := permission.NewCache(registry, m, lg)
	registry.SetInvalidator(cache)
	roles := role.NewService(registry, lg)

	users := user.NewService(userPostgres.NewUserRepository(gdb), roles, bus, timeout, lg)

	hasher := auth.NewHasher(cfg.Security.BCryptCost)
	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenIssuer, cfg.Security.TokenTTL)
	authSvc, err := auth.NewService(users, hasher, tokens, cfg.Security.DefaultRoles, lg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to build auth service: %w", err)
	}

	return &Application{
		Config:   cfg,
		DB:       db,
		Gorm:     gdb,
		Bus:      bus,
		Metrics:  m,
		Registry: registry,
		Cache:    cache,
		Roles:    roles,
		Users:    users,
		Auth:     authSvc,
		Authz:    auth.NewRBACAuthorization(cache, m, lg),
		Logger:   lg,
	}, nil
}

func (a *Application) Close() error {
	return a.DB.Close()
}

// initDB opens the pgx pool through sqlx and verifies it.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
