package app

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"mistakebook/internal/ai"
	"mistakebook/internal/config"
	"mistakebook/internal/db"
	"mistakebook/internal/notebook"
	"mistakebook/internal/repository"
	"mistakebook/internal/service"
	"mistakebook/internal/settings"
	"mistakebook/internal/storage"
	"mistakebook/internal/store"
)

// App wires the whole system explicitly, construct-once: config feeds the
// settings store, which feeds the storage mirror, which feeds the optimistic
// controller. No component reaches for a module-level singleton.
type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	Settings    *settings.Store
	Mirror      *store.Mirror
	Controller  *notebook.Controller
	Gateway     *ai.Gateway
	AuthService *service.AuthService
}

func New(cfg *config.Config) (*App, error) {
	overrides := settings.OverridesFromConfig(cfg)
	settingsStore := settings.NewStore(cfg.DataPath, overrides)

	// Cloud backend: database plus optional object storage. The database is
	// always opened so cloud mode can be switched on later without a restart.
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	var objects storage.Storage
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		objects, err = storage.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
	} else {
		slog.Info("object storage not configured, images stay inline")
	}

	local := store.NewLocalStore(cfg.DataPath)
	cloud := store.NewCloudStore(database, objects)
	mirror := store.NewMirror(settingsStore, local, cloud, cloud)

	controller := notebook.NewController(mirror)
	gateway := ai.NewGateway()

	var authService *service.AuthService
	if cfg.JWTSecret != "" {
		userRepository := repository.NewUserRepository(database)
		authService = service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction())
	} else {
		slog.Info("JWT_SECRET not set, sessions disabled (local mode only)")
	}

	return &App{
		Cfg:         cfg,
		DB:          database,
		Settings:    settingsStore,
		Mirror:      mirror,
		Controller:  controller,
		Gateway:     gateway,
		AuthService: authService,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
