package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/studyshare/backend/internal/config"
	"github.com/studyshare/backend/internal/db"
	"github.com/studyshare/backend/internal/middleware"
	"github.com/studyshare/backend/internal/repository"
	"github.com/studyshare/backend/internal/service"
	"github.com/studyshare/backend/internal/storage"
	"github.com/studyshare/backend/internal/validation"
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB
	Storage      storage.Storage
	AuthService  *service.AuthService
	UserService  *service.UserService
	AssetService *service.AssetService
	RateLimiter  *middleware.RateLimiter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection, db.DefaultPool)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	assetRepository := repository.NewAssetRepository(database)

	// Storage
	blobStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	userService := service.NewUserService(userRepository)
	authService := service.NewAuthService(userService, cfg.AuthSecret, cfg.AuthTokenExpiry)
	assetService := service.NewAssetService(
		assetRepository,
		blobStorage,
		validation.StudyFileConstraints.WithMaxSize(cfg.MaxUploadSize),
	)

	return &App{
		Cfg:          cfg,
		DB:           database,
		Storage:      blobStorage,
		AuthService:  authService,
		UserService:  userService,
		AssetService: assetService,
		RateLimiter:  middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
	}, nil
}

func (a *App) Close() error {
	var errs []error
	if a.RateLimiter != nil {
		a.RateLimiter.Stop()
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
