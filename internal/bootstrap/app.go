package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/admin"
	googleauth "receipt-backend/internal/auth"
	"receipt-backend/internal/categorize"
	"receipt-backend/internal/documents"
	"receipt-backend/internal/extract"
	"receipt-backend/internal/jobs"
	"receipt-backend/internal/search"
	"receipt-backend/internal/services/health"
	"receipt-backend/internal/shared/auth"
	"receipt-backend/internal/shared/config"
	"receipt-backend/internal/shared/server"
	"receipt-backend/internal/shared/server/middleware"
	"receipt-backend/internal/shared/storage/db"
	"receipt-backend/internal/shared/storage/object"
	localstore "receipt-backend/internal/shared/storage/object/local"
	s3store "receipt-backend/internal/shared/storage/object/s3"
	"receipt-backend/internal/shared/telemetry"
	"receipt-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	UsersService     *users.Service
	DocumentsService *documents.Service
	JobsService      *jobs.Service
	SearchService    *search.Service
	Runner           *jobs.Runner
}

// Build prepares dependencies and routes. Without DATABASE_URL in a dev
// environment every repository is in-memory.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(cfg.SecretKey, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	deps, err := buildServices(ctx, app, issuer)
	if err != nil {
		return nil, err
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.UsesMemoryStores() {
		telemetry.Info("bootstrap.memory_stores", map[string]any{"env": cfg.Env})
		return nil, nil
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.StorageRoot), nil
	}
}

func buildServices(ctx context.Context, app *App, issuer *auth.Issuer) (server.RouterDeps, error) {
	cfg := app.Config

	var (
		userRepo users.Repo
		docRepo  documents.DocumentsRepo
		jobRepo  jobs.JobsRepo
	)
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
	}

	userSvc := users.NewService(userRepo, issuer)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return server.RouterDeps{}, fmt.Errorf("seed admin: %w", err)
		}
	}

	runner := &jobs.Runner{
		Repo:        jobRepo,
		Docs:        docRepo,
		Extractor:   extract.New(cfg.OCRProvider, app.Store),
		Categorizer: categorize.New(categorize.DefaultRules),
	}
	jobSvc := jobs.NewService(jobRepo, jobs.InlineDispatcher{Runner: runner})
	docSvc := documents.NewService(app.Store, docRepo, jobSvc, cfg.AllowedExtensions)
	searchSvc := search.NewService(docSvc)

	// A nil *sql.DB inside the Pinger interface would not compare nil.
	healthSvc := health.NewService(nil)
	if app.DB != nil {
		healthSvc = health.NewService(app.DB)
	}

	app.UsersService = userSvc
	app.DocumentsService = docSvc
	app.JobsService = jobSvc
	app.SearchService = searchSvc
	app.Runner = runner

	return server.RouterDeps{
		Config:          cfg,
		Authenticate:    authenticator(userSvc),
		RateLimiter:     middleware.NewRateLimiter(nil),
		Health:          healthSvc,
		UserHandler:     users.NewHandler(userSvc),
		GoogleAuth:      googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL, userSvc),
		DocumentHandler: documents.NewHandler(docSvc, cfg.MaxUploadBytes),
		JobHandler:      jobs.NewHandler(jobSvc),
		SearchHandler:   search.NewHandler(searchSvc),
		AdminHandler:    admin.NewHandler(docSvc, jobSvc),
	}, nil
}

// authenticator adapts token verification to the auth middleware.
func authenticator(svc *users.Service) middleware.Authenticator {
	return func(ctx context.Context, token string) (middleware.Identity, error) {
		user, err := svc.Authenticate(ctx, token)
		if err != nil {
			return middleware.Identity{}, err
		}
		return middleware.Identity{UserID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}, nil
	}
}
