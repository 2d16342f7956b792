package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"scholarship-backend/internal/analysis"
	"scholarship-backend/internal/analysis/docintel"
	"scholarship-backend/internal/analysis/localtext"
	"scholarship-backend/internal/applications"
	"scholarship-backend/internal/documents"
	"scholarship-backend/internal/shared/config"
	"scholarship-backend/internal/shared/server"
	"scholarship-backend/internal/shared/storage/db"
	"scholarship-backend/internal/shared/storage/object"
	localstore "scholarship-backend/internal/shared/storage/object/local"
	s3store "scholarship-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies, wired explicitly at startup.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.BlobStore

	ApplicationsRepo applications.Repo
	DocumentsRepo    documents.Repo
	Provider         analysis.Provider

	ApplicationsService *applications.Service
	DocumentsService    *documents.Service

	ApplicationsHandler *applications.Handler
	DocumentsHandler    *documents.Handler
}

// Build prepares dependencies and the router.
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

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Provider: provider,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		ApplicationsHandler: app.ApplicationsHandler,
		DocumentsHandler:    app.DocumentsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildProvider(cfg config.Config) (analysis.Provider, error) {
	switch cfg.AnalysisProvider {
	case "docintel":
		client, err := docintel.NewClient(cfg.DocIntelEndpoint, cfg.DocIntelAPIKey)
		if err != nil {
			return nil, err
		}
		return analysis.WithBreaker("docintel", client), nil
	case "local":
		return localtext.New(), nil
	default:
		return nil, nil
	}
}

func buildServices(app *App) {
	var appsRepo applications.Repo
	var docRepo documents.Repo
	if app.DB != nil {
		appsRepo = &applications.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		appsRepo = applications.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
	}

	appsSvc := &applications.Service{
		Repo:      appsRepo,
		Documents: docRepo,
	}
	docSvc := &documents.Service{
		Repo:            docRepo,
		Apps:            appsRepo,
		Blobs:           app.Store,
		Provider:        app.Provider,
		AnalysisTimeout: app.Config.AnalysisTimeout,
		MaxUploadBytes:  app.Config.MaxUploadBytes,
	}

	app.ApplicationsRepo = appsRepo
	app.DocumentsRepo = docRepo
	app.ApplicationsService = appsSvc
	app.DocumentsService = docSvc
	app.ApplicationsHandler = applications.NewHandler(appsSvc)
	app.DocumentsHandler = documents.NewHandler(docSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
