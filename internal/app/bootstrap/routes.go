// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	exportapifeature "github.com/dalemusser/keepsake/internal/app/features/exportapi"
	foldersfeature "github.com/dalemusser/keepsake/internal/app/features/folders"
	healthfeature "github.com/dalemusser/keepsake/internal/app/features/health"
	mediafeature "github.com/dalemusser/keepsake/internal/app/features/media"
	studycardsfeature "github.com/dalemusser/keepsake/internal/app/features/studycards"
	uploadsfeature "github.com/dalemusser/keepsake/internal/app/features/uploads"
	folderstore "github.com/dalemusser/keepsake/internal/app/store/folder"
	mediastore "github.com/dalemusser/keepsake/internal/app/store/media"
	cardstore "github.com/dalemusser/keepsake/internal/app/store/studycard"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Keepsake is a pure JSON API: the folder, media, study card, and upload
// routes carry no authentication (the app fronts a single household), while
// the export routes require the configured API key.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	folders := folderstore.New(deps.MongoDatabase, logger)
	mediaItems := mediastore.New(deps.MongoDatabase)
	cards := cardstore.New(deps.MongoDatabase, logger)

	foldersHandler := foldersfeature.NewHandler(folders, mediaItems, logger)
	mediaHandler := mediafeature.NewHandler(mediaItems, deps.Blobs, logger)
	cardsHandler := studycardsfeature.NewHandler(cards, deps.Blobs, logger)
	uploadsHandler := uploadsfeature.NewHandler(deps.Blobs, logger)
	exportHandler := exportapifeature.NewHandler(cards, logger)
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)

	r := chi.NewRouter()

	// Standard middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS and security headers from core config
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// JSON API routes
	r.Mount("/api/folders", foldersfeature.Routes(foldersHandler))
	r.Mount("/api/media", mediafeature.Routes(mediaHandler))
	r.Mount("/api/cards", studycardsfeature.Routes(cardsHandler))
	r.Mount("/api/uploads", uploadsfeature.Routes(uploadsHandler))

	// Export API (API key auth, permissive CORS)
	r.Mount("/api/export", exportapifeature.Routes(exportHandler, appCfg.APIKey, logger))

	// Health check endpoints
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Serve locally stored uploads when using local storage.
	// S3-backed deployments serve objects from the bucket/CDN directly.
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	return r, nil
}
