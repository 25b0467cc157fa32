package routes

import (
	"net/http"

	"github.com/studyshare/backend/internal/app"
	"github.com/studyshare/backend/internal/handler"
	"github.com/studyshare/backend/internal/middleware"
)

// apiPrefix is where the API is mounted in addition to the root
const apiPrefix = "/api/v1"

func SetupRoutes(app *app.App) http.Handler {
	isDev := app.Cfg.IsDevelopment()

	// Handlers
	health := handler.NewHealthHandler(app.DB)
	files := handler.NewFileHandler(app.AssetService, isDev)
	users := handler.NewUserHandler(app.UserService, isDev)
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)

	mux := http.NewServeMux()

	for _, prefix := range []string{"", apiPrefix} {
		// OAuth
		mux.HandleFunc("GET "+prefix+"/auth/google", auth.GoogleAuth)
		mux.HandleFunc("GET "+prefix+"/auth/google/callback", auth.GoogleCallback)

		// Files
		mux.HandleFunc("POST "+prefix+"/files", middleware.RequireAuth(files.Upload))
		mux.HandleFunc("GET "+prefix+"/files", files.List)
		mux.HandleFunc("GET "+prefix+"/files/mine", middleware.RequireAuth(files.ListMine))
		mux.HandleFunc("GET "+prefix+"/files/{id}", files.Get)
		mux.HandleFunc("GET "+prefix+"/files/{id}/download", files.Download)
		mux.HandleFunc("DELETE "+prefix+"/files/{id}", middleware.RequireAuth(files.Delete))
	}

	// Users
	mux.HandleFunc("POST "+apiPrefix+"/user", middleware.RequireAuth(users.Create))
	mux.HandleFunc("GET "+apiPrefix+"/user", users.List)
	mux.HandleFunc("GET "+apiPrefix+"/user/email", users.ByEmail)
	mux.HandleFunc("GET "+apiPrefix+"/user/{id}", users.Get)
	mux.HandleFunc("PATCH "+apiPrefix+"/user/{id}", middleware.RequireAuth(users.Update))
	mux.HandleFunc("DELETE "+apiPrefix+"/user/{id}", middleware.RequireAuth(users.Delete))

	// 404
	mux.HandleFunc("/{path...}", handler.NotFound)

	// API middleware - executed in order (top to bottom)
	api := middleware.Chain(
		mux,
		middleware.RateLimit(app.RateLimiter, app.Cfg.TrustProxy),
		middleware.Authenticate(app.AuthService),
	)

	// Health checks stay outside the rate limit
	root := http.NewServeMux()
	root.HandleFunc("GET /health", health.Health)
	root.HandleFunc("GET "+apiPrefix+"/health", health.Health)
	root.Handle("/", api)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		root,
		middleware.RequestID,
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CORS(app.Cfg.CORSOrigin),
	)
}
