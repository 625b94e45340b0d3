package routes

import (
	"net/http"

	"mistakebook/internal/app"
	"mistakebook/internal/handler"
	"mistakebook/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler()
	auth := handler.NewAuthHandler(a.AuthService)
	mistakes := handler.NewMistakeHandler(a.Controller)
	settings := handler.NewSettingsHandler(a.Settings, a.Mirror, a.Gateway, a.Cfg.DBDriver)
	analysis := handler.NewAnalysisHandler(a.Controller, a.Gateway, a.Settings)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", health.Healthz)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /api/auth/signup", rateLimiter(auth.SignUp))
	mux.HandleFunc("POST /api/auth/signin", rateLimiter(auth.SignIn))
	mux.HandleFunc("POST /api/auth/signout", auth.SignOut)
	mux.HandleFunc("GET /api/auth/session", auth.Session)

	// Settings. Readable without a session so the login gate itself can ask
	// whether cloud mode is mandatory.
	mux.HandleFunc("GET /api/settings", settings.Get)
	mux.HandleFunc("PUT /api/settings", settings.Put)
	mux.HandleFunc("POST /api/settings/check", settings.CheckConnection)
	mux.HandleFunc("GET /api/settings/models", settings.Models)

	// Data routes: gated behind a session whenever cloud mode is active.
	requireSession := middleware.RequireSession(func() bool {
		return a.Settings.Resolve().UseCloud
	})

	mux.HandleFunc("GET /api/mistakes", requireSession(mistakes.List))
	mux.HandleFunc("POST /api/mistakes", requireSession(mistakes.Create))
	mux.HandleFunc("PUT /api/mistakes/{id}", requireSession(mistakes.Update))
	mux.HandleFunc("POST /api/mistakes/{id}/tags", requireSession(mistakes.AddTag))
	mux.HandleFunc("POST /api/mistakes/{id}/trash", requireSession(mistakes.Trash))
	mux.HandleFunc("POST /api/mistakes/{id}/restore", requireSession(mistakes.Restore))
	mux.HandleFunc("DELETE /api/mistakes/{id}", requireSession(mistakes.Purge))
	mux.HandleFunc("GET /api/trash", requireSession(mistakes.ListTrash))
	mux.HandleFunc("DELETE /api/trash", requireSession(mistakes.EmptyTrash))
	mux.HandleFunc("POST /api/reload", requireSession(mistakes.Reload))
	mux.HandleFunc("GET /api/sync", requireSession(mistakes.SyncStates))

	// AI analysis
	mux.HandleFunc("POST /api/mistakes/{id}/analyze", requireSession(analysis.Analyze))
	mux.HandleFunc("GET /api/mistakes/{id}/analysis", requireSession(analysis.AnalysisHTML))

	// Global middleware
	return middleware.Chain(mux,
		middleware.RequestLogging,
		middleware.AuthMiddleware(a.AuthService),
	)
}
