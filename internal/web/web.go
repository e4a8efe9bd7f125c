package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"socialsync/internal/auth"
	"socialsync/internal/config"
	appLog "socialsync/internal/log"
	"socialsync/internal/services"
)

// ResetConfirmer completes a password reset started with
// auth.Manager.ResetPassword.
type ResetConfirmer interface {
	ConfirmReset(ctx context.Context, token, password string) error
}

// Options wires the server.
type Options struct {
	Config   *config.Config
	Services *services.Services
	Auth     *auth.Manager
	// Resets may be nil, which disables /api/auth/reset/confirm.
	Resets ResetConfirmer
}

// Server serves the dashboard API, the server-rendered calendar page and the
// embedded static shell.
type Server struct {
	cfg    *config.Config
	svc    *services.Services
	auth   *auth.Manager
	resets ResetConfirmer
	router *mux.Router
}

// embeddedStatic is the static shell served at /.
//
//go:embed all:static
var embeddedStatic embed.FS

func NewServer(o Options) *Server {
	cfg := o.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:    cfg,
		svc:    o.Services,
		auth:   o.Auth,
		resets: o.Resets,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler: panic recovery, then the optional Basic
// Auth gate, then the router.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return recoverMiddleware(h)
}

// Run serves on cfg.Listen until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware gates everything except /health and /metrics.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="SocialSync", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				appLog.Error("panic recovered", nil,
					"panic", rec,
					"method", r.Method,
					"url", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/calendar", s.withSession(s.handleCalendarPage)).Methods(http.MethodGet)
	r.HandleFunc("/media/{bucket}/{path:.+}", s.handleMediaFile).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset", s.handleResetPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset/confirm", s.handleConfirmReset).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", s.handleSession).Methods(http.MethodGet)
	api.HandleFunc("/auth/profile", s.handleUpdateProfile).Methods(http.MethodPatch)

	api.HandleFunc("/calendar/board", s.withSession(s.handleBoard)).Methods(http.MethodGet)
	api.HandleFunc("/calendar/bulk", s.withSession(s.handleBulk)).Methods(http.MethodPost)
	api.HandleFunc("/calendar/export.ics", s.withSession(s.handleExportICS)).Methods(http.MethodGet)
	api.HandleFunc("/calendar/import", s.withSession(s.handleImportICS)).Methods(http.MethodPost)
	api.HandleFunc("/calendar/subscribe", s.withSession(s.handleSubscribe)).Methods(http.MethodPost)

	api.HandleFunc("/events", s.withSession(s.handleListEvents)).Methods(http.MethodGet)
	api.HandleFunc("/events", s.withSession(s.handleCreateEvent)).Methods(http.MethodPost)
	api.HandleFunc("/events/validate", s.withSession(s.handleValidateDraft)).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", s.withSession(s.handleGetEvent)).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", s.withSession(s.handleUpdateEvent)).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}", s.withSession(s.handleDeleteEvent)).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id}/drop", s.withSession(s.handleDropEvent)).Methods(http.MethodPost)

	api.HandleFunc("/accounts", s.withSession(s.handleListAccounts)).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.withSession(s.handleConnectAccount)).Methods(http.MethodPost)
	api.HandleFunc("/accounts/bulk", s.withSession(s.handleBulkAccounts)).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.withSession(s.handleDisconnectAccount)).Methods(http.MethodDelete)
	api.HandleFunc("/accounts/{id}/reconnect", s.withSession(s.handleReconnectAccount)).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}/sync", s.withSession(s.handleSyncAccount)).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}/brand-voice", s.withSession(s.handleBrandVoice)).Methods(http.MethodPut)

	api.HandleFunc("/team", s.withSession(s.handleListMembers)).Methods(http.MethodGet)
	api.HandleFunc("/team", s.withSession(s.handleInviteMember)).Methods(http.MethodPost)
	api.HandleFunc("/team/{id}", s.withSession(s.handleUpdateMember)).Methods(http.MethodPatch)
	api.HandleFunc("/team/{id}", s.withSession(s.handleRemoveMember)).Methods(http.MethodDelete)

	api.HandleFunc("/approvals", s.withSession(s.handleListApprovals)).Methods(http.MethodGet)
	api.HandleFunc("/approvals/{id}/approve", s.withSession(s.handleApprove)).Methods(http.MethodPost)
	api.HandleFunc("/approvals/{id}/request-changes", s.withSession(s.handleRequestChanges)).Methods(http.MethodPost)

	api.HandleFunc("/notifications", s.withSession(s.handleListNotifications)).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", s.withSession(s.handleMarkAllRead)).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", s.withSession(s.handleMarkRead)).Methods(http.MethodPost)
	api.HandleFunc("/activities", s.withSession(s.handleListActivities)).Methods(http.MethodGet)
	api.HandleFunc("/activities", s.withSession(s.handleRecordActivity)).Methods(http.MethodPost)

	api.HandleFunc("/analytics/overview", s.withSession(s.handleOverview)).Methods(http.MethodGet)
	api.HandleFunc("/analytics/summaries", s.withSession(s.handleSummaries)).Methods(http.MethodGet)
	api.HandleFunc("/analytics/comparison", s.withSession(s.handleComparison)).Methods(http.MethodGet)
	api.HandleFunc("/analytics/best-times", s.handleBestTimes).Methods(http.MethodGet)
	api.HandleFunc("/analytics/export.csv", s.withSession(s.handleExportCSV)).Methods(http.MethodGet)

	api.HandleFunc("/ads/accounts", s.withSession(s.handleAdAccounts)).Methods(http.MethodGet)
	api.HandleFunc("/ads/performance", s.withSession(s.handleAdPerformance)).Methods(http.MethodGet)
	api.HandleFunc("/ads/campaigns", s.withSession(s.handleAdCampaigns)).Methods(http.MethodGet)
	api.HandleFunc("/ads/export.csv", s.withSession(s.handleAdExportCSV)).Methods(http.MethodGet)

	api.HandleFunc("/captions/suggest", s.withSession(s.handleSuggestCaptions)).Methods(http.MethodPost)
	api.HandleFunc("/captions/quick", s.withSession(s.handleQuickCaption)).Methods(http.MethodGet)
	api.HandleFunc("/generators", s.withSession(s.handleListGenerators)).Methods(http.MethodGet)
	api.HandleFunc("/generators/{id}/generate", s.withSession(s.handleGenerate)).Methods(http.MethodPost)

	api.HandleFunc("/media/url", s.handleMediaURL).Methods(http.MethodGet)
	api.HandleFunc("/media/{bucket}", s.withSession(s.handleListMedia)).Methods(http.MethodGet)
	api.HandleFunc("/media/{bucket}/{path:.+}", s.withSession(s.handleUploadMedia)).Methods(http.MethodPut)
	api.HandleFunc("/media/{bucket}/{path:.+}", s.withSession(s.handleDeleteMedia)).Methods(http.MethodDelete)

	api.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "no such endpoint")
	})

	r.PathPrefix("/").Handler(s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded shell from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
