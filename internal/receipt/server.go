package receipt

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/receipt-tracker/internal/auth"
)

const (
	defaultMaxBodyBytes = int64(50 << 20) // 50MB, high-resolution phone photos
	shutdownTimeout     = 10 * time.Second

	tokenRequiredMessage = "Access token required"
	tokenInvalidMessage  = "Invalid or expired token"
)

type contextKey string

const userContextKey contextKey = "user"

// Config holds the login and limits of a Server
type Config struct {
	Credentials  auth.Credentials
	Issuer       *auth.Issuer
	MaxBodyBytes int64
}

// Server handles HTTP requests for receipts and expense sessions
type Server struct {
	service     *Service
	analyzer    *Analyzer
	sessions    *Sessions
	credentials auth.Credentials
	issuer      *auth.Issuer
	maxBody     int64
	mux         *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, cfg Config) *Server {
	return NewServerWithMux(service, cfg, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, cfg Config, mux *http.ServeMux) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	analyzer := NewAnalyzer(service)
	s := &Server{
		service:     service,
		analyzer:    analyzer,
		sessions:    NewSessions(analyzer),
		credentials: cfg.Credentials,
		issuer:      cfg.Issuer,
		maxBody:     cfg.MaxBodyBytes,
		mux:         mux,
	}
	s.registerRoutes()
	return s
}

// Sessions returns the per-user expense sessions
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// bearerToken extracts the token of an "Authorization: Bearer" header
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// userFrom returns the authenticated user stored by requireToken
func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey).(string)
	return user
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireToken rejects requests without a valid bearer token
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: tokenRequiredMessage})
			return
		}

		claims, err := s.issuer.Verify(token)
		if err != nil {
			slog.Debug("Rejected token", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusForbidden, errorResponse{Error: tokenInvalidMessage})
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims.Username)
		next(w, r.WithContext(ctx))
	}
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/app.css", s.handleStaticCSS)
	s.mux.HandleFunc("GET /static/app.js", s.handleStaticJS)

	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/process-receipt", s.requireToken(s.handleProcessReceipt))

	s.mux.HandleFunc("POST /api/batches", s.requireToken(s.handleRunBatch))
	s.mux.HandleFunc("GET /api/charts", s.requireToken(s.handleCharts))
	s.mux.HandleFunc("DELETE /api/session", s.requireToken(s.handleEndSession))

	s.mux.HandleFunc("GET /api/scans/{id}/file", s.requireToken(s.handleGetScanFile))
	s.mux.HandleFunc("GET /api/scans/{id}", s.requireToken(s.handleGetScan))
	s.mux.HandleFunc("DELETE /api/scans/{id}", s.requireToken(s.handleDeleteScan))
	s.mux.HandleFunc("GET /api/scans", s.requireToken(s.handleListScans))

	s.mux.HandleFunc("GET /index.html", s.handleIndex)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Handler returns the mux wrapped with the CORS middleware
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}
