package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
	}
}

// NewRouter registers all routes and middleware.
func NewRouter(cfg ServerConfig, handlers *Handlers, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "", "")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "", "")
	})

	r.HandleFunc("/api/v1/route", handlers.HandleRoute).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/find_route", handlers.HandleFindRoute).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(OverlayPrefix+"{name:[A-Za-z0-9_.-]+}", handlers.HandleOverlay).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/v1/health", handlers.HandleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/v1/stats", handlers.HandleStats).Methods(http.MethodGet, http.MethodOptions)

	// Concurrency limiter.
	sem := make(chan struct{}, cfg.MaxConcurrent)

	r.Use(
		requestLog(logger),
		securityHeaders,
		mux.CORSMethodMiddleware(r),
		cors(cfg.CORSOrigin),
		limit(sem),
		recovery(logger),
		timeout(cfg.RequestTimeout),
	)
	return r
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, handlers *Handlers, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(cfg, handlers, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until it fails or a shutdown
// signal arrives.
func ListenAndServe(srv *http.Server, logger *zap.Logger) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// cors answers preflight requests and tags responses with the allowed origin.
// An empty origin disables CORS headers.
func cors(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limit(sem chan struct{}) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			default:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "service_unavailable", "", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recovery(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic", zap.Any("recovered", rec), zap.String("path", r.URL.Path), zap.Stack("stack"))
					writeError(w, http.StatusInternalServerError, "internal_error", "", "")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
