package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/divscan/internal/dataset"
	"github.com/wizzomafizzo/divscan/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	reloadDebounce    = 250 * time.Millisecond
)

// Config configures a Server
type Config struct {
	Fs    afero.Fs
	Dir   string
	Addr  string
	Watch bool
}

// Server serves the dashboard and keeps its rows in memory
type Server struct {
	store   *dataset.Store
	loadErr error
	addr    string
	rows    []Row
	mu      sync.RWMutex
	watch   bool
}

// NewServer creates a server; call Reload before serving requests
func NewServer(cfg Config) *Server {
	return &Server{
		store: dataset.New(cfg.Fs, cfg.Dir),
		addr:  cfg.Addr,
		watch: cfg.Watch,
	}
}

// Reload reads the data files again. On failure the previous rows are kept.
func (s *Server) Reload(ctx context.Context) error {
	rows, err := loadRows(s.store)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
	if err != nil {
		return fmt.Errorf("failed to load dashboard data: %w", err)
	}
	s.rows = rows
	logging.Get(ctx).Debug().Int("stocks", len(rows)).Msg("dashboard data loaded")
	return nil
}

// snapshot returns a copy of the rows safe to sort
func (s *Server) snapshot() ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]Row, len(s.rows))
	copy(rows, s.rows)
	return rows, s.loadErr
}

// Handler returns the dashboard routes
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(logging.Get(ctx)),
		middleware.Recoverer,
	)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stocks", s.handleStocks)
		// wildcard so share-class tickers like BF/B match unescaped
		r.Get("/stocks/*", s.handleStock)
	})
	return r
}

// Serve listens on the configured address until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	log := logging.Get(ctx)

	if err := s.Reload(ctx); err != nil {
		log.Warn().Err(err).Msg("serving without data")
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(ctx),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		log.Info().Str("addr", "http://"+ln.Addr().String()).Msg("dashboard listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Debug().Msg("shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestLogger logs each request through zerolog
func requestLogger(log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
