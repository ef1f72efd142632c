// Package admin serves the support endpoints: health, on-demand price syncs,
// the manual digest trigger and a read-only portfolio view.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/holdings"
	"github.com/leonid6372/crypto-tracker/internal/notify"
	"github.com/leonid6372/crypto-tracker/internal/pricesync"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Syncer interface {
	SyncPrices(ctx context.Context, scope domain.Scope) (*pricesync.Result, error)
}

type DigestTrigger interface {
	TriggerDailyDigest(ctx context.Context, userID int64) (*notify.Result, error)
}

type Portfolios interface {
	Portfolio(ctx context.Context, userID int64) (*holdings.Portfolio, error)
}

type Server struct {
	http    *http.Server
	started time.Time
	now     func() time.Time

	users      domain.UsersRepository
	syncer     Syncer
	digests    DigestTrigger
	portfolios Portfolios
}

func NewServer(cfg *config.Admin,
	users domain.UsersRepository,
	syncer Syncer,
	digests DigestTrigger,
	portfolios Portfolios,
) *Server {
	s := &Server{
		started:    time.Now(),
		now:        time.Now,
		users:      users,
		syncer:     syncer,
		digests:    digests,
		portfolios: portfolios,
	}

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/sync", s.handleSyncAll)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/sync", s.handleSyncUser)
			r.Post("/digest", s.handleDigest)
			r.Get("/portfolio", s.handlePortfolio)
		})
	})

	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info("admin server listening", zap.String("addr", s.http.Addr))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.http.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Info("admin request",
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
