package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/levantline/freightdesk/internal/config"
	"github.com/levantline/freightdesk/internal/db"
	"github.com/levantline/freightdesk/internal/logging"
	"github.com/levantline/freightdesk/internal/migrations"
	"github.com/levantline/freightdesk/internal/quotes"
	"github.com/levantline/freightdesk/internal/seed"
	"github.com/levantline/freightdesk/internal/tariff"
)

type server struct {
	auth     *authService
	tariffs  *tariff.Store
	quotes   *quotes.Store
	validate *validator.Validate
	log      *zap.Logger
}

func main() {
	cfg := config.Load()

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			logger.Fatal("failed to run database migrations", zap.Error(err))
		}
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to run startup seed", zap.Error(err))
	}
	if stats.Inserts > 0 {
		logger.Info("seeded baseline data", zap.Int("inserts", stats.Inserts))
	}

	srv := &server{
		auth:     newAuthService(database, cfg.SessionSecret),
		tariffs:  tariff.NewStore(database),
		quotes:   quotes.NewStore(database),
		validate: validator.New(),
		log:      logger,
	}

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tariff", s.handleTariff)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/quotes", s.handleQuoteCreate)
		r.Get("/quotes/{reference}", s.handleQuoteGet)
	})

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/rates", s.handleRatesGet)
		r.Put("/rates", s.handleRatesUpdate)
		r.Get("/packaging", s.handlePackagingList)
		r.Post("/packaging", s.handlePackagingCreate)
		r.Post("/packaging/{id}", s.handlePackagingUpdate)
		r.Get("/tiers", s.handleTiersList)
		r.Post("/tiers", s.handleTierCreate)
		r.Post("/tiers/{id}", s.handleTierUpdate)
		r.Get("/quotes", s.handleQuotesSearch)
		r.Post("/quotes/{reference}/status", s.handleQuoteStatus)
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
