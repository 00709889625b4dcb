package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/studio-funnel/internal/config"
	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/xavierca1/studio-funnel/internal/infra/database"
	"github.com/xavierca1/studio-funnel/internal/infra/document"
	"github.com/xavierca1/studio-funnel/internal/infra/http/handlers"
	"github.com/xavierca1/studio-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/studio-funnel/internal/infra/imageproxy"
	"github.com/xavierca1/studio-funnel/internal/infra/integration/notion"
	"github.com/xavierca1/studio-funnel/internal/infra/mail"
	"github.com/xavierca1/studio-funnel/internal/infra/portfolio"
	"github.com/xavierca1/studio-funnel/internal/infra/queue"
	"github.com/xavierca1/studio-funnel/internal/infra/ratelimit"
	"github.com/xavierca1/studio-funnel/internal/usecase"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Record store and mail
	store := notion.NewStore(notion.NewClient(cfg.NotionBaseURL, cfg.NotionToken), cfg.Databases)
	if !store.Configured() {
		slog.Warn("notion token missing, submissions will rely on email only")
	}
	mailSender := mail.NewEmailSender(
		cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.Operator,
	)
	if !mailSender.Configured() {
		slog.Warn("smtp not configured, clients will get the fallback address")
	}
	renderer := document.NewRenderer(cfg.StudioName, cfg.Mail.Operator)

	// 2. Optional journal and broker
	var db *sql.DB
	var journal entity.JournalRepositoryInterface
	if cfg.DatabaseURL != "" {
		conn, driver, err := database.NewDBConnection(cfg.DatabaseURL)
		if err != nil {
			slog.Error("journal database unavailable", slog.String("error", err.Error()))
		} else {
			db = conn
			defer db.Close()
			j := database.NewLeadJournal(db, driver)
			if err := j.EnsureSchema(ctx); err != nil {
				slog.Error("journal schema", slog.String("error", err.Error()))
			} else {
				journal = j
			}
		}
	}

	var rabbitConn *amqp.Connection
	var events usecase.EventPublisher
	var rabbit *queue.RabbitMQ
	if cfg.AMQPURL != "" {
		rabbit, err = queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			slog.Error("rabbitmq unavailable", slog.String("error", err.Error()))
		} else {
			defer rabbit.Close()
			rabbitConn = rabbit.Conn
			events = queue.NewProducer(rabbit.Ch)
		}
	}

	// 3. Portfolio
	fetcher := portfolio.NewHTTPFetcher()
	cache := portfolio.NewCache(cfg.Portfolio.CacheDir)
	syncer := portfolio.NewSynchronizer(store, fetcher, cache, cfg.Portfolio.MediaDir, cfg.Portfolio.MediaPrefix)
	syncer.PublicBase = cfg.PublicBaseURL
	syncer.Updater = store
	reader := portfolio.NewReader(
		portfolio.CacheProvider{Cache: cache},
		portfolio.LiveProvider{Source: store},
		portfolio.SampleProvider{Path: cfg.Portfolio.SampleFile},
	)

	if rabbit != nil {
		worker := queue.NewWorker(rabbit.Ch, func(ctx context.Context) error {
			res, err := syncer.Sync(ctx)
			middleware.RecordSyncRun(err == nil)
			if err == nil {
				slog.Info("queued sync done", slog.Int("saved", len(res.Saved)), slog.Int("removed", len(res.Removed)))
			}
			return err
		})
		go func() {
			if err := worker.Start(ctx); err != nil {
				slog.Error("sync worker stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// 4. Rate limiting and image proxy
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	limiter.StartSweeper(ctx, time.Minute)

	imageCache := imageproxy.NewMemoryCache(imageproxy.DefaultTTL)
	proxyFetcher := portfolio.NewHTTPFetcher()
	proxy := imageproxy.NewProxy(proxyFetcher, imageCache, store, cfg.Portfolio.MediaHosts)
	proxyFetcher.Client.CheckRedirect = proxy.CheckRedirect
	go pruneEvery(ctx, 5*time.Minute, imageCache)

	// 5. UseCases
	briefUC := usecase.NewBriefUseCase(store, renderer, mailSender, journal, events)
	contactUC := usecase.NewContactUseCase(store, mailSender, journal, events)
	calculatorUC := usecase.NewCalculatorUseCase(store, mailSender, journal, events)

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(briefUC)
	contactHandler := handlers.NewContactHandler(contactUC)
	calculatorHandler := handlers.NewCalculatorHandler(calculatorUC)
	portfolioHandler := handlers.NewPortfolioHandler(syncer, reader)
	imageHandler := handlers.NewImageProxyHandler(proxy)
	healthHandler := handlers.NewHealthHandler(db, rabbitConn, store, mailSender)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Brief-Id", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.With(middleware.RateLimit(limiter, ratelimit.ContactPolicy)).Post("/contact", contactHandler.Handle)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, ratelimit.BriefPolicy))
		r.Post("/brief-submission", leadHandler.Submit)
		r.Post("/brief-email", leadHandler.Email)
		r.Post("/discussion-request", leadHandler.Discussion)
	})
	r.With(middleware.RateLimit(limiter, ratelimit.BriefPDFPolicy)).Post("/brief-pdf", leadHandler.Document)
	r.With(middleware.RateLimit(limiter, ratelimit.CalculatorPolicy)).Post("/save-calculator-lead", calculatorHandler.Handle)
	r.With(middleware.RateLimit(limiter, ratelimit.ImageProxyPolicy)).Get("/image-proxy", imageHandler.Handle)

	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", portfolioHandler.List)
		r.Get("/{slug}", portfolioHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerToken(cfg.Portfolio.AdminToken))
			r.Post("/refresh", portfolioHandler.Refresh)
			r.Post("/migrate-images", portfolioHandler.MigrateImages)
		})
	})
	if cfg.Portfolio.AdminToken == "" {
		slog.Warn("PORTFOLIO_ADMIN_TOKEN is empty, portfolio admin routes are open")
	}

	prefix := strings.TrimRight(cfg.Portfolio.MediaPrefix, "/")
	r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Portfolio.MediaDir))))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gzhttp.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func pruneEvery(ctx context.Context, interval time.Duration, c *imageproxy.MemoryCache) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}
