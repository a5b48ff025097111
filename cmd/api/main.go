package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Contable-api/internal/application/processing"
	"github.com/jhoicas/Contable-api/internal/application/reporting"
	"github.com/jhoicas/Contable-api/internal/domain/tax"
	"github.com/jhoicas/Contable-api/internal/infrastructure/alegra"
	"github.com/jhoicas/Contable-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/Contable-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Contable-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Contable-api/internal/infrastructure/resilience"
	httpRouter "github.com/jhoicas/Contable-api/internal/interfaces/http"
	"github.com/jhoicas/Contable-api/pkg/config"
	"github.com/jhoicas/Contable-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	taxRepo := postgres.NewTaxResultRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Reglas tributarias: documento versionado por año, recargable en caliente.
	rules := tax.NewProvider(cfg.Rules.Path, cfg.Rules.Year)
	if err := rules.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Rules.Path).Msg("cargar reglas tributarias")
	}

	// Índice de duplicados: Redis si está configurado, memoria si no. El
	// índice en memoria trae su propio purgado para el barredor.
	var store processing.FingerprintStore
	var purger processing.Purger
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		store = cache.NewRedisStore(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("índice de duplicados en Redis")
	} else {
		mem := cache.NewMemoryStore()
		store = mem
		purger = mem
		log.Info().Msg("índice de duplicados en memoria")
	}
	detector := processing.NewDuplicateDetector(store, cfg.Pipeline.DuplicateWindow, cfg.Pipeline.Tolerance)

	// Contabilización externa: cliente Alegra detrás del breaker y el retrier.
	gateway := alegra.NewClient(cfg.Alegra.BaseURL, cfg.Alegra.BasicAuth, cfg.Alegra.Timeout)
	breaker := resilience.NewBreaker("alegra", cfg.Pipeline.BreakerFailures,
		cfg.Pipeline.BreakerCooldown, cfg.Pipeline.BreakerMaxCool)
	retrier := resilience.NewRetrier(cfg.Pipeline.RetryAttempts, cfg.Pipeline.RetryBaseDelay, cfg.Pipeline.RetryFactor)
	poster := processing.NewExternalPoster(gateway, breaker, retrier, log)

	validator := tax.NewValidator(cfg.Pipeline.Tolerance)
	orchestrator := processing.NewOrchestrator(
		txRunner,
		invoiceRepo, taxRepo, ledgerRepo,
		detector, rules, validator, poster,
		cfg.Pipeline.Concurrency, log,
	)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)
	reportsUC := reporting.NewUseCase(invoiceRepo, taxRepo, ledgerRepo, pdfGenerator)

	// Barredor: purga el índice y reintenta las POSTED_LOCAL pendientes.
	if cfg.Pipeline.SweepInterval > 0 {
		sweeper := processing.NewSweeper(
			cfg.Pipeline.SweepInterval, cfg.Pipeline.SweepBatch,
			invoiceRepo, taxRepo, poster, purger, log,
		)
		sweeper.Start()
		defer sweeper.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Contable API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orchestrator: orchestrator,
		Reports:      reportsUC,
		Breaker:      breaker,
		ServiceName:  cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
