package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	actionrepo "github.com/Ramsey-B/bramble/internal/repositories/action"
	contactrepo "github.com/Ramsey-B/bramble/internal/repositories/contact"
	interactionrepo "github.com/Ramsey-B/bramble/internal/repositories/interaction"
	proposalrepo "github.com/Ramsey-B/bramble/internal/repositories/proposal"

	"github.com/Ramsey-B/bramble/config"
	"github.com/Ramsey-B/bramble/pkg/database"
	"github.com/Ramsey-B/bramble/pkg/events"
	"github.com/Ramsey-B/bramble/pkg/kafka"
	"github.com/Ramsey-B/bramble/pkg/middleware"
	"github.com/Ramsey-B/bramble/pkg/routes/action"
	"github.com/Ramsey-B/bramble/pkg/routes/contact"
	"github.com/Ramsey-B/bramble/pkg/routes/health"
	"github.com/Ramsey-B/bramble/pkg/routes/interaction"
	"github.com/Ramsey-B/bramble/pkg/routes/proposal"
	"github.com/Ramsey-B/bramble/pkg/tracing"
	"github.com/Ramsey-B/bramble/pkg/tracing/exporters"
)

// version is stamped at build time via -ldflags
var version = "dev"

func main() {
	// .env is optional; real deployments provide the environment directly
	_ = godotenv.Load()

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := newZapLogger(cfg)
	defer zapLogger.Sync() //nolint:errcheck
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(&exporters.ConsoleExporter{}),
	)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(otel.Tracer(cfg.AppName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlxDB, err := database.Connect(ctx, database.ConnectionConfig{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer sqlxDB.Close()

	db := database.NewDatabaseInstance(sqlxDB, logger)

	driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		zapLogger.Fatal("failed to create migration driver", zap.Error(err))
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	var producer *kafka.Producer
	if cfg.KafkaProducerEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close() //nolint:errcheck
	}
	emitter := events.NewEmitter(producer, logger)

	contacts := contactrepo.NewRepository(db, logger)
	interactions := interactionrepo.NewRepository(db, logger)
	proposals := proposalrepo.NewRepository(db, logger)
	actions := actionrepo.NewRepository(db, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(db, version)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	contact.NewHandler(contacts, emitter, logger).RegisterRoutes(api.Group("/contacts"))
	interaction.NewHandler(interactions, contacts, emitter, logger).RegisterRoutes(api.Group("/interactions"))
	proposal.NewHandler(proposals, contacts, emitter, logger).RegisterRoutes(api.Group("/proposals"))
	action.NewHandler(actions, contacts, emitter, logger).RegisterRoutes(api.Group("/actions"))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:  time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
	}

	go func() {
		checker.SetReady(true)
		zapLogger.Info("server starting", zap.String("addr", server.Addr), zap.String("version", version))
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	checker.SetReady(false)
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("failed to shut down server cleanly", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("failed to shut down tracer provider", zap.Error(err))
	}
}

// newZapLogger builds the process logger from config. PrettyLogs switches to
// the human-readable development encoder.
func newZapLogger(cfg config.Config) *zap.Logger {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	return zapLogger.Named(cfg.AppName)
}
