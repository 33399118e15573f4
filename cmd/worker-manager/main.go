// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"loan-risk-workers/internal/batch"
	"loan-risk-workers/internal/common/auth"
	awsclient "loan-risk-workers/internal/common/aws"
	"loan-risk-workers/internal/common/camunda"
	"loan-risk-workers/internal/common/config"
	"loan-risk-workers/internal/common/database"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/common/observability"
	"loan-risk-workers/internal/intake"
	"loan-risk-workers/internal/predictor"
	"loan-risk-workers/internal/risk"
	"loan-risk-workers/internal/store"

	alo "loan-risk-workers/internal/workers/loan/assess-loan-application"
	elb "loan-risk-workers/internal/workers/loan/evaluate-loan-batch"
	eld "loan-risk-workers/internal/workers/loan/explain-loan-decision"
	gpr "loan-risk-workers/internal/workers/loan/get-portfolio-report"
	np "loan-risk-workers/internal/workers/loan/notify-portfolio"
	sas "loan-risk-workers/internal/workers/loan/search-applicant-scores"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).
		With(zap.String("service", cfg.Observability.ServiceName))
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	log.Info("Starting worker manager...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.UsePlaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	repository := store.NewReportRepository(pg.DB)
	if err := repository.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("report schema migration failed", zap.Error(err))
	}
	log.Info("PostgreSQL connected successfully", nil)

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	log.Info("Elasticsearch connected successfully", nil)

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("Redis connected successfully", nil)

	// --- Scoring pipeline ---
	coordinator := batch.NewCoordinator(
		risk.NewEngine(risk.PolicyFromConfig(cfg.Policy)),
		batch.Config{TopCandidates: cfg.Policy.TopCandidates, Concurrency: cfg.Policy.Concurrency},
		log,
		batch.WithValidator(intake.NewRecordValidator()),
		batch.WithScoreRecorder(obs),
	)
	cache := store.NewReportCache(rdb.Client, cfg.Policy.ReportCacheTTL)
	indexer := store.NewResultIndexer(esClient.Client, cfg.Database.Elasticsearch.ScoresIndex)
	if err := indexer.EnsureIndex(ctx); err != nil {
		log.Warn("score index setup failed", map[string]interface{}{"error": err.Error()})
	}
	scoreSearch := store.NewScoreSearch(esClient.Client, cfg.Database.Elasticsearch.ScoresIndex)

	// --- External services ---
	gate := newGate(cfg.Auth)
	model := predictor.NewClient(
		cfg.Predictor.BaseURL,
		cfg.Predictor.APIKey,
		config.GetDuration(cfg.Predictor.Timeout),
		cfg.Predictor.MaxRetries,
	)

	notifyOpts := np.HandlerOptions{AppConfig: cfg, Recorder: obs, Logger: log}
	if cfg.Notifications.Email.Enabled || cfg.Notifications.Topic.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			notifyOpts.Mailer = awsclient.NewSESClient(awsCfg)
		}
		if cfg.Notifications.Topic.Enabled {
			notifyOpts.Publisher = awsclient.NewSNSClient(awsCfg)
		}
	}
	log.Info("All external service clients initialized", map[string]interface{}{"authMode": cfg.Auth.Mode})

	// --- Workers ---
	workers := camunda.NewWorkers(zeebe.GetClient(), cfg.Observability.ServiceName, log)

	evaluate, err := elb.NewHandler(elb.HandlerOptions{
		AppConfig:   cfg,
		Coordinator: coordinator,
		Repository:  repository,
		Cache:       cache,
		Indexer:     indexer,
		Recorder:    obs,
		Logger:      log,
	})
	if err != nil {
		zapLog.Fatal("failed to create evaluate-loan-batch handler", zap.Error(err))
	}
	workers.Start(elb.TaskType, config.GetWorkerConfig(cfg, elb.TaskType), evaluate.Handle)

	explainHandler, err := eld.NewHandler(eld.HandlerOptions{AppConfig: cfg, Recorder: obs, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create explain-loan-decision handler", zap.Error(err))
	}
	workers.Start(eld.TaskType, config.GetWorkerConfig(cfg, eld.TaskType), explainHandler.Handle)

	assess, err := alo.NewHandler(alo.HandlerOptions{
		AppConfig: cfg,
		Gate:      gate,
		Predictor: model,
		Recorder:  obs,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create assess-loan-application handler", zap.Error(err))
	}
	workers.Start(alo.TaskType, config.GetWorkerConfig(cfg, alo.TaskType), assess.Handle)

	report, err := gpr.NewHandler(gpr.HandlerOptions{
		AppConfig:  cfg,
		Repository: repository,
		Cache:      cache,
		Recorder:   obs,
		Logger:     log,
	})
	if err != nil {
		zapLog.Fatal("failed to create get-portfolio-report handler", zap.Error(err))
	}
	workers.Start(gpr.TaskType, config.GetWorkerConfig(cfg, gpr.TaskType), report.Handle)

	notify, err := np.NewHandler(notifyOpts)
	if err != nil {
		zapLog.Fatal("failed to create notify-portfolio handler", zap.Error(err))
	}
	workers.Start(np.TaskType, config.GetWorkerConfig(cfg, np.TaskType), notify.Handle)

	search, err := sas.NewHandler(sas.HandlerOptions{
		AppConfig: cfg,
		Searcher:  scoreSearch,
		Recorder:  obs,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create search-applicant-scores handler", zap.Error(err))
	}
	workers.Start(sas.TaskType, config.GetWorkerConfig(cfg, sas.TaskType), search.Handle)

	log.Info("Loan workers registered", map[string]interface{}{"count": workers.Count()})

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           otelhttp.NewHandler(healthMux(zeebe, pg, rdb), "worker-manager"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

// newGate picks the access gate for assess-loan-application.
func newGate(cfg config.AuthConfig) auth.Gate {
	switch cfg.Mode {
	case config.AuthModeKeycloak:
		return auth.NewKeycloakGate(
			cfg.Keycloak.URL,
			cfg.Keycloak.Realm,
			cfg.Keycloak.ClientID,
			cfg.Keycloak.ClientSecret,
			cfg.Keycloak.RequiredScope,
		)
	case config.AuthModeJWT:
		return auth.NewJWTGate(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.LeewaySeconds)*time.Second)
	default:
		return auth.OpenGate{}
	}
}

func healthMux(zeebe *camunda.Client, pg *database.PostgresClient, rdb *database.RedisClient) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"zeebe": "ok", "postgres": "ok", "redis": "ok"}
		status := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		} {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		checks["status"] = "ready"
		if status != http.StatusOK {
			checks["status"] = "not_ready"
		}
		checks["time"] = time.Now().Format(time.RFC3339)
		writeStatus(w, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
