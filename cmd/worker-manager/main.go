package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"churn-workers/internal/churn"
	"churn-workers/internal/churn/encoding"
	"churn-workers/internal/churn/model"
	"churn-workers/internal/churn/retention"
	"churn-workers/internal/common/aws"
	"churn-workers/internal/common/camunda"
	"churn-workers/internal/common/config"
	"churn-workers/internal/common/database"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/observability"

	pcr "churn-workers/internal/workers/churn/predict-churn-risk"
	srr "churn-workers/internal/workers/communication/send-retention-report"
	ica "churn-workers/internal/workers/data-access/index-churn-assessment"
	lcp "churn-workers/internal/workers/data-access/load-customer-profile"
	rca "churn-workers/internal/workers/data-access/record-churn-assessment"
	grs "churn-workers/internal/workers/retention/generate-retention-strategies"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()
	if cfg.Tracing.Enabled {
		if err := obs.EnableTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint); err != nil {
			zapLog.Fatal("tracing setup failed", zap.Error(err))
		}
		zapLog.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.JaegerEndpoint))
	}

	ctx := context.Background()

	// --- Scoring capability ---
	scorer, encoders, engine, err := loadChurnModel(cfg)
	if err != nil {
		zapLog.Fatal("churn model load failed", zap.Error(err))
	}
	zapLog.Info("Churn model loaded",
		zap.String("modelVersion", model.VersionOf(scorer)),
		zap.Int("retentionRules", len(engine.Rules())),
	)

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if err := esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.AssessmentIndex, database.AssessmentMapping); err != nil {
		zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- AWS ---
	awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config load failed", zap.Error(err))
	}
	mailer := aws.NewSESClient(awsCfg)
	alerter := aws.NewSNSClient(awsCfg)

	// --- Workers ---
	zc := zeebe.GetClient()
	var workers []*camunda.CamundaWorker
	start := func(taskType string, h camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.NewWorker(zc, taskType, config.GetWorkerConfig(cfg, taskType), h, obs, log))
	}

	{
		c := lcp.LoadConfig()
		c.Timeout = workerTimeout(cfg, lcp.TaskType, c.Timeout)
		c.CacheTTL = cfg.Database.Redis.ProfileCacheTTL()
		start(lcp.TaskType, lcp.NewHandler(c, pg.DB, redis, log))
	}
	{
		c := pcr.LoadConfig()
		c.Timeout = workerTimeout(cfg, pcr.TaskType, c.Timeout)
		c.Thresholds = cfg.Thresholds()
		start(pcr.TaskType, pcr.NewHandler(c, scorer, encoders, obs, log))
	}
	{
		c := grs.LoadConfig()
		c.Timeout = workerTimeout(cfg, grs.TaskType, c.Timeout)
		start(grs.TaskType, grs.NewHandler(c, engine, scorer, log))
	}
	{
		c := rca.LoadConfig()
		c.Timeout = workerTimeout(cfg, rca.TaskType, c.Timeout)
		start(rca.TaskType, rca.NewHandler(c, pg.DB, log))
	}
	{
		c := ica.LoadConfig()
		c.Timeout = workerTimeout(cfg, ica.TaskType, c.Timeout)
		c.Index = cfg.Database.Elasticsearch.AssessmentIndex
		start(ica.TaskType, ica.NewHandler(c, esClient.Client, log))
	}
	{
		n := cfg.Notifications
		c := srr.LoadConfig()
		c.Timeout = workerTimeout(cfg, srr.TaskType, c.Timeout)
		c.EmailEnabled = n.Email.Enabled
		c.FromEmail = n.Email.FromEmail
		c.DefaultRecipient = n.Email.DefaultRecipient
		c.SMSEnabled = n.SMS.Enabled
		c.AlertTopicARN = n.SMS.AlertTopicARN
		c.SenderID = n.SMS.SenderID
		start(srr.TaskType, srr.NewHandler(c, mailer, alerter, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		rctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		status, code := "ready", http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    redis.Ping,
		} {
			if err := check(rctx); err != nil {
				checks[name] = err.Error()
				status, code = "not ready", http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		writeStatus(w, code, status, checks)
	})
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{Addr: cfg.Metrics.Addr(), Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		for _, w := range workers {
			w.Stop()
		}
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		zapLog.Warn("timed out waiting for in-flight jobs")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// loadChurnModel builds the scorer, label encoders and probe engine shared
// by the predict and retention workers.
func loadChurnModel(cfg *config.Config) (churn.Scorer, *encoding.Set, *retention.Engine, error) {
	base, err := model.Load(cfg.Model)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load scorer: %w", err)
	}

	encoders, err := encoding.LoadSet(cfg.Model.EncodersPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load encoders: %w", err)
	}

	rules, err := retention.SelectRules(cfg.Retention.Rules)
	if err != nil {
		return nil, nil, nil, err
	}

	return model.Instrument(base), encoders, retention.NewEngine(rules...), nil
}

// workerTimeout prefers the per-worker timeout from config over the
// handler's built-in default.
func workerTimeout(cfg *config.Config, taskType string, def time.Duration) time.Duration {
	if wc, ok := cfg.Workers[taskType]; ok && wc.Timeout > 0 {
		return config.GetDuration(wc.Timeout)
	}
	return def
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	json.NewEncoder(w).Encode(body)
}
