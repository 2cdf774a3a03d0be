// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"document-workflow/internal/api"
	"document-workflow/internal/attachments"
	"document-workflow/internal/catalog"
	"document-workflow/internal/common/aws"
	"document-workflow/internal/common/backend"
	"document-workflow/internal/common/camunda"
	"document-workflow/internal/common/config"
	"document-workflow/internal/common/database"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/observability"
	"document-workflow/internal/events"
	"document-workflow/internal/notify"
	"document-workflow/internal/wizard"
	resolvepostalcode "document-workflow/internal/workers/address/resolve-postal-code"
	createdocument "document-workflow/internal/workers/document/create-document"
	loadparameters "document-workflow/internal/workers/document/load-parameters"
	resolveentity "document-workflow/internal/workers/entity/resolve-entity"

	"go.uber.org/zap"
)

// retryWithBackoff retries an operation with exponential backoff
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
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting document workflow",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.App, cfg.Tracing)
	if err != nil {
		zapLog.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	obs := observability.New(cfg.App.Name, log)

	// ==========================
	// Datastores
	// ==========================

	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var connErr error
		zeebeClient, connErr = camunda.NewClient(cfg.Camunda)
		return connErr
	}, 10, 2*time.Second, zapLog, "Zeebe connection")
	if err != nil {
		zapLog.Fatal("Failed to create Zeebe client", zap.Error(err))
	}
	defer zeebeClient.Close()
	zapLog.Info("Connected to Zeebe", zap.String("address", cfg.Camunda.BrokerAddress))

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var connErr error
		pg, connErr = database.NewPostgres(cfg.Database.Postgres)
		return connErr
	}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("Connected to PostgreSQL")

	if cfg.Database.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("Failed to migrate catalog schema", zap.Error(err))
		}
		zapLog.Info("Catalog schema migrated")
	}

	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var connErr error
		rdb, connErr = database.NewRedis(cfg.Database.Redis)
		return connErr
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Connected to Redis")

	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var connErr error
		es, connErr = database.NewElasticsearch(cfg.Database.Elasticsearch)
		return connErr
	}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
	}
	zapLog.Info("Connected to Elasticsearch")

	if cfg.Database.Elasticsearch.EnsureIndex {
		created, err := es.EnsurePostalIndex(ctx, cfg.Database.Elasticsearch.PostalCodesIndex)
		if err != nil {
			zapLog.Fatal("Failed to prepare postal code index", zap.Error(err))
		}
		zapLog.Info("Postal code index ready",
			zap.String("index", cfg.Database.Elasticsearch.PostalCodesIndex),
			zap.Bool("created", created),
		)
	}

	// ==========================
	// Domain services
	// ==========================

	catalogStore := catalog.NewStore(catalog.NewRepository(pg.X), log)
	err = retryWithBackoff(func() error {
		return catalogStore.Refresh(ctx)
	}, 5, 2*time.Second, zapLog, "Catalog load")
	if err != nil {
		zapLog.Fatal("Failed to load document catalog", zap.Error(err))
	}
	go catalogStore.RunRefresher(ctx, time.Duration(cfg.Wizard.CatalogRefreshInterval)*time.Second)

	backendClient := backend.NewClient(cfg.Backend, log)

	publishers := events.Multi{events.NewZeebePublisher(zeebeClient, log).WithObservability(obs)}
	if cfg.Kafka.Enabled {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.Kafka, log))
		zapLog.Info("Kafka publisher enabled", zap.String("topic", cfg.Kafka.Topic))
	}
	defer publishers.Close()

	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.Notifications.SNS.Enabled {
		snsClient, snsErr := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if snsErr != nil {
			zapLog.Fatal("Failed to create SNS client", zap.Error(snsErr))
		}
		notifiers = append(notifiers, notify.NewSNSNotifier(snsClient, cfg.Notifications.SNS.TopicARN))
	}
	if cfg.Notifications.Email.Enabled {
		sesClient, sesErr := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if sesErr != nil {
			zapLog.Fatal("Failed to create SES client", zap.Error(sesErr))
		}
		notifiers = append(notifiers, notify.NewEmailNotifier(sesClient,
			cfg.Notifications.Email.FromEmail, cfg.Notifications.Email.To, cfg.Notifications.Email.Levels))
	}

	var previews attachments.PreviewStore = attachments.NewMemoryStore()
	if cfg.Storage.Driver == "s3" {
		s3Client, s3Err := aws.NewS3Client(ctx, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.Endpoint)
		if s3Err != nil {
			zapLog.Fatal("Failed to create S3 client", zap.Error(s3Err))
		}
		previews = attachments.NewS3Store(s3Client, cfg.Storage.Prefix, time.Duration(cfg.Storage.PresignTTL)*time.Second)
	}

	entityConfig := resolveentity.LoadConfig()
	entityConfig.CacheTTL = time.Duration(cfg.Wizard.EntityCacheTTL) * time.Second
	entityConfig.AllowedPrefixes = cfg.Wizard.AllowedTaxIDPrefixes
	entityService := resolveentity.NewService(resolveentity.ServiceDependencies{
		Backend: backendClient,
		Redis:   rdb.Client,
		Logger:  log,
	}, entityConfig)

	postalConfig := resolvepostalcode.LoadConfig()
	postalConfig.Index = cfg.Database.Elasticsearch.PostalCodesIndex
	postalService := resolvepostalcode.NewService(resolvepostalcode.ServiceDependencies{
		Elasticsearch: es.Client,
		Logger:        log,
	}, postalConfig)

	paramsConfig := loadparameters.LoadConfig()
	paramsService := loadparameters.NewService(loadparameters.ServiceDependencies{
		Catalog: catalogStore,
		Prefill: loadparameters.NewPrefillRepository(pg.X),
		Logger:  log,
	}, paramsConfig)

	createConfig := createdocument.LoadConfig()
	createService := createdocument.NewService(createdocument.ServiceDependencies{
		Backend: backendClient,
		Events:  publishers,
		Logger:  log,
	}, createConfig)

	// ==========================
	// Zeebe workers
	// ==========================

	registry := camunda.NewRegistry(zeebeClient.GetClient(), obs, log)
	defer registry.Close()

	workers := []struct {
		taskType string
		handle   camunda.HandlerFunc
	}{
		{resolveentity.TaskType, resolveentity.NewHandler(entityConfig, entityService, log).Handle},
		{resolvepostalcode.TaskType, resolvepostalcode.NewHandler(postalConfig, postalService, log).Handle},
		{loadparameters.TaskType, loadparameters.NewHandler(paramsConfig, paramsService, log).Handle},
		{createdocument.TaskType, createdocument.NewHandler(createConfig, createService, log).Handle},
	}
	for _, w := range workers {
		if registry.Start(w.taskType, config.GetWorkerConfig(cfg, w.taskType), w.handle) {
			zapLog.Info("Worker registered", zap.String("taskType", w.taskType))
		}
	}
	zapLog.Info("Workers started", zap.Int("count", registry.Count()))

	// ==========================
	// Wizard session API
	// ==========================

	wizardConfig := wizard.Config{
		MaxFiles:               cfg.Wizard.MaxFiles,
		DescriptionMaxLength:   cfg.Wizard.DescriptionMaxLength,
		InternalOrganizationID: cfg.Wizard.InternalOrganizationID,
		Icons:                  attachments.DefaultIcons(cfg.Wizard.PDFPreviewIcon),
	}
	sessions := api.NewSessionStore(func(id string) *wizard.Session {
		return wizard.New(id, wizard.Dependencies{
			Entities:   entityService,
			Addresses:  postalService,
			Parameters: paramsService,
			Submitter:  createService,
			Catalog:    catalogStore,
			Previews:   previews,
			Notifier:   notifiers,
			Logger:     log,
		}, wizardConfig)
	}, time.Duration(cfg.Wizard.SessionIdleTimeout)*time.Second, log)
	go sessions.RunSweeper(ctx, time.Minute)

	server := api.NewServer(cfg.Server, api.NewHandlers(sessions, log).WithUploadLimits(cfg.Wizard.MaxFileSize, cfg.Wizard.MaxFiles), map[string]api.ReadinessCheck{
		"postgres":      pg.Ping,
		"redis":         rdb.Ping,
		"elasticsearch": es.Ping,
		"zeebe":         zeebeClient.HealthCheck,
	}, log)

	go func() {
		zapLog.Info("Starting HTTP server", zap.String("address", cfg.Server.Address))
		if err := server.Start(); err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zapLog.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	sessions.CloseAll(shutdownCtx)
	cancel()

	if err := shutdownTracer(shutdownCtx); err != nil {
		zapLog.Error("Tracer shutdown failed", zap.Error(err))
	}
	obs.Shutdown()

	zapLog.Info("Shutdown complete")
}
