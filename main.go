package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brand-publisher/domain/repository"
	"brand-publisher/infrastructure/cache"
	"brand-publisher/infrastructure/clients/credential"
	"brand-publisher/infrastructure/clients/platform"
	"brand-publisher/infrastructure/configuration"
	"brand-publisher/infrastructure/logger"
	"brand-publisher/infrastructure/metrics"
	"brand-publisher/infrastructure/persistence"
	"brand-publisher/infrastructure/pubsub"
	"brand-publisher/infrastructure/realtime"
	"brand-publisher/infrastructure/servicebus"
	httpHandler "brand-publisher/interfaces/http"
	"brand-publisher/server"
	"brand-publisher/usecase"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App
	pub := configuration.C.Publishing

	jobDB, store, err := InitiateJobStore(pub.StoreVendor)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Job store initialization failed")
	}
	defer jobDB.Close()

	connectionDB, err := persistence.NewConnectionDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Connection database initialization failed")
	}
	if err := persistence.EnsureConnectionSchema(connectionDB); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring platform connection schema")
	}
	connections := persistence.NewConnectionRepository(connectionDB)

	checks := map[string]httpHandler.Pinger{"job_store": jobDB}
	if sqlDB, err := connectionDB.DB(); err == nil {
		checks["connections"] = sqlDB
	}

	ledger, sweep := InitiateStateLedger(ctx, pub, checks)
	if sweep != nil {
		g.Go(func() error { return sweep(ctx) })
	}

	httpClient := &http.Client{Timeout: pub.HTTPClientTimeout}
	credentials := credential.NewDirectory(ledger, credential.ProvidersFromConfig(configuration.C.OAuth), httpClient)
	registry := platform.NewRegistry(connections, credentials, pub.RequestsPerMinute, pub.DispatchTimeout,
		platform.DefaultAdapters(httpClient, configuration.C.OAuth)...)

	m := metrics.New()
	jobHub := realtime.NewJobHub()
	queue := usecase.NewJobQueue(store, registry, pub.MaxRetries).
		WithBroadcaster(jobHub.Broadcast).
		WithBroadcaster(m.ObserveJob)

	if mongoClient := InitiateMongo(ctx); mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		if pub.MirrorLogsToMongo {
			queue.WithLogMirror(persistence.NewPublishingLogMongoRepository(mongoClient, configuration.C.Database.Mongo.Name))
			logger.GetLogger().Info("Mirroring publishing logs to MongoDB")
		}
		checks["mongo"] = httpHandler.PingFunc(func(c context.Context) error { return mongoClient.Ping(c, nil) })
	}

	if pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID); err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - job events will not be published")
	} else {
		defer pubSubClient.Close()
		publisher := pubsub.NewJobEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)
		defer publisher.Stop()
		queue.WithBroadcaster(publisher.Broadcast)
	}

	if sbClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus features")
	} else if sender, err := servicebus.NewJobEventSender(sbClient, configuration.C.ServiceBus.Queue); err == nil {
		defer func() { _ = sender.Close(context.Background()) }()
		queue.WithBroadcaster(sender.Broadcast)
	}

	// Recovery runs before the listener opens so no request races the requeue.
	recovery := usecase.NewRecoveryCoordinator(store, queue)
	report := recovery.Recover(ctx)
	logger.GetLogger().WithFields(map[string]interface{}{
		"requeued":          report.Requeued,
		"reset_processing":  report.ResetProcessing,
		"promoted_schedule": report.PromotedSchedule,
		"waiting":           report.Waiting,
		"errors":            report.Errors,
	}).Info("Publishing queue recovered")
	g.Go(func() error { return recovery.Start(ctx, pub.SchedulerTick) })

	connectionUC := usecase.NewConnectionUsecase(credentials, connections)
	publishingUC := usecase.NewPublishingUsecase(queue, store, connections, pub.MaxRetries)

	router := server.InitiateRouter(
		server.RouterOptions{SecretKey: app.SecretKey, CORSOrigins: app.CORSOrigins, StateMaxAge: pub.StateMaxAge},
		httpHandler.NewOAuthHandler(connectionUC, app.FrontendURL, m.ObserveOAuthCallback),
		httpHandler.NewPublishingHandler(publishingUC),
		httpHandler.NewConnectionHandler(connectionUC),
		httpHandler.NewHealthHandler(checks),
		jobHub,
		m,
	)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			return nil
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Publishing queue did not drain before shutdown")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateJobStore opens the durable job store. PostgreSQL is the default;
// DB_VENDOR=mssql (or ENV=production) selects SQL Server.
func InitiateJobStore(vendor string) (*sql.DB, repository.IJobStore, error) {
	env := os.Getenv("ENV")
	if vendor == "mssql" || env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, nil, err
		}
		if err := persistence.EnsurePublishingSchemaMSSQL(db); err != nil {
			return nil, nil, err
		}
		return db, persistence.NewPublishingJobRepositoryMSSQL(db), nil
	}

	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, nil, err
	}
	if err := persistence.EnsurePublishingSchema(db); err != nil {
		return nil, nil, err
	}
	return db, persistence.NewPublishingJobRepository(db), nil
}

// InitiateStateLedger picks the OAuth state backend. The in-memory ledger needs
// a sweep loop; Redis expires entries itself.
func InitiateStateLedger(ctx context.Context, pub configuration.Publishing, checks map[string]httpHandler.Pinger) (repository.IStateLedger, func(context.Context) error) {
	if pub.StateBackend == "redis" {
		rc := configuration.C.RedisClient
		client, err := cache.NewCache(ctx, fmt.Sprintf("%s:%s", rc.Host, rc.Port), rc.Username, rc.Password)
		if err == nil {
			logger.GetLogger().Info("Redis client initialized successfully.")
			checks["redis"] = httpHandler.PingFunc(func(c context.Context) error { return client.Ping(c).Err() })
			return cache.NewRedisStateLedger(client, pub.StateTTL), nil
		}
		logger.GetLogger().WithField("error", err).Warn("Redis not available - falling back to in-memory state ledger")
	}
	ledger := cache.NewMemoryStateLedger(pub.StateTTL)
	return ledger, func(c context.Context) error { return ledger.Start(c, pub.StateSweepInterval) }
}

func InitiateMongo(ctx context.Context) *mongo.Client {
	mc := configuration.C.Database.Mongo
	client, err := persistence.NewMongoDb(mc.Host, mc.Port, mc.User, mc.Password, mc.Name)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without Mongo features")
		return nil
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without Mongo features")
		return nil
	}
	logger.GetLogger().Info("MongoDB connected successfully")
	return client
}
