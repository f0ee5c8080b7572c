package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/config"
	"github.com/mamadbah2/aviario/internal/repository/blob"
	"github.com/mamadbah2/aviario/internal/repository/mongodb"
	"github.com/mamadbah2/aviario/internal/repository/sheets"
	"github.com/mamadbah2/aviario/internal/repository/sqlstore"
	"github.com/mamadbah2/aviario/internal/scheduler"
	"github.com/mamadbah2/aviario/internal/server/handlers"
	"github.com/mamadbah2/aviario/internal/server/router"
	batchsvc "github.com/mamadbah2/aviario/internal/service/batches"
	commandsvc "github.com/mamadbah2/aviario/internal/service/commands"
	financesvc "github.com/mamadbah2/aviario/internal/service/finance"
	husbandrysvc "github.com/mamadbah2/aviario/internal/service/husbandry"
	indicatorsvc "github.com/mamadbah2/aviario/internal/service/indicators"
	reportingsvc "github.com/mamadbah2/aviario/internal/service/reporting"
	targetsvc "github.com/mamadbah2/aviario/internal/service/targets"
	whatsappsvc "github.com/mamadbah2/aviario/internal/service/whatsapp"
	"github.com/mamadbah2/aviario/internal/telemetry"
	whatsappclient "github.com/mamadbah2/aviario/pkg/clients/whatsapp"
	"github.com/mamadbah2/aviario/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect := sqlstore.DialectSQLite
	if cfg.Database.Driver == "postgres" {
		dialect = sqlstore.DialectPostgres
	}
	store, err := sqlstore.Open(ctx, dialect, cfg.Database.URL)
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close database", zap.Error(err))
		}
	}()

	metrics := telemetry.New()

	var archive mongodb.Repository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, indicator snapshots are not archived")
	}

	var uploader reportingsvc.Uploader
	if cfg.S3.Enabled() {
		blobStore, err := blob.New(ctx, blob.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		}, baseLogger.Named("repo.blob"))
		if err != nil {
			baseLogger.Fatal("failed to init s3 client", zap.Error(err))
		}
		uploader = blobStore
	}

	var sheetReader targetsvc.SheetReader
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetReader = sheetsRepo
	}

	batchSvc := batchsvc.NewService(store, baseLogger.Named("svc.batches"))
	targetSvc := targetsvc.NewService(store, sheetReader, cfg.Targets.SheetRange, baseLogger.Named("svc.targets"))
	financeSvc := financesvc.NewService(store, baseLogger.Named("svc.finance"))
	husbandrySvc := husbandrysvc.NewService(store, baseLogger.Named("svc.husbandry"))
	indicatorSvc := indicatorsvc.NewService(store, metrics, baseLogger.Named("svc.indicators"))
	reportingSvc := reportingsvc.NewService(store, indicatorSvc, archive, uploader, metrics, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(batchSvc, indicatorSvc, reportingSvc, baseLogger.Named("svc.commands"))

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
	} else {
		baseLogger.Warn("whatsapp credentials missing, replies and reports are not sent")
	}
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))

	engine := router.New(router.Handlers{
		Webhook:    handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp")),
		Batches:    handlers.NewBatchHandler(batchSvc, metrics, baseLogger.Named("handlers.batches")),
		Indicators: handlers.NewIndicatorHandler(indicatorSvc, archive, baseLogger.Named("handlers.indicators")),
		Finance:    handlers.NewFinanceHandler(financeSvc, baseLogger.Named("handlers.finance")),
		Husbandry:  handlers.NewHusbandryHandler(husbandrySvc, baseLogger.Named("handlers.husbandry")),
		Targets:    handlers.NewTargetHandler(targetSvc, baseLogger.Named("handlers.targets")),
	}, metrics, baseLogger.Named("router"))

	if cfg.Targets.File != "" {
		go func() {
			if err := targetSvc.Watch(ctx, cfg.Targets.File); err != nil {
				baseLogger.Error("targets file watcher stopped", zap.Error(err))
			}
		}()
	}

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, messagingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("database", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
