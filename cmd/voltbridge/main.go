package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/voltbridge/voltbridge/internal/config"
	"github.com/voltbridge/voltbridge/internal/core/application"
	"github.com/voltbridge/voltbridge/internal/infrastructure/db"
	"github.com/voltbridge/voltbridge/internal/infrastructure/evm"
	"github.com/voltbridge/voltbridge/internal/infrastructure/nwc"
	scheduler "github.com/voltbridge/voltbridge/internal/infrastructure/scheduler/gocron"
	"github.com/voltbridge/voltbridge/internal/interface/rest"
	log "github.com/sirupsen/logrus"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	ctx := context.Background()

	lnSvc := nwc.NewService()
	if err := lnSvc.Connect(ctx, cfg.NwcURL); err != nil {
		log.WithError(err).Fatal("failed to connect to wallet")
	}

	ledgerSvc, err := evm.NewService(evm.Config{
		RpcURL:          cfg.EvmRpcURL,
		ChainId:         cfg.EvmChainId,
		ContractAddress: cfg.HtlcContract,
		PrivateKey:      cfg.EvmPrivateKey,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to htlc ledger")
	}

	dbConfig := []any{cfg.Datadir, nil}
	if cfg.DbType == "sqlite" {
		dbConfig = []any{cfg.Datadir}
	}
	repoManager, err := db.NewService(db.ServiceConfig{
		DbType:   cfg.DbType,
		DbConfig: dbConfig,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	schedulerSvc := scheduler.NewScheduler()
	schedulerSvc.Start()

	buildInfo := application.BuildInfo{Version: version, Commit: commit, Date: date}
	appSvc, err := application.NewService(
		buildInfo, lnSvc, ledgerSvc, repoManager, schedulerSvc, cfg.TokenAddress,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init service")
	}

	if err := appSvc.ResumePendingSwaps(ctx); err != nil {
		log.WithError(err).Warn("failed to resume pending swaps")
	}

	svc := rest.NewService(rest.Config{Port: cfg.HTTPPort}, appSvc)

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
