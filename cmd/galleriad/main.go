package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"galleria/internal/config"
	"galleria/internal/daemon"
	"galleria/internal/ipc"
	"galleria/internal/logging"
	"galleria/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := newDaemonLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		logger.Error("open registration store", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start ipc server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("galleriad shutting down")
}
