// Command stylusd runs the stylus acquisition daemon in the foreground. It is
// the systemd-friendly entry point; interactive use normally goes through
// `stylus start`, which supervises the same process tree.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"stylus/internal/config"
	"stylus/internal/daemon"
	"stylus/internal/ipc"
	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/telegram"
	"stylus/internal/workflow"
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

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	workflowManager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	workflowManager.ConfigureStages(buildStageSet(cfg, store, logger, notifier))

	d, err := daemon.New(cfg, store, logger, workflowManager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	socketPath := buildSocketPath(cfg)
	ipcServer, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	if cfg.Telegram.Enabled {
		bot, err := telegram.New(cfg, store, logger)
		if err != nil {
			logger.Error("telegram bot unavailable", logging.Error(err))
		} else {
			go func() {
				if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
					logger.Error("telegram bot stopped", logging.Error(err))
				}
			}()
		}
	}

	<-ctx.Done()
	logger.Info("stylusd shutting down")
}
