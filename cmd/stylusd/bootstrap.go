package main

import (
	"path/filepath"

	"log/slog"

	"stylus/internal/catalog"
	"stylus/internal/config"
	"stylus/internal/download"
	"stylus/internal/notifications"
	"stylus/internal/organizer"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/spectral"
	"stylus/internal/workflow"
)

func buildStageSet(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) workflow.StageSet {
	return workflow.StageSet{
		Resolver:   catalog.NewResolver(cfg, store, logger),
		Searcher:   search.NewSearcher(cfg, store, logger, notifier),
		Downloader: download.NewDownloader(cfg, store, logger, notifier),
		Verifier:   spectral.NewVerifier(cfg, store, logger, notifier),
		Organizer:  organizer.NewOrganizer(cfg, store, logger, notifier),
	}
}

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join("", "stylus.sock")
	}
	return filepath.Join(cfg.Paths.LogDir, "stylus.sock")
}
