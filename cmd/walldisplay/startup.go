package main

import (
	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/config"
	"github.com/oukeidos/walldisplay/internal/logger"
	"github.com/oukeidos/walldisplay/internal/menu"
	"github.com/oukeidos/walldisplay/internal/scan"
)

// startup is everything loaded before the window opens.
type startup struct {
	cfg     config.Config
	reg     *menu.Registry
	catalog scan.Catalog
}

// prepare loads the configuration, the menu registry and the image catalogue.
// Only errors that make the display pointless are returned.
func prepare(o *globalOptions) (*startup, error) {
	cfg, notes, err := config.Load(o.configPath)
	if err != nil {
		if apperrors.IsFatal(err) {
			return nil, err
		}
		logger.Warn("Config file ignored", "path", o.configPath, "error", err)
	}
	for _, note := range notes {
		logger.Info("Config adjusted", "note", note)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Startup("configuration is invalid", err)
	}

	reg, err := menu.Load(o.dir)
	if err != nil {
		return nil, err
	}
	catalog := scan.Build(o.dir, reg.Categories())
	logger.Info("Content scanned", "dir", o.dir, "categories", reg.Len(), "images", catalog.Total())

	return &startup{cfg: cfg, reg: reg, catalog: catalog}, nil
}
