package main

import (
	"fmt"

	"github.com/blueox/schedule/internal/config"
	"github.com/blueox/schedule/internal/db"
	"github.com/blueox/schedule/internal/store"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// loadConfig reads the config file and applies its log level.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log.SetLevel(level)
	return cfg, nil
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", databaseName(cfg), err)
	}

	return cfg, gormDB, nil
}

// openTaskStore returns the task source for cfg: a static feed when
// staticPath is set, otherwise the database, fronted by Redis when a cache
// URL is configured.
func openTaskStore(cfg *config.Config, gormDB *gorm.DB, staticPath string) (store.TaskStore, func(), error) {
	noop := func() {}
	if staticPath != "" {
		s, err := store.OpenStatic(staticPath)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}

	base := store.NewGormStore(gormDB)
	if cfg.Cache.RedisURL == "" {
		return base, noop, nil
	}
	client, err := store.NewRedisClient(cfg.Cache.RedisURL)
	if err != nil {
		return nil, noop, err
	}
	return store.NewCache(base, client, cfg.Cache.TTL), func() { client.Close() }, nil
}

func databaseName(cfg *config.Config) string {
	if cfg.Database.Driver == "sqlite" {
		return cfg.Database.Path
	}
	return cfg.Database.Database
}
