package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/inkvault/backend/internal/cache"
	"github.com/inkvault/backend/internal/config"
	"github.com/inkvault/backend/internal/database"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/services"
	"gorm.io/gorm"
)

// env is what every command needs: the database and a cache shared with the
// server so edits invalidate what it serves
type env struct {
	db       *gorm.DB
	profiles *services.ProfileService
	close    func()
}

func openEnv(ctx context.Context) (*env, error) {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	if err := database.Initialize(cfg); err != nil {
		return nil, err
	}

	var (
		backend cache.Backend = cache.NewMemoryStore()
		closers               = []func() error{database.Close, logger.Close}
	)
	if cfg.RedisEnabled() {
		rc, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		backend = rc
		closers = append([]func() error{rc.Close}, closers...)
	}
	return newEnv(database.DB, backend, cfg.CacheTTL, func() {
		for _, c := range closers {
			_ = c()
		}
	}), nil
}

func newEnv(db *gorm.DB, backend cache.Backend, ttl time.Duration, closeFn func()) *env {
	return &env{
		db:       db,
		profiles: services.NewProfileService(repository.NewProfileRepository(db), cache.NewProfileCache(backend, ttl)),
		close:    closeFn,
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
