package repository

import (
	"fmt"
	"strings"

	"github.com/GoPolymarket/logkeep/internal/config"
	"github.com/GoPolymarket/logkeep/internal/service"
	"github.com/spf13/afero"
)

// Open builds the persistence port selected by store.backend.
// The returned close func releases backend connections.
func Open(cfg *config.Config) (service.Port, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(cfg.Store.Backend) {
	case "", "file":
		repo, err := NewFileRepo(afero.NewOsFs(), cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil
	case "memory":
		return NewMemoryRepo(), noop, nil
	case "redis":
		client, err := NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := NewRedisRepo(client, cfg.Redis.KeyPrefix)
		return repo, repo.Close, nil
	case "postgres":
		db, err := NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := NewPostgresRepo(db)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return repo, sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
