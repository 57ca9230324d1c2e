package db

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/voltbridge/voltbridge/internal/core/domain"
	"github.com/voltbridge/voltbridge/internal/core/ports"
	badgerdb "github.com/voltbridge/voltbridge/internal/infrastructure/db/badger"
	sqlitedb "github.com/voltbridge/voltbridge/internal/infrastructure/db/sqlite"
)

var allowedTypes = strings.Join([]string{"badger", "sqlite"}, ",")

type ServiceConfig struct {
	DbType   string
	DbConfig []any
}

type service struct {
	swapRepo domain.SwapRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	var (
		swapRepo domain.SwapRepository
		err      error
	)
	switch config.DbType {
	case "badger":
		if len(config.DbConfig) != 2 {
			return nil, fmt.Errorf(
				"badger db config must have 2 elements, got %d", len(config.DbConfig),
			)
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		var logger badger.Logger
		if config.DbConfig[1] != nil {
			logger, ok = config.DbConfig[1].(badger.Logger)
			if !ok {
				return nil, fmt.Errorf("invalid logger")
			}
		}
		swapRepo, err = badgerdb.NewSwapRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open swap db: %s", err)
		}
	case "sqlite":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf(
				"sqlite db config must have 1 element, got %d", len(config.DbConfig),
			)
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		swapRepo, err = sqlitedb.NewSwapRepository(baseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open swap db: %s", err)
		}
	default:
		return nil, fmt.Errorf(
			"unsupported db type %s, please select one of: %s", config.DbType, allowedTypes,
		)
	}

	return &service{swapRepo}, nil
}

func (s *service) Swaps() domain.SwapRepository {
	return s.swapRepo
}

func (s *service) Close() {
	s.swapRepo.Close()
}
