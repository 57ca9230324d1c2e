package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"github.com/voltbridge/voltbridge/internal/core/domain"
)

const swapDir = "swap"

type swapRepository struct {
	store *badgerhold.Store
}

func NewSwapRepository(baseDir string, logger badger.Logger) (domain.SwapRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, swapDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open swap store: %s", err)
	}
	return &swapRepository{store}, nil
}

func (r *swapRepository) GetAll(ctx context.Context) ([]domain.SwapAttempt, error) {
	var swaps []domain.SwapAttempt
	if err := r.store.Find(&swaps, nil); err != nil {
		return nil, fmt.Errorf("failed to get all swaps: %w", err)
	}
	return swaps, nil
}

func (r *swapRepository) Get(ctx context.Context, swapId string) (*domain.SwapAttempt, error) {
	var swap domain.SwapAttempt
	err := r.store.Get(swapId, &swap)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("swap %s not found", swapId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get swap: %w", err)
	}
	return &swap, nil
}

// Add stores a new swap attempt in the database
func (r *swapRepository) Add(ctx context.Context, swap domain.SwapAttempt) error {
	if err := r.store.Insert(swap.Id, swap); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("swap %s already exists", swap.Id)
		}
		return err
	}
	return nil
}

func (r *swapRepository) Update(ctx context.Context, swap domain.SwapAttempt) error {
	err := r.store.Update(swap.Id, swap)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("swap %s not found", swap.Id)
	}
	return err
}

func (r *swapRepository) Close() {
	// nolint:all
	r.store.Close()
}
