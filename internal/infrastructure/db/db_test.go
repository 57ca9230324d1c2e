package db_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voltbridge/voltbridge/internal/core/domain"
	"github.com/voltbridge/voltbridge/internal/core/ports"
	"github.com/voltbridge/voltbridge/internal/infrastructure/db"
)

var (
	// an empty base directory gives in-memory stores for both backends
	managers = map[string]db.ServiceConfig{
		"badger": {DbType: "badger", DbConfig: []any{"", nil}},
		"sqlite": {DbType: "sqlite", DbConfig: []any{""}},
	}
	testSwap = domain.SwapAttempt{
		Id:           "swap-1",
		Timestamp:    1735689600,
		Status:       domain.SwapCreated,
		AmountSat:    1000,
		TokenAmount:  "100000000",
		TokenAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		PaymentHash:  "0x" + strings.Repeat("00", 32),
		Invoice:      "lnbc10u1...",
	}
)

func TestService(t *testing.T) {
	t.Run("unsupported type", func(t *testing.T) {
		svc, err := db.NewService(db.ServiceConfig{DbType: "postgres"})
		require.Error(t, err)
		require.Nil(t, svc)
	})

	t.Run("bad config arity", func(t *testing.T) {
		svc, err := db.NewService(db.ServiceConfig{DbType: "badger", DbConfig: []any{""}})
		require.Error(t, err)
		require.Nil(t, svc)

		svc, err = db.NewService(db.ServiceConfig{DbType: "sqlite", DbConfig: []any{"", nil}})
		require.Error(t, err)
		require.Nil(t, svc)
	})
}

func TestSwapRepository(t *testing.T) {
	for name, config := range managers {
		t.Run(name, func(t *testing.T) {
			svc, err := db.NewService(config)
			require.NoError(t, err)
			defer svc.Close()

			testAddSwap(t, svc)
			testUpdateSwap(t, svc)
		})
	}
}

func testAddSwap(t *testing.T, svc ports.RepoManager) {
	t.Run("add swap", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Swaps()

		swaps, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Empty(t, swaps)

		swap, err := repo.Get(ctx, testSwap.Id)
		require.Error(t, err)
		require.Nil(t, swap)

		err = repo.Add(ctx, testSwap)
		require.NoError(t, err)

		err = repo.Add(ctx, testSwap)
		require.Error(t, err)

		swap, err = repo.Get(ctx, testSwap.Id)
		require.NoError(t, err)
		require.Equal(t, testSwap, *swap)

		swaps, err = repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, swaps, 1)
		require.Equal(t, testSwap, swaps[0])
	})
}

func testUpdateSwap(t *testing.T, svc ports.RepoManager) {
	t.Run("update swap", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Swaps()

		updated := testSwap
		require.NoError(t, updated.MarkLocked(
			"0x"+strings.Repeat("ab", 32), "0x"+strings.Repeat("cd", 32), 1893456000,
		))

		err := repo.Update(ctx, updated)
		require.NoError(t, err)

		swap, err := repo.Get(ctx, testSwap.Id)
		require.NoError(t, err)
		require.Equal(t, domain.SwapLocked, swap.Status)
		require.Equal(t, updated.ContractId, swap.ContractId)
		require.Equal(t, updated.Timelock, swap.Timelock)

		missing := testSwap
		missing.Id = "no-such-swap"
		err = repo.Update(ctx, missing)
		require.Error(t, err)
	})
}
