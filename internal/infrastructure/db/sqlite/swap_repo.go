package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/voltbridge/voltbridge/internal/core/domain"
	_ "modernc.org/sqlite"
)

const dbFile = "voltbridge.db"

const swapSchema = `
CREATE TABLE IF NOT EXISTS swap (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	status INTEGER NOT NULL,
	amount_sat INTEGER NOT NULL,
	token_amount TEXT NOT NULL,
	token_address TEXT NOT NULL,
	payment_hash TEXT NOT NULL,
	invoice TEXT NOT NULL,
	preimage TEXT NOT NULL,
	contract_id TEXT NOT NULL,
	timelock INTEGER NOT NULL,
	lock_tx_id TEXT NOT NULL,
	redeem_tx_id TEXT NOT NULL
);`

type swapRepository struct {
	db *sql.DB
}

func NewSwapRepository(baseDir string) (domain.SwapRepository, error) {
	dsn := ":memory:"
	if len(baseDir) > 0 {
		dsn = filepath.Join(baseDir, dbFile)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open swap db: %s", err)
	}
	if _, err := db.Exec(swapSchema); err != nil {
		return nil, fmt.Errorf("failed to init swap schema: %s", err)
	}
	return &swapRepository{db}, nil
}

func (r *swapRepository) GetAll(ctx context.Context) ([]domain.SwapAttempt, error) {
	rows, err := r.db.QueryContext(
		ctx, `SELECT `+swapColumns+` FROM swap ORDER BY timestamp`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get all swaps: %w", err)
	}
	defer rows.Close()

	var swaps []domain.SwapAttempt
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, *swap)
	}
	return swaps, rows.Err()
}

func (r *swapRepository) Get(ctx context.Context, swapId string) (*domain.SwapAttempt, error) {
	row := r.db.QueryRowContext(
		ctx, `SELECT `+swapColumns+` FROM swap WHERE id = ?`, swapId,
	)
	swap, err := scanSwap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("swap %s not found", swapId)
	}
	return swap, err
}

func (r *swapRepository) Add(ctx context.Context, swap domain.SwapAttempt) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO swap (`+swapColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		swap.Id, swap.Timestamp, swap.Status, swap.AmountSat, swap.TokenAmount,
		swap.TokenAddress, swap.PaymentHash, swap.Invoice, swap.Preimage,
		swap.ContractId, swap.Timelock, swap.LockTxId, swap.RedeemTxId,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap %s: %w", swap.Id, err)
	}
	return nil
}

func (r *swapRepository) Update(ctx context.Context, swap domain.SwapAttempt) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE swap SET status = ?, preimage = ?, contract_id = ?, timelock = ?,
			lock_tx_id = ?, redeem_tx_id = ? WHERE id = ?`,
		swap.Status, swap.Preimage, swap.ContractId, swap.Timelock,
		swap.LockTxId, swap.RedeemTxId, swap.Id,
	)
	if err != nil {
		return fmt.Errorf("failed to update swap %s: %w", swap.Id, err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return fmt.Errorf("swap %s not found", swap.Id)
	}
	return nil
}

func (r *swapRepository) Close() {
	// nolint:all
	r.db.Close()
}

const swapColumns = `id, timestamp, status, amount_sat, token_amount, token_address,
	payment_hash, invoice, preimage, contract_id, timelock, lock_tx_id, redeem_tx_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSwap(row rowScanner) (*domain.SwapAttempt, error) {
	var swap domain.SwapAttempt
	if err := row.Scan(
		&swap.Id, &swap.Timestamp, &swap.Status, &swap.AmountSat, &swap.TokenAmount,
		&swap.TokenAddress, &swap.PaymentHash, &swap.Invoice, &swap.Preimage,
		&swap.ContractId, &swap.Timelock, &swap.LockTxId, &swap.RedeemTxId,
	); err != nil {
		return nil, err
	}
	return &swap, nil
}
