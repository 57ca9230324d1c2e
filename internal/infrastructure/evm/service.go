package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/voltbridge/voltbridge/internal/core/domain"
	"github.com/voltbridge/voltbridge/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const receiptPollInterval = 2 * time.Second

type Config struct {
	RpcURL          string
	ChainId         int64
	ContractAddress string
	PrivateKey      string // hex, with or without 0x prefix
}

type service struct {
	client   *ethclient.Client
	chainId  *big.Int
	contract common.Address
	privKey  *ecdsa.PrivateKey
	from     common.Address
	erc20Abi abi.ABI
	htlcAbi  abi.ABI
}

func NewService(cfg Config) (ports.HtlcLedger, error) {
	if !domain.IsValidAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid HTLC contract address %q", cfg.ContractAddress)
	}

	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	client, err := ethclient.Dial(cfg.RpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RpcURL, err)
	}

	erc20Abi, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	htlcAbi, err := abi.JSON(strings.NewReader(htlcABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse htlc abi: %w", err)
	}

	from := crypto.PubkeyToAddress(privKey.PublicKey)
	log.Infof("htlc ledger connected to %s, signer %s", cfg.RpcURL, from.Hex())

	return &service{
		client:   client,
		chainId:  big.NewInt(cfg.ChainId),
		contract: common.HexToAddress(cfg.ContractAddress),
		privKey:  privKey,
		from:     from,
		erc20Abi: erc20Abi,
		htlcAbi:  htlcAbi,
	}, nil
}

func (s *service) SignerAddress() string {
	return s.from.Hex()
}

func (s *service) ContractAddress() string {
	return s.contract.Hex()
}

func (s *service) Close() {
	s.client.Close()
}

func (s *service) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	return s.readUint256(ctx, token, "balanceOf", common.HexToAddress(owner))
}

func (s *service) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	return s.readUint256(
		ctx, token, "allowance", common.HexToAddress(owner), common.HexToAddress(spender),
	)
}

func (s *service) readUint256(
	ctx context.Context, token, method string, args ...interface{},
) (*big.Int, error) {
	data, err := s.erc20Abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s calldata: %w", method, err)
	}
	tokenAddr := common.HexToAddress(token)
	raw, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonContractError, fmt.Sprintf("%s call failed", method), err,
		)
	}
	out, err := s.erc20Abi.Unpack(method, raw)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonContractError, fmt.Sprintf("could not decode %s result", method), err,
		)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (s *service) GetLock(ctx context.Context, contractId string) (*domain.Lock, error) {
	data, err := s.htlcAbi.Pack("getContract", common.HexToHash(contractId))
	if err != nil {
		return nil, fmt.Errorf("failed to encode getContract calldata: %w", err)
	}
	raw, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &s.contract, Data: data}, nil)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonContractError, "getContract call failed", err,
		)
	}
	out, err := s.htlcAbi.Unpack("getContract", raw)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonContractError, "could not decode lock record", err,
		)
	}

	sender := abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	token := abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	amount := abi.ConvertType(out[2], new(big.Int)).(*big.Int)
	paymentHash := abi.ConvertType(out[3], new([32]byte)).(*[32]byte)
	timelock := abi.ConvertType(out[4], new(big.Int)).(*big.Int)
	withdrawn := *abi.ConvertType(out[5], new(bool)).(*bool)
	refunded := *abi.ConvertType(out[6], new(bool)).(*bool)
	preimage := abi.ConvertType(out[7], new([32]byte)).(*[32]byte)

	if *sender == (common.Address{}) {
		return nil, domain.Errf(domain.ReasonContractError, "lock %s not found", contractId)
	}

	lock := &domain.Lock{
		ContractId:   contractId,
		Sender:       sender.Hex(),
		TokenAddress: token.Hex(),
		Amount:       amount,
		PaymentHash:  common.BytesToHash(paymentHash[:]).Hex(),
		Timelock:     timelock.Int64(),
		Withdrawn:    withdrawn,
		Refunded:     refunded,
	}
	if *preimage != ([32]byte{}) {
		lock.Preimage = common.BytesToHash(preimage[:]).Hex()
	}
	return lock, nil
}

func (s *service) CreateLock(
	ctx context.Context, paymentHash string, timelock int64, token string, amount *big.Int,
) (string, string, error) {
	data, err := s.htlcAbi.Pack(
		"createLock",
		common.HexToHash(paymentHash),
		big.NewInt(timelock),
		common.HexToAddress(token),
		amount,
	)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode createLock calldata: %w", err)
	}

	receipt, err := s.sendTx(ctx, data)
	if err != nil {
		return "", "", err
	}

	contractId, err := s.lockCreatedId(receipt)
	if err != nil {
		return "", "", err
	}
	return contractId, receipt.TxHash.Hex(), nil
}

func (s *service) Claim(ctx context.Context, contractId, preimage string) (string, error) {
	data, err := s.htlcAbi.Pack(
		"claim", common.HexToHash(contractId), common.HexToHash(preimage),
	)
	if err != nil {
		return "", fmt.Errorf("failed to encode claim calldata: %w", err)
	}
	receipt, err := s.sendTx(ctx, data)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

func (s *service) Refund(ctx context.Context, contractId string) (string, error) {
	data, err := s.htlcAbi.Pack("refund", common.HexToHash(contractId))
	if err != nil {
		return "", fmt.Errorf("failed to encode refund calldata: %w", err)
	}
	receipt, err := s.sendTx(ctx, data)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// sendTx builds, signs and broadcasts an EIP-1559 transaction to the HTLC
// contract, then waits for it to be mined. A revert, whether caught during
// gas estimation or by the mined receipt status, is a TransactionFailed.
func (s *service) sendTx(ctx context.Context, calldata []byte) (*types.Receipt, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonContractError, "failed to get transaction count", err,
		)
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From: s.from, To: &s.contract, Data: calldata,
	})
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonTransactionFailed, "transaction would revert", err,
		)
	}

	gasTipCap, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonContractError, "failed to estimate fees", err,
		)
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonContractError, "failed to fetch chain head", err,
		)
	}
	gasFeeCap := new(big.Int).Set(gasTipCap)
	if head.BaseFee != nil {
		gasFeeCap.Add(gasFeeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainId,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit + gasLimit/5,
		To:        &s.contract,
		Value:     big.NewInt(0),
		Data:      calldata,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainId), s.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonTransactionFailed, "failed to broadcast transaction", err,
		)
	}
	log.Debugf("broadcast tx %s", signed.Hash().Hex())

	receipt, err := s.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, domain.Errf(
			domain.ReasonTransactionFailed, "transaction %s reverted", signed.Hash().Hex(),
		)
	}
	return receipt, nil
}

// waitMined polls for the receipt until the ledger reports it or ctx is
// cancelled. There is no local timeout: finality is the ledger's call.
func (s *service) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if err != ethereum.NotFound {
			return nil, domain.WrapSwapError(
				domain.ReasonTransactionFailed, "failed waiting for confirmation", err,
			)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// lockCreatedId extracts the contract id from the LockCreated event in the
// mined receipt.
func (s *service) lockCreatedId(receipt *types.Receipt) (string, error) {
	topic := s.htlcAbi.Events["LockCreated"].ID
	for _, logEntry := range receipt.Logs {
		if len(logEntry.Topics) >= 2 && logEntry.Topics[0] == topic {
			return logEntry.Topics[1].Hex(), nil
		}
	}
	return "", domain.Errf(
		domain.ReasonTransactionFailed,
		"transaction %s confirmed without a LockCreated event", receipt.TxHash.Hex(),
	)
}
