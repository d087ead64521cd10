// Package submitter validates, signs and broadcasts EIP-1559 contract calls
// and, as a separate step, waits for them to be confirmed.
//
// A Submitter never caches nonces and never locks across calls. Callers must
// serialise submissions for the same sender.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
)

const (
	DefaultTimeout      = time.Second * 10
	DefaultPollInterval = time.Second * 3
)

// Endpoint is the subset of a JSON-RPC client the submitter needs.
// *ethclient.Client satisfies it.
type Endpoint interface {
	ethereum.TransactionSender
	ethereum.ContractCaller

	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// KeyHandle signs on behalf of exactly one address.
type KeyHandle interface {
	Address() common.Address
	SignTx(tx *types.Transaction, signer types.Signer) (*types.Transaction, error)
}

type Config struct {
	// ChainID skips the eth_chainId lookup in New when set.
	ChainID *big.Int

	// Contract, when set, is used to check the call data selector and arguments.
	Contract *abi.ABI

	// Timeout bounds every single network call.
	Timeout time.Duration

	PollInterval time.Duration

	// Simulate runs an eth_call of the intent before the nonce is resolved.
	Simulate bool
}

type Submitter struct {
	endpoint Endpoint
	cfg      Config

	chainID *big.Int
	signer  types.Signer
}

func New(basectx context.Context, endpoint Endpoint, cfg Config) (*Submitter, error) {
	if endpoint == nil {
		return nil, errors.New("endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	chainID := cfg.ChainID
	if chainID == nil {
		newctx, cancel := context.WithTimeout(basectx, cfg.Timeout)
		defer cancel()

		var err error
		if chainID, err = endpoint.ChainID(newctx); err != nil {
			return nil, fmt.Errorf("failed to resolve chain id: %w", err)
		}
	}

	slog.Info("submitter ready", "chainId", chainID, "simulate", cfg.Simulate, "timeout", cfg.Timeout)
	return &Submitter{
		endpoint: endpoint,
		cfg:      cfg,
		chainID:  new(big.Int).Set(chainID),
		signer:   types.NewLondonSigner(chainID),
	}, nil
}

func (s *Submitter) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// Submit validates the intent, resolves the sender's pending nonce, signs and
// broadcasts. It returns as soon as the endpoint accepts the payload; use
// AwaitConfirmation for finality.
func (s *Submitter) Submit(basectx context.Context, intent TransactionIntent, key KeyHandle) (*SubmissionResult, error) {
	log := slog.With("submission", uuid.NewString(), "sender", intent.Sender, "contract", intent.Contract)

	to, err := s.validate(intent, key)
	if err != nil {
		log.Warn("Invalid intent", "err", err)
		return nil, err
	}

	if s.cfg.Simulate {
		if err := s.simulate(basectx, intent, to); err != nil {
			log.Warn("Simulation failed", "err", err)
			return nil, err
		}
	}

	nonce, err := s.resolveNonce(basectx, intent.Sender)
	if err != nil {
		log.Error("Failed to resolve nonce", "err", err)
		return nil, err
	}

	tx := buildPayload(s.chainID, nonce, to, intent)

	signed, err := key.SignTx(tx, s.signer)
	if err != nil {
		return nil, newError(ErrSigningFailed, StageSign, err)
	}
	from, err := types.Sender(s.signer, signed)
	if err != nil {
		return nil, newError(ErrSigningFailed, StageSign, err)
	}
	if from != intent.Sender {
		return nil, newError(ErrSigningFailed, StageSign, fmt.Errorf("signature recovers to %s, want %s", from, intent.Sender))
	}

	// Last point at which dropping the payload has no network side effect.
	if err := basectx.Err(); err != nil {
		return nil, newError(ErrCanceled, StageSign, err)
	}

	log.Info("Sending", "tx", signed.Hash(), "nonce", nonce, "gas", signed.Gas(),
		"tipCap", signed.GasTipCap(), "feeCap", signed.GasFeeCap())
	if err := s.send(basectx, signed); err != nil {
		log.Error("Failed to send Tx", "tx", signed.Hash(), "err", err)
		return nil, err
	}

	return &SubmissionResult{
		TxHash: signed.Hash(),
		Status: StatusPending,
		Nonce:  nonce,
	}, nil
}

func (s *Submitter) validate(intent TransactionIntent, key KeyHandle) (common.Address, error) {
	if err := intent.Fees.Validate(); err != nil {
		return common.Address{}, newError(ErrInvalidFeeParameters, StageValidate, err)
	}
	to, err := ParseAddress(intent.Contract)
	if err != nil {
		return common.Address{}, newError(ErrInvalidIntent, StageValidate, err)
	}
	if intent.Value != nil && intent.Value.Sign() < 0 {
		return common.Address{}, newError(ErrInvalidIntent, StageValidate, fmt.Errorf("negative value %s", intent.Value))
	}
	if key == nil || key.Address() == (common.Address{}) {
		return common.Address{}, newError(ErrInvalidIntent, StageValidate, errors.New("no key handle"))
	}
	if key.Address() != intent.Sender {
		return common.Address{}, newError(ErrInvalidIntent, StageValidate,
			fmt.Errorf("key handle is bound to %s, intent sender is %s", key.Address(), intent.Sender))
	}
	if _, err := checkCallData(s.cfg.Contract, intent.CallData); err != nil {
		return common.Address{}, newError(ErrInvalidCallData, StageValidate, err)
	}
	return to, nil
}

func (s *Submitter) simulate(basectx context.Context, intent TransactionIntent, to common.Address) error {
	newctx, cancel := context.WithTimeout(basectx, s.cfg.Timeout)
	defer cancel()

	_, err := s.endpoint.CallContract(newctx, ethereum.CallMsg{
		From:      intent.Sender,
		To:        &to,
		Gas:       intent.Fees.GasLimit,
		GasFeeCap: intent.Fees.MaxFeePerGas,
		GasTipCap: intent.Fees.MaxPriorityFeePerGas,
		Value:     intent.Value,
		Data:      intent.CallData,
	}, nil)
	if err == nil {
		return nil
	}
	if !isNodeReply(err) {
		return newError(ErrNetworkUnavailable, StageSimulate, err)
	}
	if reason, ok := revertReason(err); ok {
		return newError(ErrInvalidCallData, StageSimulate, fmt.Errorf("%w: %s", err, reason))
	}
	if strings.HasPrefix(err.Error(), "execution reverted") {
		return newError(ErrInvalidCallData, StageSimulate, err)
	}
	// Balance, fee and gas checks fail before the call runs.
	return newError(ErrSubmissionRejected, StageSimulate, err)
}

func (s *Submitter) resolveNonce(basectx context.Context, sender common.Address) (uint64, error) {
	newctx, cancel := context.WithTimeout(basectx, s.cfg.Timeout)
	defer cancel()

	nonce, err := s.endpoint.PendingNonceAt(newctx, sender)
	if err != nil {
		return 0, newError(ErrSequenceResolutionFailed, StageResolveNonce, err)
	}
	return nonce, nil
}

func (s *Submitter) send(basectx context.Context, tx *types.Transaction) error {
	newctx, cancel := context.WithTimeout(basectx, s.cfg.Timeout)
	defer cancel()

	err := s.endpoint.SendTransaction(newctx, tx)
	if err == nil {
		return nil
	}
	kind := ErrNetworkUnavailable
	if isNodeReply(err) {
		kind = ErrSubmissionRejected
	}
	return &Error{Kind: kind, Stage: StageBroadcast, TxHash: tx.Hash(), Err: err}
}

// isNodeReply tells a JSON-RPC error response apart from a transport failure.
func isNodeReply(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	hex, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, decErr := hexutil.Decode(hex)
	if decErr != nil {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return "", false
	}
	return reason, true
}
