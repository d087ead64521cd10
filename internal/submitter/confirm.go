package submitter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// AwaitConfirmation polls until the transaction is included and buried under
// confirmations-1 further blocks. Read failures are logged and retried on the
// next tick; only ctx ends the wait early.
func (s *Submitter) AwaitConfirmation(basectx context.Context, hash common.Hash, confirmations uint64) (*SubmissionResult, error) {
	ticker := time.NewTimer(0)
	defer ticker.Stop()

	var start = time.Now()

	slog.Info("Checking status", "tx", hash, "confirmations", confirmations)
	for {
		select {
		case <-basectx.Done():
			return nil, &Error{Kind: ErrCanceled, Stage: StageConfirm, TxHash: hash, Err: basectx.Err()}
		case <-ticker.C:
			result, err := s.lookup(basectx, hash, StageConfirm)
			switch {
			case errors.Is(err, ErrUnknownTransaction):
				slog.Warn("Tx not known to endpoint yet", "tx", hash)
			case err != nil:
				slog.Error("Failed to check tx", "tx", hash, "err", err)
			case result.Status != StatusPending:
				deep, err := s.deepEnough(basectx, result, confirmations)
				if err != nil {
					slog.Error("Failed to read head", "err", err)
				} else if deep {
					slog.Info("Confirmed", "tx", hash, "status", result.Status,
						"duration", time.Since(start).String(), "height", result.BlockNumber)
					return result, nil
				}
			}
			ticker.Reset(s.cfg.PollInterval)
		}
	}
}

// Status reports where the transaction is right now with a single lookup.
func (s *Submitter) Status(basectx context.Context, hash common.Hash) (*SubmissionResult, error) {
	return s.lookup(basectx, hash, StageStatus)
}

func (s *Submitter) lookup(basectx context.Context, hash common.Hash, stage Stage) (*SubmissionResult, error) {
	newctx, cancel := context.WithTimeout(basectx, s.cfg.Timeout)
	defer cancel()

	tx, isPending, err := s.endpoint.TransactionByHash(newctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, &Error{Kind: ErrUnknownTransaction, Stage: stage, TxHash: hash, Err: err}
	}
	if err != nil {
		return nil, &Error{Kind: ErrNetworkUnavailable, Stage: stage, TxHash: hash, Err: err}
	}
	if isPending {
		return &SubmissionResult{TxHash: hash, Status: StatusPending, Nonce: tx.Nonce()}, nil
	}

	receipt, err := s.endpoint.TransactionReceipt(newctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		// Mined but the receipt is not indexed yet.
		return &SubmissionResult{TxHash: hash, Status: StatusPending, Nonce: tx.Nonce()}, nil
	}
	if err != nil {
		return nil, &Error{Kind: ErrNetworkUnavailable, Stage: stage, TxHash: hash, Err: err}
	}
	return resultFromReceipt(receipt, tx.Nonce()), nil
}

func (s *Submitter) deepEnough(basectx context.Context, result *SubmissionResult, confirmations uint64) (bool, error) {
	if confirmations <= 1 || result.BlockNumber == nil {
		return true, nil
	}

	newctx, cancel := context.WithTimeout(basectx, s.cfg.Timeout)
	defer cancel()

	head, err := s.endpoint.BlockNumber(newctx)
	if err != nil {
		return false, err
	}
	included := result.BlockNumber.Uint64()
	return head >= included && head-included+1 >= confirmations, nil
}
