package submitter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmissionResult is a snapshot. Confirmation produces a new value instead
// of mutating the one returned by Submit.
type SubmissionResult struct {
	TxHash common.Hash
	Status Status
	Nonce  uint64

	// Set once the transaction is included in a block.
	BlockNumber *big.Int
	BlockHash   common.Hash
}

func resultFromReceipt(receipt *types.Receipt, nonce uint64) *SubmissionResult {
	status := StatusConfirmed
	if receipt.Status == types.ReceiptStatusFailed {
		status = StatusFailed
	}
	var number *big.Int
	if receipt.BlockNumber != nil {
		number = new(big.Int).Set(receipt.BlockNumber)
	}
	return &SubmissionResult{
		TxHash:      receipt.TxHash,
		Status:      status,
		Nonce:       nonce,
		BlockNumber: number,
		BlockHash:   receipt.BlockHash,
	}
}
