package submitter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func buildPayload(chainID *big.Int, nonce uint64, to common.Address, intent TransactionIntent) *types.Transaction {
	value := new(big.Int)
	if intent.Value != nil {
		value.Set(intent.Value)
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).Set(chainID),
		Nonce:     nonce,
		GasTipCap: new(big.Int).Set(intent.Fees.MaxPriorityFeePerGas),
		GasFeeCap: new(big.Int).Set(intent.Fees.MaxFeePerGas),
		Gas:       intent.Fees.GasLimit,
		To:        &to,
		Value:     value,
		Data:      common.CopyBytes(intent.CallData),
	})
}

// DecodePayload parses a signed payload as produced by tx.MarshalBinary.
func DecodePayload(raw []byte) (*types.Transaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return tx, nil
}
