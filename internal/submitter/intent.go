package submitter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/metis-devops/nft-batch-mint/internal/ethaddr"
)

// FeeParameters are denominated in wei.
type FeeParameters struct {
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             uint64
}

// Validate enforces MaxFeePerGas >= MaxPriorityFeePerGas >= 0 and GasLimit > 0.
func (f FeeParameters) Validate() error {
	switch {
	case f.MaxPriorityFeePerGas == nil:
		return errors.New("max priority fee per gas is not set")
	case f.MaxFeePerGas == nil:
		return errors.New("max fee per gas is not set")
	case f.MaxPriorityFeePerGas.Sign() < 0:
		return fmt.Errorf("max priority fee per gas is negative: %s", f.MaxPriorityFeePerGas)
	case f.MaxFeePerGas.Cmp(f.MaxPriorityFeePerGas) < 0:
		return fmt.Errorf("max fee per gas %s is below max priority fee per gas %s", f.MaxFeePerGas, f.MaxPriorityFeePerGas)
	case f.GasLimit == 0:
		return errors.New("gas limit is zero")
	}
	return nil
}

// TransactionIntent describes one contract call. It is built fresh per call;
// the nonce is never part of it.
type TransactionIntent struct {
	Sender   common.Address
	Contract string
	CallData []byte
	Fees     FeeParameters

	// Value is optional, nil means zero.
	Value *big.Int
}

// ParseAddress accepts a 0x-prefixed 20-byte hex address; mixed case must
// match EIP-55.
func ParseAddress(s string) (common.Address, error) {
	return ethaddr.Parse(s)
}

// checkCallData decodes the selector and arguments against the contract
// descriptor. A nil descriptor only requires a selector to be present.
func checkCallData(contract *abi.ABI, data []byte) (*abi.Method, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("call data is %d bytes, want at least a 4-byte selector", len(data))
	}
	if contract == nil {
		return nil, nil
	}
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	if _, err := method.Inputs.Unpack(data[4:]); err != nil {
		return nil, fmt.Errorf("arguments do not match %s: %w", method.Sig, err)
	}
	return method, nil
}
