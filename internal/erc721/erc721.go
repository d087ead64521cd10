// Package erc721 describes the mint entry points of an Immutable-style ERC-721
// preset and encodes call data for them.
package erc721

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const mintABI = `[
  {"type":"function","name":"mint","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}]},
  {"type":"function","name":"safeMint","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}]},
  {"type":"function","name":"mintBatch","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"mints","type":"tuple[]","internalType":"struct IDMint[]","components":[
     {"name":"to","type":"address"},{"name":"tokenIds","type":"uint256[]"}]}]},
  {"type":"function","name":"safeMintBatch","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"mints","type":"tuple[]","internalType":"struct IDMint[]","components":[
     {"name":"to","type":"address"},{"name":"tokenIds","type":"uint256[]"}]}]},
  {"type":"function","name":"mintBatchByQuantity","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"mints","type":"tuple[]","internalType":"struct Mint[]","components":[
     {"name":"to","type":"address"},{"name":"quantity","type":"uint256"}]}]}
]`

var parsedABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(mintABI))
	if err != nil {
		panic(fmt.Sprintf("erc721: bad mint abi: %v", err))
	}
	return parsed
}()

// ABI returns the contract descriptor. The caller must not modify it.
func ABI() *abi.ABI {
	return &parsedABI
}

// IDMint mints explicit token ids to one recipient.
type IDMint struct {
	To       common.Address
	TokenIds []*big.Int
}

// Mint mints the next Quantity ids to one recipient.
type Mint struct {
	To       common.Address
	Quantity *big.Int
}

func PackMintBatch(mints []IDMint) ([]byte, error) {
	if err := checkIDMints(mints); err != nil {
		return nil, err
	}
	return parsedABI.Pack("mintBatch", mints)
}

func PackSafeMintBatch(mints []IDMint) ([]byte, error) {
	if err := checkIDMints(mints); err != nil {
		return nil, err
	}
	return parsedABI.Pack("safeMintBatch", mints)
}

func PackMintBatchByQuantity(mints []Mint) ([]byte, error) {
	if len(mints) == 0 {
		return nil, errors.New("no mint requests")
	}
	for i, m := range mints {
		if m.To == (common.Address{}) {
			return nil, fmt.Errorf("mint %d: zero recipient", i)
		}
		if m.Quantity == nil || m.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("mint %d: quantity must be positive", i)
		}
	}
	return parsedABI.Pack("mintBatchByQuantity", mints)
}

// DecodeMintBatch reverses PackMintBatch and PackSafeMintBatch.
func DecodeMintBatch(data []byte) (string, []IDMint, error) {
	if len(data) < 4 {
		return "", nil, errors.New("call data too short")
	}
	method, err := parsedABI.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	if method.Name != "mintBatch" && method.Name != "safeMintBatch" {
		return "", nil, fmt.Errorf("%s is not an id batch mint", method.Name)
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, err
	}
	mints := *abi.ConvertType(values[0], new([]IDMint)).(*[]IDMint)
	return method.Name, mints, nil
}

func checkIDMints(mints []IDMint) error {
	if len(mints) == 0 {
		return errors.New("no mint requests")
	}
	seen := make(map[string]struct{})
	for i, m := range mints {
		if m.To == (common.Address{}) {
			return fmt.Errorf("mint %d: zero recipient", i)
		}
		if len(m.TokenIds) == 0 {
			return fmt.Errorf("mint %d: no token ids", i)
		}
		for _, id := range m.TokenIds {
			if id == nil || id.Sign() < 0 {
				return fmt.Errorf("mint %d: invalid token id %v", i, id)
			}
			if _, ok := seen[id.String()]; ok {
				return fmt.Errorf("mint %d: token id %s requested twice", i, id)
			}
			seen[id.String()] = struct{}{}
		}
	}
	return nil
}
