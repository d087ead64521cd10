package submitter

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// rpcError mimics a JSON-RPC error object returned by a node.
type rpcError struct {
	code int
	msg  string
	data interface{}
}

func (e *rpcError) Error() string          { return e.msg }
func (e *rpcError) ErrorCode() int         { return e.code }
func (e *rpcError) ErrorData() interface{} { return e.data }

// fakeEndpoint behaves like a node with a single sender: the pending nonce
// advances on every accepted payload.
type fakeEndpoint struct {
	chainID *big.Int
	nonce   uint64
	head    uint64

	nonceHook func(ctx context.Context) error
	sendHook  func(tx *types.Transaction) error
	callErr   error
	// lookupHook runs before every TransactionByHash with the call count.
	lookupHook func(n int)
	// headStep advances head after every BlockNumber read.
	headStep uint64

	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt

	chainIDCalls int
	nonceCalls   int
	sendCalls    int
	callCalls    int
	headCalls    int
	lookupCalls  int
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{
		chainID:  big.NewInt(13473),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeEndpoint) networkCalls() int {
	return f.nonceCalls + f.sendCalls + f.callCalls
}

func (f *fakeEndpoint) ChainID(ctx context.Context) (*big.Int, error) {
	f.chainIDCalls++
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeEndpoint) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.nonceCalls++
	if f.nonceHook != nil {
		if err := f.nonceHook(ctx); err != nil {
			return 0, err
		}
	}
	return f.nonce, nil
}

func (f *fakeEndpoint) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sendCalls++
	if f.sendHook != nil {
		if err := f.sendHook(tx); err != nil {
			return err
		}
	}
	if tx.Nonce() < f.nonce {
		return &rpcError{code: -32000, msg: "nonce too low"}
	}
	f.sent = append(f.sent, tx)
	f.nonce++
	return nil
}

func (f *fakeEndpoint) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	f.lookupCalls++
	if f.lookupHook != nil {
		f.lookupHook(f.lookupCalls)
	}
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			_, mined := f.receipts[hash]
			return tx, !mined, nil
		}
	}
	return nil, false, ethereum.NotFound
}

func (f *fakeEndpoint) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeEndpoint) BlockNumber(ctx context.Context) (uint64, error) {
	f.headCalls++
	head := f.head
	f.head += f.headStep
	return head, nil
}

func (f *fakeEndpoint) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.callCalls++
	return nil, f.callErr
}

func (f *fakeEndpoint) mine(hash common.Hash, status uint64, block uint64) {
	f.receipts[hash] = &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(block),
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(block)),
	}
	if f.head < block {
		f.head = block
	}
}
