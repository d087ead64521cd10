package submitter

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitOne(t *testing.T, ep *fakeEndpoint, s *Submitter) *SubmissionResult {
	t.Helper()
	key := newTestKey(t)
	result, err := s.Submit(context.Background(), mintIntent(t, key), key)
	require.NoError(t, err)
	return result
}

func TestStatus(t *testing.T) {
	ep := newFakeEndpoint()
	ep.nonce = 9
	s := newTestSubmitter(t, ep, Config{})
	sent := submitOne(t, ep, s)

	result, err := s.Status(context.Background(), sent.TxHash)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)
	assert.Equal(t, uint64(9), result.Nonce)
	assert.Nil(t, result.BlockNumber)

	ep.mine(sent.TxHash, types.ReceiptStatusSuccessful, 100)

	result, err = s.Status(context.Background(), sent.TxHash)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, result.Status)
	assert.Equal(t, sent.TxHash, result.TxHash)
	assert.Equal(t, uint64(9), result.Nonce)
	require.NotNil(t, result.BlockNumber)
	assert.Equal(t, uint64(100), result.BlockNumber.Uint64())
	assert.NotEqual(t, common.Hash{}, result.BlockHash)

	// The earlier snapshot is untouched.
	assert.Equal(t, StatusPending, sent.Status)
}

func TestStatusUnknownTransaction(t *testing.T) {
	ep := newFakeEndpoint()
	s := newTestSubmitter(t, ep, Config{})
	hash := common.HexToHash("0xabc")

	_, err := s.Status(context.Background(), hash)
	serr := requireKind(t, err, ErrUnknownTransaction, StageStatus)
	assert.Equal(t, hash, serr.TxHash)
}

func TestAwaitConfirmationWaitsForInclusion(t *testing.T) {
	ep := newFakeEndpoint()
	s := newTestSubmitter(t, ep, Config{})
	sent := submitOne(t, ep, s)

	ep.lookupHook = func(n int) {
		if n == 3 {
			ep.mine(sent.TxHash, types.ReceiptStatusSuccessful, 7)
		}
	}

	result, err := s.AwaitConfirmation(context.Background(), sent.TxHash, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, result.Status)
	assert.Equal(t, uint64(7), result.BlockNumber.Uint64())
	assert.Equal(t, 3, ep.lookupCalls)
	assert.Zero(t, ep.headCalls)
}

func TestAwaitConfirmationDepth(t *testing.T) {
	ep := newFakeEndpoint()
	s := newTestSubmitter(t, ep, Config{})
	sent := submitOne(t, ep, s)

	ep.mine(sent.TxHash, types.ReceiptStatusSuccessful, 10)
	ep.headStep = 1

	result, err := s.AwaitConfirmation(context.Background(), sent.TxHash, 3)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, result.Status)
	// Heads 10, 11 and 12 are read; 12 buries block 10 under two more.
	assert.Equal(t, 3, ep.headCalls)
	assert.Equal(t, 3, ep.lookupCalls)
}

func TestAwaitConfirmationReportsRevert(t *testing.T) {
	ep := newFakeEndpoint()
	s := newTestSubmitter(t, ep, Config{})
	sent := submitOne(t, ep, s)

	ep.mine(sent.TxHash, types.ReceiptStatusFailed, 4)

	result, err := s.AwaitConfirmation(context.Background(), sent.TxHash, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, uint64(4), result.BlockNumber.Uint64())
}

func TestAwaitConfirmationCanceled(t *testing.T) {
	tests := []struct {
		name   string
		submit bool
	}{
		{"never mined", true},
		{"never seen", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := newFakeEndpoint()
			s := newTestSubmitter(t, ep, Config{})

			hash := common.HexToHash("0xdead")
			if tt.submit {
				hash = submitOne(t, ep, s).TxHash
			}

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := s.AwaitConfirmation(ctx, hash, 1)
			serr := requireKind(t, err, ErrCanceled, StageConfirm)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Equal(t, hash, serr.TxHash)
			assert.False(t, serr.Retryable())
			assert.Positive(t, ep.lookupCalls)
		})
	}
}

func TestLookupCarriesStage(t *testing.T) {
	ep := newFakeEndpoint()
	s := newTestSubmitter(t, ep, Config{})
	hash := common.HexToHash("0xabc")

	_, err := s.lookup(context.Background(), hash, StageConfirm)
	requireKind(t, err, ErrUnknownTransaction, StageConfirm)

	_, err = s.Status(context.Background(), hash)
	requireKind(t, err, ErrUnknownTransaction, StageStatus)
}
