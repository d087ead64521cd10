package submitter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Error kinds. Every *Error matches exactly one of them through errors.Is.
var (
	ErrInvalidIntent            = errors.New("invalid transaction intent")
	ErrInvalidFeeParameters     = errors.New("invalid fee parameters")
	ErrInvalidCallData          = errors.New("invalid call data")
	ErrSequenceResolutionFailed = errors.New("sequence resolution failed")
	ErrSigningFailed            = errors.New("signing failed")
	ErrCanceled                 = errors.New("operation canceled")
	ErrSubmissionRejected       = errors.New("submission rejected")
	ErrNetworkUnavailable       = errors.New("network unavailable")
	ErrUnknownTransaction       = errors.New("unknown transaction")
)

// Stage is the last step a submission reached.
type Stage int

const (
	StageValidate Stage = iota
	StageSimulate
	StageResolveNonce
	StageBuild
	StageSign
	StageBroadcast
	StageConfirm
	StageStatus
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageSimulate:
		return "simulate"
	case StageResolveNonce:
		return "resolve-nonce"
	case StageBuild:
		return "build"
	case StageSign:
		return "sign"
	case StageBroadcast:
		return "broadcast"
	case StageConfirm:
		return "confirm"
	case StageStatus:
		return "status"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Error carries the failure kind, the stage it happened at and, once a payload
// has been signed, the hash the caller should query before resubmitting.
type Error struct {
	Kind   error
	Stage  Stage
	TxHash common.Hash
	Err    error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Stage.String())
	sb.WriteString("] ")
	sb.WriteString(e.Kind.Error())
	if e.TxHash != (common.Hash{}) {
		sb.WriteString(" tx=")
		sb.WriteString(e.TxHash.Hex())
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return e.Kind == target }

// Retryable reports whether the same intent can be submitted again without
// first asking the network about TxHash. Nothing has been broadcast in that case.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ErrSequenceResolutionFailed:
		return true
	case ErrCanceled, ErrNetworkUnavailable:
		return e.Stage < StageBroadcast
	default:
		return false
	}
}

func newError(kind error, stage Stage, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}
