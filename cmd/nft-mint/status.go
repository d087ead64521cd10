package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/metis-devops/nft-batch-mint/internal/submitter"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show whether a transaction is pending, confirmed or failed",
		ArgsUsage: "<tx-hash>",
		Flags:     []cli.Flag{WaitFlag, ConfirmationsFlag, WaitTimeoutFlag},
		Action:    status,
	}
}

func status(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected exactly one transaction hash")
	}
	raw := strings.TrimSpace(ctx.Args().First())
	if b, err := hexutil.Decode(raw); err != nil || len(b) != common.HashLength {
		return fmt.Errorf("invalid transaction hash %q", raw)
	}
	hash := common.HexToHash(raw)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	applyWaitFlags(ctx, cfg)

	sub, closer, err := dial(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer closer()

	var result *submitter.SubmissionResult
	if ctx.Bool(WaitFlag.Name) {
		result, err = awaitConfirmation(ctx.Context, sub, hash, cfg)
	} else {
		result, err = sub.Status(ctx.Context, hash)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "%s %s nonce=%d", result.TxHash.Hex(), result.Status, result.Nonce)
	if result.BlockNumber != nil {
		fmt.Fprintf(ctx.App.Writer, " block=%s", result.BlockNumber)
	}
	fmt.Fprintln(ctx.App.Writer)
	return nil
}
