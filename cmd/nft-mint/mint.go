package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/metis-devops/nft-batch-mint/internal/config"
	"github.com/metis-devops/nft-batch-mint/internal/erc721"
	"github.com/metis-devops/nft-batch-mint/internal/submitter"
)

var (
	MintFlag = &cli.StringSliceFlag{
		Name:     "mint",
		Usage:    "Recipient and token ids as <address>:<id>[,<id>...]; repeatable",
		Required: true,
	}
	SafeFlag = &cli.BoolFlag{
		Name:  "safe",
		Usage: "Use safeMintBatch instead of mintBatch",
	}
	MaxPriorityFeeFlag = &cli.StringFlag{
		Name:  "max-priority-fee-gwei",
		Usage: "Priority fee cap per gas, in gwei",
	}
	MaxFeeFlag = &cli.StringFlag{
		Name:  "max-fee-gwei",
		Usage: "Total fee cap per gas, in gwei",
	}
	GasLimitFlag = &cli.Uint64Flag{
		Name:  "gas-limit",
		Usage: "Gas limit",
	}
	SimulateFlag = &cli.BoolFlag{
		Name:  "simulate",
		Usage: "Dry-run the call with eth_call before signing",
	}
	WaitFlag = &cli.BoolFlag{
		Name:  "wait",
		Usage: "Wait for the transaction to be confirmed",
	}
	ConfirmationsFlag = &cli.Uint64Flag{
		Name:  "confirmations",
		Usage: "Blocks to wait for with --wait",
	}
	WaitTimeoutFlag = &cli.DurationFlag{
		Name:  "wait-timeout",
		Usage: "Give up waiting after this long (0 waits until interrupted)",
	}
)

func applyWaitFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet(ConfirmationsFlag.Name) {
		cfg.Confirmations = ctx.Uint64(ConfirmationsFlag.Name)
	}
	if ctx.IsSet(WaitTimeoutFlag.Name) {
		cfg.WaitTimeout = ctx.Duration(WaitTimeoutFlag.Name)
	}
}

func mintCommand() *cli.Command {
	return &cli.Command{
		Name:  "mint",
		Usage: "Mint token ids to one or more recipients in a single transaction",
		Description: `Example:
   nft-mint --contract 0x0b3ee7d40d8fe6bd1dc877f931cd2bfcc4b72d77 mint \
     --mint 0xFFAD1c8C3468465aa502DeE07692874925433A96:1,2,3 --wait`,
		Flags: []cli.Flag{
			MintFlag,
			SafeFlag,
			MaxPriorityFeeFlag,
			MaxFeeFlag,
			GasLimitFlag,
			SimulateFlag,
			WaitFlag,
			ConfirmationsFlag,
			WaitTimeoutFlag,
		},
		Action: mint,
	}
}

func mint(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet(MaxPriorityFeeFlag.Name) {
		cfg.Fees.MaxPriorityFeeGwei = ctx.String(MaxPriorityFeeFlag.Name)
	}
	if ctx.IsSet(MaxFeeFlag.Name) {
		cfg.Fees.MaxFeeGwei = ctx.String(MaxFeeFlag.Name)
	}
	if ctx.IsSet(GasLimitFlag.Name) {
		cfg.Fees.GasLimit = ctx.Uint64(GasLimitFlag.Name)
	}
	if ctx.IsSet(SimulateFlag.Name) {
		cfg.Simulate = ctx.Bool(SimulateFlag.Name)
	}
	applyWaitFlags(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	var mints []erc721.IDMint
	for _, s := range ctx.StringSlice(MintFlag.Name) {
		m, err := erc721.ParseIDMint(s)
		if err != nil {
			return err
		}
		mints = append(mints, m)
	}

	pack := erc721.PackMintBatch
	if ctx.Bool(SafeFlag.Name) {
		pack = erc721.PackSafeMintBatch
	}
	data, err := pack(mints)
	if err != nil {
		return err
	}

	fees, err := cfg.FeeParameters()
	if err != nil {
		return err
	}
	key, err := cfg.KeyHandle()
	if err != nil {
		return err
	}

	sub, closer, err := dial(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer closer()

	slog.Info("Minting", "contract", cfg.Contract, "requests", len(mints), "signer", key)
	result, err := sub.Submit(ctx.Context, submitter.TransactionIntent{
		Sender:   key.Address(),
		Contract: cfg.Contract,
		CallData: data,
		Fees:     fees,
	}, key)
	if err != nil {
		var serr *submitter.Error
		if errors.As(err, &serr) && serr.Kind == submitter.ErrNetworkUnavailable && serr.TxHash != (common.Hash{}) {
			slog.Warn("Payload may have been broadcast, check before resubmitting",
				"tx", serr.TxHash, "stage", serr.Stage)
		}
		return err
	}

	slog.Info("Transaction sent", "tx", result.TxHash, "nonce", result.Nonce, "status", result.Status)
	fmt.Fprintln(ctx.App.Writer, result.TxHash.Hex())

	if !ctx.Bool(WaitFlag.Name) {
		return nil
	}

	confirmed, err := awaitConfirmation(ctx.Context, sub, result.TxHash, cfg)
	if err != nil {
		return err
	}
	if confirmed.Status == submitter.StatusFailed {
		return fmt.Errorf("transaction %s reverted in block %s", confirmed.TxHash.Hex(), confirmed.BlockNumber)
	}
	fmt.Fprintf(ctx.App.Writer, "%s %s block=%s\n", confirmed.TxHash.Hex(), confirmed.Status, confirmed.BlockNumber)
	return nil
}
