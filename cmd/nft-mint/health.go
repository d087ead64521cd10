package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

var MaxAgeFlag = &cli.DurationFlag{
	Name:  "max-age",
	Usage: "Latest block older than this marks the endpoint unhealthy",
	Value: 5 * time.Minute,
}

/*
	{
	  "healthy": true,
	  "chain_id": "0x34a1",
	  "latest_block_number": "0xe90cc9",
	  "latest_block_timestamp": "2024-03-16T02:12:05Z"
	}
*/

type HealthResponse struct {
	Healthy   bool        `json:"healthy"`
	ChainID   hexutil.Big `json:"chain_id"`
	Height    hexutil.Big `json:"latest_block_number"`
	Timestamp time.Time   `json:"latest_block_timestamp"`
}

type headReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check that the endpoint is reachable and its head is recent",
		Flags:  []cli.Flag{MaxAgeFlag},
		Action: health,
	}
}

func health(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Endpoint == "" {
		return errors.New("endpoint is required")
	}

	newctx, cancel := context.WithTimeout(ctx.Context, cfg.Timeout)
	defer cancel()

	client, err := ethclient.DialContext(newctx, cfg.Endpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := checkHealth(newctx, client, ctx.Duration(MaxAgeFlag.Name), time.Now())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Healthy {
		return fmt.Errorf("latest block %s is older than %s", result.Height.String(), ctx.Duration(MaxAgeFlag.Name))
	}
	return nil
}

func checkHealth(ctx context.Context, reader headReader, maxAge time.Duration, now time.Time) (*HealthResponse, error) {
	chainID, err := reader.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	header, err := reader.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest header: %w", err)
	}
	if header.Time == 0 {
		return nil, fmt.Errorf("block %s has a zero timestamp", header.Number)
	}

	timestamp := time.Unix(int64(header.Time), 0).UTC()
	slog.Info("Latest block", "chainId", chainID, "block", header.Number, "time", timestamp)
	return &HealthResponse{
		Healthy:   now.Sub(timestamp) < maxAge,
		ChainID:   hexutil.Big(*chainID),
		Height:    hexutil.Big(*header.Number),
		Timestamp: timestamp,
	}, nil
}
