package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/metis-devops/nft-batch-mint/internal/config"
	"github.com/metis-devops/nft-batch-mint/internal/erc721"
	"github.com/metis-devops/nft-batch-mint/internal/submitter"
)

const version = "0.1.0"

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a yaml/toml/json config file",
		EnvVars: []string{config.EnvPrefix + "_CONFIG"},
	}
	EnvFileFlag = &cli.StringSliceFlag{
		Name:  "env-file",
		Usage: "Dotenv files to load before reading the environment (default ./.env if present)",
	}
	EndpointFlag = &cli.StringFlag{
		Name:  "endpoint",
		Usage: "JSON-RPC endpoint",
	}
	TimeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Deadline for each network call",
	}
	ContractFlag = &cli.StringFlag{
		Name:  "contract",
		Usage: "ERC-721 contract address",
	}
	LogLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "debug, info, warn or error",
	}
	LogFormatFlag = &cli.StringFlag{
		Name:  "log.format",
		Usage: "text or json",
	}
)

func versionWithCommit(gitCommit, gitDate string) string {
	v := version
	if len(gitCommit) >= 8 {
		v += "-" + gitCommit[:8]
	}
	if gitDate != "" {
		v += "-" + gitDate
	}
	return v
}

func NewApp(gitCommit, gitDate string) *cli.App {
	return &cli.App{
		Name:                 "nft-mint",
		Usage:                "Submit ERC-721 batch mints through a JSON-RPC endpoint",
		Version:              versionWithCommit(gitCommit, gitDate),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			ConfigFlag,
			EnvFileFlag,
			EndpointFlag,
			TimeoutFlag,
			ContractFlag,
			LogLevelFlag,
			LogFormatFlag,
		},
		Commands: []*cli.Command{
			mintCommand(),
			statusCommand(),
			healthCommand(),
			{
				Name:  "version",
				Usage: "Show project version",
				Action: func(ctx *cli.Context) error {
					cli.ShowVersion(ctx)
					return nil
				},
			},
		},
	}
}

// loadConfig layers command line flags on top of file and environment values
// and installs the default logger.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(ConfigFlag.Name), ctx.StringSlice(EnvFileFlag.Name)...)
	if err != nil {
		return nil, err
	}

	if ctx.IsSet(EndpointFlag.Name) {
		cfg.Endpoint = ctx.String(EndpointFlag.Name)
	}
	if ctx.IsSet(TimeoutFlag.Name) {
		cfg.Timeout = ctx.Duration(TimeoutFlag.Name)
	}
	if ctx.IsSet(ContractFlag.Name) {
		cfg.Contract = ctx.String(ContractFlag.Name)
	}
	if ctx.IsSet(LogLevelFlag.Name) {
		cfg.Log.Level = ctx.String(LogLevelFlag.Name)
	}
	if ctx.IsSet(LogFormatFlag.Name) {
		cfg.Log.Format = ctx.String(LogFormatFlag.Name)
	}

	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// connect opens the JSON-RPC endpoint. Tests swap it for an in-process chain.
var connect = func(basectx context.Context, url string) (submitter.Endpoint, func(), error) {
	client, err := ethclient.DialContext(basectx, url)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// dial returns the submitter and a func releasing its connection.
func dial(basectx context.Context, cfg *config.Config) (*submitter.Submitter, func(), error) {
	newctx, cancel := context.WithTimeout(basectx, cfg.Timeout)
	defer cancel()

	slog.Info("connecting", "rpc", cfg.Endpoint)
	endpoint, closer, err := connect(newctx, cfg.Endpoint)
	if err != nil {
		return nil, nil, err
	}

	subcfg := cfg.Submitter()
	subcfg.Contract = erc721.ABI()

	sub, err := submitter.New(basectx, endpoint, subcfg)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return sub, closer, nil
}

// awaitConfirmation gives up after cfg.WaitTimeout when it is set.
func awaitConfirmation(basectx context.Context, sub *submitter.Submitter, hash common.Hash, cfg *config.Config) (*submitter.SubmissionResult, error) {
	if cfg.WaitTimeout > 0 {
		newctx, cancel := context.WithTimeout(basectx, cfg.WaitTimeout)
		defer cancel()
		basectx = newctx
	}
	return sub.AwaitConfirmation(basectx, hash, cfg.Confirmations)
}
