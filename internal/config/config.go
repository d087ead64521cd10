package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/metis-devops/nft-batch-mint/internal/keys"
	"github.com/metis-devops/nft-batch-mint/internal/submitter"
)

const EnvPrefix = "NFTMINT"

type Config struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Confirmations uint64        `mapstructure:"confirmations"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`
	Simulate      bool          `mapstructure:"simulate"`
	Contract      string        `mapstructure:"contract"`
	Fees          FeeConfig     `mapstructure:"fees"`
	Key           KeyConfig     `mapstructure:"key"`
	Log           LogConfig     `mapstructure:"log"`
}

// FeeConfig amounts are decimal gwei strings, e.g. "100" or "1.5".
type FeeConfig struct {
	MaxPriorityFeeGwei string `mapstructure:"max_priority_fee_gwei"`
	MaxFeeGwei         string `mapstructure:"max_fee_gwei"`
	GasLimit           uint64 `mapstructure:"gas_limit"`
}

// KeyConfig selects exactly one key source. Secrets are expected from the
// environment or a .env file rather than the config file.
type KeyConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	Keystore   string `mapstructure:"keystore"`
	Password   string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "https://rpc.testnet.immutable.com")
	v.SetDefault("timeout", submitter.DefaultTimeout)
	v.SetDefault("poll_interval", submitter.DefaultPollInterval)
	v.SetDefault("confirmations", 1)
	v.SetDefault("wait_timeout", 2*time.Minute)
	v.SetDefault("simulate", false)
	v.SetDefault("contract", "")
	v.SetDefault("fees.max_priority_fee_gwei", "100")
	v.SetDefault("fees.max_fee_gwei", "150")
	v.SetDefault("fees.gas_limit", 200_000)
	v.SetDefault("key.private_key", "")
	v.SetDefault("key.keystore", "")
	v.SetDefault("key.password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads defaults, then the optional config file, then NFTMINT_* variables.
// dotenv files are loaded into the process environment first; without
// arguments ./.env is used when present.
func Load(file string, dotenv ...string) (*Config, error) {
	if len(dotenv) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(dotenv...); err != nil {
		return nil, fmt.Errorf("failed to load %v: %w", dotenv, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("endpoint is required")
	case c.Contract == "":
		return errors.New("contract is required")
	case c.Timeout <= 0:
		return errors.New("timeout must be positive")
	case c.PollInterval <= 0:
		return errors.New("poll_interval must be positive")
	case c.WaitTimeout < 0:
		return errors.New("wait_timeout must not be negative")
	case c.Key.PrivateKey != "" && c.Key.Keystore != "":
		return errors.New("set only one of key.private_key and key.keystore")
	case c.Key.PrivateKey == "" && c.Key.Keystore == "":
		return errors.New("one of key.private_key or key.keystore is required")
	}
	if _, err := submitter.ParseAddress(c.Contract); err != nil {
		return fmt.Errorf("contract: %w", err)
	}
	fees, err := c.FeeParameters()
	if err != nil {
		return err
	}
	return fees.Validate()
}

func (c *Config) FeeParameters() (submitter.FeeParameters, error) {
	tip, err := GweiToWei(c.Fees.MaxPriorityFeeGwei)
	if err != nil {
		return submitter.FeeParameters{}, fmt.Errorf("fees.max_priority_fee_gwei: %w", err)
	}
	feeCap, err := GweiToWei(c.Fees.MaxFeeGwei)
	if err != nil {
		return submitter.FeeParameters{}, fmt.Errorf("fees.max_fee_gwei: %w", err)
	}
	return submitter.FeeParameters{
		MaxPriorityFeePerGas: tip,
		MaxFeePerGas:         feeCap,
		GasLimit:             c.Fees.GasLimit,
	}, nil
}

func (c *Config) KeyHandle() (*keys.PrivateKey, error) {
	if c.Key.Keystore != "" {
		return keys.FromKeystore(c.Key.Keystore, c.Key.Password)
	}
	return keys.FromHex(c.Key.PrivateKey)
}

func (c *Config) Submitter() submitter.Config {
	return submitter.Config{
		Timeout:      c.Timeout,
		PollInterval: c.PollInterval,
		Simulate:     c.Simulate,
	}
}

var gwei = big.NewRat(1_000_000_000, 1)

// GweiToWei converts an exact decimal gwei amount. Amounts finer than one wei
// are rejected instead of rounded.
func GweiToWei(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("invalid gwei amount %q", s)
	}
	r.Mul(r, gwei)
	if !r.IsInt() {
		return nil, fmt.Errorf("gwei amount %q is not a whole number of wei", s)
	}
	return new(big.Int).Set(r.Num()), nil
}
