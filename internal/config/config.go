package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Chain           string
	RPCURL          string
	Factories       []string
	WindowMinutes   int
	TopHolders      int
	LogBatchSize    uint64
	LiquidityWindow uint64
	HolderMaxBlocks uint64
	PoolDelay       time.Duration
	TokenDelay      time.Duration
	CacheTTL        time.Duration
	CacheSweep      time.Duration
	Out             string
	PGDSN           string
	Listen          string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain", "ethereum")
	v.SetDefault("window", 60)
	v.SetDefault("top-holders", 5)
	v.SetDefault("log-batch-size", uint64(5000))
	v.SetDefault("liquidity-window", uint64(10))
	v.SetDefault("holder-max-blocks", uint64(1000))
	v.SetDefault("pool-delay", 100*time.Millisecond)
	v.SetDefault("token-delay", 50*time.Millisecond)
	v.SetDefault("cache-ttl", 60*time.Second)
	v.SetDefault("cache-sweep", 30*time.Second)
	v.SetDefault("listen", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Chain:           v.GetString("chain"),
		RPCURL:          v.GetString("rpc"),
		Factories:       getStringSlice(v, "factory"),
		WindowMinutes:   v.GetInt("window"),
		TopHolders:      v.GetInt("top-holders"),
		LogBatchSize:    v.GetUint64("log-batch-size"),
		LiquidityWindow: v.GetUint64("liquidity-window"),
		HolderMaxBlocks: v.GetUint64("holder-max-blocks"),
		PoolDelay:       v.GetDuration("pool-delay"),
		TokenDelay:      v.GetDuration("token-delay"),
		CacheTTL:        v.GetDuration("cache-ttl"),
		CacheSweep:      v.GetDuration("cache-sweep"),
		Out:             v.GetString("out"),
		PGDSN:           v.GetString("pg-dsn"),
		Listen:          v.GetString("listen"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
