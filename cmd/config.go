package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/finagents/internal/adapters/llm"
	"github.com/bnema/finagents/internal/adapters/prices"
	tomlrepo "github.com/bnema/finagents/internal/adapters/repo/toml"
	"github.com/bnema/finagents/internal/adapters/sec"
	"github.com/spf13/viper"
)

const (
	configDirName = ".finagents"
	configName    = "config"
	envPrefix     = "FA"
)

const (
	keyServerListen       = "server.listen"
	keyServerReadLimit    = "server.read_limit"
	keyServerPongWait     = "server.pong_wait"
	keyServerWriteWait    = "server.write_wait"
	keyServerIdleTimeout  = "server.idle_timeout"
	keyServerRetiredIDTTL = "server.retired_id_ttl"

	keyLLMBaseURL = "llm.base_url"
	keyLLMModel   = "llm.model"
	keyLLMAPIKey  = "llm.api_key"

	keySECTickersURL = "sec.tickers_url"
	keySECDataURL    = "sec.data_url"
	keySECUserAgent  = "sec.user_agent"
	keySECRate       = "sec.requests_per_second"

	keyPricesBaseURL = "prices.base_url"
	keyPricesRange   = "prices.range"

	keyCacheMaxAge = "cache.max_age"

	keyUpstreamMaxAttempts = "upstream.max_attempts"
	keyUpstreamBaseDelay   = "upstream.base_delay"
	keyUpstreamMaxDelay    = "upstream.max_delay"
	keyUpstreamTimeout     = "upstream.request_timeout"

	keyWorkerFailure = "executor.worker_failure"

	keyLogLevel  = "log.level"
	keyLogFormat = "log.format"
)

// loadConfig reads $HOME/.finagents/config.toml when present. FA_* env vars
// override file values, e.g. FA_LLM_API_KEY for llm.api_key.
func loadConfig() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(homeDir, configDirName))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, homeDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault(keyServerListen, "127.0.0.1:8000")
	v.SetDefault(keyServerReadLimit, 64*1024)
	v.SetDefault(keyServerPongWait, 60*time.Second)
	v.SetDefault(keyServerWriteWait, 10*time.Second)
	v.SetDefault(keyServerIdleTimeout, 30*time.Minute)
	v.SetDefault(keyServerRetiredIDTTL, time.Duration(0))

	v.SetDefault(keyLLMBaseURL, llm.DefaultBaseURL)
	v.SetDefault(keyLLMModel, llm.DefaultModel)
	v.SetDefault(keyLLMAPIKey, "")

	v.SetDefault(keySECTickersURL, sec.DefaultTickersURL)
	v.SetDefault(keySECDataURL, sec.DefaultDataURL)
	v.SetDefault(keySECUserAgent, "finagents admin@example.com")
	v.SetDefault(keySECRate, 10)

	v.SetDefault(keyPricesBaseURL, prices.DefaultBaseURL)
	v.SetDefault(keyPricesRange, prices.DefaultRange)

	v.SetDefault(tomlrepo.CacheDirKey, filepath.Join(homeDir, configDirName, "cache"))
	v.SetDefault(keyCacheMaxAge, 24*time.Hour)

	v.SetDefault(keyUpstreamMaxAttempts, 4)
	v.SetDefault(keyUpstreamBaseDelay, 500*time.Millisecond)
	v.SetDefault(keyUpstreamMaxDelay, 8*time.Second)
	v.SetDefault(keyUpstreamTimeout, 30*time.Second)

	v.SetDefault(keyWorkerFailure, "continue")

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
}
