package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"github.com/tdex-network/utxo-wallet/pkg/explorer/blockchair"
	"github.com/tdex-network/utxo-wallet/pkg/explorer/esplora"
)

const (
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// CurrencyKey is the short name of the coin of the wallet: BTC, DOGE, LTC, BCH or BTCV
	CurrencyKey = "CURRENCY"
	// AddressTypeKey is the address type of the wallet, either p2pkh or p2wpkh.
	// Only BTC supports both
	AddressTypeKey = "ADDRESS_TYPE"
	// ExplorerTypeKey selects the block explorer API, either esplora or blockchair
	ExplorerTypeKey = "EXPLORER_TYPE"
	// ExplorerURLKey is the base url of the explorer REST API
	ExplorerURLKey = "EXPLORER_URL"
	// ExplorerAPIKeyKey is the optional key sent with blockchair requests
	ExplorerAPIKeyKey = "EXPLORER_API_KEY"
	// ExplorerRequestTimeoutKey are the milliseconds to wait for HTTP responses before timeouts
	ExplorerRequestTimeoutKey = "EXPLORER_REQUEST_TIMEOUT"
	// ExplorerRateLimitKey is the max number of requests per second made to the explorer
	ExplorerRateLimitKey = "EXPLORER_RATE_LIMIT"
	// DatadirKey is the local data directory where the stats are dumped
	DatadirKey = "DATADIR"
	// EnableStatsKey enables the periodic logging of memory usage and the
	// dump of the explorer metrics on exit
	EnableStatsKey = "ENABLE_STATS"
	// StatsIntervalKey defines the interval in seconds for logging the stats
	StatsIntervalKey = "STATS_INTERVAL"

	// EsploraExplorer ...
	EsploraExplorer = "esplora"
	// BlockchairExplorer ...
	BlockchairExplorer = "blockchair"

	// StatsLocation is the subfolder of the datadir holding the dumped stats
	StatsLocation = "stats"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("utxo-wallet", false)

	defaultEsploraURLs = map[currency.Currency]string{
		currency.BTC:       "https://blockstream.info/api",
		currency.BTCSegwit: "https://blockstream.info/api",
	}
)

// InitConfig loads the configuration from the environment, with the
// UTXOWALLET_ prefix, and validates it.
func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("UTXOWALLET")
	vip.AutomaticEnv()

	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(CurrencyKey, "BTC")
	vip.SetDefault(AddressTypeKey, string(currency.P2WPKH))
	vip.SetDefault(ExplorerTypeKey, BlockchairExplorer)
	vip.SetDefault(ExplorerRequestTimeoutKey, 15000)
	vip.SetDefault(ExplorerRateLimitKey, 0)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(EnableStatsKey, false)
	vip.SetDefault(StatsIntervalKey, 60)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

// GetCurrency returns the descriptor of the configured coin.
func GetCurrency() (*currency.Descriptor, error) {
	addressType, err := currency.ParseAddressType(GetString(AddressTypeKey))
	if err != nil {
		return nil, err
	}
	return currency.Lookup(GetString(CurrencyKey), addressType)
}

// GetExplorer returns the explorer service for the configured coin.
func GetExplorer() (explorer.Service, error) {
	c, err := GetCurrency()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(GetInt(ExplorerRequestTimeoutKey)) * time.Millisecond
	rateLimit := GetInt(ExplorerRateLimitKey)

	switch GetString(ExplorerTypeKey) {
	case EsploraExplorer:
		apiURL := GetString(ExplorerURLKey)
		if apiURL == "" {
			apiURL = defaultEsploraURLs[c.Currency]
		}
		return esplora.NewService(esplora.ServiceOpts{
			APIURL:         apiURL,
			RequestTimeout: timeout,
			RateLimit:      rateLimit,
		})
	default:
		chain, err := blockchair.Chain(c)
		if err != nil {
			return nil, err
		}
		return blockchair.NewService(blockchair.ServiceOpts{
			APIURL:         GetString(ExplorerURLKey),
			Chain:          chain,
			APIKey:         GetString(ExplorerAPIKeyKey),
			RequestTimeout: timeout,
			RateLimit:      rateLimit,
		})
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if lvl := GetInt(LogLevelKey); lvl < int(log.PanicLevel) ||
		lvl > int(log.TraceLevel) {
		return fmt.Errorf(
			"log level must be in range [%d, %d]", log.PanicLevel, log.TraceLevel,
		)
	}

	c, err := GetCurrency()
	if err != nil {
		return err
	}

	explorerType := strings.ToLower(GetString(ExplorerTypeKey))
	switch explorerType {
	case EsploraExplorer:
		explorerURL := GetString(ExplorerURLKey)
		if explorerURL == "" && defaultEsploraURLs[c.Currency] == "" {
			return fmt.Errorf("explorer url must be defined for %s", c.ShortName)
		}
	case BlockchairExplorer:
		if _, err := blockchair.Chain(c); err != nil {
			return err
		}
	default:
		return fmt.Errorf(
			"explorer type must be either '%s' or '%s'",
			EsploraExplorer, BlockchairExplorer,
		)
	}
	vip.Set(ExplorerTypeKey, explorerType)

	if explorerURL := GetString(ExplorerURLKey); explorerURL != "" {
		if _, err := url.ParseRequestURI(explorerURL); err != nil {
			return fmt.Errorf("explorer url is not valid: %s", err)
		}
	}

	if GetInt(ExplorerRequestTimeoutKey) <= 0 {
		return fmt.Errorf("explorer request timeout must be a positive number")
	}
	if GetInt(ExplorerRateLimitKey) < 0 {
		return fmt.Errorf("explorer rate limit must not be a negative number")
	}
	if GetBool(EnableStatsKey) && GetInt(StatsIntervalKey) <= 0 {
		return fmt.Errorf("stats interval must be a positive number")
	}
	return nil
}

// GetStatsInterval ...
func GetStatsInterval() time.Duration {
	return time.Duration(GetInt(StatsIntervalKey)) * time.Second
}

// GetStatsPath returns the file where the explorer metrics are dumped.
func GetStatsPath() string {
	return filepath.Join(GetDatadir(), StatsLocation, "metrics")
}

func initDatadir() error {
	if !GetBool(EnableStatsKey) {
		return makeDirectoryIfNotExists(GetDatadir())
	}
	return makeDirectoryIfNotExists(filepath.Join(GetDatadir(), StatsLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
