package blockchair

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

const (
	// DefaultAPIURL is the public blockchair endpoint.
	DefaultAPIURL = "https://api.blockchair.com"
	// DefaultRateLimit is the default max number of requests per second.
	DefaultRateLimit = 5
	// dashboardLimit is the max number of txs and utxos returned by a
	// dashboard request.
	dashboardLimit = 10000
)

var (
	// ErrNullChain ...
	ErrNullChain = errors.New("blockchair chain must not be null")
	// ErrUnsupportedCurrency is returned by Chain for coins not indexed by
	// blockchair.
	ErrUnsupportedCurrency = errors.New("currency not supported by blockchair")
)

// Chain returns the blockchair chain name of the given currency.
func Chain(c *currency.Descriptor) (string, error) {
	switch c.Currency {
	case currency.BTC, currency.BTCSegwit:
		return "bitcoin", nil
	case currency.DOGE:
		return "dogecoin", nil
	case currency.LTC:
		return "litecoin", nil
	case currency.BCH:
		return "bitcoin-cash", nil
	case currency.BTCV:
		return "", fmt.Errorf("%s: %w", c.ShortName, ErrUnsupportedCurrency)
	default:
		return "", ErrUnsupportedCurrency
	}
}

// ServiceOpts is the struct given to NewService.
type ServiceOpts struct {
	APIURL         string
	Chain          string
	APIKey         string
	RequestTimeout time.Duration
	RateLimit      int
}

func (o ServiceOpts) validate() error {
	if len(o.Chain) <= 0 {
		return ErrNullChain
	}
	return nil
}

type blockchair struct {
	apiURL string
	apiKey string
	client *explorer.Requester
}

// NewService returns a new blockchair service as an explorer.Service
// interface. Differently from esplora, no health check is made to save
// request credits.
func NewService(opts ServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	rateLimit := opts.RateLimit
	if rateLimit == 0 {
		rateLimit = DefaultRateLimit
	}

	return &blockchair{
		apiURL: fmt.Sprintf("%s/%s", strings.TrimSuffix(apiURL, "/"), opts.Chain),
		apiKey: opts.APIKey,
		client: explorer.NewRequester(explorer.RequesterOpts{
			Provider:  "blockchair",
			Timeout:   opts.RequestTimeout,
			RateLimit: rateLimit,
		}),
	}, nil
}

// endpoint returns the url of the given path with the api key and the
// given query params.
func (b *blockchair) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if b.apiKey != "" {
		params.Set("key", b.apiKey)
	}
	endpoint := fmt.Sprintf("%s/%s", b.apiURL, path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}
