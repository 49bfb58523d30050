package esplora

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

const (
	// DefaultRateLimit is the default max number of requests per second.
	DefaultRateLimit = 10
	// chainPageSize is the number of confirmed txs returned by esplora for
	// each page of the address history.
	chainPageSize = 25
)

var (
	// ErrNullURL ...
	ErrNullURL = errors.New("esplora url must not be null")

	// DefaultFeeTargets are the confirmation targets (in blocks) queried for
	// fee estimates: next block, then within one hour.
	DefaultFeeTargets = []int{1, 6}
)

// ServiceOpts is the struct given to NewService.
type ServiceOpts struct {
	APIURL         string
	RequestTimeout time.Duration
	RateLimit      int
	// FeeTargets are the confirmation targets returned as fee levels, in
	// order. Defaults to DefaultFeeTargets.
	FeeTargets []int
}

func (o ServiceOpts) validate() error {
	if len(o.APIURL) <= 0 {
		return ErrNullURL
	}
	return nil
}

type esplora struct {
	apiURL     string
	feeTargets []int
	client     *explorer.Requester
}

// NewService returns a new esplora service as an explorer.Service interface
func NewService(opts ServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	rateLimit := opts.RateLimit
	if rateLimit == 0 {
		rateLimit = DefaultRateLimit
	}
	feeTargets := opts.FeeTargets
	if len(feeTargets) <= 0 {
		feeTargets = DefaultFeeTargets
	}

	service := &esplora{
		apiURL:     strings.TrimSuffix(opts.APIURL, "/"),
		feeTargets: feeTargets,
		client: explorer.NewRequester(explorer.RequesterOpts{
			Provider:  "esplora",
			Timeout:   opts.RequestTimeout,
			RateLimit: rateLimit,
		}),
	}

	if err := service.healthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) healthCheck(ctx context.Context) error {
	_, err := e.getBlockHeight(ctx)
	return err
}
