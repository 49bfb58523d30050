package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/utxo-wallet/pkg/circuitbreaker"
	"github.com/tdex-network/utxo-wallet/pkg/httputil"
	"go.uber.org/ratelimit"
)

var (
	// ErrUnavailable is returned when too many requests to an explorer failed
	// and further ones are temporarily rejected.
	ErrUnavailable = errors.New("explorer temporarily unavailable")
)

// StatusError is returned for any non 2xx response of an explorer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsNotFound returns whether err is a 404 response.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// RequesterOpts is the struct given to NewRequester.
type RequesterOpts struct {
	// Provider labels the metrics and names the circuit breaker.
	Provider string
	// Timeout of every single request, defaults to httputil.DefaultTimeout.
	Timeout time.Duration
	// RateLimit is the max number of requests per second, 0 means unlimited.
	RateLimit int
}

// Requester executes http requests against an explorer, pacing them with a
// rate limiter and protecting the remote with a circuit breaker.
type Requester struct {
	provider string
	client   *httputil.Client
	limiter  ratelimit.Limiter
	cb       *gobreaker.CircuitBreaker
}

// NewRequester returns a new Requester for the given provider.
func NewRequester(opts RequesterOpts) *Requester {
	limiter := ratelimit.NewUnlimited()
	if opts.RateLimit > 0 {
		limiter = ratelimit.New(opts.RateLimit)
	}
	RegisterMetrics()

	return &Requester{
		provider: opts.Provider,
		client:   httputil.NewClient(opts.Timeout),
		limiter:  limiter,
		cb:       circuitbreaker.NewCircuitBreaker(opts.Provider),
	}
}

// Get makes a GET request and returns the body of a 2xx response.
func (r *Requester) Get(ctx context.Context, url string) (string, error) {
	return r.do(ctx, http.MethodGet, url, "", nil)
}

// Post makes a POST request and returns the body of a 2xx response.
func (r *Requester) Post(
	ctx context.Context, url, body string, header map[string]string,
) (string, error) {
	return r.do(ctx, http.MethodPost, url, body, header)
}

func (r *Requester) do(
	ctx context.Context,
	method, url, body string,
	header map[string]string,
) (string, error) {
	r.limiter.Take()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	status := 0
	iResp, err := r.cb.Execute(func() (interface{}, error) {
		var resp string
		var err error
		status, resp, err = r.client.NewHTTPRequest(ctx, method, url, body, header)
		if err != nil {
			return nil, err
		}
		// Only server side failures count for the breaker.
		if status >= http.StatusInternalServerError {
			return nil, &StatusError{status, resp}
		}
		return resp, nil
	})
	requestDuration.WithLabelValues(r.provider, method).
		Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(r.provider, method, strconv.Itoa(status)).Inc()

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%s: %w", r.provider, ErrUnavailable)
		}
		return "", err
	}

	resp := iResp.(string)
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return "", &StatusError{status, resp}
	}
	return resp, nil
}
