package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the timeout of a Client built with a zero timeout.
const DefaultTimeout = 30 * time.Second

// Client is a thin wrapper around http.Client returning the status code and
// the body of the response as a string.
type Client struct {
	client *http.Client
}

// NewClient returns a new Client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{&http.Client{Timeout: timeout}}
}

// NewHTTPRequest function builds and executes an http call
// @param method <string>: http method, one of GET, POST
// @param url <string>: URL http to call
// @return <int>, <string>, error
func (c *Client) NewHTTPRequest(
	ctx context.Context,
	method, url, bodyString string,
	header map[string]string,
) (int, string, error) {
	switch method {
	case http.MethodGet:
		return c.do(ctx, method, url, nil, header)
	case http.MethodPost:
		return c.do(ctx, method, url, strings.NewReader(bodyString), header)
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}
}

func (c *Client) do(
	ctx context.Context,
	method, url string,
	body io.Reader,
	header map[string]string,
) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return rs.StatusCode, string(bodyBytes), nil
}
