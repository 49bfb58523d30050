package explorer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequester(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, "ok")
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "missing")
		default:
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "boom")
		}
	}))
	defer srv.Close()

	r := NewRequester(RequesterOpts{Provider: "test-requester", RateLimit: 1000})
	ctx := context.Background()

	resp, err := r.Get(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = r.Get(ctx, srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	for i := 0; i < 11; i++ {
		_, err = r.Get(ctx, srv.URL+"/fail")
		require.Error(t, err)
		assert.False(t, IsNotFound(err))
	}

	// The breaker is now open and rejects even healthy endpoints.
	_, err = r.Get(ctx, srv.URL+"/ok")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRequesterCanceledContext(t *testing.T) {
	r := NewRequester(RequesterOpts{Provider: "test-canceled"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Get(ctx, "http://127.0.0.1:1")
	require.ErrorIs(t, err, context.Canceled)
}
