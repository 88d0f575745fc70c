package manta_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sagarc03/manta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTransport_SignsBeforeDispatch(t *testing.T) {
	t.Parallel()

	var got *http.Request
	transport := &manta.Transport{
		Signer: newSigner(t, ""),
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			got = req
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("")), Request: req}, nil
		}),
	}

	req, err := http.NewRequest(http.MethodGet, "https://h.example/c1", http.NoBody)
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.NotNil(t, got)
	assert.NotSame(t, req, got)
	assert.Equal(t, "/acct/stor/c1", got.URL.Path)
	assert.Regexp(t, authorizationPattern, got.Header.Get("Authorization"))
}

func TestTransport_SigningFailureNeverDispatches(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	src.fail.Store(true)

	dispatched := false
	transport := &manta.Transport{
		Signer: manta.NewSigner("acct", "", manta.NewKeyLoader(src, ""), nil),
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			dispatched = true
			return nil, errors.New("unreachable")
		}),
	}

	req, err := http.NewRequest(http.MethodPut, "https://h.example/c1/k1", strings.NewReader("hi"))
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.ErrorIs(t, err, manta.ErrKeyLoad)
	assert.False(t, dispatched)
}

func TestTransport_RateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	dispatched := 0
	transport := &manta.Transport{
		Signer:  newSigner(t, ""),
		Limiter: rate.NewLimiter(rate.Limit(0.001), 1),
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			dispatched++
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
		}),
	}

	req, err := http.NewRequest(http.MethodGet, "https://h.example/c1", http.NoBody)
	require.NoError(t, err)
	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, "https://h.example/c1", http.NoBody)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, dispatched)
}

func TestTransport_WaitsBeforeSigning(t *testing.T) {
	t.Parallel()

	src := &countingSource{pem: pkcs1PEM(testKey(t))}
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	require.True(t, limiter.Allow())

	transport := &manta.Transport{
		Signer:  manta.NewSigner("acct", "", manta.NewKeyLoader(src, ""), nil),
		Limiter: limiter,
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("unreachable")
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://h.example/c1", http.NoBody)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.reads.Load(), "a request still waiting for the limiter must not be signed")
}
