package manta

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Transport is an http.RoundTripper that signs every request before handing
// it to Base. A request that cannot be signed is never dispatched.
type Transport struct {
	Signer *Signer
	// Base performs the actual round trip. http.DefaultTransport when nil.
	Base http.RoundTripper
	// Limiter, when set, delays dispatch until the request may proceed.
	Limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Wait first so the signed Date is taken at dispatch time.
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			closeRequestBody(req)
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	signed, err := t.Signer.Sign(req)
	if err != nil {
		closeRequestBody(req)
		return nil, err
	}

	return t.base().RoundTrip(signed)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// closeRequestBody honours the RoundTripper contract of closing the body
// even when the request is not sent.
func closeRequestBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
