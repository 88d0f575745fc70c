package manta_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	fixtureOnce sync.Once
	fixtureKey  *rsa.PrivateKey
	fixtureErr  error
)

// testKey returns an RSA key shared by every test in the package.
func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	fixtureOnce.Do(func() {
		fixtureKey, fixtureErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, fixtureErr)
	return fixtureKey
}

func pkcs1PEM(priv *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
}

func pkcs8PEM(t *testing.T, priv any) []byte {
	t.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// countingSource counts reads and can be told to fail.
type countingSource struct {
	pem   []byte
	reads atomic.Int32
	fail  atomic.Bool
}

func (s *countingSource) ReadKey() ([]byte, error) {
	s.reads.Add(1)
	if s.fail.Load() {
		return nil, errors.New("source unavailable")
	}
	return s.pem, nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
