// Package mantatest runs an in-process storage server for tests of code
// that talks to the storage service.
//
//	srv := mantatest.NewServer(t)
//	store := srv.Store(t)
//	_, err := store.CreateContainer(ctx, "c1")
//
// Each server gets a fresh RSA key, an in-memory SQLite database and a
// temporary storage directory, all released when the test ends.
package mantatest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/database"
	"github.com/sagarc03/manta/filesystem"
	mantahttp "github.com/sagarc03/manta/http"
	"github.com/sagarc03/manta/keybackend"
	"github.com/sagarc03/manta/service"
)

// DefaultAccount is the account a Server signs for unless WithAccount is given.
const DefaultAccount = "tester"

// Server is a running storage server with one registered account.
type Server struct {
	// URL is the base URL of the server.
	URL string
	// Account is the account whose key is registered.
	Account string
	// KeyID is the fingerprint of the account's key.
	KeyID string
	// PrivateKey is the PEM encoded private key of the account.
	PrivateKey []byte
	// Service is the namespace behind the server, for seeding and inspection.
	Service *service.Service

	keys *keybackend.MapKeyStore
}

type options struct {
	account       string
	public        bool
	maxUploadSize int64
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*options)

// WithAccount registers the key under account instead of DefaultAccount.
func WithAccount(account string) Option {
	return func(o *options) { o.account = account }
}

// WithPublicAccess disables signature checks.
func WithPublicAccess() Option {
	return func(o *options) { o.public = true }
}

// WithMaxUploadSize caps object uploads at n bytes.
func WithMaxUploadSize(n int64) Option {
	return func(o *options) { o.maxUploadSize = n }
}

// WithLogger sets the server's logger. Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewServer starts a server and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	o := options{
		account: DefaultAccount,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()

	repo, closeDB, err := database.Connect(ctx, database.Config{
		Type:  "sqlite",
		DSN:   ":memory:",
		Table: "manta_nodes",
	})
	if err != nil {
		t.Fatalf("mantatest: connect database: %v", err)
	}
	t.Cleanup(closeDB)

	root, err := os.OpenRoot(t.TempDir())
	if err != nil {
		t.Fatalf("mantatest: open storage root: %v", err)
	}
	t.Cleanup(func() { _ = root.Close() })

	svc := service.New(repo, filesystem.NewFileStorage(root, o.logger), service.Config{Logger: o.logger})

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("mantatest: generate key: %v", err)
	}

	keys := keybackend.NewMapKeyStore(nil)
	keyID, err := keys.Add(o.account, &priv.PublicKey)
	if err != nil {
		t.Fatalf("mantatest: register key: %v", err)
	}
	fingerprint, err := manta.Fingerprint(&priv.PublicKey)
	if err != nil {
		t.Fatalf("mantatest: fingerprint: %v", err)
	}

	var verifier mantahttp.RequestVerifier
	if !o.public {
		verifier = manta.NewVerifier(keys, manta.MaxClockSkew)
	}

	handler := mantahttp.NewHandler(&mantahttp.HandlerConfig{
		Verifier:      verifier,
		MaxUploadSize: o.maxUploadSize,
		Logger:        o.logger,
	}, svc)

	ts := httptest.NewServer(handler.Router())
	t.Cleanup(ts.Close)

	o.logger.Debug("mantatest server started", "url", ts.URL, "account", o.account, "key_id", keyID)

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})

	return &Server{
		URL:        ts.URL,
		Account:    o.account,
		KeyID:      fingerprint,
		PrivateKey: privPEM,
		Service:    svc,
		keys:       keys,
	}
}

// Config returns a client config for the server's account.
func (s *Server) Config() manta.Config {
	return manta.Config{
		URL:     s.URL,
		Account: s.Account,
		KeyID:   s.KeyID,
		Key:     keybackend.NewStaticSource(s.PrivateKey),
	}
}

// Client returns a client signed for the server's account.
func (s *Server) Client(t testing.TB, opts ...manta.Option) *manta.Client {
	t.Helper()

	client, err := manta.New(s.Config(), opts...)
	if err != nil {
		t.Fatalf("mantatest: new client: %v", err)
	}
	return client
}

// Store returns a blob store over Client.
func (s *Server) Store(t testing.TB, opts ...manta.Option) *manta.Store {
	t.Helper()
	return manta.NewStoreFromClient(s.Client(t, opts...))
}

// AddKey registers another account's public key and returns its key id.
func (s *Server) AddKey(t testing.TB, account string, pub *rsa.PublicKey) string {
	t.Helper()

	keyID, err := s.keys.Add(account, pub)
	if err != nil {
		t.Fatalf("mantatest: add key: %v", err)
	}
	return keyID
}
