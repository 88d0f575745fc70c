package manta

import (
	"crypto/rsa"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/ssh"
)

// KeySource supplies PEM encoded private key material.
// See package keybackend for file, fs.FS and in-memory sources.
type KeySource interface {
	ReadKey() ([]byte, error)
}

// KeyPair is a parsed RSA key together with the fingerprint the service uses
// to identify it.
type KeyPair struct {
	Private     *rsa.PrivateKey
	Public      *rsa.PublicKey
	Fingerprint string
}

// ParseKeyPair parses a PEM encoded RSA private key in PKCS#1, PKCS#8 or
// OpenSSH format. passphrase may be empty for unencrypted keys.
// The fingerprint is the colon separated MD5 of the SSH public key.
func ParseKeyPair(pemBytes []byte, passphrase string) (*KeyPair, error) {
	var (
		raw any
		err error
	)
	if passphrase != "" {
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	} else {
		raw, err = ssh.ParseRawPrivateKey(pemBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	priv, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("parse private key: %w: %T", ErrUnsupportedKey, raw)
	}

	fingerprint, err := Fingerprint(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &KeyPair{
		Private:     priv,
		Public:      &priv.PublicKey,
		Fingerprint: fingerprint,
	}, nil
}

// Fingerprint returns the MD5 fingerprint ("aa:bb:...") of an RSA public key.
func Fingerprint(pub *rsa.PublicKey) (string, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return ssh.FingerprintLegacyMD5(sshPub), nil
}

// KeyLoader reads and parses a key pair on first use and shares it afterwards.
// Concurrent first uses are serialized; a failed load publishes nothing, so
// no caller ever observes a partially initialized pair.
type KeyLoader struct {
	source     KeySource
	passphrase string

	mu   sync.Mutex
	pair atomic.Pointer[KeyPair]
}

// NewKeyLoader creates a loader for the given source.
func NewKeyLoader(source KeySource, passphrase string) *KeyLoader {
	return &KeyLoader{source: source, passphrase: passphrase}
}

// Load returns the key pair, reading the source if it has not been loaded yet.
// Errors wrap ErrKeyLoad.
func (l *KeyLoader) Load() (*KeyPair, error) {
	if kp := l.pair.Load(); kp != nil {
		return kp, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if kp := l.pair.Load(); kp != nil {
		return kp, nil
	}

	data, err := l.source.ReadKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyLoad, err)
	}

	kp, err := ParseKeyPair(data, l.passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyLoad, err)
	}

	l.pair.Store(kp)
	return kp, nil
}
