package keybackend

import (
	"crypto/rsa"
	"fmt"
	"sync"

	"github.com/sagarc03/manta"
)

var _ manta.PublicKeyLookup = (*MapKeyStore)(nil)

// MapKeyStore resolves key ids from an in-memory map.
type MapKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewMapKeyStore creates a store with the given key id to public key mapping.
func NewMapKeyStore(keys map[string]*rsa.PublicKey) *MapKeyStore {
	m := make(map[string]*rsa.PublicKey, len(keys))
	for id, pub := range keys {
		m[id] = pub
	}
	return &MapKeyStore{keys: m}
}

// Add registers pub for account and returns its key id.
func (s *MapKeyStore) Add(account string, pub *rsa.PublicKey) (string, error) {
	fingerprint, err := manta.Fingerprint(pub)
	if err != nil {
		return "", fmt.Errorf("add key: %w", err)
	}
	keyID := manta.KeyID(account, fingerprint)

	s.mu.Lock()
	s.keys[keyID] = pub
	s.mu.Unlock()
	return keyID, nil
}

// Lookup implements manta.PublicKeyLookup.
func (s *MapKeyStore) Lookup(keyID string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	pub, found := s.keys[keyID]
	s.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("lookup %s: %w", keyID, ErrKeyNotFound)
	}
	return pub, nil
}

// Len returns the number of registered keys.
func (s *MapKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
