package keybackend

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sagarc03/manta"
	"golang.org/x/crypto/ssh"
)

// AccountKey binds an account to one of its public keys.
type AccountKey struct {
	Account   string `json:"account" mapstructure:"account"`
	PublicKey string `json:"public_key" mapstructure:"public_key"`
}

// ParsePublicKey parses an authorized_keys line ("ssh-rsa AAAA... comment")
// and returns the RSA key and its key id for account.
func ParsePublicKey(account, authorizedKey string) (string, *rsa.PublicKey, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(authorizedKey))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}

	cryptoPub, ok := pub.(ssh.CryptoPublicKey)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrInvalidPublicKey, pub.Type())
	}
	rsaPub, ok := cryptoPub.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s is not an RSA key", ErrInvalidPublicKey, pub.Type())
	}

	return manta.KeyID(account, ssh.FingerprintLegacyMD5(pub)), rsaPub, nil
}

// LoadKeysFromFile loads account keys from a JSON file.
// The file should contain an array of account keys:
//
//	[
//	  {"account": "alice", "public_key": "ssh-rsa AAAAB3Nza... alice@laptop"},
//	  {"account": "bob", "public_key": "ssh-rsa AAAAB3Nza..."}
//	]
//
// Returns a map of key id to public key. Entries with an empty account or
// key are skipped.
func LoadKeysFromFile(path string) (map[string]*rsa.PublicKey, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	var entries []AccountKey
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}

	return parseAccountKeys(entries)
}

func parseAccountKeys(entries []AccountKey) (map[string]*rsa.PublicKey, error) {
	keys := make(map[string]*rsa.PublicKey, len(entries))
	for _, e := range entries {
		if e.Account == "" || e.PublicKey == "" {
			continue
		}
		keyID, pub, err := ParsePublicKey(e.Account, e.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("key for account %s: %w", e.Account, err)
		}
		keys[keyID] = pub
	}
	return keys, nil
}
