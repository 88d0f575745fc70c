package keybackend_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"
	"testing"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestParsePublicKey(t *testing.T) {
	t.Parallel()

	priv := generateKey(t)

	keyID, pub, err := keybackend.ParsePublicKey("alice", authorizedKey(t, &priv.PublicKey)+" alice@laptop")
	require.NoError(t, err)

	fingerprint, err := manta.Fingerprint(&priv.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "/alice/keys/"+fingerprint, keyID)
	assert.True(t, priv.PublicKey.Equal(pub))
}

func TestParsePublicKey_Rejects(t *testing.T) {
	t.Parallel()

	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(edPub)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
	}{
		{name: "garbage", key: "not a key"},
		{name: "ed25519 key", key: strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := keybackend.ParsePublicKey("alice", tt.key)
			require.ErrorIs(t, err, keybackend.ErrInvalidPublicKey)
		})
	}
}

func TestLoadKeysFromFile_ValidJSON(t *testing.T) {
	t.Parallel()

	alice := generateKey(t)
	bob := generateKey(t)

	content := fmt.Sprintf(`[
		{"account": "alice", "public_key": %q},
		{"account": "bob", "public_key": %q}
	]`, authorizedKey(t, &alice.PublicKey), authorizedKey(t, &bob.PublicKey))

	path := writeTestFile(t, "keys.json", content)

	keys, err := keybackend.LoadKeysFromFile(path)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	for _, pub := range keys {
		assert.True(t, pub.Equal(&alice.PublicKey) || pub.Equal(&bob.PublicKey))
	}
}

func TestLoadKeysFromFile_SkipsEmptyEntries(t *testing.T) {
	t.Parallel()

	alice := generateKey(t)

	content := fmt.Sprintf(`[
		{"account": "", "public_key": "ssh-rsa AAAA"},
		{"account": "bob", "public_key": ""},
		{"account": "alice", "public_key": %q}
	]`, authorizedKey(t, &alice.PublicKey))

	path := writeTestFile(t, "keys.json", content)

	keys, err := keybackend.LoadKeysFromFile(path)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestLoadKeysFromFile_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := keybackend.LoadKeysFromFile("/nonexistent/path/keys.json")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read keys file")
}

func TestLoadKeysFromFile_InvalidJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "not json",
			content: "this is not json",
		},
		{
			name:    "json object instead of array",
			content: `{"account": "alice", "public_key": "ssh-rsa AAAA"}`,
		},
		{
			name:    "malformed json",
			content: `[{"account": "alice"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestFile(t, "keys.json", tt.content)

			_, err := keybackend.LoadKeysFromFile(path)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "parse keys file")
		})
	}
}

func TestLoadKeysFromFile_InvalidKey(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, "keys.json", `[{"account": "alice", "public_key": "ssh-rsa not-base64"}]`)

	_, err := keybackend.LoadKeysFromFile(path)
	require.ErrorIs(t, err, keybackend.ErrInvalidPublicKey)
}
