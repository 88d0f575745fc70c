package manta

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// SignatureAlgorithm is the only algorithm the service accepts.
	SignatureAlgorithm = "rsa-sha256"
	// DateLayout formats the Date header: English names, unpadded day and
	// the zone abbreviation (always UTC when generated here).
	DateLayout = "Mon Jan 2 15:04:05 2006 MST"
	// MaxClockSkew bounds how far a signed Date may drift from the verifier's clock.
	MaxClockSkew = 5 * time.Minute

	signingPrefix = "date: "
)

// Signer adds the storage root, a Date header and an Authorization header to
// outgoing requests. It is safe for concurrent use.
type Signer struct {
	account string
	keyID   string
	keys    *KeyLoader
	now     func() time.Time
	logger  *slog.Logger
}

// NewSigner creates a signer for account. keyID is the key fingerprint sent
// in the Authorization header; when empty the fingerprint of the loaded key
// is used.
func NewSigner(account, keyID string, keys *KeyLoader, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		account: account,
		keyID:   keyID,
		keys:    keys,
		now:     time.Now,
		logger:  logger,
	}
}

// Sign returns a signed copy of req. The caller's request is not modified.
//
// An existing Date header is kept; otherwise the current UTC time is used.
// The Authorization header is always recomputed, so a request that carries
// headers from an earlier attempt is signed afresh.
//
// Sign fails with a *SigningError and returns no request when the key cannot
// be loaded or the signature cannot be computed.
func (s *Signer) Sign(req *http.Request) (*http.Request, error) {
	kp, err := s.keys.Load()
	if err != nil {
		return nil, &SigningError{Op: "load key", Err: err}
	}

	u, err := NormalizeURL(s.account, req.URL)
	if err != nil {
		return nil, &SigningError{Op: "normalize path", Err: err}
	}

	out := req.Clone(req.Context())
	out.URL = u

	date := out.Header.Get("Date")
	if date == "" {
		date = FormatDate(s.now())
		out.Header.Set("Date", date)
	}

	signature, err := SignDate(kp.Private, date)
	if err != nil {
		return nil, &SigningError{Op: "sign", Err: err}
	}

	keyID := s.keyID
	if keyID == "" {
		keyID = kp.Fingerprint
	}
	out.Header.Set("Authorization", AuthorizationHeader(s.account, keyID, signature))

	s.logger.Debug("signed request", "method", out.Method, "path", u.Path, "date", date)
	return out, nil
}

// FormatDate formats t in UTC with DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// SignDate returns the base64 RSA-SHA256 signature of "date: <date>".
// PKCS#1 v1.5 signatures are deterministic, so equal inputs give equal output.
func SignDate(priv *rsa.PrivateKey, date string) (string, error) {
	digest := sha256.Sum256([]byte(signingPrefix + date))
	sig, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSignature, err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// KeyID returns the key identifier for an account and fingerprint.
func KeyID(account, fingerprint string) string {
	return "/" + account + "/keys/" + fingerprint
}

// AuthorizationHeader formats the Authorization header value.
func AuthorizationHeader(account, fingerprint, signature string) string {
	return fmt.Sprintf(`Signature keyId="%s",algorithm="%s",signature="%s"`,
		KeyID(account, fingerprint), SignatureAlgorithm, signature)
}

// Authorization is a parsed Authorization header.
type Authorization struct {
	KeyID     string
	Algorithm string
	Signature string
}

// Account returns the account segment of the key id.
func (a Authorization) Account() string {
	account, _, _ := strings.Cut(strings.TrimPrefix(a.KeyID, "/"), "/")
	return account
}

// ParseAuthorization parses a `Signature keyId="...",algorithm="...",signature="..."` value.
func ParseAuthorization(value string) (Authorization, error) {
	params, ok := strings.CutPrefix(value, "Signature ")
	if !ok {
		return Authorization{}, fmt.Errorf("parse authorization: missing Signature scheme: %w", ErrAuthFailed)
	}

	var a Authorization
	for _, part := range strings.Split(params, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return Authorization{}, fmt.Errorf("parse authorization: malformed parameter %q: %w", part, ErrAuthFailed)
		}
		val = strings.Trim(val, `"`)
		switch key {
		case "keyId":
			a.KeyID = val
		case "algorithm":
			a.Algorithm = val
		case "signature":
			a.Signature = val
		}
	}

	if a.KeyID == "" || a.Algorithm == "" || a.Signature == "" {
		return Authorization{}, fmt.Errorf("parse authorization: missing parameters: %w", ErrAuthFailed)
	}

	parts := strings.Split(strings.TrimPrefix(a.KeyID, "/"), "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] != "keys" || parts[2] == "" {
		return Authorization{}, fmt.Errorf("parse authorization: invalid keyId %q: %w", a.KeyID, ErrAuthFailed)
	}

	return a, nil
}

// PublicKeyLookup resolves a key id ("/<account>/keys/<fingerprint>") to a public key.
type PublicKeyLookup interface {
	Lookup(keyID string) (*rsa.PublicKey, error)
}

// Verifier checks signed requests. It is the server-side counterpart of Signer.
type Verifier struct {
	keys    PublicKeyLookup
	maxSkew time.Duration
	now     func() time.Time
}

// NewVerifier creates a verifier. maxSkew <= 0 selects MaxClockSkew.
func NewVerifier(keys PublicKeyLookup, maxSkew time.Duration) *Verifier {
	if maxSkew <= 0 {
		maxSkew = MaxClockSkew
	}
	return &Verifier{keys: keys, maxSkew: maxSkew, now: time.Now}
}

// Verify checks the Authorization header against the Date header and returns
// the authenticated account. Errors wrap ErrAuthFailed.
func (v *Verifier) Verify(header http.Header) (string, error) {
	authz, err := ParseAuthorization(header.Get("Authorization"))
	if err != nil {
		return "", err
	}

	if authz.Algorithm != SignatureAlgorithm {
		return "", fmt.Errorf("verify: unsupported algorithm %q: %w", authz.Algorithm, ErrAuthFailed)
	}

	date := header.Get("Date")
	if date == "" {
		return "", fmt.Errorf("verify: missing Date header: %w", ErrAuthFailed)
	}

	signedAt, err := parseDate(date)
	if err != nil {
		return "", fmt.Errorf("verify: invalid Date header: %w", ErrAuthFailed)
	}

	skew := v.now().Sub(signedAt)
	if skew < -v.maxSkew || skew > v.maxSkew {
		return "", fmt.Errorf("verify: clock skew too large: %w", ErrAuthFailed)
	}

	pub, err := v.keys.Lookup(authz.KeyID)
	if err != nil {
		return "", fmt.Errorf("verify: %w: %w", ErrAuthFailed, err)
	}

	sig, err := base64.StdEncoding.DecodeString(authz.Signature)
	if err != nil {
		return "", fmt.Errorf("verify: signature encoding: %w", ErrAuthFailed)
	}

	digest := sha256.Sum256([]byte(signingPrefix + date))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return "", fmt.Errorf("verify: signature mismatch: %w", ErrAuthFailed)
	}

	return authz.Account(), nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	return http.ParseTime(value)
}
