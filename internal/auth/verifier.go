package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrStaleTimestamp     = errors.New("request timestamp outside allowed window")
	ErrReplayed           = errors.New("request already seen")
)

// DefaultMaxSkew bounds the distance between a request timestamp and the
// verifier's clock.
const DefaultMaxSkew = 30 * time.Second

const replayCacheSize = 65536

// Credentials accompany a signed request. Timestamp is in unix milliseconds.
type Credentials struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

// Verifier checks request signatures and rejects stale or replayed requests.
type Verifier struct {
	maxSkew time.Duration
	now     func() time.Time

	mu   sync.Mutex
	seen *lru.Cache[string, int64]
}

// NewVerifier returns a verifier. A zero maxSkew selects DefaultMaxSkew and
// a nil now selects time.Now.
func NewVerifier(maxSkew time.Duration, now func() time.Time) *Verifier {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	if now == nil {
		now = time.Now
	}
	seen, _ := lru.New[string, int64](replayCacheSize)
	return &Verifier{maxSkew: maxSkew, now: now, seen: seen}
}

// Verify authenticates a request for method with the raw params bytes and
// returns the caller's principal.
func (v *Verifier) Verify(method string, params []byte, cred *Credentials) (oracle.Address, error) {
	if cred == nil || cred.PublicKey == "" || cred.Signature == "" {
		return "", ErrMissingCredentials
	}

	ts := time.UnixMilli(cred.Timestamp)
	skew := v.now().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return "", ErrStaleTimestamp
	}

	pubBytes, err := hex.DecodeString(cred.PublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	sigBytes, err := hex.DecodeString(cred.Signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	hash := SigningHash(method, cred.Timestamp, params)
	if !sig.Verify(hash[:], pub) {
		return "", ErrInvalidSignature
	}

	// keyed on the signed hash and the signer, never on credential text
	compressed := pub.SerializeCompressed()
	replayKey := hex.EncodeToString(hash[:]) + hex.EncodeToString(compressed)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen.Contains(replayKey) {
		return "", ErrReplayed
	}
	v.seen.Add(replayKey, cred.Timestamp)

	return PrincipalFromPublicKey(compressed), nil
}
