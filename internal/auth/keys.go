// Package auth authenticates RPC callers. Requests are signed with a
// secp256k1 key; the caller's principal is derived from the public key.
package auth

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

// KeyPair is a secp256k1 signing key.
type KeyPair struct {
	priv *secp256k1.PrivateKey
}

// GenerateKey creates a random key pair.
func GenerateKey() (*KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &KeyPair{priv: priv}, nil
}

// ParsePrivateKey reads a hex-encoded 32-byte private key.
func ParsePrivateKey(s string) (*KeyPair, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(b) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", secp256k1.PrivKeyBytesLen, len(b))
	}
	return &KeyPair{priv: secp256k1.PrivKeyFromBytes(b)}, nil
}

// PrivateKeyHex returns the hex-encoded private key.
func (k *KeyPair) PrivateKeyHex() string {
	return hex.EncodeToString(k.priv.Serialize())
}

// PublicKey returns the compressed public key.
func (k *KeyPair) PublicKey() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

// PublicKeyHex returns the hex-encoded compressed public key.
func (k *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.PublicKey())
}

// Principal returns the oracle address of the key.
func (k *KeyPair) Principal() oracle.Address {
	return PrincipalFromPublicKey(k.PublicKey())
}

// Sign signs a request and returns credentials for it.
func (k *KeyPair) Sign(method string, timestamp int64, params []byte) Credentials {
	hash := SigningHash(method, timestamp, params)
	sig := ecdsa.Sign(k.priv, hash[:])
	return Credentials{
		PublicKey: k.PublicKeyHex(),
		Signature: hex.EncodeToString(sig.Serialize()),
		Timestamp: timestamp,
	}
}
