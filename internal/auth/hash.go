package auth

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strconv"

	"github.com/decred/dcrd/crypto/ripemd160"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

// PrincipalIDSize is the size of a principal identifier in bytes.
const PrincipalIDSize = 20

// Sha512Half returns the first 32 bytes of a sha512 hash of msg.
func Sha512Half(msg []byte) [32]byte {
	h := sha512.Sum512(msg)
	var result [32]byte
	copy(result[:], h[:32])
	return result
}

// CalcPrincipalID computes RIPEMD160(SHA256(publicKey)) over the compressed
// public key.
func CalcPrincipalID(publicKey []byte) [PrincipalIDSize]byte {
	sha256Hash := sha256.Sum256(publicKey)

	ripemd160Hasher := ripemd160.New()
	ripemd160Hasher.Write(sha256Hash[:])

	var result [PrincipalIDSize]byte
	copy(result[:], ripemd160Hasher.Sum(nil))
	return result
}

// PrincipalFromPublicKey returns the oracle address of a compressed public
// key: the lowercase hex of its principal ID.
func PrincipalFromPublicKey(publicKey []byte) oracle.Address {
	id := CalcPrincipalID(publicKey)
	return oracle.Address(hex.EncodeToString(id[:]))
}

// SigningHash is the digest a request signature covers:
// Sha512Half(method "\n" timestamp "\n" params).
func SigningHash(method string, timestamp int64, params []byte) [32]byte {
	msg := make([]byte, 0, len(method)+len(params)+24)
	msg = append(msg, method...)
	msg = append(msg, '\n')
	msg = strconv.AppendInt(msg, timestamp, 10)
	msg = append(msg, '\n')
	msg = append(msg, params...)
	return Sha512Half(msg)
}
