// Package btc provides narrow, value-typed wrappers over the Bitcoin
// primitives the anchoring core depends on: hashes, keys, signatures and
// transactions. Each wrapper exposes consensus-binary serialization, hex
// conversion, equality and a stable content hash, and nothing else.
package btc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash is a 32-byte double-SHA256 digest, used both as a transaction id and
// as a host-chain block hash.
type Hash [32]byte

// NewHash copies b into a Hash. It fails with InvalidEncoding if b is not
// exactly 32 bytes long.
func NewHash(b []byte) (Hash, error) {
	var h Hash
	if len(b) != len(h) {
		return h, InvalidEncoding{What: "hash", Reason: fmt.Sprintf(
			"expected %d bytes, got %d", len(h), len(b))}
	}
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a lower- or upper-case hex string into a Hash. Bitcoin
// traditionally displays hashes byte-reversed; this package does not perform
// that reversal, it treats hex as the direct encoding of the byte array.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, InvalidEncoding{What: "hash", Reason: err.Error()}
	}
	return NewHash(b)
}

// Bytes returns a copy of the underlying 32 bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, len(h))
	copy(out, h[:])
	return out
}

// Hex returns the lower-case hex encoding of h.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// Equal reports whether h and other hold the same bytes.
func (h Hash) Equal(other Hash) bool {
	return bytes.Equal(h[:], other[:])
}

// IsZero reports whether h is the all-zero hash, used as the sentinel
// "no previous transaction" value for the genesis anchoring transaction's
// conceptual predecessor.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// chainHash adapts a Hash to the chainhash.Hash type expected by
// github.com/btcsuite/btcd APIs.
func (h Hash) chainHash() chainhash.Hash {
	return chainhash.Hash(h)
}

// hashFromChainHash converts the other way.
func hashFromChainHash(h chainhash.Hash) Hash {
	return Hash(h)
}

// shaHash returns the single SHA-256 digest of b, used for the P2WSH witness
// program (as opposed to the double-SHA256 used for transaction ids).
func shaHash(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// TxId is the double-SHA256 id of a Tx, computed over the serialization
// Tx.Bytes returns, witness data included (see Tx.Id).
type TxId = Hash

// PublicKey is a compressed secp256k1 public key (33 bytes).
type PublicKey struct {
	inner *btcec.PublicKey
}

// NewPublicKey parses a 33-byte compressed public key.
func NewPublicKey(b []byte) (PublicKey, error) {
	key, err := btcec.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, InvalidEncoding{What: "public key", Reason: err.Error()}
	}
	return PublicKey{inner: key}, nil
}

// PublicKeyFromHex parses a hex-encoded compressed public key.
func PublicKeyFromHex(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, InvalidEncoding{What: "public key", Reason: err.Error()}
	}
	return NewPublicKey(b)
}

// Bytes returns the 33-byte compressed serialization.
func (p PublicKey) Bytes() []byte {
	return p.inner.SerializeCompressed()
}

// Hex returns the lower-case hex encoding of the compressed public key.
func (p PublicKey) Hex() string {
	return hex.EncodeToString(p.Bytes())
}

// String implements fmt.Stringer.
func (p PublicKey) String() string {
	return p.Hex()
}

// Equal reports whether p and other encode the same point.
func (p PublicKey) Equal(other PublicKey) bool {
	if p.inner == nil || other.inner == nil {
		return p.inner == other.inner
	}
	return p.inner.IsEqual(other.inner)
}

// ContentHash returns SHA-256 of the compressed encoding, used wherever the
// core needs a stable map key or dedup key derived from a public key.
func (p PublicKey) ContentHash() Hash {
	return sha256.Sum256(p.Bytes())
}

// Verify checks an InputSignature (DER signature plus trailing sighash byte)
// against a BIP143 sighash digest.
func (p PublicKey) Verify(sighash []byte, sig InputSignature) bool {
	if len(sig.der) == 0 {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig.der)
	if err != nil {
		return false
	}
	return parsed.Verify(sighash, p.inner)
}

// PrivateKey is a raw secp256k1 scalar (32 bytes).
type PrivateKey struct {
	inner *btcec.PrivateKey
}

// NewPrivateKey parses a 32-byte scalar.
func NewPrivateKey(b []byte) (PrivateKey, error) {
	if len(b) != 32 {
		return PrivateKey{}, InvalidEncoding{What: "private key", Reason: "expected 32 bytes"}
	}
	key := btcec.PrivKeyFromBytes(b)
	return PrivateKey{inner: key}, nil
}

// Bytes returns the 32-byte scalar.
func (p PrivateKey) Bytes() []byte {
	return p.inner.Serialize()
}

// PubKey derives the corresponding compressed public key.
func (p PrivateKey) PubKey() PublicKey {
	return PublicKey{inner: p.inner.PubKey()}
}

// Sign produces a SIGHASH_ALL InputSignature over a BIP143 sighash digest.
func (p PrivateKey) Sign(sighash []byte) (InputSignature, error) {
	sig := ecdsa.Sign(p.inner, sighash)
	der := sig.Serialize()
	return InputSignature{der: append(der, byte(SigHashAll))}, nil
}

// InputSignature is a DER-encoded ECDSA signature with an appended sighash
// type byte, as placed into a witness stack.
type InputSignature struct {
	der []byte
}

// NewInputSignature wraps raw signature bytes (DER + trailing sighash byte)
// without attempting to re-derive or validate the encoding beyond length.
func NewInputSignature(b []byte) (InputSignature, error) {
	if len(b) < 9 {
		return InputSignature{}, InvalidEncoding{What: "input signature", Reason: "too short"}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return InputSignature{der: out}, nil
}

// Bytes returns the raw DER-plus-sighash-byte encoding.
func (s InputSignature) Bytes() []byte {
	out := make([]byte, len(s.der))
	copy(out, s.der)
	return out
}

// Hex returns the lower-case hex encoding.
func (s InputSignature) Hex() string {
	return hex.EncodeToString(s.der)
}

// Equal reports byte-for-byte equality, which is the correctness notion the
// state machine's idempotence guarantee relies on (§8, "submitting the same
// SignInput twice").
func (s InputSignature) Equal(other InputSignature) bool {
	return bytes.Equal(s.der, other.der)
}

// SigHashType mirrors txscript.SigHashType without requiring callers outside
// this package to import btcd directly.
type SigHashType uint32

// SigHashAll is the only sighash flag this service ever produces or accepts.
const SigHashAll SigHashType = 0x1

// InvalidEncoding is returned whenever parsing fails due to truncation, a
// malformed length prefix, or a bad checksum.
type InvalidEncoding struct {
	What   string
	Reason string
}

func (e InvalidEncoding) Error() string {
	return fmt.Sprintf("invalid %s encoding: %s", e.What, e.Reason)
}
