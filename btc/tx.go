package btc

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Tx is a value-typed, freely cloneable wrapper around a Bitcoin transaction.
// It is identified by its witness-inclusive double-SHA256 id.
type Tx struct {
	msg *wire.MsgTx
}

// NewTx wraps a *wire.MsgTx. The caller must not mutate msg afterwards; use
// Clone to obtain an independent copy first if mutation is required.
func NewTx(msg *wire.MsgTx) Tx {
	return Tx{msg: msg}
}

// ParseTx decodes the standard Bitcoin consensus encoding (witness-inclusive)
// into a Tx.
func ParseTx(b []byte) (Tx, error) {
	msg := wire.NewMsgTx(wire.TxVersion)
	if err := msg.Deserialize(bytes.NewReader(b)); err != nil {
		return Tx{}, InvalidEncoding{What: "transaction", Reason: err.Error()}
	}
	return Tx{msg: msg}, nil
}

// ParseTxHex decodes a hex-encoded transaction.
func ParseTxHex(s string) (Tx, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Tx{}, InvalidEncoding{What: "transaction", Reason: err.Error()}
	}
	return ParseTx(b)
}

// Clone returns a deep copy so the original may be retained unmodified.
func (t Tx) Clone() Tx {
	return Tx{msg: t.msg.Copy()}
}

// MsgTx exposes the underlying wire.MsgTx for callers that need to build
// witnesses or BIP143 sighashes with github.com/btcsuite/btcd/txscript.
// Mutating the returned value mutates t; call Clone first if that is
// undesirable.
func (t Tx) MsgTx() *wire.MsgTx {
	return t.msg
}

// Bytes returns the consensus-binary (witness-inclusive) serialization.
func (t Tx) Bytes() []byte {
	var buf bytes.Buffer
	// SerializeSize allocates a buffer of the correct size; ignore the
	// error, MsgTx.Serialize never fails against a bytes.Buffer.
	buf.Grow(t.msg.SerializeSize())
	_ = t.msg.Serialize(&buf)
	return buf.Bytes()
}

// Hex returns the lower-case hex encoding of Bytes.
func (t Tx) Hex() string {
	return hex.EncodeToString(t.Bytes())
}

// Id returns the transaction's witness-inclusive double-SHA256 id. Note this
// intentionally differs from Bitcoin's traditional txid (which excludes
// witness data); the anchoring chain links entries by this content hash so
// that a resigned, otherwise-identical transaction is recognized as distinct
// the moment any witness changes, matching the "never retried without
// incrementing derivation inputs" rule in spec §7.
func (t Tx) Id() TxId {
	return hashFromChainHash(chainhash.DoubleHashH(t.Bytes()))
}

// Equal reports whether t and other serialize identically.
func (t Tx) Equal(other Tx) bool {
	return bytes.Equal(t.Bytes(), other.Bytes())
}

// NumInputs returns the number of transaction inputs.
func (t Tx) NumInputs() int {
	return len(t.msg.TxIn)
}

// NumOutputs returns the number of transaction outputs.
func (t Tx) NumOutputs() int {
	return len(t.msg.TxOut)
}

// OutputValue returns the value, in satoshis, of output index.
func (t Tx) OutputValue(index int) int64 {
	return t.msg.TxOut[index].Value
}

// OutputScript returns the pkScript of output index.
func (t Tx) OutputScript(index int) []byte {
	return t.msg.TxOut[index].PkScript
}

// PrevOut returns the previous outpoint referenced by input index.
func (t Tx) PrevOut(index int) (TxId, uint32) {
	op := t.msg.TxIn[index].PreviousOutPoint
	return hashFromChainHash(op.Hash), op.Index
}

// FindOutput returns the index of the first output paying exactly pkScript,
// and whether one was found. Used to locate a funding payment to the current
// multi-sig address (spec §4.4, AddFunds) and to verify a reconfiguration
// transfer pays the successor address.
func (t Tx) FindOutput(pkScript []byte) (int, bool) {
	for i, out := range t.msg.TxOut {
		if bytes.Equal(out.PkScript, pkScript) {
			return i, true
		}
	}
	return -1, false
}
