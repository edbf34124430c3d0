package btc

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// RedeemScript is the canonical `M <pk1> ... <pkN> N OP_CHECKMULTISIG`
// witness script for the current validator set, in validator order (keys
// are used in the order supplied, never sorted — reconfiguration changes
// both the key list and therefore the address).
type RedeemScript struct {
	script     []byte
	threshold  int
	publicKeys []PublicKey
}

// Quorum returns M, the number of signatures the redeem script requires,
// computed as floor(2N/3) + 1 for an N-key configuration.
func Quorum(n int) int {
	return (2*n)/3 + 1
}

// NewRedeemScript builds the M-of-N multisig witness script for the given
// ordered public keys. M is derived with Quorum; callers that need a
// different threshold (there are none in this service) would need a
// different constructor.
func NewRedeemScript(keys []PublicKey) (RedeemScript, error) {
	if len(keys) == 0 {
		return RedeemScript{}, fmt.Errorf("redeem script: empty validator set")
	}
	if len(keys) > 15 {
		return RedeemScript{}, fmt.Errorf("redeem script: %d keys exceeds standard multisig limit", len(keys))
	}
	m := Quorum(len(keys))

	bldr := txscript.NewScriptBuilder()
	bldr.AddInt64(int64(m))
	for _, k := range keys {
		bldr.AddData(k.Bytes())
	}
	bldr.AddInt64(int64(len(keys)))
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	script, err := bldr.Script()
	if err != nil {
		return RedeemScript{}, err
	}

	ordered := make([]PublicKey, len(keys))
	copy(ordered, keys)
	return RedeemScript{script: script, threshold: m, publicKeys: ordered}, nil
}

// Bytes returns the raw script bytes.
func (r RedeemScript) Bytes() []byte {
	out := make([]byte, len(r.script))
	copy(out, r.script)
	return out
}

// Threshold returns M, the quorum of signatures required per input.
func (r RedeemScript) Threshold() int {
	return r.threshold
}

// PublicKeys returns the ordered validator public-key list the script was
// built from.
func (r RedeemScript) PublicKeys() []PublicKey {
	out := make([]PublicKey, len(r.publicKeys))
	copy(out, r.publicKeys)
	return out
}

// Equal reports byte-for-byte equality of the underlying script.
func (r RedeemScript) Equal(other RedeemScript) bool {
	return bytes.Equal(r.script, other.script)
}

// witnessScriptHash generates the P2WSH pubkey script paying to the version-0
// witness program of sha256(redeemScript), generalizing
// lnwallet/script_utils.go's two-party witnessScriptHash to an arbitrary
// redeem script.
func witnessScriptHash(redeemScript []byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_0)
	scriptHash := shaHash(redeemScript)
	bldr.AddData(scriptHash[:])
	return bldr.Script()
}

// PkScript returns the P2WSH output script paying to r.
func (r RedeemScript) PkScript() ([]byte, error) {
	return witnessScriptHash(r.script)
}

// Address derives the bech32 SegWit v0 address for r under the given
// network parameters. The address depends on the full ordered key list, so
// a reconfiguration that changes the validator set or their order always
// changes the address.
func (r RedeemScript) Address(params *chaincfg.Params) (string, error) {
	scriptHash := shaHash(r.script)
	addr, err := btcutil.NewAddressWitnessScriptHash(scriptHash[:], params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// SpendWitness builds the witness stack that redeems a P2WSH multisig
// output: a leading empty element to absorb OP_CHECKMULTISIG's off-by-one
// bug, the signatures in validator order, and finally the redeem script
// itself, generalizing spendMultiSig in lnwallet/script_utils.go from a
// fixed 2-of-2 pair to an arbitrary M-of-N set keyed by validator index.
func (r RedeemScript) SpendWitness(sigsByValidator map[int]InputSignature) ([][]byte, error) {
	indices := make([]int, 0, len(sigsByValidator))
	for idx := range sigsByValidator {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	if len(indices) < r.threshold {
		return nil, fmt.Errorf("redeem script: have %d signatures, need %d", len(indices), r.threshold)
	}

	witness := make([][]byte, 0, 2+r.threshold)
	witness = append(witness, nil)
	used := 0
	for _, idx := range indices {
		if used == r.threshold {
			break
		}
		witness = append(witness, sigsByValidator[idx].Bytes())
		used++
	}
	witness = append(witness, r.script)
	return witness, nil
}
