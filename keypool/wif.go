package keypool

import (
	"github.com/bitanchor/anchoring/btc"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// FromWIF parses a list of Wallet Import Format secrets, as the operator
// config file lists them (one WIF string per key; each public key is
// derived from its private key), into a KeyPool. Only compressed WIF keys are accepted, matching
// the compressed-pubkey assumption the rest of package btc makes.
func FromWIF(wifStrings []string, params *chaincfg.Params) (*KeyPool, error) {
	keys := make([]btc.PrivateKey, 0, len(wifStrings))
	for _, s := range wifStrings {
		wif, err := btcutil.DecodeWIF(s)
		if err != nil {
			return nil, err
		}
		if !wif.IsForNet(params) {
			return nil, ScriptNetworkMismatch{WIF: s}
		}
		if !wif.CompressPubKey {
			return nil, UncompressedKey{WIF: s}
		}
		priv, err := btc.NewPrivateKey(wif.PrivKey.Serialize())
		if err != nil {
			return nil, err
		}
		keys = append(keys, priv)
	}
	return New(keys), nil
}

// ScriptNetworkMismatch is returned when a WIF key was encoded for a
// different Bitcoin network than the one configured.
type ScriptNetworkMismatch struct {
	WIF string
}

func (e ScriptNetworkMismatch) Error() string {
	return "keypool: WIF key encoded for the wrong network"
}

// UncompressedKey is returned when a WIF key encodes an uncompressed
// public key.
type UncompressedKey struct {
	WIF string
}

func (e UncompressedKey) Error() string {
	return "keypool: uncompressed WIF keys are not supported"
}
