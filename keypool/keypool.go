// Package keypool holds the local validator's private keys: an immutable,
// off-chain, read-only-after-construction mapping from public key to
// private key (spec §3, "KeyPool (off-chain)").
package keypool

import "github.com/bitanchor/anchoring/btc"

// KeyPool is safe for concurrent read access from multiple goroutines once
// constructed; it is never mutated afterwards (spec §5, "the in-memory key
// pool, which is read-only").
type KeyPool struct {
	byPub map[btc.Hash]btc.PrivateKey
}

// New builds a KeyPool from the given private keys, indexed by the SHA-256
// content hash of each key's compressed public key.
func New(keys []btc.PrivateKey) *KeyPool {
	byPub := make(map[btc.Hash]btc.PrivateKey, len(keys))
	for _, k := range keys {
		byPub[k.PubKey().ContentHash()] = k
	}
	return &KeyPool{byPub: byPub}
}

// Lookup returns the private key matching pub, if this pool holds it.
func (p *KeyPool) Lookup(pub btc.PublicKey) (btc.PrivateKey, bool) {
	k, ok := p.byPub[pub.ContentHash()]
	return k, ok
}

// FirstMatch scans candidates in order and returns the index and private
// key of the first one this pool holds, used by the chain-update task to
// implement spec §4.5's "first configured key wins" rule.
func (p *KeyPool) FirstMatch(candidates []btc.PublicKey) (index int, key btc.PrivateKey, ok bool) {
	for i, pub := range candidates {
		if k, found := p.byPub[pub.ContentHash()]; found {
			return i, k, true
		}
	}
	return -1, btc.PrivateKey{}, false
}

// Len returns the number of keys held.
func (p *KeyPool) Len() int {
	return len(p.byPub)
}
