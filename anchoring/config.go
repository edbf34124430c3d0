// Package anchoring implements the anchoring chain model: the redeem script
// and multi-sig address it spends through (see package btc), the proposal
// construction and state-machine rules, and the funding queue. It has no
// network or storage dependency of its own; callers persist State through
// the hostchain.Ledger interface.
package anchoring

import (
	"sort"

	"github.com/bitanchor/anchoring/btc"
	"github.com/btcsuite/btcd/chaincfg"
)

// Network identifies which Bitcoin network a Configuration targets.
type Network int

const (
	// NetworkMainnet is Bitcoin mainnet.
	NetworkMainnet Network = iota
	// NetworkTestnet is Bitcoin testnet3.
	NetworkTestnet
	// NetworkRegtest is a local regression-test network.
	NetworkRegtest
)

// Params returns the chaincfg.Params matching n.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case NetworkMainnet:
		return &chaincfg.MainNetParams
	case NetworkTestnet:
		return &chaincfg.TestNet3Params
	default:
		return &chaincfg.RegressionNetParams
	}
}

// String implements fmt.Stringer.
func (n Network) String() string {
	switch n {
	case NetworkMainnet:
		return "mainnet"
	case NetworkTestnet:
		return "testnet"
	default:
		return "regtest"
	}
}

// Configuration is the ordered validator set and tunables active over some
// range of host-chain heights (spec §3, Configuration).
type Configuration struct {
	// Validators is the ordered list of validator public keys. Order is
	// significant: it determines both the redeem script and each
	// validator's index used throughout SignInput and lects.
	Validators []btc.PublicKey

	// Interval is the host-chain anchoring interval, in blocks.
	Interval uint64

	// FeeRatePerVByte is the fixed per-vbyte fee rate, in satoshis.
	FeeRatePerVByte int64

	// Net is the Bitcoin network this configuration targets.
	Net Network

	// InitialFunding is the genesis funding transaction, present only on
	// the configuration active at height 0. Absent for later
	// configurations, which instead receive funds via a reconfiguration
	// transfer transaction or further AddFunds calls.
	InitialFunding *btc.Tx
}

// RedeemScript builds the M-of-N redeem script for this configuration's
// validator set.
func (c Configuration) RedeemScript() (btc.RedeemScript, error) {
	return btc.NewRedeemScript(c.Validators)
}

// Address derives the configuration's multi-sig SegWit address.
func (c Configuration) Address() (string, error) {
	rs, err := c.RedeemScript()
	if err != nil {
		return "", err
	}
	return rs.Address(c.Net.Params())
}

// PkScript derives the configuration's multi-sig P2WSH output script.
func (c Configuration) PkScript() ([]byte, error) {
	rs, err := c.RedeemScript()
	if err != nil {
		return nil, err
	}
	return rs.PkScript()
}

// Quorum returns M for this configuration's validator set.
func (c Configuration) Quorum() int {
	return btc.Quorum(len(c.Validators))
}

// ValidatorIndex returns the position of pub in the ordered validator list,
// or -1 if pub is not a validator under this configuration.
func (c Configuration) ValidatorIndex(pub btc.PublicKey) int {
	for i, v := range c.Validators {
		if v.Equal(pub) {
			return i
		}
	}
	return -1
}

// NearestAnchoringHeight returns the smallest multiple of Interval strictly
// greater than lastPayloadHeight (0 -> Interval, Interval -> 2*Interval),
// the next anchoring boundary after the tip's payload height.
// It assumes the chain already has a finalized tip; an empty chain's genesis
// boundary is always 0 and must be special-cased by the caller (see
// StateMachine.OnBlock), since LastPayloadHeight()==0 is ambiguous between
// "empty chain" and "tip committed at height 0".
func (c Configuration) NearestAnchoringHeight(lastPayloadHeight uint64) uint64 {
	if c.Interval == 0 {
		return lastPayloadHeight
	}
	if lastPayloadHeight%c.Interval == 0 {
		return lastPayloadHeight + c.Interval
	}
	return ((lastPayloadHeight / c.Interval) + 1) * c.Interval
}

// ConfigEntry pairs a Configuration with the host-chain height at which it
// becomes active.
type ConfigEntry struct {
	ActivationHeight uint64
	Config           Configuration
}

// ConfigHistory is the sorted-by-activation-height list of configurations a
// service instance has ever had. Configurations are never mutated or
// removed once added (spec §3, Configuration lifecycle).
type ConfigHistory struct {
	entries []ConfigEntry
}

// NewConfigHistory builds a history from a genesis configuration activating
// at height 0.
func NewConfigHistory(genesis Configuration) *ConfigHistory {
	return &ConfigHistory{entries: []ConfigEntry{{ActivationHeight: 0, Config: genesis}}}
}

// Add appends a new configuration, activating at the given height. Entries
// must be added in non-decreasing activation-height order; this mirrors how
// host-chain governance transactions arrive in block order.
func (h *ConfigHistory) Add(activationHeight uint64, cfg Configuration) {
	h.entries = append(h.entries, ConfigEntry{ActivationHeight: activationHeight, Config: cfg})
	sort.SliceStable(h.entries, func(i, j int) bool {
		return h.entries[i].ActivationHeight < h.entries[j].ActivationHeight
	})
}

// ActiveAt returns the configuration with the greatest activation height
// less than or equal to height (spec §3: "the one with the greatest
// activation height ≤ that height").
func (h *ConfigHistory) ActiveAt(height uint64) Configuration {
	active := h.entries[0].Config
	for _, e := range h.entries {
		if e.ActivationHeight > height {
			break
		}
		active = e.Config
	}
	return active
}

// EntryAt returns the full entry active at height, and its index in the
// history, so callers can detect whether a new configuration has taken over
// since a proposal was built.
func (h *ConfigHistory) EntryAt(height uint64) (ConfigEntry, int) {
	idx := 0
	for i, e := range h.entries {
		if e.ActivationHeight > height {
			break
		}
		idx = i
	}
	return h.entries[idx], idx
}

// Next returns the configuration following the one at index idx, and true,
// or false if idx is the last entry.
func (h *ConfigHistory) Next(idx int) (ConfigEntry, bool) {
	if idx+1 >= len(h.entries) {
		return ConfigEntry{}, false
	}
	return h.entries[idx+1], true
}

// Len returns the number of configurations recorded.
func (h *ConfigHistory) Len() int {
	return len(h.entries)
}

// Clone returns a deep copy whose entries slice shares no backing array
// with h, so Add on either history after cloning never corrupts the
// other. Configurations are never mutated once added (see the ConfigHistory
// doc comment), so sharing a Configuration's Validators slice and
// InitialFunding pointer across clones is safe.
func (h *ConfigHistory) Clone() *ConfigHistory {
	entries := make([]ConfigEntry, len(h.entries))
	copy(entries, h.entries)
	return &ConfigHistory{entries: entries}
}
