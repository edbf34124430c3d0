// Package hostchain provides the host-chain-facing surface the off-chain
// tasks in package sync talk to: a narrow Ledger storage interface, the
// PrivateAPI query/submit surface built on top of it, and two
// implementations (an in-memory fake and an etcd-backed store).
package hostchain

import (
	"encoding/binary"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
)

// ProposalStatus is the sum type returned by AnchoringProposal, mirroring
// spec §6's `{None, Available, InsufficientFunds, NoInitialFunds}` response.
type ProposalStatus int

const (
	// ProposalNone means no proposal is currently open.
	ProposalNone ProposalStatus = iota
	// ProposalAvailable means a proposal is open and awaiting signatures.
	ProposalAvailable
	// ProposalInsufficientFunds means the last attempt to build a
	// proposal failed for lack of funds; Balance/Needed are populated.
	ProposalInsufficientFunds
	// ProposalNoInitialFunds means the chain has no tip and no queued
	// funding to build a genesis proposal from.
	ProposalNoInitialFunds
)

// AnchoringProposalReply is the decoded response to the anchoring_proposal
// host-chain query (spec §6).
type AnchoringProposalReply struct {
	Status   ProposalStatus
	Proposal anchoring.Proposal // valid only when Status == ProposalAvailable
	Balance  int64              // valid only when Status == ProposalInsufficientFunds
	Needed   int64              // valid only when Status == ProposalInsufficientFunds
}

// SignInputMsg is the content-hashable wire envelope for a SignInput
// host-chain transaction (spec §3, "(NEW) Wire envelope"). Its binary
// encoding follows the same fixed-layout, hand-rolled-codec idiom as
// btc/payload.go and original_source's btc::macros wrapper types: a short,
// ad hoc binary format has no natural third-party library and is simplest
// written directly against encoding/binary.
type SignInputMsg struct {
	TxId       btc.TxId
	InputIndex uint32
	Signature  btc.InputSignature
	Validator  int32
}

// Encode serializes m deterministically: txid, input index, validator
// index, then the signature's length-prefixed bytes.
func (m SignInputMsg) Encode() []byte {
	sig := m.Signature.Bytes()
	buf := make([]byte, 32+4+4+2+len(sig))
	copy(buf[0:32], m.TxId[:])
	binary.LittleEndian.PutUint32(buf[32:36], m.InputIndex)
	binary.LittleEndian.PutUint32(buf[36:40], uint32(m.Validator))
	binary.LittleEndian.PutUint16(buf[40:42], uint16(len(sig)))
	copy(buf[42:], sig)
	return buf
}

// ContentHash returns the SHA-256 content hash used as the idempotence key
// for a SignInput submission (spec §8, "submitting the same SignInput
// twice").
func (m SignInputMsg) ContentHash() btc.Hash {
	return btc.Hash(shaSum(m.Encode()))
}

// AddFundsMsg is the content-hashable wire envelope for an AddFunds
// host-chain transaction.
type AddFundsMsg struct {
	Tx btc.Tx
}

// Encode returns the raw consensus-binary transaction bytes; AddFunds is
// idempotent on txid, so the transaction's own witness-inclusive id already
// serves as the content hash.
func (m AddFundsMsg) Encode() []byte {
	return m.Tx.Bytes()
}

// ContentHash returns the transaction id, used as AddFunds's idempotence
// key.
func (m AddFundsMsg) ContentHash() btc.Hash {
	return m.Tx.Id()
}
