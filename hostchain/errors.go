package hostchain

import (
	"fmt"

	"github.com/bitanchor/anchoring/btc"
)

// NoActiveProposal is returned by SignInput when no current_proposal exists.
type NoActiveProposal struct{}

func (e NoActiveProposal) Error() string { return "hostchain: no active proposal" }

// WrongTxId is returned by SignInput when the submitted txid does not match
// the current proposal's id.
type WrongTxId struct {
	Got, Want btc.Hash
}

func (e WrongTxId) Error() string {
	return fmt.Sprintf("hostchain: wrong txid: got %s, want %s", e.Got, e.Want)
}

// InputOutOfRange is returned by SignInput when input_index exceeds the
// proposal's input count.
type InputOutOfRange struct {
	Index, NumInputs int
}

func (e InputOutOfRange) Error() string {
	return fmt.Sprintf("hostchain: input index %d out of range (have %d inputs)", e.Index, e.NumInputs)
}

// BadSignature is returned by SignInput when the signature does not verify
// against the proposal's BIP143 preimage with the sender's public key.
type BadSignature struct {
	Reason string
}

func (e BadSignature) Error() string {
	return fmt.Sprintf("hostchain: bad signature: %s", e.Reason)
}

// NotAValidator is returned by SignInput when the sender's public key is
// not a member of the configuration active when the proposal was built.
type NotAValidator struct{}

func (e NotAValidator) Error() string { return "hostchain: sender is not an active validator" }

// Conflict is returned by a Ledger's Save when the supplied expected
// version no longer matches the stored version, i.e. another writer
// updated the state first. Callers retry by reloading.
type Conflict struct{}

func (e Conflict) Error() string { return "hostchain: concurrent update, reload and retry" }
