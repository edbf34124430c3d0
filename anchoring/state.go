package anchoring

import "github.com/bitanchor/anchoring/btc"

// SignatureSet tracks the signatures collected so far for one Proposal,
// keyed by input index and then by validator index within that input's
// redeem script (spec §4, §7: a proposal only becomes spendable once every
// input independently reaches its quorum).
type SignatureSet struct {
	proposal Proposal
	perInput []map[int]btc.InputSignature
}

// NewSignatureSet starts an empty collection for proposal p.
func NewSignatureSet(p Proposal) *SignatureSet {
	perInput := make([]map[int]btc.InputSignature, p.Tx.NumInputs())
	for i := range perInput {
		perInput[i] = make(map[int]btc.InputSignature)
	}
	return &SignatureSet{proposal: p, perInput: perInput}
}

// SignInput records validatorIdx's signature over input inputIndex after
// verifying it against the proposal's own BIP143 sighash and the
// validator's public key. Submitting the same (input, validator) pair with
// an identical signature a second time is a no-op success, matching the
// idempotence the chain-update task relies on when replaying after a
// restart (spec §7, §8: "submitting the same SignInput twice"). Submitting
// a *different* signature for an already-recorded (input, validator) pair
// is rejected: the proposal's derivation inputs did not change, so a
// different signature can only mean stale or malicious input.
func (s *SignatureSet) SignInput(inputIndex, validatorIdx int, pub btc.PublicKey, sig btc.InputSignature) error {
	if inputIndex < 0 || inputIndex >= len(s.perInput) {
		return ChainBroken{Reason: "signature for out-of-range input index"}
	}
	sighash, err := s.proposal.SigHash(inputIndex)
	if err != nil {
		return err
	}
	if !pub.Verify(sighash, sig) {
		return ScriptError{Reason: "signature does not verify against this proposal"}
	}

	existing, have := s.perInput[inputIndex][validatorIdx]
	if have {
		if existing.Equal(sig) {
			return nil
		}
		return ChainBroken{Reason: "conflicting signature already recorded for this validator and input"}
	}
	s.perInput[inputIndex][validatorIdx] = sig
	return nil
}

// InputReady reports whether inputIndex has reached the redeem script's
// quorum.
func (s *SignatureSet) InputReady(inputIndex int) bool {
	return len(s.perInput[inputIndex]) >= s.proposal.RedeemScript.Threshold()
}

// Ready reports whether every input has reached quorum, meaning Finalize
// can produce a broadcastable transaction.
func (s *SignatureSet) Ready() bool {
	for i := range s.perInput {
		if !s.InputReady(i) {
			return false
		}
	}
	return true
}

// SignatureFor returns the signature recorded for (inputIndex,
// validatorIdx), if any. Used by callers that need to persist or replay a
// SignatureSet's contents (see hostchain's snapshot codec).
func (s *SignatureSet) SignatureFor(inputIndex, validatorIdx int) (btc.InputSignature, bool) {
	sig, ok := s.perInput[inputIndex][validatorIdx]
	return sig, ok
}

// MissingValidators returns, for inputIndex, which validator indices (out
// of the full ordered set in the redeem script) have not yet signed.
func (s *SignatureSet) MissingValidators(inputIndex int) []int {
	var missing []int
	for i := range s.proposal.RedeemScript.PublicKeys() {
		if _, ok := s.perInput[inputIndex][i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Finalize assembles the fully-witnessed transaction once Ready reports
// true. It fails if any input has not yet reached quorum.
func (s *SignatureSet) Finalize() (btc.Tx, error) {
	if !s.Ready() {
		return btc.Tx{}, ChainBroken{Reason: "not all inputs have reached quorum"}
	}
	signed := s.proposal.Tx.Clone()
	msg := signed.MsgTx()
	for i := range s.perInput {
		witness, err := s.proposal.RedeemScript.SpendWitness(s.perInput[i])
		if err != nil {
			return btc.Tx{}, err
		}
		msg.TxIn[i].Witness = witness
	}
	return signed, nil
}

// ScriptError re-exports btc.ScriptError so callers signing proposals don't
// need to import package btc solely to type-switch on it.
type ScriptError = btc.ScriptError

// Clone returns a deep copy whose perInput maps share no storage with s, so
// SignInput on either set after cloning never corrupts the other. The
// underlying proposal is immutable once built and safe to share by value.
func (s *SignatureSet) Clone() *SignatureSet {
	perInput := make([]map[int]btc.InputSignature, len(s.perInput))
	for i, m := range s.perInput {
		cp := make(map[int]btc.InputSignature, len(m))
		for k, v := range m {
			cp[k] = v
		}
		perInput[i] = cp
	}
	return &SignatureSet{proposal: s.proposal, perInput: perInput}
}
