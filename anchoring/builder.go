package anchoring

import (
	"github.com/bitanchor/anchoring/btc"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Proposal is a fully-built, unsigned anchoring transaction together with
// the information every validator needs to compute its own BIP143 sighash
// per input and to verify the proposal independently (spec §4, §4.3).
type Proposal struct {
	// Tx is the unsigned transaction: inputs with empty witnesses, a
	// payment output and an OP_RETURN payload output.
	Tx btc.Tx

	// InputValues holds, in input order, the value of the output each
	// input spends. Required alongside RedeemScript to compute each
	// input's BIP143 sighash.
	InputValues []int64

	// RedeemScript is the M-of-N witness script every input spends
	// through.
	RedeemScript btc.RedeemScript

	// Payload is the decoded anchoring payload carried by the final
	// output, provided for convenience.
	Payload btc.AnchoringPayload

	// ConsumedFunding lists the funding-queue entries (beyond the tip
	// input, if any) this proposal consumes, in the order consumed.
	ConsumedFunding []FundingEntry
}

// buildableInput is a candidate input ordered by priority: the current
// chain tip first (if any), then funding entries in FIFO order. This
// generalizes sweep/txgenerator.go's getPositiveYieldInputs /
// generateInputPartitionings accumulation loop, which walks inputs ordered
// by descending economic yield until the running total clears its target;
// here the order is fixed by protocol (tip, then FIFO funds) rather than by
// yield, but the accumulate-until-covered shape is the same.
type buildableInput struct {
	txID    btc.TxId
	vout    uint32
	value   int64
	funding *FundingEntry // nil for the tip input
}

// BuildProposal derives the next anchoring transaction proposal from the
// current chain tip, funding queue and the configuration active at
// targetHeight. Every validator that runs this against the same chain,
// queue and configuration state produces byte-identical output, which is
// what lets the chain-update task dispense with a gossip round (spec §4).
func BuildProposal(chain *Chain, funds *FundingQueue, cfg Configuration, targetHeight uint64, targetHash btc.Hash) (Proposal, error) {
	redeemScript, err := cfg.RedeemScript()
	if err != nil {
		return Proposal{}, err
	}
	pkScript, err := redeemScript.PkScript()
	if err != nil {
		return Proposal{}, err
	}

	var candidates []buildableInput
	if tip, ok := chain.Tip(); ok {
		candidates = append(candidates, buildableInput{
			txID:  tip.Tx.Id(),
			vout:  0,
			value: tip.Tx.OutputValue(0),
		})
	}
	queued := funds.Peek(funds.Len())
	for i := range queued {
		f := queued[i]
		candidates = append(candidates, buildableInput{
			txID:    f.TxId,
			vout:    f.Vout,
			value:   f.Value,
			funding: &queued[i],
		})
	}
	if len(candidates) == 0 {
		return Proposal{}, NoInitialFunds{}
	}

	payload := btc.NewAnchoringPayload(targetHeight, targetHash)
	opReturnScript, err := btc.BuildOpReturnScript(payload)
	if err != nil {
		return Proposal{}, err
	}

	threshold := redeemScript.Threshold()
	numKeys := len(redeemScript.PublicKeys())

	var (
		selected []buildableInput
		total    int64
	)
	for _, cand := range candidates {
		selected = append(selected, cand)
		total += cand.value

		fee := btc.EstimateFee(len(selected), threshold, numKeys, cfg.FeeRatePerVByte)
		if total >= fee+btc.DustThreshold {
			return finishProposal(selected, total, fee, pkScript, opReturnScript, redeemScript, payload)
		}
	}

	fee := btc.EstimateFee(len(selected), threshold, numKeys, cfg.FeeRatePerVByte)
	return Proposal{}, InsufficientFunds{Balance: total, Needed: fee + btc.DustThreshold}
}

// finishProposal assembles the wire transaction once a covering set of
// inputs has been selected: output 0 pays the change (inputs total minus
// fee) back to the multi-sig address, output 1 carries the OP_RETURN
// payload, sequence is the maximum (no relative timelock) and locktime is
// zero, matching spec §4.3.
func finishProposal(
	selected []buildableInput,
	total, fee int64,
	pkScript, opReturnScript []byte,
	redeemScript btc.RedeemScript,
	payload btc.AnchoringPayload,
) (Proposal, error) {
	msg := wire.NewMsgTx(wire.TxVersion)

	inputValues := make([]int64, 0, len(selected))
	var consumed []FundingEntry
	for _, in := range selected {
		hash := chainhash.Hash(in.txID)
		outpoint := wire.NewOutPoint(&hash, in.vout)
		txIn := wire.NewTxIn(outpoint, nil, nil)
		txIn.Sequence = wire.MaxTxInSequenceNum
		msg.AddTxIn(txIn)
		inputValues = append(inputValues, in.value)
		if in.funding != nil {
			consumed = append(consumed, *in.funding)
		}
	}

	msg.AddTxOut(wire.NewTxOut(total-fee, pkScript))
	msg.AddTxOut(wire.NewTxOut(0, opReturnScript))
	msg.LockTime = 0

	return Proposal{
		Tx:              btc.NewTx(msg),
		InputValues:     inputValues,
		RedeemScript:    redeemScript,
		Payload:         payload,
		ConsumedFunding: consumed,
	}, nil
}

// SigHash computes the BIP143 witness sighash for input index of p, ready
// for every validator's private key to sign independently with SigHashAll.
func (p Proposal) SigHash(index int) ([]byte, error) {
	msg := p.Tx.MsgTx()
	redeemBytes := p.RedeemScript.Bytes()
	fetcher := txscript.NewCannedPrevOutputFetcher(nil, 0)
	sigHashes := txscript.NewTxSigHashes(msg, fetcher)
	return txscript.CalcWitnessSigHash(redeemBytes, sigHashes, txscript.SigHashAll, msg, index, p.InputValues[index])
}
