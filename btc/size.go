package btc

// Size estimation constants for the anchoring transaction's fixed shape:
// N funding-style P2WSH inputs, one P2WSH payment output and one OP_RETURN
// output. Generalizes lnwallet/size.go's named-constant style (there fixed
// to a 2-of-2 commitment transaction) to a parametric M-of-N multisig.
const (
	// p2wshOutputSize is the non-witness size, in bytes, of a P2WSH output:
	// 8-byte value + 1-byte varint length + 34-byte P2WSH pkScript.
	p2wshOutputSize = 8 + 1 + 34

	// inputSize is the non-witness size, in bytes, of an input spending a
	// P2WSH output: 32-byte prev hash + 4-byte prev index + 1-byte empty
	// scriptSig length + 4-byte sequence.
	inputSize = 32 + 4 + 1 + 4

	// txOverhead accounts for the 4-byte version, 2-byte segwit marker and
	// flag, 4-byte locktime, and the varint counts for inputs/outputs.
	txOverhead = 4 + 2 + 4 + 1 + 1

	// signatureSize is the maximum size of a DER signature plus sighash
	// byte, matching the 73-byte figure spec §9 names.
	signatureSize = 73

	// opReturnOutputSize is the non-witness size of the anchoring payload
	// output: 8-byte value + 1-byte varint length + OP_RETURN + push-opcode
	// + up to 78 bytes of payload.
	opReturnOutputSize = 8 + 1 + 1 + 2 + payloadV2Len
)

// witnessSize estimates the per-input witness size for an M-of-N multisig
// spend: one empty stack element, M signatures, and the redeem script,
// matching spec §9's `73*M + 34*N + overhead` estimator.
func witnessSize(threshold, numKeys int) int64 {
	const perSigOverhead = 1   // push-length byte per signature
	const perKeyOverhead = 34  // conservative per-key contribution to script size
	const stackCountByte = 1   // witness element count
	const emptyElemByte = 1    // the leading empty element
	const scriptPushLen = 3    // varint-ish overhead for the trailing script push

	return int64(stackCountByte+emptyElemByte) +
		int64(threshold)*int64(signatureSize+perSigOverhead) +
		int64(numKeys)*int64(perKeyOverhead) +
		int64(scriptPushLen)
}

// EstimateVSize estimates the virtual size, in vbytes, of an anchoring
// transaction with numInputs P2WSH inputs spent under an M-of-N redeem
// script, a single P2WSH payment output and a single OP_RETURN output.
//
// Weight = 4*baseSize + witnessSize (BIP141); vsize = ceil(weight/4). Because
// every input shares the same script shape here, this simplifies to
// baseSize + witnessSize/4, rounded up.
func EstimateVSize(numInputs, threshold, numKeys int) int64 {
	baseSize := int64(txOverhead) +
		int64(numInputs)*int64(inputSize) +
		int64(p2wshOutputSize) + int64(opReturnOutputSize)

	totalWitness := int64(numInputs) * witnessSize(threshold, numKeys)

	weight := 4*baseSize + totalWitness
	vsize := weight / 4
	if weight%4 != 0 {
		vsize++
	}
	return vsize
}

// EstimateFee returns the total fee, in satoshis, for an anchoring
// transaction of the given shape at the supplied fee rate (satoshis per
// vbyte).
func EstimateFee(numInputs, threshold, numKeys int, feeRatePerVByte int64) int64 {
	return EstimateVSize(numInputs, threshold, numKeys) * feeRatePerVByte
}

// DustThreshold is the minimum value, in satoshis, this service treats an
// output as economically spendable. It mirrors Bitcoin Core's default dust
// relay threshold for a P2WSH output at 3 sat/vbyte; the anchoring builder
// uses it as a floor on top of the computed fee (spec §4.3).
const DustThreshold = 294
