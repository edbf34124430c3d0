package btc

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/txscript"
)

// payloadMagic identifies this service's OP_RETURN payloads among the many
// other protocols that also embed data in OP_RETURN outputs.
var payloadMagic = [4]byte{0xA3, 0x6C, 0x48, 0x01}

// PayloadVersion is the only payload version this service emits. Version 2
// additionally carries a 32-byte recovery field and is accepted on input
// only (spec §6).
const PayloadVersion = 1

const (
	payloadV1Len = 4 + 1 + 1 + 8 + 32 // magic, version, reserved, height, hash
	payloadV2Len = payloadV1Len + 32  // + recovery field
)

// AnchoringPayload is the fixed layout embedded in an anchoring transaction's
// final OP_RETURN output, committing a host-chain block into Bitcoin.
type AnchoringPayload struct {
	Version          uint8
	HostBlockHeight  uint64
	HostBlockHash    Hash
	HasRecovery      bool
	RecoveryTxId     Hash
}

// NewAnchoringPayload builds a version-1 payload; this service never emits
// the optional recovery field.
func NewAnchoringPayload(height uint64, blockHash Hash) AnchoringPayload {
	return AnchoringPayload{
		Version:         PayloadVersion,
		HostBlockHeight: height,
		HostBlockHash:   blockHash,
	}
}

// Encode serializes the payload to its OP_RETURN data bytes (after the
// OP_RETURN opcode and length prefix).
func (p AnchoringPayload) Encode() []byte {
	size := payloadV1Len
	if p.HasRecovery {
		size = payloadV2Len
	}
	buf := make([]byte, size)
	copy(buf[0:4], payloadMagic[:])
	buf[4] = p.Version
	buf[5] = 0 // reserved
	binary.LittleEndian.PutUint64(buf[6:14], p.HostBlockHeight)
	copy(buf[14:46], p.HostBlockHash[:])
	if p.HasRecovery {
		copy(buf[46:78], p.RecoveryTxId[:])
	}
	return buf
}

// DecodeAnchoringPayload parses OP_RETURN data produced by Encode, or the
// legacy version-2 layout that additionally carries a recovery field.
func DecodeAnchoringPayload(data []byte) (AnchoringPayload, error) {
	if len(data) != payloadV1Len && len(data) != payloadV2Len {
		return AnchoringPayload{}, InvalidEncoding{
			What: "anchoring payload", Reason: "unexpected length",
		}
	}
	if !bytes.Equal(data[0:4], payloadMagic[:]) {
		return AnchoringPayload{}, InvalidEncoding{
			What: "anchoring payload", Reason: "magic mismatch",
		}
	}
	p := AnchoringPayload{
		Version:         data[4],
		HostBlockHeight: binary.LittleEndian.Uint64(data[6:14]),
	}
	copy(p.HostBlockHash[:], data[14:46])
	if len(data) == payloadV2Len {
		p.HasRecovery = true
		copy(p.RecoveryTxId[:], data[46:78])
	}
	return p, nil
}

// BuildOpReturnScript wraps Encode's output in a standard OP_RETURN pkScript.
func BuildOpReturnScript(p AnchoringPayload) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_RETURN)
	bldr.AddData(p.Encode())
	return bldr.Script()
}

// ExtractAnchoringPayload inspects a transaction's final output and, if it is
// an OP_RETURN carrying a recognized payload, decodes it. This is what
// distinguishes an anchoring transaction from a funding transaction (spec
// §3, AnchoringPayload).
func (t Tx) ExtractAnchoringPayload() (AnchoringPayload, bool) {
	if t.NumOutputs() == 0 {
		return AnchoringPayload{}, false
	}
	script := t.OutputScript(t.NumOutputs() - 1)
	data, ok := opReturnData(script)
	if !ok {
		return AnchoringPayload{}, false
	}
	payload, err := DecodeAnchoringPayload(data)
	if err != nil {
		return AnchoringPayload{}, false
	}
	return payload, true
}

// opReturnData extracts the pushed data from a script of the form
// `OP_RETURN <data>`, returning false for any other script shape.
func opReturnData(script []byte) ([]byte, bool) {
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_RETURN {
		return nil, false
	}
	if !tokenizer.Next() {
		return nil, false
	}
	data := tokenizer.Data()
	if tokenizer.Next() {
		// More than one push after OP_RETURN: not our layout.
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}
