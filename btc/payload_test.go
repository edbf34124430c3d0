package btc

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestAnchoringPayloadRoundTrip(t *testing.T) {
	hash, err := NewHash(fixedSeed(9))
	require.NoError(t, err)
	p := NewAnchoringPayload(12345, hash)

	encoded := p.Encode()
	require.Len(t, encoded, payloadV1Len)

	decoded, err := DecodeAnchoringPayload(encoded)
	require.NoError(t, err)
	require.Equal(t, p.Version, decoded.Version)
	require.Equal(t, p.HostBlockHeight, decoded.HostBlockHeight)
	require.True(t, p.HostBlockHash.Equal(decoded.HostBlockHash))
	require.False(t, decoded.HasRecovery)
}

func TestAnchoringPayloadWithRecovery(t *testing.T) {
	hash, _ := NewHash(fixedSeed(1))
	recovery, _ := NewHash(fixedSeed(2))
	p := AnchoringPayload{
		Version:         PayloadVersion,
		HostBlockHeight: 10,
		HostBlockHash:   hash,
		HasRecovery:     true,
		RecoveryTxId:    recovery,
	}
	encoded := p.Encode()
	require.Len(t, encoded, payloadV2Len)

	decoded, err := DecodeAnchoringPayload(encoded)
	require.NoError(t, err)
	require.True(t, decoded.HasRecovery)
	require.True(t, decoded.RecoveryTxId.Equal(recovery))
}

func TestExtractAnchoringPayloadDistinguishesFundingTx(t *testing.T) {
	hash, _ := NewHash(fixedSeed(5))
	payload := NewAnchoringPayload(500, hash)
	opReturn, err := BuildOpReturnScript(payload)
	require.NoError(t, err)

	anchoringMsg := wire.NewMsgTx(wire.TxVersion)
	anchoringMsg.AddTxOut(wire.NewTxOut(1000, []byte{0x00, 0x14}))
	anchoringMsg.AddTxOut(wire.NewTxOut(0, opReturn))
	anchoringTx := NewTx(anchoringMsg)

	got, ok := anchoringTx.ExtractAnchoringPayload()
	require.True(t, ok)
	require.Equal(t, payload.HostBlockHeight, got.HostBlockHeight)

	fundingMsg := wire.NewMsgTx(wire.TxVersion)
	fundingMsg.AddTxOut(wire.NewTxOut(5000, []byte{0x00, 0x20}))
	fundingTx := NewTx(fundingMsg)

	_, ok = fundingTx.ExtractAnchoringPayload()
	require.False(t, ok)
}

func TestDecodeAnchoringPayloadRejectsBadMagic(t *testing.T) {
	bad := make([]byte, payloadV1Len)
	_, err := DecodeAnchoringPayload(bad)
	require.Error(t, err)
}
