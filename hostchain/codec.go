package hostchain

import (
	"bytes"
	"encoding/gob"

	"github.com/bitanchor/anchoring/anchoring"
	"github.com/bitanchor/anchoring/btc"
)

// The DTOs below give State a plain, exported-field shape gob can walk
// directly; State's own fields are mostly unexported or hold pointers into
// btcec/btcd's internal representation (a compressed pubkey, a parsed
// transaction) that gob cannot reconstruct on its own. This bespoke
// snapshot codec is the hand-rolled-for-our-own-shape case the project's
// third-party-first rule still allows a stdlib tool for: there is no
// general-purpose third-party serializer that understands anchoring.State
// without these conversions written by hand regardless, and protobuf code
// generation is unavailable in this environment, so gob (stdlib) carries
// the DTO's own wire form while go.etcd.io/etcd/client/v3 carries the
// actual distributed storage and CAS semantics (see etcdledger.go).

type fundingDTO struct {
	TxId  [32]byte
	Vout  uint32
	Value int64
}

func toFundingDTO(f anchoring.FundingEntry) fundingDTO {
	return fundingDTO{TxId: f.TxId, Vout: f.Vout, Value: f.Value}
}

func fromFundingDTO(d fundingDTO) anchoring.FundingEntry {
	return anchoring.FundingEntry{TxId: d.TxId, Vout: d.Vout, Value: d.Value}
}

type configEntryDTO struct {
	ActivationHeight uint64
	Validators       [][]byte
	Interval         uint64
	FeeRatePerVByte  int64
	Net              int
	InitialFunding   []byte
}

func toConfigEntryDTO(e anchoring.ConfigEntry) configEntryDTO {
	d := configEntryDTO{
		ActivationHeight: e.ActivationHeight,
		Interval:         e.Config.Interval,
		FeeRatePerVByte:  e.Config.FeeRatePerVByte,
		Net:              int(e.Config.Net),
	}
	for _, v := range e.Config.Validators {
		d.Validators = append(d.Validators, v.Bytes())
	}
	if e.Config.InitialFunding != nil {
		d.InitialFunding = e.Config.InitialFunding.Bytes()
	}
	return d
}

func fromConfigEntryDTO(d configEntryDTO) (anchoring.ConfigEntry, error) {
	cfg := anchoring.Configuration{
		Interval:        d.Interval,
		FeeRatePerVByte: d.FeeRatePerVByte,
		Net:             anchoring.Network(d.Net),
	}
	for _, b := range d.Validators {
		pub, err := btc.NewPublicKey(b)
		if err != nil {
			return anchoring.ConfigEntry{}, err
		}
		cfg.Validators = append(cfg.Validators, pub)
	}
	if d.InitialFunding != nil {
		tx, err := btc.ParseTx(d.InitialFunding)
		if err != nil {
			return anchoring.ConfigEntry{}, err
		}
		cfg.InitialFunding = &tx
	}
	return anchoring.ConfigEntry{ActivationHeight: d.ActivationHeight, Config: cfg}, nil
}

type chainEntryDTO struct {
	TxBytes       []byte
	PayloadHeight uint64
	PayloadHash   [32]byte
	SpentFunding  []fundingDTO
}

type proposalDTO struct {
	TxBytes         []byte
	InputValues     []int64
	RedeemKeys      [][]byte
	PayloadHeight   uint64
	PayloadHash     [32]byte
	ConsumedFunding []fundingDTO
	ConfigIndex     int
	// Signatures[inputIndex][validatorIdx] = raw signature bytes.
	Signatures map[int]map[int][]byte
}

type stateDTO struct {
	Configs             []configEntryDTO
	Chain               []chainEntryDTO
	Funds               []fundingDTO
	Height              uint64
	LastConfigIndex     int
	Proposal            *proposalDTO
	Lects               map[int][][32]byte
	ProcessedFunding    [][32]byte
	ProcessedSignatures [][32]byte
}

// MarshalState encodes a State snapshot to bytes.
func MarshalState(s *State) ([]byte, error) {
	dto := stateDTO{
		Height:          s.Height,
		LastConfigIndex: s.LastConfigIndex,
		Lects:           make(map[int][][32]byte, len(s.Lects)),
	}
	// ConfigHistory exposes no raw iterator; walk entries via
	// EntryAt/Next starting from height 0.
	entry, idx := s.Configs.EntryAt(0)
	dto.Configs = append(dto.Configs, toConfigEntryDTO(entry))
	for {
		next, ok := s.Configs.Next(idx)
		if !ok {
			break
		}
		dto.Configs = append(dto.Configs, toConfigEntryDTO(next))
		idx++
	}

	for _, ce := range s.Chain.Entries() {
		cd := chainEntryDTO{
			TxBytes:       ce.Tx.Bytes(),
			PayloadHeight: ce.PayloadHeight,
			PayloadHash:   ce.PayloadHash,
		}
		for _, f := range ce.SpentFundingOutputs {
			cd.SpentFunding = append(cd.SpentFunding, toFundingDTO(f))
		}
		dto.Chain = append(dto.Chain, cd)
	}

	for _, f := range s.Funds.Peek(s.Funds.Len()) {
		dto.Funds = append(dto.Funds, toFundingDTO(f))
	}

	if s.Proposal != nil {
		p := s.Proposal
		pd := &proposalDTO{
			TxBytes:       p.Proposal.Tx.Bytes(),
			InputValues:   p.Proposal.InputValues,
			PayloadHeight: p.Proposal.Payload.HostBlockHeight,
			PayloadHash:   p.Proposal.Payload.HostBlockHash,
			ConfigIndex:   p.ConfigIndex,
			Signatures:    make(map[int]map[int][]byte),
		}
		for _, k := range p.Proposal.RedeemScript.PublicKeys() {
			pd.RedeemKeys = append(pd.RedeemKeys, k.Bytes())
		}
		for _, f := range p.Proposal.ConsumedFunding {
			pd.ConsumedFunding = append(pd.ConsumedFunding, toFundingDTO(f))
		}
		// Recover which validators signed each input: the redeem
		// script's key count bounds validator indices, and any index
		// absent from MissingValidators has signed.
		for i := 0; i < p.Proposal.Tx.NumInputs(); i++ {
			pd.Signatures[i] = make(map[int][]byte)
			missing := make(map[int]bool)
			for _, m := range p.Signatures.MissingValidators(i) {
				missing[m] = true
			}
			for vIdx := range p.Proposal.RedeemScript.PublicKeys() {
				if missing[vIdx] {
					continue
				}
				sig, ok := p.Signatures.SignatureFor(i, vIdx)
				if ok {
					pd.Signatures[i][vIdx] = sig.Bytes()
				}
			}
		}
		dto.Proposal = pd
	}

	for v, txids := range s.Lects {
		var encoded [][32]byte
		for _, id := range txids {
			encoded = append(encoded, id)
		}
		dto.Lects[v] = encoded
	}
	for h := range s.ProcessedFunding {
		dto.ProcessedFunding = append(dto.ProcessedFunding, h)
	}
	for h := range s.ProcessedSignatures {
		dto.ProcessedSignatures = append(dto.ProcessedSignatures, h)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(dto); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalState decodes bytes produced by MarshalState.
func UnmarshalState(b []byte) (*State, error) {
	var dto stateDTO
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&dto); err != nil {
		return nil, err
	}

	if len(dto.Configs) == 0 {
		return nil, btc.InvalidEncoding{What: "state", Reason: "no configurations"}
	}
	genesis, err := fromConfigEntryDTO(dto.Configs[0])
	if err != nil {
		return nil, err
	}
	state := NewState(genesis.Config)
	for _, cd := range dto.Configs[1:] {
		entry, err := fromConfigEntryDTO(cd)
		if err != nil {
			return nil, err
		}
		state.Configs.Add(entry.ActivationHeight, entry.Config)
	}

	for _, cd := range dto.Chain {
		tx, err := btc.ParseTx(cd.TxBytes)
		if err != nil {
			return nil, err
		}
		var spent []anchoring.FundingEntry
		for _, f := range cd.SpentFunding {
			spent = append(spent, fromFundingDTO(f))
		}
		if err := state.Chain.Append(anchoring.ChainEntry{
			Tx: tx, PayloadHeight: cd.PayloadHeight, PayloadHash: cd.PayloadHash, SpentFundingOutputs: spent,
		}); err != nil {
			return nil, err
		}
	}

	for _, f := range dto.Funds {
		state.Funds.Push(fromFundingDTO(f))
	}

	state.Height = dto.Height
	state.LastConfigIndex = dto.LastConfigIndex

	if dto.Proposal != nil {
		pd := dto.Proposal
		tx, err := btc.ParseTx(pd.TxBytes)
		if err != nil {
			return nil, err
		}
		var keys []btc.PublicKey
		for _, b := range pd.RedeemKeys {
			pub, err := btc.NewPublicKey(b)
			if err != nil {
				return nil, err
			}
			keys = append(keys, pub)
		}
		redeemScript, err := btc.NewRedeemScript(keys)
		if err != nil {
			return nil, err
		}
		var consumed []anchoring.FundingEntry
		for _, f := range pd.ConsumedFunding {
			consumed = append(consumed, fromFundingDTO(f))
		}
		proposal := anchoring.Proposal{
			Tx:              tx,
			InputValues:     pd.InputValues,
			RedeemScript:    redeemScript,
			Payload:         btc.NewAnchoringPayload(pd.PayloadHeight, pd.PayloadHash),
			ConsumedFunding: consumed,
		}
		sigSet := anchoring.NewSignatureSet(proposal)
		for inputIdx, byValidator := range pd.Signatures {
			for vIdx, sigBytes := range byValidator {
				sig, err := btc.NewInputSignature(sigBytes)
				if err != nil {
					return nil, err
				}
				if err := sigSet.SignInput(inputIdx, vIdx, keys[vIdx], sig); err != nil {
					return nil, err
				}
			}
		}
		state.Proposal = &OpenProposal{Proposal: proposal, ConfigIndex: pd.ConfigIndex, Signatures: sigSet}
	}

	state.Lects = make(map[int][]btc.TxId, len(dto.Lects))
	for v, ids := range dto.Lects {
		var txids []btc.TxId
		for _, id := range ids {
			txids = append(txids, btc.TxId(id))
		}
		state.Lects[v] = txids
	}
	for _, h := range dto.ProcessedFunding {
		state.ProcessedFunding[btc.Hash(h)] = true
	}
	for _, h := range dto.ProcessedSignatures {
		state.ProcessedSignatures[btc.Hash(h)] = true
	}

	return state, nil
}
