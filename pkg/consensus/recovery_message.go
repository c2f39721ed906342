package consensus

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

type (
	// recoveryMessage lets a validator that missed part of a round catch
	// up: the compacted form of every message its sender has collected so
	// far for the round, enough for the receiver to reconstruct full
	// Payloads for each without needing the original witnesses resent in
	// full.
	recoveryMessage struct {
		preparationHash     *util.Uint256
		preparationPayloads []*preparationCompact
		commitPayloads      []*commitCompact
		changeViewPayloads  []*changeViewCompact
		prepareRequest      *message
	}

	changeViewCompact struct {
		ValidatorIndex     uint8
		OriginalViewNumber byte
		Timestamp          uint64
		InvocationScript   []byte
	}

	commitCompact struct {
		ViewNumber       byte
		ValidatorIndex   uint8
		Signature        [signatureSize]byte
		InvocationScript []byte
	}

	preparationCompact struct {
		ValidatorIndex   uint8
		InvocationScript []byte
	}
)

// DecodeBinary implements the io.Serializable interface.
func (m *recoveryMessage) DecodeBinary(r *io.BinReader) {
	r.ReadArray(&m.changeViewPayloads)

	var hasReq = r.ReadBool()
	if hasReq {
		m.prepareRequest = new(message)
		m.prepareRequest.DecodeBinary(r)
		if r.Err == nil && m.prepareRequest.Type != prepareRequestType {
			r.Err = errors.New("consensus: recovery message prepareRequest has wrong type")
			return
		}
	} else {
		l := r.ReadVarUint()
		if l != 0 {
			if l == util.Uint256Size {
				m.preparationHash = new(util.Uint256)
				r.ReadBytes(m.preparationHash[:])
			} else {
				r.Err = errors.New("consensus: invalid preparation hash length")
			}
		} else {
			m.preparationHash = nil
		}
	}

	r.ReadArray(&m.preparationPayloads)
	r.ReadArray(&m.commitPayloads)
}

// EncodeBinary implements the io.Serializable interface.
func (m *recoveryMessage) EncodeBinary(w *io.BinWriter) {
	w.WriteArray(m.changeViewPayloads)

	hasReq := m.prepareRequest != nil
	w.WriteBool(hasReq)
	if hasReq {
		m.prepareRequest.EncodeBinary(w)
	} else {
		if m.preparationHash == nil {
			w.WriteVarUint(0)
		} else {
			w.WriteVarUint(util.Uint256Size)
			w.WriteBytes(m.preparationHash[:])
		}
	}

	w.WriteArray(m.preparationPayloads)
	w.WriteArray(m.commitPayloads)
}

// DecodeBinary implements the io.Serializable interface.
func (p *changeViewCompact) DecodeBinary(r *io.BinReader) {
	p.ValidatorIndex = r.ReadB()
	p.OriginalViewNumber = r.ReadB()
	p.Timestamp = r.ReadU64LE()
	p.InvocationScript = r.ReadVarBytes(1024)
}

// EncodeBinary implements the io.Serializable interface.
func (p *changeViewCompact) EncodeBinary(w *io.BinWriter) {
	w.WriteB(p.ValidatorIndex)
	w.WriteB(p.OriginalViewNumber)
	w.WriteU64LE(p.Timestamp)
	w.WriteVarBytes(p.InvocationScript)
}

// DecodeBinary implements the io.Serializable interface.
func (p *commitCompact) DecodeBinary(r *io.BinReader) {
	p.ViewNumber = r.ReadB()
	p.ValidatorIndex = r.ReadB()
	r.ReadBytes(p.Signature[:])
	p.InvocationScript = r.ReadVarBytes(1024)
}

// EncodeBinary implements the io.Serializable interface.
func (p *commitCompact) EncodeBinary(w *io.BinWriter) {
	w.WriteB(p.ViewNumber)
	w.WriteB(p.ValidatorIndex)
	w.WriteBytes(p.Signature[:])
	w.WriteVarBytes(p.InvocationScript)
}

// DecodeBinary implements the io.Serializable interface.
func (p *preparationCompact) DecodeBinary(r *io.BinReader) {
	p.ValidatorIndex = r.ReadB()
	p.InvocationScript = r.ReadVarBytes(1024)
}

// EncodeBinary implements the io.Serializable interface.
func (p *preparationCompact) EncodeBinary(w *io.BinWriter) {
	w.WriteB(p.ValidatorIndex)
	w.WriteVarBytes(p.InvocationScript)
}

// AddPayload records p, one of the round-state messages the recovering
// validator has collected so far, in its compacted form.
func (m *recoveryMessage) AddPayload(p *Payload) {
	validator := uint8(p.ValidatorIndex())

	switch p.Type() {
	case prepareRequestType:
		m.prepareRequest = &message{
			Type:       prepareRequestType,
			ViewNumber: p.ViewNumber(),
			payload:    p.GetPrepareRequest(),
		}
		h := p.Hash()
		m.preparationHash = &h
		m.preparationPayloads = append(m.preparationPayloads, &preparationCompact{
			ValidatorIndex:   validator,
			InvocationScript: p.Witness.InvocationScript,
		})
	case prepareResponseType:
		m.preparationPayloads = append(m.preparationPayloads, &preparationCompact{
			ValidatorIndex:   validator,
			InvocationScript: p.Witness.InvocationScript,
		})
		if m.preparationHash == nil {
			h := p.GetPrepareResponse().preparationHash
			m.preparationHash = &h
		}
	case changeViewType:
		m.changeViewPayloads = append(m.changeViewPayloads, &changeViewCompact{
			ValidatorIndex:     validator,
			OriginalViewNumber: p.ViewNumber(),
			Timestamp:          p.GetChangeView().timestamp,
			InvocationScript:   p.Witness.InvocationScript,
		})
	case commitType:
		m.commitPayloads = append(m.commitPayloads, &commitCompact{
			ValidatorIndex:   validator,
			ViewNumber:       p.ViewNumber(),
			Signature:        p.GetCommit().signature,
			InvocationScript: p.Witness.InvocationScript,
		})
	default:
	}
}

// GetPrepareRequest reconstructs the round's prepareRequest Payload from
// its compacted form, attributing it to primary among validators.
func (m *recoveryMessage) GetPrepareRequest(p *Payload, validators []*keys.PublicKey, primary uint16) *Payload {
	if m.prepareRequest == nil {
		return nil
	}

	var compact *preparationCompact
	for _, c := range m.preparationPayloads {
		if c != nil && c.ValidatorIndex == uint8(primary) {
			compact = c
			break
		}
	}
	if compact == nil {
		return nil
	}

	req := fromPayload(prepareRequestType, p, m.prepareRequest.payload)
	req.SetValidatorIndex(primary)
	req.Witness.InvocationScript = compact.InvocationScript
	req.Witness.VerificationScript = verificationScriptFor(uint8(primary), validators)

	return req
}

// GetPrepareResponses reconstructs every prepareResponse Payload recorded
// in m.
func (m *recoveryMessage) GetPrepareResponses(p *Payload, validators []*keys.PublicKey) []*Payload {
	if m.preparationHash == nil {
		return nil
	}

	ps := make([]*Payload, len(m.preparationPayloads))
	for i, resp := range m.preparationPayloads {
		r := fromPayload(prepareResponseType, p, &prepareResponse{
			preparationHash: *m.preparationHash,
		})
		r.SetValidatorIndex(uint16(resp.ValidatorIndex))
		r.Witness.InvocationScript = resp.InvocationScript
		r.Witness.VerificationScript = verificationScriptFor(resp.ValidatorIndex, validators)

		ps[i] = r
	}

	return ps
}

// GetChangeViews reconstructs every changeView Payload recorded in m.
func (m *recoveryMessage) GetChangeViews(p *Payload, validators []*keys.PublicKey) []*Payload {
	ps := make([]*Payload, len(m.changeViewPayloads))
	for i, cv := range m.changeViewPayloads {
		c := fromPayload(changeViewType, p, &changeView{
			newViewNumber: cv.OriginalViewNumber + 1,
			timestamp:     cv.Timestamp,
		})
		c.message.ViewNumber = cv.OriginalViewNumber
		c.SetValidatorIndex(uint16(cv.ValidatorIndex))
		c.Witness.InvocationScript = cv.InvocationScript
		c.Witness.VerificationScript = verificationScriptFor(cv.ValidatorIndex, validators)

		ps[i] = c
	}

	return ps
}

// GetCommits reconstructs every commit Payload recorded in m.
func (m *recoveryMessage) GetCommits(p *Payload, validators []*keys.PublicKey) []*Payload {
	ps := make([]*Payload, len(m.commitPayloads))
	for i, c := range m.commitPayloads {
		cc := fromPayload(commitType, p, &commit{signature: c.Signature})
		cc.message.ViewNumber = c.ViewNumber
		cc.SetValidatorIndex(uint16(c.ValidatorIndex))
		cc.Witness.InvocationScript = c.InvocationScript
		cc.Witness.VerificationScript = verificationScriptFor(c.ValidatorIndex, validators)

		ps[i] = cc
	}

	return ps
}

// PreparationHash returns the hash the round's validators are preparing
// around, if one has been seen yet.
func (m *recoveryMessage) PreparationHash() *util.Uint256 {
	return m.preparationHash
}

func verificationScriptFor(i uint8, validators []*keys.PublicKey) []byte {
	if int(i) >= len(validators) {
		return nil
	}
	return keys.CreateSignatureRedeemScript(validators[i])
}

func fromPayload(t messageType, recovery *Payload, p io.Serializable) *Payload {
	cp := &Payload{
		message: &message{
			Type:       t,
			ViewNumber: recovery.message.ViewNumber,
			payload:    p,
		},
		version:  recovery.version,
		prevHash: recovery.prevHash,
		height:   recovery.height,
	}
	// Refresh data eagerly so a reconstructed Payload compares equal to one
	// whose data was filled as a side effect of encoding or hashing.
	cp.encodeData()
	return cp
}
