package consensus

import (
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// prepareRequest is sent once by the round's proposer, naming the block
// it wants the other validators to accept: the chain position it extends,
// a timestamp and nonce for the new block header, and the transactions to
// include.
type prepareRequest struct {
	version          uint8
	prevHash         util.Uint256
	stateRootEnabled bool
	stateRoot        util.Uint256

	timestamp         uint64
	nonce             uint64
	transactionHashes []util.Uint256
}

// Version returns the block version the proposer claims.
func (p *prepareRequest) Version() uint8 { return p.version }

// SetVersion sets the block version the proposer claims.
func (p *prepareRequest) SetVersion(v uint8) { p.version = v }

// PrevHash returns the hash of the block the proposal extends.
func (p *prepareRequest) PrevHash() util.Uint256 { return p.prevHash }

// SetPrevHash sets the hash of the block the proposal extends.
func (p *prepareRequest) SetPrevHash(h util.Uint256) { p.prevHash = h }

// StateRootEnabled reports whether the proposal carries a state root.
func (p *prepareRequest) StateRootEnabled() bool { return p.stateRootEnabled }

// SetStateRootEnabled sets whether the proposal carries a state root.
func (p *prepareRequest) SetStateRootEnabled(b bool) { p.stateRootEnabled = b }

// StateRoot returns the state root the proposer claims for the previous
// block, when StateRootEnabled is set.
func (p *prepareRequest) StateRoot() util.Uint256 { return p.stateRoot }

// SetStateRoot sets the state root the proposer claims for the previous
// block.
func (p *prepareRequest) SetStateRoot(h util.Uint256) { p.stateRoot = h }

// Timestamp returns the nanosecond-precision time the proposer picked for
// the new block, reconstructed from the millisecond value on the wire.
func (p *prepareRequest) Timestamp() uint64 { return p.timestamp * nsInMs }

// SetTimestamp sets the proposed block's timestamp, given in nanoseconds.
func (p *prepareRequest) SetTimestamp(ts uint64) { p.timestamp = ts / nsInMs }

// Nonce returns the proposed block's nonce.
func (p *prepareRequest) Nonce() uint64 { return p.nonce }

// SetNonce sets the proposed block's nonce.
func (p *prepareRequest) SetNonce(nonce uint64) { p.nonce = nonce }

// TransactionHashes returns the hashes of the transactions the proposer
// wants included, in block order.
func (p *prepareRequest) TransactionHashes() []util.Uint256 { return p.transactionHashes }

// SetTransactionHashes sets the hashes of the transactions to include.
func (p *prepareRequest) SetTransactionHashes(hs []util.Uint256) { p.transactionHashes = hs }

// EncodeBinary implements the io.Serializable interface.
func (p *prepareRequest) EncodeBinary(w *io.BinWriter) {
	w.WriteB(p.version)
	w.WriteBytes(p.prevHash.BytesBE())
	w.WriteBool(p.stateRootEnabled)
	if p.stateRootEnabled {
		w.WriteBytes(p.stateRoot.BytesBE())
	}
	w.WriteU64LE(p.timestamp)
	w.WriteU64LE(p.nonce)
	w.WriteArray(p.transactionHashes)
}

// DecodeBinary implements the io.Serializable interface.
func (p *prepareRequest) DecodeBinary(r *io.BinReader) {
	p.version = r.ReadB()
	var prevHashBytes [util.Uint256Size]byte
	r.ReadBytes(prevHashBytes[:])
	if r.Err != nil {
		return
	}
	prevHash, err := util.Uint256DecodeBytesBE(prevHashBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	p.prevHash = prevHash
	p.stateRootEnabled = r.ReadBool()
	if p.stateRootEnabled {
		var stateRootBytes [util.Uint256Size]byte
		r.ReadBytes(stateRootBytes[:])
		if r.Err != nil {
			return
		}
		stateRoot, err := util.Uint256DecodeBytesBE(stateRootBytes[:])
		if err != nil {
			r.Err = err
			return
		}
		p.stateRoot = stateRoot
	}
	p.timestamp = r.ReadU64LE()
	p.nonce = r.ReadU64LE()
	r.ReadArray(&p.transactionHashes)
}
