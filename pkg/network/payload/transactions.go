package payload

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/io"
)

// MaxBatchSize is the maximum number of transactions a single
// Transactions payload may batch, e.g. in response to GetData.
const MaxBatchSize = 500

// Transactions is a batch of full transactions sent in response to a
// GetData request for transaction inventory.
type Transactions struct {
	Values []*transaction.Transaction
}

// EncodeBinary implements the io.Serializable interface.
func (p *Transactions) EncodeBinary(w *io.BinWriter) {
	w.WriteArray(p.Values)
}

// DecodeBinary implements the io.Serializable interface.
func (p *Transactions) DecodeBinary(r *io.BinReader) {
	r.ReadArray(&p.Values, MaxBatchSize)
	if r.Err != nil {
		return
	}
	if len(p.Values) == 0 {
		r.Err = errors.New("payload: empty transactions batch")
	}
}
