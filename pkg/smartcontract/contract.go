package smartcontract

import (
	"bytes"
	"errors"
	"sort"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/vm/emit"
)

// checkMultisigAPI is the interop method the multisig redeem script
// delegates signature verification to.
const checkMultisigAPI = "System.Crypto.CheckMultisig"

// ErrInvalidMultisigParams is returned by CreateMultiSigRedeemScript when
// m or the validator count is out of the accepted [1, len(pubs)] range.
var ErrInvalidMultisigParams = errors.New("smartcontract: invalid multisig parameters")

// CreateMultiSigRedeemScript builds a verification script requiring m
// valid signatures out of the given (unsorted) set of public keys.
func CreateMultiSigRedeemScript(m int, pubs []*keys.PublicKey) ([]byte, error) {
	n := len(pubs)
	if m <= 0 || m > n || n == 0 {
		return nil, ErrInvalidMultisigParams
	}

	sorted := make([]*keys.PublicKey, n)
	copy(sorted, pubs)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Bytes(), sorted[j].Bytes()) < 0
	})

	buf := io.NewBufBinWriter()
	emit.Int(buf.BinWriter, int64(m))
	for _, pub := range sorted {
		emit.Bytes(buf.BinWriter, pub.Bytes())
	}
	emit.Int(buf.BinWriter, int64(n))
	emit.Syscall(buf.BinWriter, checkMultisigAPI)
	if buf.Err != nil {
		return nil, buf.Err
	}
	return buf.Bytes(), nil
}

// CreateSignatureRedeemScript builds the verification script for a
// single-signature account controlled by pub.
func CreateSignatureRedeemScript(pub *keys.PublicKey) []byte {
	return keys.CreateSignatureRedeemScript(pub)
}

// CreateDefaultMultiSigRedeemScript builds the standard M-of-N committee
// style redeem script, where M is chosen as the smallest majority
// (n - (n-1)/3) of n validators, matching the network's default
// consensus/committee account derivation.
func CreateDefaultMultiSigRedeemScript(pubs []*keys.PublicKey) ([]byte, error) {
	n := len(pubs)
	m := n - (n-1)/3
	return CreateMultiSigRedeemScript(m, pubs)
}
