package consensus

import (
	"bytes"
	"errors"
	"sort"

	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
)

// errNotEnoughSignatures is returned by getBlockWitness when fewer
// signatures than the round's quorum have been collected.
var errNotEnoughSignatures = errors.New("consensus: not enough signatures to build block witness")

// getBlockWitness assembles the multisignature witness for the round's
// block once a quorum of validators has committed, keyed by validator
// index. The invocation script must push signatures in the same order
// CreateDefaultMultiSigRedeemScript sorts its public keys in, since that's
// the order System.Crypto.CheckMultisig consumes them in.
func getBlockWitness(validators []*keys.PublicKey, sigs map[uint16][]byte) (*transaction.Witness, error) {
	n := len(validators)
	m := n - (n-1)/3

	type indexedKey struct {
		index uint16
		pub   *keys.PublicKey
	}
	ordered := make([]indexedKey, n)
	for i, pub := range validators {
		ordered[i] = indexedKey{uint16(i), pub}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].pub.Bytes(), ordered[j].pub.Bytes()) < 0
	})

	invocation := make([]byte, 0, m*(2+signatureSize))
	count := 0
	for _, ik := range ordered {
		sig, ok := sigs[ik.index]
		if !ok {
			continue
		}
		invocation = append(invocation, byte(opcode.PUSHDATA1), byte(len(sig)))
		invocation = append(invocation, sig...)
		count++
		if count == m {
			break
		}
	}
	if count < m {
		return nil, errNotEnoughSignatures
	}

	verification, err := smartcontract.CreateDefaultMultiSigRedeemScript(validators)
	if err != nil {
		return nil, err
	}

	return &transaction.Witness{
		InvocationScript:   invocation,
		VerificationScript: verification,
	}, nil
}
