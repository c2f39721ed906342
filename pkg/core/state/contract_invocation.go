package state

import (
	"encoding/json"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// ContractInvocation is a single contract call recorded as part of a
// transaction's execution trace: the callee, the method invoked and the
// arguments it was invoked with. Arguments are dropped (and Truncated set)
// when they could not be captured within the recording budget.
type ContractInvocation struct {
	Hash           util.Uint160
	Method         string
	Arguments      stackitem.Item
	ArgumentsCount int
	Truncated      bool
}

// NewContractInvocation creates a ContractInvocation for a call to hash's
// method, with argCount arguments. argBytes is the binary encoding of
// those arguments (as produced by stackitem.SerializationContext.Serialize)
// if they were captured, or nil if they were dropped.
func NewContractInvocation(hash util.Uint160, method string, argBytes []byte, argCount int) *ContractInvocation {
	ci := &ContractInvocation{
		Hash:           hash,
		Method:         method,
		ArgumentsCount: argCount,
	}
	if argBytes == nil {
		ci.Truncated = true
		return ci
	}
	item, err := stackitem.Deserialize(argBytes)
	if err != nil {
		ci.Truncated = true
		return ci
	}
	ci.Arguments = item
	return ci
}

// contractInvocationAux is ContractInvocation's JSON shape.
type contractInvocationAux struct {
	Hash           util.Uint160    `json:"hash"`
	Method         string          `json:"method"`
	Arguments      json.RawMessage `json:"arguments,omitempty"`
	ArgumentsCount int             `json:"argumentscount"`
	Truncated      bool            `json:"truncated"`
}

// MarshalJSON implements the json.Marshaler interface.
func (c ContractInvocation) MarshalJSON() ([]byte, error) {
	var rawArgs json.RawMessage
	if c.Arguments != nil {
		b, err := stackitem.ToJSON(c.Arguments)
		if err != nil {
			return nil, err
		}
		rawArgs = b
	}
	return json.Marshal(contractInvocationAux{
		Hash:           c.Hash,
		Method:         c.Method,
		Arguments:      rawArgs,
		ArgumentsCount: c.ArgumentsCount,
		Truncated:      c.Truncated,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *ContractInvocation) UnmarshalJSON(data []byte) error {
	var aux contractInvocationAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Hash = aux.Hash
	c.Method = aux.Method
	c.ArgumentsCount = aux.ArgumentsCount
	c.Truncated = aux.Truncated
	c.Arguments = nil
	if len(aux.Arguments) != 0 {
		item, err := stackitem.FromJSON(aux.Arguments)
		if err != nil {
			return err
		}
		c.Arguments = item
	}
	return nil
}

// EncodeBinary implements the io.Serializable interface.
func (c *ContractInvocation) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(c.Hash.BytesBE())
	w.WriteString(c.Method)
	w.WriteVarUint(uint64(c.ArgumentsCount))
	w.WriteBool(c.Truncated)
	hasArgs := c.Arguments != nil
	w.WriteBool(hasArgs)
	if hasArgs {
		stackitem.EncodeBinary(c.Arguments, w)
	}
}

// DecodeBinary implements the io.Serializable interface.
func (c *ContractInvocation) DecodeBinary(r *io.BinReader) {
	var hashBytes [util.Uint160Size]byte
	r.ReadBytes(hashBytes[:])
	if r.Err != nil {
		return
	}
	hash, err := util.Uint160DecodeBytesBE(hashBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	c.Hash = hash
	c.Method = r.ReadString()
	c.ArgumentsCount = int(r.ReadVarUint())
	c.Truncated = r.ReadBool()
	hasArgs := r.ReadBool()
	if r.Err != nil {
		return
	}
	c.Arguments = nil
	if hasArgs {
		c.Arguments = stackitem.DecodeBinary(r)
	}
}
