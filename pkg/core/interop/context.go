// Package interop provides the execution context native contracts and
// syscall handlers run against: the current block, the underlying storage,
// gas accounting, and the table of registered syscalls.
package interop

import (
	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/trigger"
)

// DefaultBaseExecFee is the default execution fee factor applied to every
// opcode's base price, before Policy's configured factor is applied.
const DefaultBaseExecFee = 30

// Function describes a single registered syscall: its ID, handler and the
// hardfork (if any) that must be active for it to be callable.
type Function struct {
	ID         uint32
	Name       string
	Func       func(*Context) error
	Price      int64
	RequiredFlags CallFlag
	ActiveFrom config.Hardfork
}

// CallFlag restricts what a contract invocation is allowed to do.
type CallFlag byte

// Standard call flag combinations.
const (
	NoneFlag            CallFlag = 0
	ReadStates          CallFlag = 1 << iota
	WriteStates
	AllowCall
	AllowNotify
	States    = ReadStates | WriteStates
	All       = States | AllowCall | AllowNotify
	ReadOnly  = ReadStates | AllowCall
)

// Context carries everything a syscall handler or native contract method
// needs from the engine executing it.
type Context struct {
	// Chain-level configuration used to resolve hardfork activation heights.
	Hardforks map[string]uint32
	// Functions is the full syscall table available to this context.
	Functions []Function

	Block              *block.Block
	Trigger            trigger.Type
	Network            uint32
	DAO                dao.DAO
	MaxTraceableBlocks uint32
}

// IsHardforkEnabled reports whether hf is active at the context's current
// block height. A hardfork with no configured activation height is treated
// as always enabled (it predates height-based activation tracking).
func (ic *Context) IsHardforkEnabled(hf config.Hardfork) bool {
	height, ok := ic.Hardforks[hf.String()]
	if !ok {
		return false
	}
	return ic.Block != nil && ic.Block.Index >= height
}

// GetFunction returns the registered Function for id, or nil if no function
// with that ID is registered or its activation hardfork isn't enabled yet.
func (ic *Context) GetFunction(id uint32) *Function {
	for i := range ic.Functions {
		f := &ic.Functions[i]
		if f.ID != id {
			continue
		}
		if f.ActiveFrom != config.HFDefault && !ic.IsHardforkEnabled(f.ActiveFrom) {
			return nil
		}
		return f
	}
	return nil
}
