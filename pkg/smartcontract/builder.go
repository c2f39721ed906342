package smartcontract

import (
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/callflag"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/emit"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
)

// Builder accumulates a contract invocation script across one or more
// InvokeMethod calls.
type Builder struct {
	bw *io.BufBinWriter
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{bw: io.NewBufBinWriter()}
}

// Len returns the number of bytes accumulated so far.
func (b *Builder) Len() int {
	return b.bw.Len()
}

// Reset discards any accumulated bytes.
func (b *Builder) Reset() {
	b.bw.Reset()
}

// Script returns the accumulated script.
func (b *Builder) Script() ([]byte, error) {
	if b.bw.Err != nil {
		return nil, b.bw.Err
	}
	return b.bw.Bytes(), nil
}

// InvokeMethod appends a System.Contract.Call invocation of method on
// the contract identified by scriptHash, with the given arguments, run
// under the default (All) call flags.
func (b *Builder) InvokeMethod(scriptHash util.Uint160, method string, params ...interface{}) error {
	if err := emit.Array(b.bw.BinWriter, params...); err != nil {
		return err
	}
	emit.Int(b.bw.BinWriter, int64(callflag.All))
	emit.String(b.bw.BinWriter, method)
	emit.Bytes(b.bw.BinWriter, scriptHash.BytesBE())
	emit.Syscall(b.bw.BinWriter, "System.Contract.Call")
	return b.bw.Err
}

// InvokeWithAssert is like InvokeMethod, but follows the call with an
// ASSERT, failing the whole script if the invoked method returns a falsy
// result. Intended for chaining multiple calls where any failure should
// abort the complete transaction.
func (b *Builder) InvokeWithAssert(scriptHash util.Uint160, method string, params ...interface{}) error {
	if err := b.InvokeMethod(scriptHash, method, params...); err != nil {
		return err
	}
	emit.Opcode(b.bw.BinWriter, opcode.ASSERT)
	return b.bw.Err
}
