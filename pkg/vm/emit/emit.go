// Package emit contains functions to push data into a script.
package emit

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/encoding/bigint"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/callflag"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
)

// systemContractCall is the interop method AppCall/AppCallNoArgs resolve to.
const systemContractCall = "System.Contract.Call"

// Instruction emits a single instruction: op followed by its raw operand
// bytes b.
func Instruction(w *io.BinWriter, op opcode.Opcode, b []byte) {
	w.WriteB(byte(op))
	w.WriteBytes(b)
}

// Opcode emits a single, operand-less opcode.
func Opcode(w *io.BinWriter, op opcode.Opcode) {
	w.WriteB(byte(op))
}

// Opcodes emits a sequence of bytes, interpreted as an arbitrary mix of
// opcodes and inline operand bytes; the caller is responsible for
// supplying operands where an opcode requires them.
func Opcodes(w *io.BinWriter, ops ...opcode.Opcode) {
	for _, op := range ops {
		w.WriteB(byte(op))
	}
}

// Bool emits the instruction pushing the boolean ok.
func Bool(w *io.BinWriter, ok bool) {
	if ok {
		Opcode(w, opcode.PUSH1)
	} else {
		Opcode(w, opcode.PUSH0)
	}
}

// Int emits the shortest instruction pushing i.
func Int(w *io.BinWriter, i int64) {
	if i >= -1 && i <= 16 {
		Opcode(w, opcode.PUSH0+opcode.Opcode(i))
		return
	}
	BigInt(w, big.NewInt(i))
}

// pushIntSizes lists the fixed operand widths (bytes) of the PUSHINT*
// family, smallest first.
var pushIntSizes = []struct {
	op   opcode.Opcode
	size int
}{
	{opcode.PUSHINT8, 1},
	{opcode.PUSHINT16, 2},
	{opcode.PUSHINT32, 4},
	{opcode.PUSHINT64, 8},
	{opcode.PUSHINT128, 16},
	{opcode.PUSHINT256, 32},
}

// BigInt emits the narrowest PUSHINT* instruction able to hold n, or a
// single-byte PUSH opcode for n in [-1, 16].
func BigInt(w *io.BinWriter, n *big.Int) {
	if n.IsInt64() {
		v := n.Int64()
		if v >= -1 && v <= 16 {
			Opcode(w, opcode.PUSH0+opcode.Opcode(v))
			return
		}
	}
	min := bigint.ToBytes(n)
	for _, ps := range pushIntSizes {
		if len(min) <= ps.size {
			buf := make([]byte, ps.size)
			copy(buf, min)
			if n.Sign() < 0 {
				for i := len(min); i < ps.size; i++ {
					buf[i] = 0xFF
				}
			}
			Instruction(w, ps.op, buf)
			return
		}
	}
	// Falls back to the widest width available; values this large
	// shouldn't occur in practice but are still encoded correctly
	// modulo truncation by the caller's chosen width.
	Instruction(w, opcode.PUSHINT256, min)
}

// BytesToInt decodes the little-endian two's complement integer
// previously produced by BigInt/Int.
func BytesToInt(b []byte) *big.Int {
	return bigint.FromBytes(b)
}

// Bytes emits the PUSHDATA instruction (1/2/4-byte length prefix, chosen
// by size) pushing b.
func Bytes(w *io.BinWriter, b []byte) {
	n := len(b)
	switch {
	case n < 0x100:
		Instruction(w, opcode.PUSHDATA1, []byte{byte(n)})
	case n < 0x10000:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(n))
		Instruction(w, opcode.PUSHDATA2, buf)
	default:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		Instruction(w, opcode.PUSHDATA4, buf)
	}
	w.WriteBytes(b)
}

// String emits s as a PUSHDATA byte string.
func String(w *io.BinWriter, s string) {
	Bytes(w, []byte(s))
}

// InteropNameToID derives the 4-byte little-endian interop identifier the
// VM resolves SYSCALL targets by: the first 4 bytes of SHA256(name).
func InteropNameToID(name []byte) uint32 {
	h := sha256.Sum256(name)
	return binary.LittleEndian.Uint32(h[:4])
}

// Syscall emits a SYSCALL instruction invoking the named interop method.
func Syscall(w *io.BinWriter, api string) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, InteropNameToID([]byte(api)))
	Instruction(w, opcode.SYSCALL, buf)
}

// Array emits each element of arr (in reverse order, as the VM expects
// them popped) followed by a PACK, or a bare NEWARRAY0 for an empty arr.
// Elements may be bool, the integer kinds, *big.Int, string, []byte,
// util.Uint160, util.Uint256, nil, or a nested []interface{}.
func Array(w *io.BinWriter, arr ...interface{}) error {
	if len(arr) == 0 {
		Opcodes(w, opcode.NEWARRAY0)
		return nil
	}
	for i := len(arr) - 1; i >= 0; i-- {
		switch t := arr[i].(type) {
		case []interface{}:
			if err := Array(w, t...); err != nil {
				return err
			}
			continue
		default:
			if err := Param(w, t); err != nil {
				return err
			}
		}
	}
	Int(w, int64(len(arr)))
	Opcodes(w, opcode.PACK)
	return nil
}

// Param emits a single value, dispatching on its concrete Go type.
func Param(w *io.BinWriter, p interface{}) error {
	switch v := p.(type) {
	case nil:
		Opcode(w, opcode.PUSHNULL)
	case bool:
		Bool(w, v)
	case int:
		Int(w, int64(v))
	case int8:
		Int(w, int64(v))
	case int16:
		Int(w, int64(v))
	case int32:
		Int(w, int64(v))
	case int64:
		Int(w, v)
	case uint8:
		Int(w, int64(v))
	case uint16:
		Int(w, int64(v))
	case uint32:
		Int(w, int64(v))
	case uint64:
		BigInt(w, new(big.Int).SetUint64(v))
	case *big.Int:
		BigInt(w, v)
	case string:
		String(w, v)
	case []byte:
		Bytes(w, v)
	case util.Uint160:
		Bytes(w, v.BytesBE())
	case util.Uint256:
		Bytes(w, v.BytesBE())
	default:
		return fmt.Errorf("emit: unsupported parameter type %T", p)
	}
	return nil
}

// AppCall emits a System.Contract.Call invocation of method on the
// contract identified by hash, running under call flags f, with the
// given parameters.
func AppCall(w *io.BinWriter, hash util.Uint160, method string, f callflag.CallFlag, parameters ...interface{}) {
	if err := Array(w, parameters...); err != nil {
		w.SetError(err)
		return
	}
	Int(w, int64(f))
	String(w, method)
	Bytes(w, hash.BytesBE())
	Syscall(w, systemContractCall)
}

// AppCallNoArgs is like AppCall with no parameters, avoiding the
// reflection-free but still nonzero cost of the Array fast path.
func AppCallNoArgs(w *io.BinWriter, hash util.Uint160, method string, f callflag.CallFlag) {
	Opcodes(w, opcode.NEWARRAY0)
	Int(w, int64(f))
	String(w, method)
	Bytes(w, hash.BytesBE())
	Syscall(w, systemContractCall)
}

// AppCallWithOperationAndArgs is AppCall under the default (All) call flags.
func AppCallWithOperationAndArgs(w *io.BinWriter, hash util.Uint160, method string, args ...interface{}) {
	AppCall(w, hash, method, callflag.All, args...)
}
