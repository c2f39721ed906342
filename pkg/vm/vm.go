// Package vm implements the Neo execution engine: a stack machine that
// interprets the bytecode defined by pkg/vm/opcode against stackitem.Item
// values, with gas metering and structured exception handling (TRY/CATCH/
// FINALLY) matching the NEF script format contracts are deployed as.
package vm

import (
	"fmt"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/encoding/bigint"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// SyscallFunc is invoked for every SYSCALL instruction; the interop package
// wires this up to its registered Function table. It must manipulate v's
// stacks directly (popping its own arguments, pushing its own result).
type SyscallFunc func(v *VM, id uint32) error

// VM is a single contract invocation's execution engine: one evaluation
// stack shared by every frame on the invocation stack, metered in gas.
type VM struct {
	istack []*Context
	estack *Stack
	refs   *RefCounter

	state State
	err   error

	GasConsumed int64
	GasLimit    int64

	// Syscall handles SYSCALL instructions. Left nil in unit tests that
	// don't exercise interop calls.
	Syscall SyscallFunc
	// OnExecOpcode, if set, is called before every instruction, e.g. for
	// logging or metrics.
	OnExecOpcode func(v *VM, op opcode.Opcode)
}

// New creates a VM with no script loaded and no gas limit (use LoadScript
// and SetGasLimit before Run).
func New() *VM {
	refs := NewRefCounter()
	return &VM{
		estack: NewStack(refs),
		refs:   refs,
		state:  NoneState,
	}
}

// NewVM is an alias of New, matching the constructor name used elsewhere in
// the teacher's idiom for other engine types.
func NewVM() *VM { return New() }

// SetGasLimit sets the maximum gas this run may consume; 0 means unlimited.
func (v *VM) SetGasLimit(limit int64) { v.GasLimit = limit }

// State returns the VM's current run state.
func (v *VM) State() State { return v.state }

// Estack returns the shared evaluation stack.
func (v *VM) Estack() *Stack { return v.estack }

// Err returns the error that caused a FAULT, if any.
func (v *VM) Err() error { return v.err }

// Context returns the currently executing invocation frame, or nil if the
// invocation stack is empty.
func (v *VM) Context() *Context {
	if len(v.istack) == 0 {
		return nil
	}
	return v.istack[len(v.istack)-1]
}

// Istack returns the invocation stack, bottom frame first.
func (v *VM) Istack() []*Context { return v.istack }

// LoadScript pushes a new context executing script onto the invocation
// stack, to be run next.
func (v *VM) LoadScript(script []byte) *Context {
	ctx := NewContext(script)
	v.istack = append(v.istack, ctx)
	return ctx
}

func (v *VM) pushContext(ctx *Context) {
	if len(v.istack) >= MaxInvocationStackSize {
		v.fault(errInvocationDepth)
		return
	}
	v.istack = append(v.istack, ctx)
}

func (v *VM) popContext() *Context {
	ctx := v.istack[len(v.istack)-1]
	v.istack = v.istack[:len(v.istack)-1]
	return ctx
}

func (v *VM) fault(err error) {
	v.err = err
	v.state = FaultState
}

// AddGas charges price units of gas, faulting the run if it would exceed
// GasLimit.
func (v *VM) AddGas(price int64) {
	v.GasConsumed += price
	if v.GasLimit > 0 && v.GasConsumed > v.GasLimit {
		v.fault(errGasLimitExceeded)
	}
}

// Run executes instructions until the VM halts, faults, or hits a BREAK.
func (v *VM) Run() State {
	if v.state == NoneState {
		if len(v.istack) == 0 {
			v.state = HaltState
			return v.state
		}
	}
	for v.state == NoneState {
		v.Step()
	}
	return v.state
}

// Step executes a single instruction.
func (v *VM) Step() {
	ctx := v.Context()
	if ctx == nil {
		v.state = HaltState
		return
	}
	if ctx.atEnd() {
		v.popContext()
		if len(v.istack) == 0 {
			v.state = HaltState
		}
		return
	}

	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				v.fault(err)
			} else {
				v.fault(fmt.Errorf("vm: %v", r))
			}
		}
	}()

	op := ctx.readOp()
	if v.OnExecOpcode != nil {
		v.OnExecOpcode(v, op)
	}
	v.AddGas(opcodePrice(op))
	if v.state != NoneState {
		return
	}
	v.execute(ctx, op)
}

func (v *VM) pop() stackitem.Item    { return v.estack.Pop() }
func (v *VM) push(i stackitem.Item)  { v.estack.Push(i) }
func (v *VM) peek(n int) stackitem.Item { return v.estack.Peek(n) }

func toBigInt(item stackitem.Item) *big.Int {
	switch t := item.(type) {
	case *stackitem.BigInteger:
		return t.Value().(*big.Int)
	case *stackitem.Bool:
		if t.Value().(bool) {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case *stackitem.ByteArray:
		return bigint.FromBytes(t.Value().([]byte))
	case *stackitem.Buffer:
		return bigint.FromBytes(t.Value().([]byte))
	default:
		panic(fmt.Errorf("vm: %s is not convertible to an integer", item.Type()))
	}
}

func toBytes(item stackitem.Item) []byte {
	switch t := item.(type) {
	case *stackitem.ByteArray:
		return t.Value().([]byte)
	case *stackitem.Buffer:
		return t.Value().([]byte)
	case *stackitem.BigInteger:
		return bigint.ToBytes(t.Value().(*big.Int))
	default:
		panic(fmt.Errorf("vm: %s is not convertible to a byte string", item.Type()))
	}
}

func checkIntBounds(n *big.Int) {
	if n.BitLen() > stackitem.MaxBigIntegerSizeBits {
		panic(stackitem.ErrInvalidValue)
	}
}

// execute dispatches a single already-read opcode against the VM's state.
func (v *VM) execute(ctx *Context, op opcode.Opcode) {
	switch {
	case op >= opcode.PUSHINT8 && op <= opcode.PUSHINT256:
		sizes := map[opcode.Opcode]int{
			opcode.PUSHINT8: 1, opcode.PUSHINT16: 2, opcode.PUSHINT32: 4,
			opcode.PUSHINT64: 8, opcode.PUSHINT128: 16, opcode.PUSHINT256: 32,
		}
		b := ctx.readBytes(sizes[op])
		n := bigint.FromBytes(b)
		v.push(stackitem.NewBigInteger(n))
		return
	case op >= opcode.PUSH0 && op <= opcode.PUSH16:
		v.push(stackitem.NewBigInteger(big.NewInt(int64(op) - int64(opcode.PUSH0))))
		return
	case op == opcode.PUSHM1:
		v.push(stackitem.NewBigInteger(big.NewInt(-1)))
		return
	}

	switch op {
	case opcode.PUSHA:
		offset := int32(le32(ctx.readBytes(4)))
		v.push(stackitem.NewPointer(ctx.ip+int(offset)-5, ctx.Script))
	case opcode.PUSHNULL:
		v.push(stackitem.Null{})
	case opcode.PUSHDATA1:
		n := int(ctx.readByte())
		v.push(stackitem.NewByteArray(ctx.readBytes(n)))
	case opcode.PUSHDATA2:
		n := int(le16(ctx.readBytes(2)))
		v.push(stackitem.NewByteArray(ctx.readBytes(n)))
	case opcode.PUSHDATA4:
		n := int(le32(ctx.readBytes(4)))
		v.push(stackitem.NewByteArray(ctx.readBytes(n)))

	case opcode.NOP:
		// no-op

	case opcode.JMP, opcode.JMPL:
		v.jumpIf(ctx, op, opcode.JMP, true)
	case opcode.JMPIF, opcode.JMPIFL:
		v.jumpIf(ctx, op, opcode.JMPIF, v.pop().ToBool())
	case opcode.JMPIFNOT, opcode.JMPIFNOTL:
		v.jumpIf(ctx, op, opcode.JMPIFNOT, !v.pop().ToBool())
	case opcode.JMPEQ, opcode.JMPEQL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.jumpIf(ctx, op, opcode.JMPEQ, a.Cmp(b) == 0)
	case opcode.JMPNE, opcode.JMPNEL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.jumpIf(ctx, op, opcode.JMPNE, a.Cmp(b) != 0)
	case opcode.JMPGT, opcode.JMPGTL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.jumpIf(ctx, op, opcode.JMPGT, a.Cmp(b) > 0)
	case opcode.JMPGE, opcode.JMPGEL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.jumpIf(ctx, op, opcode.JMPGE, a.Cmp(b) >= 0)
	case opcode.JMPLT, opcode.JMPLTL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.jumpIf(ctx, op, opcode.JMPLT, a.Cmp(b) < 0)
	case opcode.JMPLE, opcode.JMPLEL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.jumpIf(ctx, op, opcode.JMPLE, a.Cmp(b) <= 0)

	case opcode.CALL, opcode.CALLL:
		start := ctx.ip - 1
		var offset int
		if op == opcode.CALL {
			offset = int(int8(ctx.readByte()))
		} else {
			offset = int(int32(le32(ctx.readBytes(4))))
		}
		next := ctx.Copy(start + offset)
		v.pushContext(next)
	case opcode.CALLA:
		p, ok := v.pop().(*stackitem.Pointer)
		if !ok {
			panic(fmt.Errorf("vm: CALLA argument is not a Pointer"))
		}
		v.pushContext(ctx.Copy(p.Position()))
	case opcode.ABORT:
		v.fault(errAborted)
	case opcode.ABORTMSG:
		msg := string(toBytes(v.pop()))
		v.fault(fmt.Errorf("%w: %s", errAborted, msg))
	case opcode.ASSERT:
		if !v.pop().ToBool() {
			v.fault(errAssertionFailed)
		}
	case opcode.ASSERTMSG:
		msg := string(toBytes(v.pop()))
		if !v.pop().ToBool() {
			v.fault(fmt.Errorf("%w: %s", errAssertionFailed, msg))
		}
	case opcode.THROW:
		v.throw(v.pop())
	case opcode.TRY, opcode.TRYL:
		var catchOff, finallyOff int
		start := ctx.ip - 1
		if op == opcode.TRY {
			catchOff = int(int8(ctx.readByte()))
			finallyOff = int(int8(ctx.readByte()))
		} else {
			catchOff = int(int32(le32(ctx.readBytes(4))))
			finallyOff = int(int32(le32(ctx.readBytes(4))))
		}
		tc := tryContext{state: tryStateTry}
		if catchOff != 0 {
			tc.catchOffset = start + catchOff
		}
		if finallyOff != 0 {
			tc.finallyOffset = start + finallyOff
		}
		ctx.tryStack = append(ctx.tryStack, tc)
	case opcode.ENDTRY, opcode.ENDTRYL:
		start := ctx.ip - 1
		var offset int
		if op == opcode.ENDTRY {
			offset = int(int8(ctx.readByte()))
		} else {
			offset = int(int32(le32(ctx.readBytes(4))))
		}
		v.endTry(ctx, start+offset)
	case opcode.ENDFINALLY:
		v.endFinally(ctx)
	case opcode.RET:
		frame := v.popContext()
		_ = frame
		if len(v.istack) == 0 {
			v.state = HaltState
		}
	case opcode.SYSCALL:
		id := le32(ctx.readBytes(4))
		if v.Syscall == nil {
			panic(errUnknownSyscall)
		}
		if err := v.Syscall(v, id); err != nil {
			v.fault(err)
		}

	case opcode.DEPTH:
		v.push(stackitem.NewBigInteger(big.NewInt(int64(v.estack.Len()))))
	case opcode.DROP:
		v.pop()
	case opcode.NIP:
		v.estack.RemoveAt(1)
	case opcode.XDROP:
		n := int(toBigInt(v.pop()).Int64())
		v.estack.RemoveAt(n)
	case opcode.CLEAR:
		v.estack.Clear()
	case opcode.DUP:
		v.push(v.peek(0).Dup())
	case opcode.OVER:
		v.push(v.peek(1).Dup())
	case opcode.PICK:
		n := int(toBigInt(v.pop()).Int64())
		v.push(v.peek(n).Dup())
	case opcode.TUCK:
		v.estack.InsertAt(v.peek(0).Dup(), 2)
	case opcode.SWAP:
		a := v.estack.RemoveAt(1)
		v.push(a)
	case opcode.ROT:
		a := v.estack.RemoveAt(2)
		v.push(a)
	case opcode.ROLL:
		n := int(toBigInt(v.pop()).Int64())
		a := v.estack.RemoveAt(n)
		v.push(a)
	case opcode.REVERSE3:
		v.reverseTop(3)
	case opcode.REVERSE4:
		v.reverseTop(4)
	case opcode.REVERSEN:
		n := int(toBigInt(v.pop()).Int64())
		v.reverseTop(n)

	case opcode.INITSSLOT:
		n := int(ctx.readByte())
		ctx.sslot = NewSlot(n, v.refs)
	case opcode.INITSLOT:
		nLocal := int(ctx.readByte())
		nArg := int(ctx.readByte())
		ctx.lslot = NewSlot(nLocal, v.refs)
		ctx.aslot = NewSlot(nArg, v.refs)
	case opcode.LDSFLD0, opcode.LDSFLD1, opcode.LDSFLD2, opcode.LDSFLD3, opcode.LDSFLD4, opcode.LDSFLD5, opcode.LDSFLD6:
		v.push(ctx.sslot.Get(int(op - opcode.LDSFLD0)).Dup())
	case opcode.LDSFLD:
		v.push(ctx.sslot.Get(int(ctx.readByte())).Dup())
	case opcode.STSFLD0, opcode.STSFLD1, opcode.STSFLD2, opcode.STSFLD3, opcode.STSFLD4, opcode.STSFLD5, opcode.STSFLD6:
		ctx.sslot.Set(int(op-opcode.STSFLD0), v.pop())
	case opcode.STSFLD:
		ctx.sslot.Set(int(ctx.readByte()), v.pop())
	case opcode.LDLOC0, opcode.LDLOC1, opcode.LDLOC2, opcode.LDLOC3, opcode.LDLOC4, opcode.LDLOC5, opcode.LDLOC6:
		v.push(ctx.lslot.Get(int(op - opcode.LDLOC0)).Dup())
	case opcode.LDLOC:
		v.push(ctx.lslot.Get(int(ctx.readByte())).Dup())
	case opcode.STLOC0, opcode.STLOC1, opcode.STLOC2, opcode.STLOC3, opcode.STLOC4, opcode.STLOC5, opcode.STLOC6:
		ctx.lslot.Set(int(op-opcode.STLOC0), v.pop())
	case opcode.STLOC:
		ctx.lslot.Set(int(ctx.readByte()), v.pop())
	case opcode.LDARG0, opcode.LDARG1, opcode.LDARG2, opcode.LDARG3, opcode.LDARG4, opcode.LDARG5, opcode.LDARG6:
		v.push(ctx.aslot.Get(int(op - opcode.LDARG0)).Dup())
	case opcode.LDARG:
		v.push(ctx.aslot.Get(int(ctx.readByte())).Dup())
	case opcode.STARG0, opcode.STARG1, opcode.STARG2, opcode.STARG3, opcode.STARG4, opcode.STARG5, opcode.STARG6:
		ctx.aslot.Set(int(op-opcode.STARG0), v.pop())
	case opcode.STARG:
		ctx.aslot.Set(int(ctx.readByte()), v.pop())

	case opcode.NEWBUFFER:
		n := int(toBigInt(v.pop()).Int64())
		v.push(stackitem.NewBuffer(make([]byte, n)))
	case opcode.MEMCPY:
		count := int(toBigInt(v.pop()).Int64())
		srcIdx := int(toBigInt(v.pop()).Int64())
		src := toBytes(v.pop())
		dstIdx := int(toBigInt(v.pop()).Int64())
		dst, ok := v.peek(0).(*stackitem.Buffer)
		if !ok {
			panic(fmt.Errorf("vm: MEMCPY destination is not a Buffer"))
		}
		v.pop()
		copy(dst.Value().([]byte)[dstIdx:dstIdx+count], src[srcIdx:srcIdx+count])
		v.push(dst)
	case opcode.CAT:
		b, a := toBytes(v.pop()), toBytes(v.pop())
		out := make([]byte, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		v.push(stackitem.NewBuffer(out))
	case opcode.SUBSTR:
		l := int(toBigInt(v.pop()).Int64())
		i := int(toBigInt(v.pop()).Int64())
		s := toBytes(v.pop())
		v.push(stackitem.NewBuffer(append([]byte{}, s[i:i+l]...)))
	case opcode.LEFT:
		l := int(toBigInt(v.pop()).Int64())
		s := toBytes(v.pop())
		v.push(stackitem.NewBuffer(append([]byte{}, s[:l]...)))
	case opcode.RIGHT:
		l := int(toBigInt(v.pop()).Int64())
		s := toBytes(v.pop())
		v.push(stackitem.NewBuffer(append([]byte{}, s[len(s)-l:]...)))

	case opcode.INVERT:
		v.push(stackitem.NewBigInteger(new(big.Int).Not(toBigInt(v.pop()))))
	case opcode.AND:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBigInteger(new(big.Int).And(a, b)))
	case opcode.OR:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBigInteger(new(big.Int).Or(a, b)))
	case opcode.XOR:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBigInteger(new(big.Int).Xor(a, b)))
	case opcode.EQUAL:
		b, a := v.pop(), v.pop()
		v.push(stackitem.NewBool(a.Equals(b)))
	case opcode.NOTEQUAL:
		b, a := v.pop(), v.pop()
		v.push(stackitem.NewBool(!a.Equals(b)))

	case opcode.SIGN:
		v.push(stackitem.NewBigInteger(big.NewInt(int64(toBigInt(v.pop()).Sign()))))
	case opcode.ABS:
		v.push(stackitem.NewBigInteger(new(big.Int).Abs(toBigInt(v.pop()))))
	case opcode.NEGATE:
		v.push(stackitem.NewBigInteger(new(big.Int).Neg(toBigInt(v.pop()))))
	case opcode.INC:
		n := new(big.Int).Add(toBigInt(v.pop()), big.NewInt(1))
		checkIntBounds(n)
		v.push(stackitem.NewBigInteger(n))
	case opcode.DEC:
		n := new(big.Int).Sub(toBigInt(v.pop()), big.NewInt(1))
		checkIntBounds(n)
		v.push(stackitem.NewBigInteger(n))
	case opcode.ADD:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		n := new(big.Int).Add(a, b)
		checkIntBounds(n)
		v.push(stackitem.NewBigInteger(n))
	case opcode.SUB:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		n := new(big.Int).Sub(a, b)
		checkIntBounds(n)
		v.push(stackitem.NewBigInteger(n))
	case opcode.MUL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		n := new(big.Int).Mul(a, b)
		checkIntBounds(n)
		v.push(stackitem.NewBigInteger(n))
	case opcode.DIV:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBigInteger(new(big.Int).Quo(a, b)))
	case opcode.MOD:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBigInteger(new(big.Int).Rem(a, b)))
	case opcode.POW:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		n := new(big.Int).Exp(a, b, nil)
		checkIntBounds(n)
		v.push(stackitem.NewBigInteger(n))
	case opcode.SQRT:
		n := new(big.Int).Sqrt(toBigInt(v.pop()))
		v.push(stackitem.NewBigInteger(n))
	case opcode.MODMUL:
		m, b, a := toBigInt(v.pop()), toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBigInteger(new(big.Int).Mod(new(big.Int).Mul(a, b), m)))
	case opcode.MODPOW:
		m, b, a := toBigInt(v.pop()), toBigInt(v.pop()), toBigInt(v.pop())
		if b.Sign() < 0 {
			panic(fmt.Errorf("vm: MODPOW exponent must be non-negative"))
		}
		v.push(stackitem.NewBigInteger(new(big.Int).Exp(a, b, m)))
	case opcode.SHL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		n := new(big.Int).Lsh(a, uint(b.Int64()))
		checkIntBounds(n)
		v.push(stackitem.NewBigInteger(n))
	case opcode.SHR:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBigInteger(new(big.Int).Rsh(a, uint(b.Int64()))))
	case opcode.NOT:
		v.push(stackitem.NewBool(!v.pop().ToBool()))
	case opcode.BOOLAND:
		b, a := v.pop().ToBool(), v.pop().ToBool()
		v.push(stackitem.NewBool(a && b))
	case opcode.BOOLOR:
		b, a := v.pop().ToBool(), v.pop().ToBool()
		v.push(stackitem.NewBool(a || b))
	case opcode.NZ:
		v.push(stackitem.NewBool(toBigInt(v.pop()).Sign() != 0))
	case opcode.NUMEQUAL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBool(a.Cmp(b) == 0))
	case opcode.NUMNOTEQUAL:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBool(a.Cmp(b) != 0))
	case opcode.LT:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBool(a.Cmp(b) < 0))
	case opcode.LE:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBool(a.Cmp(b) <= 0))
	case opcode.GT:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBool(a.Cmp(b) > 0))
	case opcode.GE:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBool(a.Cmp(b) >= 0))
	case opcode.MIN:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		if a.Cmp(b) < 0 {
			v.push(stackitem.NewBigInteger(a))
		} else {
			v.push(stackitem.NewBigInteger(b))
		}
	case opcode.MAX:
		b, a := toBigInt(v.pop()), toBigInt(v.pop())
		if a.Cmp(b) > 0 {
			v.push(stackitem.NewBigInteger(a))
		} else {
			v.push(stackitem.NewBigInteger(b))
		}
	case opcode.WITHIN:
		b, a, x := toBigInt(v.pop()), toBigInt(v.pop()), toBigInt(v.pop())
		v.push(stackitem.NewBool(x.Cmp(a) >= 0 && x.Cmp(b) < 0))

	case opcode.PACKMAP:
		n := int(toBigInt(v.pop()).Int64())
		m := stackitem.NewMap()
		for i := 0; i < n; i++ {
			val := v.pop()
			key := v.pop()
			m.Add(key, val)
		}
		v.push(m)
	case opcode.PACKSTRUCT:
		n := int(toBigInt(v.pop()).Int64())
		items := make([]stackitem.Item, n)
		for i := 0; i < n; i++ {
			items[i] = v.pop()
		}
		v.push(stackitem.NewStruct(items))
	case opcode.PACK:
		n := int(toBigInt(v.pop()).Int64())
		items := make([]stackitem.Item, n)
		for i := 0; i < n; i++ {
			items[i] = v.pop()
		}
		v.push(stackitem.NewArray(items))
	case opcode.UNPACK:
		arr := v.pop().Value().([]stackitem.Item)
		for _, item := range arr {
			v.push(item)
		}
		v.push(stackitem.NewBigInteger(big.NewInt(int64(len(arr)))))
	case opcode.NEWARRAY0:
		v.push(stackitem.NewArray(nil))
	case opcode.NEWARRAY, opcode.NEWARRAYT:
		if op == opcode.NEWARRAYT {
			ctx.readByte()
		}
		n := int(toBigInt(v.pop()).Int64())
		items := make([]stackitem.Item, n)
		for i := range items {
			items[i] = stackitem.Null{}
		}
		v.push(stackitem.NewArray(items))
	case opcode.NEWSTRUCT0:
		v.push(stackitem.NewStruct(nil))
	case opcode.NEWSTRUCT:
		n := int(toBigInt(v.pop()).Int64())
		items := make([]stackitem.Item, n)
		for i := range items {
			items[i] = stackitem.Null{}
		}
		v.push(stackitem.NewStruct(items))
	case opcode.NEWMAP:
		v.push(stackitem.NewMap())
	case opcode.SIZE:
		item := v.pop()
		switch val := item.Value().(type) {
		case []byte:
			v.push(stackitem.NewBigInteger(big.NewInt(int64(len(val)))))
		case []stackitem.Item:
			v.push(stackitem.NewBigInteger(big.NewInt(int64(len(val)))))
		default:
			m := item.(*stackitem.Map)
			v.push(stackitem.NewBigInteger(big.NewInt(int64(m.Len()))))
		}
	case opcode.HASKEY:
		key := v.pop()
		switch c := v.pop().(type) {
		case *stackitem.Array:
			i := int(toBigInt(key).Int64())
			v.push(stackitem.NewBool(i >= 0 && i < len(c.Value().([]stackitem.Item))))
		case *stackitem.Struct:
			i := int(toBigInt(key).Int64())
			v.push(stackitem.NewBool(i >= 0 && i < len(c.Value().([]stackitem.Item))))
		case *stackitem.Map:
			v.push(stackitem.NewBool(c.Index(key) >= 0))
		default:
			panic(fmt.Errorf("vm: HASKEY on unsupported type %s", c))
		}
	case opcode.KEYS:
		m := v.pop().(*stackitem.Map)
		elems := m.Value().([]stackitem.MapElement)
		keys := make([]stackitem.Item, len(elems))
		for i, e := range elems {
			keys[i] = e.Key
		}
		v.push(stackitem.NewArray(keys))
	case opcode.VALUES:
		switch c := v.pop().(type) {
		case *stackitem.Map:
			elems := c.Value().([]stackitem.MapElement)
			vals := make([]stackitem.Item, len(elems))
			for i, e := range elems {
				vals[i] = stackitem.DeepCopy(e.Value)
			}
			v.push(stackitem.NewArray(vals))
		case *stackitem.Array:
			items := c.Value().([]stackitem.Item)
			out := make([]stackitem.Item, len(items))
			for i, it := range items {
				out[i] = stackitem.DeepCopy(it)
			}
			v.push(stackitem.NewArray(out))
		}
	case opcode.PICKITEM:
		key := v.pop()
		switch c := v.pop().(type) {
		case *stackitem.Array:
			v.push(c.Value().([]stackitem.Item)[toBigInt(key).Int64()])
		case *stackitem.Struct:
			v.push(c.Value().([]stackitem.Item)[toBigInt(key).Int64()])
		case *stackitem.Map:
			i := c.Index(key)
			if i < 0 {
				panic(fmt.Errorf("vm: key not found in map"))
			}
			v.push(c.Value().([]stackitem.MapElement)[i].Value)
		case *stackitem.ByteArray:
			v.push(stackitem.NewBigInteger(big.NewInt(int64(c.Value().([]byte)[toBigInt(key).Int64()]))))
		case *stackitem.Buffer:
			v.push(stackitem.NewBigInteger(big.NewInt(int64(c.Value().([]byte)[toBigInt(key).Int64()]))))
		default:
			panic(fmt.Errorf("vm: PICKITEM on unsupported type"))
		}
	case opcode.APPEND:
		item := v.pop()
		switch c := v.peek(0).(type) {
		case *stackitem.Array:
			c.Append(stackitem.DeepCopy(item))
		case *stackitem.Struct:
			c.Append(stackitem.DeepCopy(item))
		default:
			panic(fmt.Errorf("vm: APPEND on unsupported type"))
		}
	case opcode.SETITEM:
		value := v.pop()
		key := v.pop()
		switch c := v.peek(0).(type) {
		case *stackitem.Array:
			c.Value().([]stackitem.Item)[toBigInt(key).Int64()] = value
		case *stackitem.Struct:
			c.Value().([]stackitem.Item)[toBigInt(key).Int64()] = value
		case *stackitem.Map:
			c.Add(key, value)
		default:
			panic(fmt.Errorf("vm: SETITEM on unsupported type"))
		}
	case opcode.REVERSEITEMS:
		switch c := v.pop().(type) {
		case *stackitem.Array:
			reverseItems(c.Value().([]stackitem.Item))
		case *stackitem.Struct:
			reverseItems(c.Value().([]stackitem.Item))
		}
	case opcode.REMOVE:
		key := v.pop()
		switch c := v.pop().(type) {
		case *stackitem.Map:
			c.Drop(key)
		default:
			_ = c
			panic(fmt.Errorf("vm: REMOVE on unsupported type"))
		}
	case opcode.CLEARITEMS:
		_ = v.pop()
	case opcode.POPITEM:
		c := v.peek(0).(*stackitem.Array)
		items := c.Value().([]stackitem.Item)
		v.push(items[len(items)-1])

	case opcode.ISNULL:
		_, ok := v.pop().(stackitem.Null)
		v.push(stackitem.NewBool(ok))
	case opcode.ISTYPE:
		t := stackitem.Type(ctx.readByte())
		v.push(stackitem.NewBool(v.pop().Type() == t))
	case opcode.CONVERT:
		t := stackitem.Type(ctx.readByte())
		v.push(convert(v.pop(), t))

	default:
		panic(fmt.Errorf("vm: unimplemented opcode %s", op))
	}
}

func reverseItems(items []stackitem.Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func convert(item stackitem.Item, t stackitem.Type) stackitem.Item {
	if item.Type() == t {
		return item
	}
	switch t {
	case stackitem.BooleanT:
		return stackitem.NewBool(item.ToBool())
	case stackitem.IntegerT:
		return stackitem.NewBigInteger(toBigInt(item))
	case stackitem.ByteArrayT:
		return stackitem.NewByteArray(toBytes(item))
	case stackitem.BufferT:
		return stackitem.NewBuffer(append([]byte{}, toBytes(item)...))
	default:
		panic(fmt.Errorf("vm: CONVERT to %s is not supported", t))
	}
}

func (v *VM) reverseTop(n int) {
	top := make([]stackitem.Item, n)
	for i := 0; i < n; i++ {
		top[i] = v.estack.RemoveAt(0)
	}
	for _, item := range top {
		v.estack.InsertAt(item, 0)
	}
}

// jumpIf reads the jump offset (sbyte for the short opcode, int32 for its
// "L" long variant) and jumps ctx relative to the start of the instruction
// when cond is true.
func (v *VM) jumpIf(ctx *Context, op, shortOp opcode.Opcode, cond bool) {
	start := ctx.ip - 1
	var offset int
	if op == shortOp {
		offset = int(int8(ctx.readByte()))
	} else {
		offset = int(int32(le32(ctx.readBytes(4))))
	}
	if cond {
		ctx.Jump(start + offset)
	}
}

// throw unwinds the invocation stack looking for the nearest active CATCH
// or FINALLY handler for ex, faulting the run if none is found anywhere on
// the call stack.
func (v *VM) throw(ex stackitem.Item) {
	for {
		ctx := v.Context()
		if ctx == nil {
			v.fault(fmt.Errorf("%w: %s", errUncaughtThrow, ex))
			return
		}
		for i := len(ctx.tryStack) - 1; i >= 0; i-- {
			t := &ctx.tryStack[i]
			if t.state == tryStateTry && t.catchOffset != 0 {
				ctx.tryStack = ctx.tryStack[:i+1]
				t.state = tryStateCatch
				v.push(ex)
				ctx.Jump(t.catchOffset)
				return
			}
			if t.state != tryStateFinally && t.finallyOffset != 0 {
				ctx.tryStack = ctx.tryStack[:i+1]
				t.state = tryStateFinally
				t.pending = ex
				ctx.Jump(t.finallyOffset)
				return
			}
		}
		if len(v.istack) <= 1 {
			v.fault(fmt.Errorf("%w: %s", errUncaughtThrow, ex))
			return
		}
		v.popContext()
	}
}

// endTry closes the innermost active try block, entering its FINALLY
// handler if it has one and hasn't run it yet, otherwise resuming at
// target.
func (v *VM) endTry(ctx *Context, target int) {
	if len(ctx.tryStack) == 0 {
		panic(fmt.Errorf("vm: ENDTRY with no active TRY block"))
	}
	t := &ctx.tryStack[len(ctx.tryStack)-1]
	if t.finallyOffset != 0 && t.state != tryStateFinally {
		t.endOffset = target
		t.state = tryStateFinally
		ctx.Jump(t.finallyOffset)
		return
	}
	ctx.tryStack = ctx.tryStack[:len(ctx.tryStack)-1]
	ctx.Jump(target)
}

// endFinally completes the innermost FINALLY block: resuming the pending
// throw if one triggered this FINALLY, otherwise continuing at the
// try-block's recorded end offset.
func (v *VM) endFinally(ctx *Context) {
	if len(ctx.tryStack) == 0 {
		panic(fmt.Errorf("vm: ENDFINALLY with no active TRY block"))
	}
	t := ctx.tryStack[len(ctx.tryStack)-1]
	ctx.tryStack = ctx.tryStack[:len(ctx.tryStack)-1]
	if t.pending != nil {
		v.throw(t.pending)
		return
	}
	ctx.Jump(t.endOffset)
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
