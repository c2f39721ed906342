package vm

import "github.com/neocorelabs/neo-core/pkg/vm/opcode"

// opcodePrice returns the base gas price of op, before Policy's configured
// execution fee factor is applied by the caller charging it. Prices are
// grouped by how much work each instruction category does, following the
// cost tiers the Neo VM's fee schedule documents: pushing constants and
// simple stack shuffling is cheap, control flow a bit more, and anything
// touching compound types or invoking other code is the most expensive.
func opcodePrice(op opcode.Opcode) int64 {
	switch {
	case op >= opcode.PUSHINT8 && op <= opcode.PUSHINT256, op >= opcode.PUSH0 && op <= opcode.PUSH16, op == opcode.PUSHM1, op == opcode.PUSHNULL:
		return 1 << 0
	case op == opcode.PUSHA, op == opcode.PUSHDATA1, op == opcode.PUSHDATA2, op == opcode.PUSHDATA4:
		return 1 << 3
	}
	switch op {
	case opcode.NOP:
		return 1 << 0
	case opcode.CALL, opcode.CALLL, opcode.CALLA:
		return 1 << 9
	case opcode.SYSCALL:
		return 0 // the syscall's own declared price is charged separately
	case opcode.NEWARRAY0, opcode.NEWSTRUCT0, opcode.NEWMAP:
		return 1 << 4
	case opcode.NEWARRAY, opcode.NEWARRAYT, opcode.NEWSTRUCT:
		return 1 << 9
	case opcode.PACK, opcode.PACKSTRUCT, opcode.PACKMAP, opcode.UNPACK:
		return 1 << 11
	case opcode.APPEND, opcode.SETITEM, opcode.REMOVE, opcode.REVERSEITEMS, opcode.CLEARITEMS:
		return 1 << 13
	case opcode.PICKITEM, opcode.HASKEY, opcode.KEYS, opcode.VALUES, opcode.SIZE:
		return 1 << 6
	case opcode.INITSSLOT, opcode.INITSLOT:
		return 1 << 4
	}
	switch {
	case op >= opcode.LDSFLD0 && op <= opcode.STARG:
		return 1 << 1
	case op >= opcode.JMP && op <= opcode.JMPLEL:
		return 1 << 1
	case op >= opcode.TRY && op <= opcode.ENDFINALLY:
		return 1 << 2
	case op >= opcode.DEPTH && op <= opcode.REVERSEN:
		return 1 << 1
	case op >= opcode.NEWBUFFER && op <= opcode.RIGHT:
		return 1 << 8
	case op >= opcode.INVERT && op <= opcode.WITHIN:
		return 1 << 3
	case op == opcode.ABORT || op == opcode.ABORTMSG || op == opcode.ASSERT || op == opcode.ASSERTMSG || op == opcode.THROW:
		return 1 << 1
	case op == opcode.ISNULL || op == opcode.ISTYPE || op == opcode.CONVERT:
		return 1 << 13
	case op == opcode.RET:
		return 0
	}
	return 1 << 4
}
