// Package fee prices VM opcode execution: each opcode is assigned a base
// multiplier, scaled by the chain's configured execution fee factor to get
// the GAS cost of running it.
package fee

import "github.com/neocorelabs/neo-core/pkg/vm/opcode"

// opcodePrices gives every opcode's base multiplier. Opcodes absent from the
// table fall back to defaultPrice. Allocation-heavy and crypto-adjacent
// opcodes are priced higher than plain stack manipulation, mirroring how
// expensive each actually is to execute.
var opcodePrices = map[opcode.Opcode]int64{
	opcode.PUSHINT8: 1 << 0, opcode.PUSHINT16: 1 << 0, opcode.PUSHINT32: 1 << 0,
	opcode.PUSHINT64: 1 << 0, opcode.PUSHINT128: 1 << 2, opcode.PUSHINT256: 1 << 2,
	opcode.PUSHA: 1 << 2, opcode.PUSHNULL: 1 << 0,
	opcode.PUSHDATA1: 1 << 3, opcode.PUSHDATA2: 1 << 9, opcode.PUSHDATA4: 1 << 12,
	opcode.PUSHM1: 1 << 0,
	opcode.NOP:    1 << 0,

	opcode.JMP: 1 << 1, opcode.JMPL: 1 << 1,
	opcode.JMPIF: 1 << 1, opcode.JMPIFL: 1 << 1,
	opcode.JMPIFNOT: 1 << 1, opcode.JMPIFNOTL: 1 << 1,
	opcode.JMPEQ: 1 << 1, opcode.JMPEQL: 1 << 1,
	opcode.JMPNE: 1 << 1, opcode.JMPNEL: 1 << 1,
	opcode.JMPGT: 1 << 1, opcode.JMPGTL: 1 << 1,
	opcode.JMPGE: 1 << 1, opcode.JMPGEL: 1 << 1,
	opcode.JMPLT: 1 << 1, opcode.JMPLTL: 1 << 1,
	opcode.JMPLE: 1 << 1, opcode.JMPLEL: 1 << 1,

	opcode.CALL: 1 << 9, opcode.CALLL: 1 << 9, opcode.CALLA: 1 << 9, opcode.CALLT: 1 << 15,
	opcode.ABORT: 1 << 0, opcode.ASSERT: 1 << 0, opcode.THROW: 1 << 9,
	opcode.TRY: 1 << 1, opcode.TRYL: 1 << 1,
	opcode.ENDTRY: 1 << 1, opcode.ENDTRYL: 1 << 1, opcode.ENDFINALLY: 1 << 2,
	opcode.RET:     0,
	opcode.SYSCALL: 1 << 15,

	opcode.DEPTH: 1 << 1, opcode.DROP: 1 << 1, opcode.NIP: 1 << 1,
	opcode.XDROP: 1 << 4, opcode.CLEAR: 1 << 4,
	opcode.DUP: 1 << 1, opcode.OVER: 1 << 1, opcode.PICK: 1 << 1, opcode.TUCK: 1 << 1,
	opcode.SWAP: 1 << 1, opcode.ROT: 1 << 1, opcode.ROLL: 1 << 4,
	opcode.REVERSE3: 1 << 1, opcode.REVERSE4: 1 << 1, opcode.REVERSEN: 1 << 4,

	opcode.INITSSLOT: 1 << 4, opcode.INITSLOT: 1 << 6,
	opcode.LDSFLD0: 1 << 1, opcode.LDSFLD1: 1 << 1, opcode.LDSFLD2: 1 << 1,
	opcode.LDSFLD3: 1 << 1, opcode.LDSFLD4: 1 << 1, opcode.LDSFLD5: 1 << 1,
	opcode.LDSFLD6: 1 << 1, opcode.LDSFLD: 1 << 1,
	opcode.STSFLD0: 1 << 1, opcode.STSFLD1: 1 << 1, opcode.STSFLD2: 1 << 1,
	opcode.STSFLD3: 1 << 1, opcode.STSFLD4: 1 << 1, opcode.STSFLD5: 1 << 1,
	opcode.STSFLD6: 1 << 1, opcode.STSFLD: 1 << 1,
	opcode.LDLOC0: 1 << 1, opcode.LDLOC1: 1 << 1, opcode.LDLOC2: 1 << 1, opcode.LDLOC3: 1 << 1,

	opcode.NEWARRAYT: 1 << 9, opcode.NEWSTRUCT0: 1 << 4, opcode.NEWSTRUCT: 1 << 9,
	opcode.NEWMAP: 1 << 3,
	opcode.SIZE:   1 << 2, opcode.HASKEY: 1 << 6,
	opcode.KEYS: 1 << 4, opcode.VALUES: 1 << 13,
	opcode.PICKITEM: 1 << 6, opcode.APPEND: 1 << 13, opcode.SETITEM: 1 << 13,
	opcode.REVERSEITEMS: 1 << 13, opcode.REMOVE: 1 << 4, opcode.CLEARITEMS: 1 << 4,
	opcode.POPITEM: 1 << 4,

	opcode.ISNULL: 1 << 1, opcode.ISTYPE: 1 << 1, opcode.CONVERT: 1 << 13,
	opcode.ABORTMSG: 1 << 0, opcode.ASSERTMSG: 1 << 0,
}

// defaultPrice is the multiplier used for every opcode not explicitly
// listed in opcodePrices: arithmetic, boolean and equality comparisons,
// which sit between trivial stack ops and the allocation-heavy ones above.
const defaultPrice = 1 << 3

// Opcode returns the GAS cost of running ops, given the chain's configured
// execution fee factor. Passing several opcodes sums their individual
// prices, for pricing a known fixed instruction sequence in one call.
func Opcode(baseExecFee int64, ops ...opcode.Opcode) int64 {
	var sum int64
	for _, op := range ops {
		price, ok := opcodePrices[op]
		if !ok {
			price = defaultPrice
		}
		sum += price
	}
	return baseExecFee * sum
}
