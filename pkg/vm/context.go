package vm

import (
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// tryContext records one active TRY block: the instruction offsets its
// catch and finally handlers start at (0 meaning "no handler of that kind"),
// and how ENDTRY should resume once the active handler (if any) completes.
type tryContext struct {
	catchOffset   int
	finallyOffset int
	endOffset     int
	state         tryState
	// pending is the exception a THROW routed into this block's FINALLY
	// handler, re-thrown by ENDFINALLY once the handler completes.
	pending stackitem.Item
}

type tryState byte

const (
	tryStateTry tryState = iota
	tryStateCatch
	tryStateFinally
)

// Context is one frame of the VM's invocation stack: a script, its
// instruction pointer, and the static/local/argument slots and try-blocks
// scoped to this call.
type Context struct {
	Script []byte
	ip     int

	sslot *Slot
	lslot *Slot
	aslot *Slot

	tryStack []tryContext

	// CallFlags restricts what this frame's syscalls are allowed to do.
	CallFlags byte
	// ScriptHash identifies the contract this frame is executing, set by
	// the caller (the VM itself doesn't compute contract hashes).
	ScriptHash [20]byte
}

// NewContext creates a Context executing script from its first instruction.
func NewContext(script []byte) *Context {
	return &Context{Script: script}
}

// NextIP returns the offset the next instruction will be read from.
func (c *Context) NextIP() int { return c.ip }

// Jump moves the instruction pointer to absolute offset pos.
func (c *Context) Jump(pos int) {
	if pos < 0 || pos > len(c.Script) {
		panic(errInvalidJump)
	}
	c.ip = pos
}

// atEnd reports whether every instruction in the script has been consumed.
func (c *Context) atEnd() bool { return c.ip >= len(c.Script) }

// readOp reads the opcode at the instruction pointer and advances past it.
func (c *Context) readOp() opcode.Opcode {
	op := opcode.Opcode(c.Script[c.ip])
	c.ip++
	return op
}

func (c *Context) readByte() byte {
	b := c.Script[c.ip]
	c.ip++
	return b
}

func (c *Context) readBytes(n int) []byte {
	b := c.Script[c.ip : c.ip+n]
	c.ip += n
	return b
}

// StaticSlot returns this frame's static-field slot, allocated on its first
// INITSSLOT.
func (c *Context) StaticSlot() *Slot { return c.sslot }

// LocalSlot returns this frame's local-variable slot.
func (c *Context) LocalSlot() *Slot { return c.lslot }

// ArgumentSlot returns this frame's argument slot.
func (c *Context) ArgumentSlot() *Slot { return c.aslot }

// Copy returns a new Context sharing this one's script but starting
// execution at ip with fresh slots, used by CALL-family opcodes.
func (c *Context) Copy(ip int) *Context {
	return &Context{
		Script:     c.Script,
		ip:         ip,
		CallFlags:  c.CallFlags,
		ScriptHash: c.ScriptHash,
	}
}
