package emit

import (
	"math/big"
	"testing"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/callflag"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolInt(t *testing.T) {
	w := io.NewBufBinWriter()
	Bool(w.BinWriter, true)
	Bool(w.BinWriter, false)
	require.NoError(t, w.Err)
	assert.Equal(t, []byte{byte(opcode.PUSH1), byte(opcode.PUSH0)}, w.Bytes())
}

func TestIntSmall(t *testing.T) {
	for i := int64(-1); i <= 16; i++ {
		w := io.NewBufBinWriter()
		Int(w.BinWriter, i)
		require.NoError(t, w.Err)
		out := w.Bytes()
		require.Len(t, out, 1)
		assert.Equal(t, byte(opcode.PUSH0)+byte(i), out[0])
	}
}

func TestIntLarge(t *testing.T) {
	w := io.NewBufBinWriter()
	Int(w.BinWriter, 100500)
	require.NoError(t, w.Err)
	out := w.Bytes()
	assert.Equal(t, opcode.PUSHINT32, opcode.Opcode(out[0]))
	assert.Len(t, out, 5)
	assert.Equal(t, big.NewInt(100500), BytesToInt(out[1:]))
}

func TestBigIntRoundTrip(t *testing.T) {
	for _, n := range []*big.Int{big.NewInt(0), big.NewInt(-1), big.NewInt(255),
		big.NewInt(-255), big.NewInt(1 << 40), big.NewInt(-(1 << 40))} {
		w := io.NewBufBinWriter()
		BigInt(w.BinWriter, n)
		require.NoError(t, w.Err)
		out := w.Bytes()
		if n.IsInt64() && n.Int64() >= -1 && n.Int64() <= 16 {
			require.Len(t, out, 1)
			continue
		}
		assert.Equal(t, n, BytesToInt(out[1:]))
	}
}

func TestBytesShort(t *testing.T) {
	w := io.NewBufBinWriter()
	b := []byte{1, 2, 3}
	Bytes(w.BinWriter, b)
	require.NoError(t, w.Err)
	out := w.Bytes()
	assert.Equal(t, opcode.PUSHDATA1, opcode.Opcode(out[0]))
	assert.Equal(t, byte(len(b)), out[1])
	assert.Equal(t, b, out[2:])
}

func TestString(t *testing.T) {
	w := io.NewBufBinWriter()
	String(w.BinWriter, "method")
	require.NoError(t, w.Err)
	out := w.Bytes()
	assert.Equal(t, opcode.PUSHDATA1, opcode.Opcode(out[0]))
	assert.Equal(t, byte(6), out[1])
	assert.Equal(t, "method", string(out[2:]))
}

func TestSyscall(t *testing.T) {
	w := io.NewBufBinWriter()
	Syscall(w.BinWriter, "System.Contract.Call")
	require.NoError(t, w.Err)
	out := w.Bytes()
	assert.Equal(t, opcode.SYSCALL, opcode.Opcode(out[0]))
	assert.Len(t, out, 5)
}

func TestArrayEmpty(t *testing.T) {
	w := io.NewBufBinWriter()
	require.NoError(t, Array(w.BinWriter))
	assert.Equal(t, []byte{byte(opcode.NEWARRAY0)}, w.Bytes())
}

func TestArrayUnsupported(t *testing.T) {
	w := io.NewBufBinWriter()
	err := Array(w.BinWriter, struct{}{})
	require.Error(t, err)
}

func TestAppCallNoArgs(t *testing.T) {
	w := io.NewBufBinWriter()
	var h util.Uint160
	AppCallNoArgs(w.BinWriter, h, "method", callflag.All)
	require.NoError(t, w.Err)
	out := w.Bytes()
	assert.Equal(t, opcode.NEWARRAY0, opcode.Opcode(out[0]))
	assert.Equal(t, opcode.SYSCALL, opcode.Opcode(out[len(out)-5]))
}

func TestAppCallWithArgs(t *testing.T) {
	w := io.NewBufBinWriter()
	var h util.Uint160
	AppCall(w.BinWriter, h, "transfer", callflag.All, h, int64(100500))
	require.NoError(t, w.Err)
	out := w.Bytes()
	assert.Equal(t, opcode.SYSCALL, opcode.Opcode(out[len(out)-5]))
}
