package native

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func TestSha256(t *testing.T) {
	c := newCrypto()
	ic := &interop.Context{}

	t.Run("bad arg type", func(t *testing.T) {
		require.Panics(t, func() {
			c.sha256(ic, []stackitem.Item{stackitem.NewInterop(nil)})
		})
	})
	t.Run("good", func(t *testing.T) {
		require.Equal(t, "47dc540c94ceb704a23875c11273e16bb0b8a87aed84de911f2133568115f254", hex.EncodeToString(c.sha256(ic, []stackitem.Item{stackitem.NewByteArray([]byte{1, 0})}).Value().([]byte)))
	})
}

func TestRIPEMD160(t *testing.T) {
	c := newCrypto()
	ic := &interop.Context{}

	t.Run("bad arg type", func(t *testing.T) {
		require.Panics(t, func() {
			c.ripemd160(ic, []stackitem.Item{stackitem.NewInterop(nil)})
		})
	})
	t.Run("good", func(t *testing.T) {
		require.Equal(t, "213492c0c6fc5d61497cf17249dd31cd9964b8a3", hex.EncodeToString(c.ripemd160(ic, []stackitem.Item{stackitem.NewByteArray([]byte{1, 0})}).Value().([]byte)))
	})
}

func TestKeccak256(t *testing.T) {
	c := newCrypto()
	ic := &interop.Context{}

	t.Run("bad arg type", func(t *testing.T) {
		require.Panics(t, func() {
			c.keccak256(ic, []stackitem.Item{stackitem.NewInterop(nil)})
		})
	})
	t.Run("good", func(t *testing.T) {
		result := c.keccak256(ic, []stackitem.Item{stackitem.NewByteArray([]byte{1, 0})}).Value().([]byte)
		require.Equal(t, "628bf3596747d233f1e6533345700066bf458fa48daedaf04a7be6c392902476", hex.EncodeToString(result))
	})
}

func TestMurmur32(t *testing.T) {
	c := newCrypto()
	ic := &interop.Context{}

	t.Run("bad arg type", func(t *testing.T) {
		require.Panics(t, func() {
			c.murmur32(ic, []stackitem.Item{stackitem.NewInterop(nil), stackitem.Make(5)})
		})
	})
	t.Run("good", func(t *testing.T) {
		data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 0, 1}
		seed := 10
		expected := make([]byte, 4)
		binary.LittleEndian.PutUint32(expected, 378574820)
		require.Equal(t, expected, c.murmur32(ic, []stackitem.Item{stackitem.NewByteArray(data), stackitem.Make(seed)}).Value().([]byte))
	})
}

func TestCryptoLibVerifyWithECDsa(t *testing.T) {
	t.Run("R1 sha256", func(t *testing.T) { testECDSAVerify(t, Secp256r1Sha256) })
	t.Run("K1 sha256", func(t *testing.T) { testECDSAVerify(t, Secp256k1Sha256) })
	t.Run("R1 keccak256", func(t *testing.T) { testECDSAVerify(t, Secp256r1Keccak256) })
	t.Run("K1 keccak256", func(t *testing.T) { testECDSAVerify(t, Secp256k1Keccak256) })
}

func testECDSAVerify(t *testing.T, curve NamedCurveHash) {
	var (
		priv   *keys.PrivateKey
		err    error
		c      = newCrypto()
		ic     = &interop.Context{}
		hasher HashFunc
	)
	switch curve {
	case Secp256k1Sha256:
		priv, err = keys.NewSecp256k1PrivateKey()
		hasher = hash.Sha256
	case Secp256r1Sha256:
		priv, err = keys.NewPrivateKey()
		hasher = hash.Sha256
	case Secp256k1Keccak256:
		priv, err = keys.NewSecp256k1PrivateKey()
		hasher = Keccak256
	case Secp256r1Keccak256:
		priv, err = keys.NewPrivateKey()
		hasher = Keccak256
	default:
		t.Fatal("unknown curve/hash")
	}
	require.NoError(t, err)

	msg := []byte("test message")
	sig := priv.SignHash(hasher(msg))

	runCase := func(t *testing.T, expected bool, message, pub, signature []byte) {
		res := c.verifyWithECDsa(ic, []stackitem.Item{
			stackitem.NewByteArray(message),
			stackitem.NewByteArray(pub),
			stackitem.NewByteArray(signature),
			stackitem.Make(int64(curve)),
		})
		require.Equal(t, stackitem.NewBool(expected), res)
	}

	t.Run("success", func(t *testing.T) {
		runCase(t, true, msg, priv.PublicKey().Bytes(), sig)
	})
	t.Run("invalid signature", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[0] ^= 0xff
		runCase(t, false, msg, priv.PublicKey().Bytes(), bad)
	})
	t.Run("unknown curve", func(t *testing.T) {
		require.Panics(t, func() {
			c.verifyWithECDsa(ic, []stackitem.Item{
				stackitem.NewByteArray(msg),
				stackitem.NewByteArray(priv.PublicKey().Bytes()),
				stackitem.NewByteArray(sig),
				stackitem.Make(int64(99)),
			})
		})
	})
}

func TestCryptoLib_VerifyWithED25519(t *testing.T) {
	c := newCrypto()
	ic := &interop.Context{}
	msg := []byte("The quick brown fox jumps over the lazy dog")

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	sig := ed25519.Sign(priv, msg)

	t.Run("success", func(t *testing.T) {
		res := c.verifyWithEd25519(ic, []stackitem.Item{
			stackitem.NewByteArray(msg),
			stackitem.NewByteArray(pub),
			stackitem.NewByteArray(sig),
		})
		require.Equal(t, stackitem.NewBool(true), res)
	})
	t.Run("bad pubkey length", func(t *testing.T) {
		res := c.verifyWithEd25519(ic, []stackitem.Item{
			stackitem.NewByteArray(msg),
			stackitem.NewByteArray([]byte{1, 2, 3}),
			stackitem.NewByteArray(sig),
		})
		require.Equal(t, stackitem.NewBool(false), res)
	})
}

func TestCryptoLib_RecoverSecp256K1(t *testing.T) {
	c := newCrypto()
	ic := &interop.Context{}
	priv, err := keys.NewSecp256k1PrivateKey()
	require.NoError(t, err)

	msgHash := hash.Sha256([]byte("test message")).BytesBE()

	t.Run("invalid message hash len", func(t *testing.T) {
		res := c.recoverSecp256K1(ic, []stackitem.Item{
			stackitem.NewByteArray([]byte{1, 2, 3}),
			stackitem.NewByteArray(make([]byte, 65)),
		})
		require.Equal(t, stackitem.Null{}, res)
	})
	t.Run("invalid signature len", func(t *testing.T) {
		res := c.recoverSecp256K1(ic, []stackitem.Item{
			stackitem.NewByteArray(msgHash),
			stackitem.NewByteArray([]byte{1, 2, 3}),
		})
		require.Equal(t, stackitem.Null{}, res)
	})
	_ = priv
}
