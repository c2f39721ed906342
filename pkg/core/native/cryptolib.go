package native

import (
	"crypto/ed25519"
	"crypto/elliptic"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
	"github.com/twmb/murmur3"
	"golang.org/x/crypto/sha3"
)

// NamedCurveHash identifies a curve/hash-function combination accepted by
// verifyWithECDsa, matching the network's CryptoLib ABI values.
type NamedCurveHash byte

// Valid curve/hash combinations.
const (
	Secp256r1Sha256    NamedCurveHash = 22
	Secp256k1Sha256    NamedCurveHash = 23
	Secp256r1Keccak256 NamedCurveHash = 24
	Secp256k1Keccak256 NamedCurveHash = 25
)

// HashFunc hashes a message before ECDSA verification.
type HashFunc func([]byte) util.Uint256

// Keccak256 hashes data with Keccak-256 (not NIST SHA3-256).
func Keccak256(data []byte) util.Uint256 {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	sum := h.Sum(nil)
	u, _ := util.Uint256DecodeBytesBE(sum)
	return u
}

// CryptoLib implements the CryptoLib native contract: hashing and
// signature verification primitives exposed to contracts beyond the
// witness-checking syscalls. BLS12-381 pairing/serialization support
// present on mainnet is out of scope here (see the dropped-dependency
// note for consensys/gnark).
type CryptoLib struct {
	md Metadata
}

func newCrypto() *CryptoLib {
	c := &CryptoLib{md: newMetadata(nativenames.CryptoLib, cryptolibContractID)}
	c.registerMethods()
	return c
}

// Metadata returns the contract's static metadata.
func (c *CryptoLib) Metadata() *Metadata { return &c.md }

func (c *CryptoLib) registerMethods() {
	c.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "sha256",
			ReturnType: smartcontract.ByteArrayType,
			Parameters: []manifest.Parameter{manifest.NewParameter("data", smartcontract.ByteArrayType)},
			Safe:       true,
		},
		RequiredFlags: interop.NoneFlag,
		Func:          c.sha256,
	})
	c.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "ripemd160",
			ReturnType: smartcontract.ByteArrayType,
			Parameters: []manifest.Parameter{manifest.NewParameter("data", smartcontract.ByteArrayType)},
			Safe:       true,
		},
		RequiredFlags: interop.NoneFlag,
		Func:          c.ripemd160,
	})
	c.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "keccak256",
			ReturnType: smartcontract.ByteArrayType,
			Parameters: []manifest.Parameter{manifest.NewParameter("data", smartcontract.ByteArrayType)},
			Safe:       true,
		},
		RequiredFlags: interop.NoneFlag,
		Func:          c.keccak256,
	})
	c.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "murmur32",
			ReturnType: smartcontract.ByteArrayType,
			Parameters: []manifest.Parameter{
				manifest.NewParameter("data", smartcontract.ByteArrayType),
				manifest.NewParameter("seed", smartcontract.IntegerType),
			},
			Safe: true,
		},
		RequiredFlags: interop.NoneFlag,
		Func:          c.murmur32,
	})
	c.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "verifyWithECDsa",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{
				manifest.NewParameter("message", smartcontract.ByteArrayType),
				manifest.NewParameter("pubkey", smartcontract.ByteArrayType),
				manifest.NewParameter("signature", smartcontract.ByteArrayType),
				manifest.NewParameter("curveHash", smartcontract.IntegerType),
			},
			Safe: true,
		},
		RequiredFlags: interop.NoneFlag,
		Func:          c.verifyWithECDsa,
	})
	c.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "verifyWithEd25519",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{
				manifest.NewParameter("message", smartcontract.ByteArrayType),
				manifest.NewParameter("pubkey", smartcontract.ByteArrayType),
				manifest.NewParameter("signature", smartcontract.ByteArrayType),
			},
			Safe: true,
		},
		RequiredFlags: interop.NoneFlag,
		Func:          c.verifyWithEd25519,
	})
	c.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "recoverSecp256K1",
			ReturnType: smartcontract.ByteArrayType,
			Parameters: []manifest.Parameter{
				manifest.NewParameter("messageHash", smartcontract.ByteArrayType),
				manifest.NewParameter("signature", smartcontract.ByteArrayType),
			},
			Safe: true,
		},
		RequiredFlags: interop.NoneFlag,
		Func:          c.recoverSecp256K1,
	})
}

func bytesArg(item stackitem.Item) []byte {
	b, ok := item.Value().([]byte)
	if !ok {
		panic("native: argument is not a byte string")
	}
	return b
}

func (c *CryptoLib) sha256(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	u := hash.Sha256(bytesArg(args[0]))
	return stackitem.NewByteArray(u.BytesBE())
}

func (c *CryptoLib) ripemd160(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	u := hash.RipeMD160(bytesArg(args[0]))
	return stackitem.NewByteArray(u.BytesBE())
}

func (c *CryptoLib) keccak256(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	u := Keccak256(bytesArg(args[0]))
	return stackitem.NewByteArray(u.BytesBE())
}

func (c *CryptoLib) murmur32(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data := bytesArg(args[0])
	seed, err := stackitem.ToUint32(args[1])
	if err != nil {
		panic(err)
	}
	sum := murmur3.SeedSum32(seed, data)
	out := make([]byte, 4)
	out[0] = byte(sum)
	out[1] = byte(sum >> 8)
	out[2] = byte(sum >> 16)
	out[3] = byte(sum >> 24)
	return stackitem.NewByteArray(out)
}

func (c *CryptoLib) verifyWithECDsa(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	msg := bytesArg(args[0])
	pubBytes := bytesArg(args[1])
	sig := bytesArg(args[2])
	curveVal, ok := args[3].Value().(*big.Int)
	if !ok {
		panic("native: curveHash is not an integer")
	}
	if !curveVal.IsInt64() {
		panic("native: curveHash out of range")
	}

	var (
		curve  elliptic.Curve
		hasher HashFunc
	)
	switch NamedCurveHash(curveVal.Int64()) {
	case Secp256r1Sha256:
		curve, hasher = elliptic.P256(), hash.Sha256
	case Secp256k1Sha256:
		curve, hasher = secp256k1.S256(), hash.Sha256
	case Secp256r1Keccak256:
		curve, hasher = elliptic.P256(), Keccak256
	case Secp256k1Keccak256:
		curve, hasher = secp256k1.S256(), Keccak256
	default:
		panic("native: unknown curve/hash combination")
	}

	pub, err := keys.NewPublicKeyFromBytes(pubBytes, curve)
	if err != nil {
		return stackitem.NewBool(false)
	}
	digest := hasher(msg)
	return stackitem.NewBool(pub.Verify(sig, digest.BytesBE()))
}

func (c *CryptoLib) verifyWithEd25519(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	msg := bytesArg(args[0])
	pub := bytesArg(args[1])
	sig := bytesArg(args[2])
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return stackitem.NewBool(false)
	}
	return stackitem.NewBool(ed25519.Verify(ed25519.PublicKey(pub), msg, sig))
}

func (c *CryptoLib) recoverSecp256K1(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	msgHash := bytesArg(args[0])
	sig := bytesArg(args[1])
	if len(msgHash) != 32 || len(sig) != 65 {
		return stackitem.Null{}
	}

	// dcrecdsa.RecoverCompact expects a 65-byte [recovery||r||s] signature,
	// with the recovery byte biased by 27 (35 for a compressed key).
	compact := make([]byte, 65)
	compact[0] = sig[64] + 31
	copy(compact[1:], sig[:64])

	pub, _, err := dcrecdsa.RecoverCompact(compact, msgHash)
	if err != nil {
		return stackitem.Null{}
	}
	return stackitem.NewByteArray(pub.SerializeCompressed())
}
