package native

import (
	"bytes"
	"encoding/base64"
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	base58neogo "github.com/neocorelabs/neo-core/pkg/encoding/base58"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// stdMaxInputLength bounds the size of any single argument accepted by a
// StdLib method, preventing a contract from forcing an expensive base/JSON
// conversion over an unbounded string.
const stdMaxInputLength = 1024

// Errors returned (as panics, per native method convention) by StdLib
// methods on malformed input.
var (
	ErrInvalidBase   = errors.New("native: invalid numeric base")
	ErrInvalidFormat = errors.New("native: invalid number format")
	ErrTooBigInput   = errors.New("native: input exceeds the maximum allowed length")
)

// StdLib implements the StdLib native contract: base64/base58 codecs,
// decimal/hex integer conversion, JSON and binary stack item
// serialization, and a handful of byte-string helpers contracts would
// otherwise have to reimplement in the VM's limited instruction set.
type StdLib struct {
	md Metadata
}

func newStd() *StdLib {
	s := &StdLib{md: newMetadata(nativenames.StdLib, stdlibContractID)}
	s.registerMethods()
	return s
}

// Metadata returns the contract's static metadata.
func (s *StdLib) Metadata() *Metadata { return &s.md }

// manifestParam is a terse (name, type) pair used below to cut down on
// repetition across StdLib's large method table.
type manifestParam struct {
	name string
	typ  smartcontract.ParamType
}

func manifestMethod(name string, ret smartcontract.ParamType, params []manifestParam) manifest.Method {
	mparams := make([]manifest.Parameter, len(params))
	for i, p := range params {
		mparams[i] = manifest.NewParameter(p.name, p.typ)
	}
	return manifest.Method{
		Name:       name,
		ReturnType: ret,
		Parameters: mparams,
		Safe:       true,
	}
}

func simpleMethod(name string, ret smartcontract.ParamType, params []manifestParam, fn MethodFunc) Method {
	return Method{
		MD:            manifestMethod(name, ret, params),
		RequiredFlags: interop.NoneFlag,
		Func:          fn,
	}
}

func (s *StdLib) registerMethods() {
	byteParam := manifestParam{"data", smartcontract.ByteArrayType}
	strParam := manifestParam{"value", smartcontract.StringType}

	s.md.AddMethod(simpleMethod("serialize", smartcontract.ByteArrayType,
		[]manifestParam{{"item", smartcontract.AnyType}}, s.serialize))
	s.md.AddMethod(simpleMethod("deserialize", smartcontract.AnyType,
		[]manifestParam{byteParam}, s.deserialize))
	s.md.AddMethod(simpleMethod("jsonSerialize", smartcontract.ByteArrayType,
		[]manifestParam{{"item", smartcontract.AnyType}}, s.jsonSerialize))
	s.md.AddMethod(simpleMethod("jsonDeserialize", smartcontract.AnyType,
		[]manifestParam{byteParam}, s.jsonDeserialize))

	s.md.AddMethod(simpleMethod("base64Encode", smartcontract.StringType,
		[]manifestParam{byteParam}, s.base64Encode))
	s.md.AddMethod(simpleMethod("base64Decode", smartcontract.ByteArrayType,
		[]manifestParam{strParam}, s.base64Decode))
	s.md.AddMethod(simpleMethod("base58Encode", smartcontract.StringType,
		[]manifestParam{byteParam}, s.base58Encode))
	s.md.AddMethod(simpleMethod("base58Decode", smartcontract.ByteArrayType,
		[]manifestParam{strParam}, s.base58Decode))
	s.md.AddMethod(simpleMethod("base58CheckEncode", smartcontract.StringType,
		[]manifestParam{byteParam}, s.base58CheckEncode))
	s.md.AddMethod(simpleMethod("base58CheckDecode", smartcontract.ByteArrayType,
		[]manifestParam{strParam}, s.base58CheckDecode))

	s.md.AddMethod(simpleMethod("itoa", smartcontract.StringType,
		[]manifestParam{{"value", smartcontract.IntegerType}, {"base", smartcontract.IntegerType}}, s.itoa))
	s.md.AddMethod(simpleMethod("itoa", smartcontract.StringType,
		[]manifestParam{{"value", smartcontract.IntegerType}}, s.itoa10))
	s.md.AddMethod(simpleMethod("atoi", smartcontract.IntegerType,
		[]manifestParam{strParam, {"base", smartcontract.IntegerType}}, s.atoi))
	s.md.AddMethod(simpleMethod("atoi", smartcontract.IntegerType,
		[]manifestParam{strParam}, s.atoi10))

	s.md.AddMethod(simpleMethod("memoryCompare", smartcontract.IntegerType,
		[]manifestParam{{"str1", smartcontract.ByteArrayType}, {"str2", smartcontract.ByteArrayType}}, s.memoryCompare))
	s.md.AddMethod(simpleMethod("memorySearch", smartcontract.IntegerType,
		[]manifestParam{{"mem", smartcontract.ByteArrayType}, {"value", smartcontract.ByteArrayType}}, s.memorySearch2))
	s.md.AddMethod(simpleMethod("memorySearch", smartcontract.IntegerType,
		[]manifestParam{{"mem", smartcontract.ByteArrayType}, {"value", smartcontract.ByteArrayType}, {"start", smartcontract.IntegerType}}, s.memorySearch3))
	s.md.AddMethod(simpleMethod("memorySearch", smartcontract.IntegerType,
		[]manifestParam{{"mem", smartcontract.ByteArrayType}, {"value", smartcontract.ByteArrayType}, {"start", smartcontract.IntegerType}, {"backward", smartcontract.BoolType}}, s.memorySearch4))

	s.md.AddMethod(simpleMethod("stringSplit", smartcontract.ArrayType,
		[]manifestParam{strParam, {"separator", smartcontract.StringType}}, s.stringSplit2))
	s.md.AddMethod(simpleMethod("stringSplit", smartcontract.ArrayType,
		[]manifestParam{strParam, {"separator", smartcontract.StringType}, {"removeEmpty", smartcontract.BoolType}}, s.stringSplit3))
}

func stdBytesArg(item stackitem.Item) []byte {
	b, err := item.TryBytes()
	if err != nil {
		panic(err)
	}
	if len(b) > stdMaxInputLength {
		panic(ErrTooBigInput)
	}
	return b
}

func stdStringArg(item stackitem.Item) string {
	return string(stdBytesArg(item))
}

// serialize encodes item in the VM's own binary stack item format.
func (s *StdLib) serialize(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data, err := stackitem.Serialize(args[0])
	if err != nil {
		panic(err)
	}
	return stackitem.NewByteArray(data)
}

// deserialize is serialize's inverse.
func (s *StdLib) deserialize(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data := stdBytesArg(args[0])
	item, err := stackitem.Deserialize(data)
	if err != nil {
		panic(err)
	}
	return item
}

func (s *StdLib) jsonSerialize(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data, err := stackitem.ToJSON(args[0])
	if err != nil {
		panic(err)
	}
	return stackitem.NewByteArray(data)
}

func (s *StdLib) jsonDeserialize(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data := stdBytesArg(args[0])
	item, err := stackitem.FromJSON(data)
	if err != nil {
		panic(err)
	}
	return item
}

func (s *StdLib) base64Encode(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data := stdBytesArg(args[0])
	return stackitem.NewByteArray([]byte(base64.StdEncoding.EncodeToString(data)))
}

func (s *StdLib) base64Decode(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	str := stdStringArg(args[0])
	data, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		panic(err)
	}
	return stackitem.NewByteArray(data)
}

func (s *StdLib) base58Encode(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data := stdBytesArg(args[0])
	return stackitem.NewByteArray([]byte(base58.Encode(data)))
}

func (s *StdLib) base58Decode(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	str := stdStringArg(args[0])
	data, err := base58.Decode(str)
	if err != nil {
		panic(err)
	}
	return stackitem.NewByteArray(data)
}

func (s *StdLib) base58CheckEncode(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	data := stdBytesArg(args[0])
	return stackitem.NewByteArray([]byte(base58neogo.CheckEncode(data)))
}

func (s *StdLib) base58CheckDecode(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	str := stdStringArg(args[0])
	data, err := base58neogo.CheckDecode(str)
	if err != nil {
		panic(err)
	}
	return stackitem.NewByteArray(data)
}

// itoaBase renders num in the given base. Base 16 uses a minimal nibble-wide
// two's-complement encoding (not byte-wide): a value is padded with one
// leading zero nibble whenever its top hex digit's sign bit would otherwise
// flip the value atoi would read back, so itoa/atoi round-trip exactly.
func itoaBase(num, base *big.Int) string {
	if !base.IsInt64() {
		panic(ErrInvalidBase)
	}
	switch base.Int64() {
	case 10:
		return num.Text(10)
	case 16:
		if num.Sign() == 0 {
			return "0"
		}
		if num.Sign() > 0 {
			str := strings.ToUpper(num.Text(16))
			first, _ := strconv.ParseUint(str[:1], 16, 8)
			if first >= 8 {
				str = "0" + str
			}
			return str
		}
		// Find the smallest nibble count N with -2^(4N-1) <= num.
		n := 1
		for new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(4*n-1))).Cmp(num) > 0 {
			n++
		}
		mod := new(big.Int).Lsh(big.NewInt(1), uint(4*n))
		unsigned := new(big.Int).Add(mod, num)
		str := strings.ToUpper(unsigned.Text(16))
		for len(str) < n {
			str = "0" + str
		}
		return str
	default:
		panic(ErrInvalidBase)
	}
}

func (s *StdLib) itoa(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	num, ok := args[0].Value().(*big.Int)
	if !ok {
		panic("native: itoa: value is not an integer")
	}
	base, ok := args[1].Value().(*big.Int)
	if !ok {
		panic("native: itoa: base is not an integer")
	}
	return stackitem.NewByteArray([]byte(itoaBase(num, base)))
}

func (s *StdLib) itoa10(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	return s.itoa(ic, []stackitem.Item{args[0], stackitem.Make(10)})
}

func atoiBase(str string, base *big.Int) *big.Int {
	if len(str) > stdMaxInputLength {
		panic(ErrTooBigInput)
	}
	if !base.IsInt64() {
		panic(ErrInvalidBase)
	}
	switch base.Int64() {
	case 10:
		n, ok := new(big.Int).SetString(str, 10)
		if !ok {
			panic(ErrInvalidFormat)
		}
		return n
	case 16:
		if str == "" {
			panic(ErrInvalidFormat)
		}
		raw, ok := new(big.Int).SetString(str, 16)
		if !ok {
			panic(ErrInvalidFormat)
		}
		// Interpret str as a minimal nibble-wide two's-complement encoding:
		// the sign bit is the top bit of its leading hex digit.
		first, _ := strconv.ParseUint(str[:1], 16, 8)
		if first >= 8 {
			bitLen := uint(len(str) * 4)
			mod := new(big.Int).Lsh(big.NewInt(1), bitLen)
			raw = new(big.Int).Sub(raw, mod)
		}
		return raw
	default:
		panic(ErrInvalidBase)
	}
}

func (s *StdLib) atoi(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	str := stdStringArg(args[0])
	base, ok := args[1].Value().(*big.Int)
	if !ok {
		panic("native: atoi: base is not an integer")
	}
	return stackitem.NewBigInteger(atoiBase(str, base))
}

func (s *StdLib) atoi10(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	return s.atoi(ic, []stackitem.Item{args[0], stackitem.Make(10)})
}

func (s *StdLib) memoryCompare(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	s1 := stdBytesArg(args[0])
	s2 := stdBytesArg(args[1])
	return stackitem.NewBigInteger(big.NewInt(int64(bytes.Compare(s1, s2))))
}

func memorySearch(mem, value []byte, start int, backward bool) int64 {
	if start < 0 || start > len(mem) {
		panic("native: memorySearch: start index out of range")
	}
	var idx int
	if backward {
		idx = bytes.LastIndex(mem[:start], value)
	} else {
		idx = bytes.Index(mem[start:], value)
		if idx >= 0 {
			idx += start
		}
	}
	return int64(idx)
}

func (s *StdLib) memorySearch2(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	mem := stdBytesArg(args[0])
	value := stdBytesArg(args[1])
	return stackitem.NewBigInteger(big.NewInt(memorySearch(mem, value, 0, false)))
}

func (s *StdLib) memorySearch3(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	mem := stdBytesArg(args[0])
	value := stdBytesArg(args[1])
	start, err := stackitem.ToUint32(args[2])
	if err != nil {
		panic(err)
	}
	return stackitem.NewBigInteger(big.NewInt(memorySearch(mem, value, int(start), false)))
}

func (s *StdLib) memorySearch4(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	mem := stdBytesArg(args[0])
	value := stdBytesArg(args[1])
	start, err := stackitem.ToUint32(args[2])
	if err != nil {
		panic(err)
	}
	backward, ok := args[3].Value().(bool)
	if !ok {
		panic("native: memorySearch: backward is not a boolean")
	}
	return stackitem.NewBigInteger(big.NewInt(memorySearch(mem, value, int(start), backward)))
}

func stringSplit(str, sep string, removeEmpty bool) []stackitem.Item {
	var parts []string
	if sep == "" {
		parts = make([]string, len(str))
		for i, r := range []byte(str) {
			parts[i] = string(r)
		}
		if str == "" {
			parts = []string{""}
		}
	} else {
		parts = strings.Split(str, sep)
	}
	items := make([]stackitem.Item, 0, len(parts))
	for _, p := range parts {
		if removeEmpty && p == "" {
			continue
		}
		items = append(items, stackitem.Make(p))
	}
	return items
}

func (s *StdLib) stringSplit2(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	str := stdStringArg(args[0])
	sep := string(stdBytesArg(args[1]))
	return stackitem.NewArray(stringSplit(str, sep, false))
}

func (s *StdLib) stringSplit3(_ *interop.Context, args []stackitem.Item) stackitem.Item {
	str := stdStringArg(args[0])
	sep := string(stdBytesArg(args[1]))
	removeEmpty, ok := args[2].Value().(bool)
	if !ok {
		panic("native: stringSplit: removeEmpty is not a boolean")
	}
	return stackitem.NewArray(stringSplit(str, sep, removeEmpty))
}
