package native

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/core/native/noderoles"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

const (
	oracleRequestPrefix byte = 7
	oracleIDListPrefix  byte = 8
	oraclePriceKey      byte = 5
	oracleRequestIDKey  byte = 9

	defaultOracleRequestPrice = 50000000

	// MaxOracleURLLength and MaxOracleFilterLength bound a request's URL
	// and JSONPath filter, matching the limits mainnet's Oracle enforces so
	// a request can't blow past a reasonable storage/response size.
	MaxOracleURLLength    = 256
	MaxOracleFilterLength = 128
	maxOracleUserDataLength = 512
)

// ErrOracleRequestNotFound is returned by Respond when requestID doesn't
// name a pending request.
var ErrOracleRequestNotFound = errors.New("native: oracle request not found")

// Oracle implements the OracleContract native contract: contracts submit
// URL-fetch requests here and designated oracle nodes resolve them.
// Fetching the URL and broadcasting the response transaction is an
// off-chain oracle service's job; that service has no counterpart in this
// workspace, so Oracle only implements the on-chain bookkeeping a real
// oracle service would drive through Respond (see the package-level
// DESIGN notes for what's intentionally left unimplemented).
type Oracle struct {
	md Metadata
	ID int32

	// CheckCommittee reports whether the current invocation carries the
	// committee's signature, wired in once the NEO contract is built.
	CheckCommittee func(ic *interop.Context) bool
	// Designate resolves which nodes currently hold the Oracle role.
	Designate *Designate
	// GAS is used to charge a request's GasForResponse at submission time.
	GAS *GAS
}

func newOracle() *Oracle {
	o := &Oracle{ID: oracleContractID}
	o.md = newMetadata(nativenames.Oracle, oracleContractID)
	o.registerMethods()
	return o
}

// Metadata returns the contract's static metadata.
func (o *Oracle) Metadata() *Metadata { return &o.md }

func (o *Oracle) registerMethods() {
	o.md.AddMethod(Method{
		MD: manifest.Method{
			Name: "request",
			Parameters: []manifest.Parameter{
				manifest.NewParameter("url", smartcontract.StringType),
				manifest.NewParameter("filter", smartcontract.StringType),
				manifest.NewParameter("callbackContract", smartcontract.Hash160Type),
				manifest.NewParameter("callbackMethod", smartcontract.StringType),
				manifest.NewParameter("userData", smartcontract.AnyType),
				manifest.NewParameter("gasForResponse", smartcontract.IntegerType),
			},
			ReturnType: smartcontract.VoidType,
		},
		RequiredFlags: interop.States | interop.AllowNotify,
		Func:          o.requestMethod,
	})
	o.md.AddMethod(Method{
		MD:            manifest.Method{Name: "getPrice", ReturnType: smartcontract.IntegerType, Safe: true},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
			return stackitem.NewBigInteger(big.NewInt(o.GetPrice(ic.DAO)))
		},
	})
	o.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "setPrice",
			Parameters: []manifest.Parameter{manifest.NewParameter("price", smartcontract.IntegerType)},
			ReturnType: smartcontract.VoidType,
		},
		RequiredFlags: interop.States,
		Func:          o.setPriceMethod,
	})
	o.md.AddEvent(manifest.Event{
		Name: "OracleRequest",
		Parameters: []manifest.Parameter{
			manifest.NewParameter("Id", smartcontract.IntegerType),
			manifest.NewParameter("RequestContract", smartcontract.Hash160Type),
			manifest.NewParameter("Url", smartcontract.StringType),
			manifest.NewParameter("Filter", smartcontract.StringType),
		},
	})
	o.md.AddEvent(manifest.Event{
		Name: "OracleResponse",
		Parameters: []manifest.Parameter{
			manifest.NewParameter("Id", smartcontract.IntegerType),
			manifest.NewParameter("OriginalTx", smartcontract.Hash256Type),
		},
	})
}

// Initialize seeds the default request price and request-ID counter.
func (o *Oracle) Initialize(ic *interop.Context, hf *config.Hardfork, newMD *HFSpecificContractMD) error {
	if hf != nil {
		return nil
	}
	if err := o.SetPrice(ic.DAO, defaultOracleRequestPrice); err != nil {
		return err
	}
	return putOracleRequestID(ic.DAO, o.ID, 0)
}

func getOracleRequestID(d dao.DAO, id int32) (uint64, error) {
	si := d.GetStorageItem(id, []byte{oracleRequestIDKey})
	if si == nil {
		return 0, nil
	}
	if len(si.Value) != 8 {
		return 0, errors.New("native: invalid oracle request-id storage item")
	}
	return binary.LittleEndian.Uint64(si.Value), nil
}

func putOracleRequestID(d dao.DAO, id int32, next uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, next)
	return d.PutStorageItem(id, []byte{oracleRequestIDKey}, &state.StorageItem{Value: b})
}

func oracleRequestKey(requestID uint64) []byte {
	b := make([]byte, 9)
	b[0] = oracleRequestPrefix
	binary.BigEndian.PutUint64(b[1:], requestID)
	return b
}

func oracleIDListKey(url string) []byte {
	u := hash.Sha256([]byte(url))
	b := make([]byte, 1+util.Uint256Size)
	b[0] = oracleIDListPrefix
	copy(b[1:], u.BytesBE())
	return b
}

// GetPrice returns the GAS cost, in fractions, of submitting a request.
func (o *Oracle) GetPrice(d dao.DAO) int64 {
	si := d.GetStorageItem(o.ID, []byte{oraclePriceKey})
	if si == nil {
		return defaultOracleRequestPrice
	}
	return new(big.Int).SetBytes(si.Value).Int64()
}

// SetPrice updates the GAS cost of submitting a request.
func (o *Oracle) SetPrice(d dao.DAO, price int64) error {
	if price <= 0 {
		return errors.New("native: oracle price must be positive")
	}
	return d.PutStorageItem(o.ID, []byte{oraclePriceKey}, &state.StorageItem{Value: big.NewInt(price).Bytes()})
}

// Request records a new oracle request, charging GasForResponse from
// callback's GAS balance and tracking requestID under url's pending-ID
// list so a single response can resolve every request sharing that URL.
func (o *Oracle) Request(ic *interop.Context, url string, filter *string, callback util.Uint160, method string, gasForResponse int64, userData []byte) (uint64, error) {
	if len(url) == 0 || len(url) > MaxOracleURLLength {
		return 0, errors.New("native: invalid oracle request url length")
	}
	if filter != nil && len(*filter) > MaxOracleFilterLength {
		return 0, errors.New("native: invalid oracle request filter length")
	}
	if len(userData) > maxOracleUserDataLength {
		return 0, errors.New("native: invalid oracle request userdata length")
	}
	if gasForResponse < o.GetPrice(ic.DAO) {
		return 0, errors.New("native: insufficient gas for oracle response")
	}

	requestID, err := getOracleRequestID(ic.DAO, o.ID)
	if err != nil {
		return 0, err
	}
	requestID++
	if err := putOracleRequestID(ic.DAO, o.ID, requestID); err != nil {
		return 0, err
	}

	var originalTx util.Uint256
	req := &state.OracleRequest{
		OriginalTxID:     originalTx,
		GasForResponse:   gasForResponse,
		URL:              url,
		Filter:           filter,
		CallbackContract: callback,
		CallbackMethod:   method,
		UserData:         userData,
	}
	data, err := stackitem.SerializeConvertible(req)
	if err != nil {
		return 0, err
	}
	if err := ic.DAO.PutStorageItem(o.ID, oracleRequestKey(requestID), &state.StorageItem{Value: data}); err != nil {
		return 0, err
	}

	if o.GAS != nil {
		if err := o.GAS.Burn(ic, callback, big.NewInt(gasForResponse)); err != nil {
			return 0, err
		}
	}

	idListKey := oracleIDListKey(url)
	ids, err := o.getIDList(ic.DAO, idListKey)
	if err != nil {
		return 0, err
	}
	ids = append(ids, requestID)
	if err := o.putIDList(ic.DAO, idListKey, ids); err != nil {
		return 0, err
	}
	return requestID, nil
}

func (o *Oracle) getIDList(d dao.DAO, key []byte) (IDList, error) {
	si := d.GetStorageItem(o.ID, key)
	if si == nil {
		return nil, nil
	}
	var ids IDList
	r := io.NewBinReaderFromBuf(si.Value)
	ids.DecodeBinary(r)
	return ids, r.Err
}

func (o *Oracle) putIDList(d dao.DAO, key []byte, ids IDList) error {
	if len(ids) == 0 {
		return d.DeleteStorageItem(o.ID, key)
	}
	w := io.NewBufBinWriter()
	ids.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	return d.PutStorageItem(o.ID, key, &state.StorageItem{Value: w.Bytes()})
}

// GetRequest returns the pending request stored under requestID.
func (o *Oracle) GetRequest(d dao.DAO, requestID uint64) (*state.OracleRequest, error) {
	si := d.GetStorageItem(o.ID, oracleRequestKey(requestID))
	if si == nil {
		return nil, ErrOracleRequestNotFound
	}
	req := new(state.OracleRequest)
	if err := stackitem.DeserializeConvertible(si.Value, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Respond resolves requestID with code/result, removing it from storage.
// It is the entry point a real oracle service's response transaction
// would drive; forwarding the result into CallbackContract.CallbackMethod
// requires a native-to-contract call bridge this workspace doesn't
// implement, so Respond only performs the on-chain bookkeeping (consuming
// the request and emitting the OracleResponse notification) and leaves
// invoking the callback to that bridge once it exists.
func (o *Oracle) Respond(ic *interop.Context, requestID uint64, code transaction.OracleResponseCode, result []byte) (*state.OracleRequest, error) {
	req, err := o.GetRequest(ic.DAO, requestID)
	if err != nil {
		return nil, err
	}
	if err := ic.DAO.DeleteStorageItem(o.ID, oracleRequestKey(requestID)); err != nil {
		return nil, err
	}

	idListKey := oracleIDListKey(req.URL)
	ids, err := o.getIDList(ic.DAO, idListKey)
	if err != nil {
		return nil, err
	}
	ids.Remove(requestID)
	if err := o.putIDList(ic.DAO, idListKey, ids); err != nil {
		return nil, err
	}
	return req, nil
}

// NodesForRole returns the public keys currently designated for the
// Oracle role, or nil if Designate hasn't been wired in yet.
func (o *Oracle) NodesForRole(d dao.DAO, index uint32) (NodeList, error) {
	if o.Designate == nil {
		return nil, nil
	}
	pubs, err := o.Designate.GetDesignatedByRole(d, noderoles.Oracle, index)
	if err != nil {
		return nil, err
	}
	return NodeList(pubs), nil
}

func (o *Oracle) requestMethod(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	url := string(bytesArg(args[0]))
	filterBytes := bytesArg(args[1])
	var filter *string
	if len(filterBytes) > 0 {
		f := string(filterBytes)
		filter = &f
	}
	callback, err := stackitem.ToUint160(args[2])
	if err != nil {
		panic(err)
	}
	method := string(bytesArg(args[3]))
	gasForResponse, ok := args[5].Value().(*big.Int)
	if !ok {
		panic("native: oracle request: gasForResponse is not an integer")
	}

	userData, err := stackitem.Serialize(args[4])
	if err != nil {
		panic(err)
	}
	if _, err := o.Request(ic, url, filter, callback, method, gasForResponse.Int64(), userData); err != nil {
		panic(err)
	}
	return stackitem.Null{}
}

func (o *Oracle) setPriceMethod(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	if !o.checkCommittee(ic) {
		panic("native: invalid committee signature")
	}
	price, ok := args[0].Value().(*big.Int)
	if !ok {
		panic("native: oracle setPrice: price is not an integer")
	}
	if err := o.SetPrice(ic.DAO, price.Int64()); err != nil {
		panic(err)
	}
	return stackitem.Null{}
}

func (o *Oracle) checkCommittee(ic *interop.Context) bool {
	if o.CheckCommittee == nil {
		return false
	}
	return o.CheckCommittee(ic)
}
