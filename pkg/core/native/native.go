// Package native implements the chain's built-in (native) contracts:
// ContractManagement, the Ledger, NEO, GAS, Policy, RoleManagement, Oracle
// and Notary contracts that have no deployed script and instead run
// directly as Go code invoked through the regular contract-call interop.
package native

import (
	"sort"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// nativeContractHash derives the script hash a native contract is
// addressed by, the same way a regular contract deployed by the zero
// sender with a zero NEF checksum would.
func nativeContractHash(name string) util.Uint160 {
	return state.CreateContractHash(util.Uint160{}, 0, name)
}

// Well-known native contract IDs, matching the order they were introduced
// on mainnet; negative by convention to keep them outside the range of
// regularly deployed contract IDs.
const (
	managementContractID = -1
	stdlibContractID      = -2
	cryptolibContractID   = -3
	ledgerContractID       = -4
	neoContractID          = -5
	gasContractID          = -6
	policyContractID       = -7
	designationContractID  = -8
	oracleContractID       = -9
	notaryContractID       = -10
)

// MethodFunc is a native contract method's implementation: given the
// current execution context and arguments already popped off the
// evaluation stack, it returns the method's result (or stackitem.Null{}
// for a void method).
type MethodFunc func(ic *interop.Context, args []stackitem.Item) stackitem.Item

// Method ties a manifest-level method description to its Go implementation
// and the interop call flags it requires.
type Method struct {
	MD            manifest.Method
	Func          MethodFunc
	RequiredFlags interop.CallFlag
	ActiveFrom    config.Hardfork
}

// Metadata is the static description of a native contract: its identity,
// manifest, and the methods it exposes.
type Metadata struct {
	Name     string
	Hash     util.Uint160
	ID       int32
	Methods  []Method
	Manifest manifest.Manifest
}

// HFSpecificContractMD describes the methods and events a native contract
// exposes starting at a given hardfork, letting a contract's ABI grow (or
// its behavior change) at an activation height without touching the
// methods active before it.
type HFSpecificContractMD struct {
	Methods []Method
	Events  []manifest.Event
}

// newMetadata creates a Metadata for a native contract with the given name
// and ID, deriving its script hash the same way a regular deployed
// contract's hash is derived.
func newMetadata(name string, id int32) Metadata {
	return Metadata{
		Name:     name,
		Hash:     nativeContractHash(name),
		ID:       id,
		Manifest: *manifest.NewManifest(name),
	}
}

// AddMethod registers m, appending its description to the contract's ABI.
func (c *Metadata) AddMethod(m Method) {
	m.MD.Offset = len(c.Methods)
	c.Methods = append(c.Methods, m)
	c.Manifest.ABI.Methods = append(c.Manifest.ABI.Methods, m.MD)
}

// AddEvent registers a notification event in the contract's ABI.
func (c *Metadata) AddEvent(e manifest.Event) {
	c.Manifest.ABI.Events = append(c.Manifest.ABI.Events, e)
}

// GetMethod returns the method named name with exactly paramCount
// parameters (or any arity, if paramCount is -1), along with whether one
// was found. When several overloads share a name, the one with the fewest
// parameters matching paramCount wins, mirroring how the ABI's own
// GetMethod resolves overloads.
func (c *Metadata) GetMethod(name string, paramCount int) (*Method, bool) {
	var found *Method
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.MD.Name != name {
			continue
		}
		if paramCount != -1 && len(m.MD.Parameters) != paramCount {
			continue
		}
		if found == nil || len(m.MD.Parameters) < len(found.MD.Parameters) {
			found = m
		}
	}
	return found, found != nil
}

// sortMethods orders a contract's methods the way ABI.GetMethod expects to
// find the most specific overload first: by name, then by ascending
// parameter count.
func sortMethods(methods []Method) {
	sort.SliceStable(methods, func(i, j int) bool {
		if methods[i].MD.Name != methods[j].MD.Name {
			return methods[i].MD.Name < methods[j].MD.Name
		}
		return len(methods[i].MD.Parameters) < len(methods[j].MD.Parameters)
	})
}

// Contract is implemented by every native contract: enough to register it,
// dispatch calls into it and report its metadata to callers.
type Contract interface {
	Metadata() *Metadata
}

// Contracts is the full set of native contracts active on the chain,
// keyed both by name and by script hash for dispatch.
type Contracts struct {
	Contracts []Contract

	Ledger     *Ledger
	Management *Management
	Policy     *Policy
	Neo        *NEO
	Gas        *GAS
	Designate  *Designate
	Oracle     *Oracle
	CryptoLib  *CryptoLib
	StdLib     *StdLib

	byHash map[util.Uint160]Contract
	byName map[string]Contract
}

// NewContracts builds the full set of native contracts for the given
// protocol configuration.
func NewContracts(cfg config.ProtocolConfiguration) *Contracts {
	cs := &Contracts{
		byHash: make(map[util.Uint160]Contract),
		byName: make(map[string]Contract),
	}

	cs.Ledger = newLedger()
	cs.Management = NewManagement()
	cs.Policy = newPolicy()
	cs.Neo = newNEO(cfg)
	cs.Gas = newGAS()
	cs.Designate = newDesignate()
	cs.Oracle = newOracle()
	cs.CryptoLib = newCrypto()
	cs.StdLib = newStd()

	cs.Management.Policy = cs.Policy
	cs.Neo.GAS = cs.Gas
	cs.Policy.CheckCommittee = cs.Neo.CheckCommitteeWitness
	cs.Designate.CheckCommittee = cs.Neo.CheckCommitteeWitness
	cs.Oracle.CheckCommittee = cs.Neo.CheckCommitteeWitness
	cs.Oracle.GAS = cs.Gas
	cs.Oracle.Designate = cs.Designate

	cs.Contracts = []Contract{
		cs.Ledger,
		cs.Management,
		cs.Policy,
		cs.Neo,
		cs.Gas,
		cs.Designate,
		cs.Oracle,
		cs.CryptoLib,
		cs.StdLib,
	}

	for _, c := range cs.Contracts {
		sortMethods(c.Metadata().Methods)
		cs.byHash[c.Metadata().Hash] = c
		cs.byName[c.Metadata().Name] = c
	}
	return cs
}

// ByHash returns the native contract deployed at hash, or nil if there is
// none.
func (cs *Contracts) ByHash(hash util.Uint160) Contract {
	return cs.byHash[hash]
}

// ByName returns the native contract named name, or nil if there is none.
func (cs *Contracts) ByName(name string) Contract {
	return cs.byName[name]
}
