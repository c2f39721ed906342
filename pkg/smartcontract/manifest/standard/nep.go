package standard

import (
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
)

// DecimalTokenBase is the set of methods common to every divisible token
// standard (NEP-17 and NEP-11's divisible variant): symbol, decimals and
// totalSupply.
var DecimalTokenBase = &manifest.Manifest{
	ABI: manifest.ABI{
		Methods: []manifest.Method{
			{Name: "symbol", ReturnType: smartcontract.StringType, Safe: true},
			{Name: "decimals", ReturnType: smartcontract.IntegerType, Safe: true},
			{Name: "totalSupply", ReturnType: smartcontract.IntegerType, Safe: true},
		},
	},
}

// Nep17 is the fungible token interface defined by NEP-17: balanceOf and
// transfer, plus the Transfer notification.
var Nep17 = &manifest.Manifest{
	ABI: manifest.ABI{
		Methods: []manifest.Method{
			{
				Name: "balanceOf",
				Parameters: []manifest.Parameter{
					{Name: "account", Type: smartcontract.Hash160Type},
				},
				ReturnType: smartcontract.IntegerType,
				Safe:       true,
			},
			{
				Name: "transfer",
				Parameters: []manifest.Parameter{
					{Name: "from", Type: smartcontract.Hash160Type},
					{Name: "to", Type: smartcontract.Hash160Type},
					{Name: "amount", Type: smartcontract.IntegerType},
					{Name: "data", Type: smartcontract.AnyType},
				},
				ReturnType: smartcontract.BoolType,
			},
		},
		Events: []manifest.Event{
			{
				Name: "Transfer",
				Parameters: []manifest.Parameter{
					{Name: "from", Type: smartcontract.Hash160Type},
					{Name: "to", Type: smartcontract.Hash160Type},
					{Name: "amount", Type: smartcontract.IntegerType},
				},
			},
		},
	},
}

// Nep11 is the non-fungible token interface defined by NEP-11: balanceOf,
// tokensOf, ownerOf, transfer and properties, plus the Transfer
// notification. Optional methods (tokens, ownerOf for divisible tokens)
// are listed separately.
var Nep11 = &manifest.Manifest{
	ABI: manifest.ABI{
		Methods: []manifest.Method{
			{
				Name: "balanceOf",
				Parameters: []manifest.Parameter{
					{Name: "owner", Type: smartcontract.Hash160Type},
				},
				ReturnType: smartcontract.IntegerType,
				Safe:       true,
			},
			{
				Name: "tokensOf",
				Parameters: []manifest.Parameter{
					{Name: "owner", Type: smartcontract.Hash160Type},
				},
				ReturnType: smartcontract.InteropInterfaceType,
				Safe:       true,
			},
			{
				Name: "ownerOf",
				Parameters: []manifest.Parameter{
					{Name: "tokenId", Type: smartcontract.ByteArrayType},
				},
				ReturnType: smartcontract.Hash160Type,
				Safe:       true,
			},
			{
				Name: "transfer",
				Parameters: []manifest.Parameter{
					{Name: "to", Type: smartcontract.Hash160Type},
					{Name: "tokenId", Type: smartcontract.ByteArrayType},
					{Name: "data", Type: smartcontract.AnyType},
				},
				ReturnType: smartcontract.BoolType,
			},
			{
				Name: "properties",
				Parameters: []manifest.Parameter{
					{Name: "tokenId", Type: smartcontract.ByteArrayType},
				},
				ReturnType: smartcontract.MapType,
				Safe:       true,
			},
		},
		Events: []manifest.Event{
			{
				Name: "Transfer",
				Parameters: []manifest.Parameter{
					{Name: "from", Type: smartcontract.Hash160Type},
					{Name: "to", Type: smartcontract.Hash160Type},
					{Name: "amount", Type: smartcontract.IntegerType},
					{Name: "tokenId", Type: smartcontract.ByteArrayType},
				},
			},
		},
	},
}

// Nep11Optional lists NEP-11 methods that only apply to the divisible
// variant of the standard.
var Nep11Optional = []manifest.Method{
	{
		Name: "tokens",
		ReturnType: smartcontract.InteropInterfaceType,
		Safe:       true,
	},
}

func mergeMethods(groups ...[]manifest.Method) []manifest.Method {
	var out []manifest.Method
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var nep17Standard = &Standard{
	Manifest: manifest.Manifest{
		ABI: manifest.ABI{
			Methods: mergeMethods(DecimalTokenBase.ABI.Methods, Nep17.ABI.Methods),
			Events:  Nep17.ABI.Events,
		},
	},
}

var nep11Standard = &Standard{
	Manifest: manifest.Manifest{
		ABI: manifest.ABI{
			Methods: mergeMethods(DecimalTokenBase.ABI.Methods, Nep11.ABI.Methods),
			Events:  Nep11.ABI.Events,
		},
	},
	Optional: Nep11Optional,
}
