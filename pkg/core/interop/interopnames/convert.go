// Package interopnames contains the canonical names of every syscall the
// virtual machine can invoke, along with the ID<->name conversion used to
// look them up at execution time.
package interopnames

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
)

// Canonical syscall names, matching what's emitted into compiled contracts.
const (
	SystemBinaryAtoi                     = "System.Binary.Atoi"
	SystemBinaryDeserialize               = "System.Binary.Deserialize"
	SystemBinaryItoa                      = "System.Binary.Itoa"
	SystemBinarySerialize                 = "System.Binary.Serialize"
	SystemContractCall                    = "System.Contract.Call"
	SystemContractCreateMultisigAccount   = "System.Contract.CreateMultisigAccount"
	SystemContractCreateStandardAccount   = "System.Contract.CreateStandardAccount"
	SystemContractGetCallFlags            = "System.Contract.GetCallFlags"
	SystemCryptoCheckMultisig              = "System.Crypto.CheckMultisig"
	SystemCryptoCheckSig                   = "System.Crypto.CheckSig"
	SystemEnumeratorNext                   = "System.Enumerator.Next"
	SystemEnumeratorValue                  = "System.Enumerator.Value"
	SystemIteratorCreate                   = "System.Iterator.Create"
	SystemIteratorKey                      = "System.Iterator.Key"
	SystemIteratorKeys                     = "System.Iterator.Keys"
	SystemIteratorNext                     = "System.Iterator.Next"
	SystemIteratorValue                    = "System.Iterator.Value"
	SystemIteratorValues                   = "System.Iterator.Values"
	SystemRuntimeBurnGas                   = "System.Runtime.BurnGas"
	SystemRuntimeCheckWitness               = "System.Runtime.CheckWitness"
	SystemRuntimeCurrentSigners             = "System.Runtime.CurrentSigners"
	SystemRuntimeGasLeft                    = "System.Runtime.GasLeft"
	SystemRuntimeGetAddressVersion          = "System.Runtime.GetAddressVersion"
	SystemRuntimeGetCallingScriptHash       = "System.Runtime.GetCallingScriptHash"
	SystemRuntimeGetEntryScriptHash         = "System.Runtime.GetEntryScriptHash"
	SystemRuntimeGetExecutingScriptHash     = "System.Runtime.GetExecutingScriptHash"
	SystemRuntimeGetInvocationCounter       = "System.Runtime.GetInvocationCounter"
	SystemRuntimeGetNetwork                 = "System.Runtime.GetNetwork"
	SystemRuntimeGetNotifications           = "System.Runtime.GetNotifications"
	SystemRuntimeGetRandom                  = "System.Runtime.GetRandom"
	SystemRuntimeGetScriptContainer         = "System.Runtime.GetScriptContainer"
	SystemRuntimeGetTime                    = "System.Runtime.GetTime"
	SystemRuntimeGetTrigger                 = "System.Runtime.GetTrigger"
	SystemRuntimeLoadScript                 = "System.Runtime.LoadScript"
	SystemRuntimeLog                        = "System.Runtime.Log"
	SystemRuntimeNotify                     = "System.Runtime.Notify"
	SystemRuntimePlatform                   = "System.Runtime.Platform"
	SystemStorageAsReadOnly                 = "System.Storage.AsReadOnly"
	SystemStorageDelete                     = "System.Storage.Delete"
	SystemStorageFind                       = "System.Storage.Find"
	SystemStorageGet                        = "System.Storage.Get"
	SystemStorageGetContext                 = "System.Storage.GetContext"
	SystemStorageGetReadOnlyContext         = "System.Storage.GetReadOnlyContext"
	SystemStorageLocalGet                   = "System.Storage.LocalGet"
	SystemStoragePut                        = "System.Storage.Put"
)

// names lists every known syscall name, used to validate an ID actually
// resolves to something real.
var names = []string{
	SystemBinaryAtoi,
	SystemBinaryDeserialize,
	SystemBinaryItoa,
	SystemBinarySerialize,
	SystemContractCall,
	SystemContractCreateMultisigAccount,
	SystemContractCreateStandardAccount,
	SystemContractGetCallFlags,
	SystemCryptoCheckMultisig,
	SystemCryptoCheckSig,
	SystemEnumeratorNext,
	SystemEnumeratorValue,
	SystemIteratorCreate,
	SystemIteratorKey,
	SystemIteratorKeys,
	SystemIteratorNext,
	SystemIteratorValue,
	SystemIteratorValues,
	SystemRuntimeBurnGas,
	SystemRuntimeCheckWitness,
	SystemRuntimeCurrentSigners,
	SystemRuntimeGasLeft,
	SystemRuntimeGetAddressVersion,
	SystemRuntimeGetCallingScriptHash,
	SystemRuntimeGetEntryScriptHash,
	SystemRuntimeGetExecutingScriptHash,
	SystemRuntimeGetInvocationCounter,
	SystemRuntimeGetNetwork,
	SystemRuntimeGetNotifications,
	SystemRuntimeGetRandom,
	SystemRuntimeGetScriptContainer,
	SystemRuntimeGetTime,
	SystemRuntimeGetTrigger,
	SystemRuntimeLoadScript,
	SystemRuntimeLog,
	SystemRuntimeNotify,
	SystemRuntimePlatform,
	SystemStorageAsReadOnly,
	SystemStorageDelete,
	SystemStorageFind,
	SystemStorageGet,
	SystemStorageGetContext,
	SystemStorageGetReadOnlyContext,
	SystemStorageLocalGet,
	SystemStoragePut,
}

var errNotFound = errors.New("interop ID not found")

// idToName maps a syscall ID, as computed by ToID, back to its name.
var idToName = make(map[uint32]string, len(names))

func init() {
	for _, name := range names {
		idToName[ToID([]byte(name))] = name
	}
}

// ToID returns the 4-byte ID used to reference a syscall by name, the first
// 4 bytes of the name's SHA256 hash (matching how N3 contracts encode
// SYSCALL operands).
func ToID(name []byte) uint32 {
	h := hash.Sha256(name)
	return uint32(h[0]) | uint32(h[1])<<8 | uint32(h[2])<<16 | uint32(h[3])<<24
}

// FromID returns the syscall name for id, or an error if id doesn't
// correspond to any known syscall.
func FromID(id uint32) (string, error) {
	name, ok := idToName[id]
	if !ok {
		return "", errNotFound
	}
	return name, nil
}
