package state

import (
	"encoding/json"
	"errors"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/trigger"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// NotificationEvent is a single "Runtime.Notify" call recorded during a
// contract invocation: the emitting contract, the event name, and its
// arguments (always an Array item).
type NotificationEvent struct {
	ScriptHash util.Uint160
	Name       string
	Item       *stackitem.Array
}

// EncodeBinary implements the io.Serializable interface.
func (e *NotificationEvent) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(e.ScriptHash.BytesBE())
	w.WriteString(e.Name)
	stackitem.EncodeBinary(e.Item, w)
}

// DecodeBinary implements the io.Serializable interface.
func (e *NotificationEvent) DecodeBinary(r *io.BinReader) {
	var hashBytes [util.Uint160Size]byte
	r.ReadBytes(hashBytes[:])
	if r.Err != nil {
		return
	}
	hash, err := util.Uint160DecodeBytesBE(hashBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	e.ScriptHash = hash
	e.Name = r.ReadString()
	item := stackitem.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	arr, ok := item.(*stackitem.Array)
	if !ok {
		r.Err = errors.New("state: NotificationEvent state is not an array")
		return
	}
	e.Item = arr
}

// notificationEventAux is NotificationEvent's JSON shape.
type notificationEventAux struct {
	ScriptHash util.Uint160    `json:"contract"`
	Name       string          `json:"eventname"`
	Item       json.RawMessage `json:"state"`
}

// MarshalJSON implements the json.Marshaler interface.
func (e NotificationEvent) MarshalJSON() ([]byte, error) {
	rawItem, err := stackitem.ToJSON(e.Item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(notificationEventAux{
		ScriptHash: e.ScriptHash,
		Name:       e.Name,
		Item:       rawItem,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (e *NotificationEvent) UnmarshalJSON(data []byte) error {
	var aux notificationEventAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	item, err := stackitem.FromJSON(aux.Item)
	if err != nil {
		return err
	}
	arr, ok := item.(*stackitem.Array)
	if !ok {
		return errors.New("state: NotificationEvent state is not an array")
	}
	e.ScriptHash = aux.ScriptHash
	e.Name = aux.Name
	e.Item = arr
	return nil
}

// Execution is the outcome of running a single trigger (an OnPersist, a
// transaction's Application execution, etc.): its VM state, gas spent, the
// items left on the evaluation stack and the notifications it raised.
type Execution struct {
	Trigger        trigger.Type
	VMState        vm.State
	GasConsumed    int64
	Stack          []stackitem.Item
	Events         []NotificationEvent
	FaultException string
}

// AppExecResult ties an Execution to the container (transaction or block)
// that produced it.
type AppExecResult struct {
	Container util.Uint256
	Execution
}

// EncodeBinary implements the io.Serializable interface.
func (aer *AppExecResult) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(aer.Container.BytesBE())
	w.WriteB(byte(aer.Trigger))
	w.WriteB(byte(aer.VMState))
	w.WriteU64LE(uint64(aer.GasConsumed))
	w.WriteString(aer.FaultException)

	w.WriteVarUint(uint64(len(aer.Stack)))
	for _, item := range aer.Stack {
		w.WriteVarBytes(encodeStackItemLoosely(item))
	}

	w.WriteArray(aer.Events)
}

// DecodeBinary implements the io.Serializable interface.
func (aer *AppExecResult) DecodeBinary(r *io.BinReader) {
	var containerBytes [util.Uint256Size]byte
	r.ReadBytes(containerBytes[:])
	if r.Err != nil {
		return
	}
	container, err := util.Uint256DecodeBytesBE(containerBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	aer.Container = container
	aer.Trigger = trigger.Type(r.ReadB())
	aer.VMState = vm.State(r.ReadB())
	aer.GasConsumed = int64(r.ReadU64LE())
	aer.FaultException = r.ReadString()

	count := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	stack := make([]stackitem.Item, count)
	for i := range stack {
		data := r.ReadVarBytes()
		if r.Err != nil {
			return
		}
		stack[i] = decodeStackItemLoosely(data)
	}
	aer.Stack = stack

	aer.Events = nil
	r.ReadArray(&aer.Events)
}

// encodeStackItemLoosely serializes item for persistence in an execution's
// recorded stack, tolerating values the strict stack item codec rejects
// (oversized/cyclic structures, Interop items carrying a native Go value
// that can't be round-tripped). On failure, or for an Interop item, it
// returns just enough to reconstruct an empty placeholder on decode rather
// than losing the whole recorded stack.
func encodeStackItemLoosely(item stackitem.Item) []byte {
	if item == nil {
		return nil
	}
	if _, ok := item.(*stackitem.Interop); ok {
		return []byte{byte(stackitem.InteropT)}
	}
	data, err := stackitem.Serialize(item)
	if err != nil {
		return nil
	}
	return data
}

// decodeStackItemLoosely is the inverse of encodeStackItemLoosely: it never
// fails, producing nil for anything it can't reconstruct.
func decodeStackItemLoosely(data []byte) stackitem.Item {
	if len(data) == 0 {
		return nil
	}
	if len(data) == 1 && stackitem.Type(data[0]) == stackitem.InteropT {
		return stackitem.NewInterop(nil)
	}
	item, err := stackitem.Deserialize(data)
	if err != nil {
		return nil
	}
	return item
}

// appExecResultAux is AppExecResult's JSON shape.
type appExecResultAux struct {
	Container      util.Uint256        `json:"container"`
	Trigger        trigger.Type        `json:"trigger"`
	VMState        vm.State            `json:"vmstate"`
	GasConsumed    int64               `json:"gasconsumed,string"`
	Stack          []json.RawMessage   `json:"stack"`
	FaultException string              `json:"exception,omitempty"`
	Events         []NotificationEvent `json:"notifications"`
}

// MarshalJSON implements the json.Marshaler interface.
func (aer AppExecResult) MarshalJSON() ([]byte, error) {
	stack := make([]json.RawMessage, len(aer.Stack))
	for i, item := range aer.Stack {
		raw, err := stackitem.ToJSON(item)
		if err != nil {
			return nil, err
		}
		stack[i] = raw
	}
	return json.Marshal(appExecResultAux{
		Container:      aer.Container,
		Trigger:        aer.Trigger,
		VMState:        aer.VMState,
		GasConsumed:    aer.GasConsumed,
		Stack:          stack,
		FaultException: aer.FaultException,
		Events:         aer.Events,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface. A stack entry
// that fails to parse drops the whole recorded stack (set to nil) rather
// than failing the overall result.
func (aer *AppExecResult) UnmarshalJSON(data []byte) error {
	var aux appExecResultAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	stack := make([]stackitem.Item, len(aux.Stack))
	for i, raw := range aux.Stack {
		item, err := stackitem.FromJSON(raw)
		if err != nil {
			stack = nil
			break
		}
		stack[i] = item
	}

	aer.Container = aux.Container
	aer.Trigger = aux.Trigger
	aer.VMState = aux.VMState
	aer.GasConsumed = aux.GasConsumed
	aer.FaultException = aux.FaultException
	aer.Stack = stack
	aer.Events = aux.Events
	return nil
}
