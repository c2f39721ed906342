package transaction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// maxSubitems bounds the number of sub-conditions an And/Or condition may
// hold, and maxConditionNestingDepth bounds how deeply conditions may
// nest, both to keep verification cost bounded.
const (
	maxSubitems              = 16
	maxConditionNestingDepth = 2
)

// WitnessConditionType identifies the kind of a WitnessCondition.
type WitnessConditionType byte

// Condition type values, matching the network's wire encoding.
const (
	WitnessBoolean          WitnessConditionType = 0x00
	WitnessNot              WitnessConditionType = 0x01
	WitnessAnd              WitnessConditionType = 0x02
	WitnessOr               WitnessConditionType = 0x03
	WitnessScriptHash       WitnessConditionType = 0x18
	WitnessGroup            WitnessConditionType = 0x19
	WitnessCalledByEntry    WitnessConditionType = 0x20
	WitnessCalledByContract WitnessConditionType = 0x28
	WitnessCalledByGroup    WitnessConditionType = 0x29
)

var conditionTypeNames = map[WitnessConditionType]string{
	WitnessBoolean:          "Boolean",
	WitnessNot:              "Not",
	WitnessAnd:              "And",
	WitnessOr:               "Or",
	WitnessScriptHash:       "ScriptHash",
	WitnessGroup:            "Group",
	WitnessCalledByEntry:    "CalledByEntry",
	WitnessCalledByContract: "CalledByContract",
	WitnessCalledByGroup:    "CalledByGroup",
}

// String returns the condition type's JSON name.
func (t WitnessConditionType) String() string {
	if n, ok := conditionTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(0x%x)", byte(t))
}

func witnessConditionTypeFromString(s string) (WitnessConditionType, error) {
	for t, n := range conditionTypeNames {
		if n == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("transaction: unknown witness condition type %q", s)
}

// MatchContext is the execution context a WitnessCondition is matched
// against: the scripts involved in the current contract call chain and
// their group memberships.
type MatchContext interface {
	GetCallingScriptHash() util.Uint160
	GetCurrentScriptHash() util.Uint160
	GetEntryScriptHash() util.Uint160
	CallingScriptHasGroup(k *keys.PublicKey) (bool, error)
	CurrentScriptHasGroup(k *keys.PublicKey) (bool, error)
}

// WitnessCondition is a single node of the rule-based witness scope's
// condition tree.
type WitnessCondition interface {
	Type() WitnessConditionType
	Match(ctx MatchContext) (bool, error)
	EncodeBinary(w *io.BinWriter)
	// DecodeBinarySpecific decodes the condition-specific payload (the
	// type byte has already been consumed); maxDepth bounds how many more
	// nesting levels And/Or/Not may recurse into.
	DecodeBinarySpecific(r *io.BinReader, maxDepth int)
	json.Marshaler
}

// conditionAux is the shared JSON shape every condition marshals through.
type conditionAux struct {
	Type        string          `json:"type"`
	Expression  json.RawMessage `json:"expression,omitempty"`
	Expressions json.RawMessage `json:"expressions,omitempty"`
	Hash        *util.Uint160   `json:"hash,omitempty"`
	Group       *keys.PublicKey `json:"group,omitempty"`
}

// ConditionBoolean is a constant true/false condition.
type ConditionBoolean bool

// Type implements WitnessCondition.
func (c *ConditionBoolean) Type() WitnessConditionType { return WitnessBoolean }

// Match implements WitnessCondition.
func (c *ConditionBoolean) Match(_ MatchContext) (bool, error) { return bool(*c), nil }

// EncodeBinary implements WitnessCondition.
func (c *ConditionBoolean) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessBoolean))
	w.WriteBool(bool(*c))
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionBoolean) DecodeBinarySpecific(r *io.BinReader, _ int) {
	*c = ConditionBoolean(r.ReadBool())
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionBoolean) MarshalJSON() ([]byte, error) {
	expr, err := json.Marshal(bool(*c))
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionAux{Type: WitnessBoolean.String(), Expression: expr})
}

// ConditionNot negates its single inner condition.
type ConditionNot struct {
	Condition WitnessCondition
}

// Type implements WitnessCondition.
func (c *ConditionNot) Type() WitnessConditionType { return WitnessNot }

// Match implements WitnessCondition.
func (c *ConditionNot) Match(ctx MatchContext) (bool, error) {
	res, err := c.Condition.Match(ctx)
	if err != nil {
		return false, err
	}
	return !res, nil
}

// EncodeBinary implements WitnessCondition.
func (c *ConditionNot) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessNot))
	c.Condition.EncodeBinary(w)
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionNot) DecodeBinarySpecific(r *io.BinReader, maxDepth int) {
	if maxDepth <= 0 {
		r.Err = errors.New("transaction: witness condition nested too deep")
		return
	}
	cond := decodeBinaryCondition(r, maxDepth-1)
	if r.Err != nil {
		return
	}
	c.Condition = cond
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionNot) MarshalJSON() ([]byte, error) {
	expr, err := c.Condition.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionAux{Type: WitnessNot.String(), Expression: expr})
}

// ConditionAnd matches when every sub-condition matches.
type ConditionAnd []WitnessCondition

// Type implements WitnessCondition.
func (c *ConditionAnd) Type() WitnessConditionType { return WitnessAnd }

// Match implements WitnessCondition.
func (c *ConditionAnd) Match(ctx MatchContext) (bool, error) {
	for _, cond := range *c {
		res, err := cond.Match(ctx)
		if err != nil {
			return false, err
		}
		if !res {
			return false, nil
		}
	}
	return true, nil
}

// EncodeBinary implements WitnessCondition.
func (c *ConditionAnd) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessAnd))
	encodeConditionList(w, *c)
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionAnd) DecodeBinarySpecific(r *io.BinReader, maxDepth int) {
	*c = decodeConditionList(r, maxDepth)
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionAnd) MarshalJSON() ([]byte, error) {
	expr, err := marshalConditionList(*c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionAux{Type: WitnessAnd.String(), Expressions: expr})
}

// ConditionOr matches when any sub-condition matches.
type ConditionOr []WitnessCondition

// Type implements WitnessCondition.
func (c *ConditionOr) Type() WitnessConditionType { return WitnessOr }

// Match implements WitnessCondition.
func (c *ConditionOr) Match(ctx MatchContext) (bool, error) {
	var sawErr error
	for _, cond := range *c {
		res, err := cond.Match(ctx)
		if err != nil {
			sawErr = err
			continue
		}
		if res {
			return true, nil
		}
	}
	if sawErr != nil {
		return false, sawErr
	}
	return false, nil
}

// EncodeBinary implements WitnessCondition.
func (c *ConditionOr) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessOr))
	encodeConditionList(w, *c)
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionOr) DecodeBinarySpecific(r *io.BinReader, maxDepth int) {
	*c = decodeConditionList(r, maxDepth)
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionOr) MarshalJSON() ([]byte, error) {
	expr, err := marshalConditionList(*c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionAux{Type: WitnessOr.String(), Expressions: expr})
}

func encodeConditionList(w *io.BinWriter, conds []WitnessCondition) {
	w.WriteVarUint(uint64(len(conds)))
	for _, cond := range conds {
		cond.EncodeBinary(w)
		if w.Err != nil {
			return
		}
	}
}

func decodeConditionList(r *io.BinReader, maxDepth int) []WitnessCondition {
	if maxDepth <= 0 {
		r.Err = errors.New("transaction: witness condition nested too deep")
		return nil
	}
	n := r.ReadVarUint()
	if r.Err != nil {
		return nil
	}
	if n == 0 || n > maxSubitems {
		r.Err = fmt.Errorf("transaction: invalid number of sub-conditions %d", n)
		return nil
	}
	res := make([]WitnessCondition, n)
	for i := range res {
		res[i] = decodeBinaryCondition(r, maxDepth-1)
		if r.Err != nil {
			return nil
		}
	}
	return res
}

func marshalConditionList(conds []WitnessCondition) (json.RawMessage, error) {
	parts := make([]json.RawMessage, len(conds))
	for i, cond := range conds {
		b, err := cond.MarshalJSON()
		if err != nil {
			return nil, err
		}
		parts[i] = b
	}
	return json.Marshal(parts)
}

// ConditionScriptHash matches when the current script hash equals hash.
type ConditionScriptHash util.Uint160

// Type implements WitnessCondition.
func (c *ConditionScriptHash) Type() WitnessConditionType { return WitnessScriptHash }

// Match implements WitnessCondition.
func (c *ConditionScriptHash) Match(ctx MatchContext) (bool, error) {
	return ctx.GetCurrentScriptHash() == util.Uint160(*c), nil
}

// EncodeBinary implements WitnessCondition.
func (c *ConditionScriptHash) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessScriptHash))
	w.WriteBytes(c[:])
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionScriptHash) DecodeBinarySpecific(r *io.BinReader, _ int) {
	r.ReadBytes(c[:])
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionScriptHash) MarshalJSON() ([]byte, error) {
	h := util.Uint160(*c)
	return json.Marshal(conditionAux{Type: WitnessScriptHash.String(), Hash: &h})
}

// ConditionGroup matches when the current script belongs to group.
type ConditionGroup keys.PublicKey

// Type implements WitnessCondition.
func (c *ConditionGroup) Type() WitnessConditionType { return WitnessGroup }

// Match implements WitnessCondition.
func (c *ConditionGroup) Match(ctx MatchContext) (bool, error) {
	return ctx.CurrentScriptHasGroup((*keys.PublicKey)(c))
}

// EncodeBinary implements WitnessCondition.
func (c *ConditionGroup) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessGroup))
	(*keys.PublicKey)(c).EncodeBinary(w)
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionGroup) DecodeBinarySpecific(r *io.BinReader, _ int) {
	(*keys.PublicKey)(c).DecodeBinary(r)
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionGroup) MarshalJSON() ([]byte, error) {
	pk := (*keys.PublicKey)(c)
	return json.Marshal(conditionAux{Type: WitnessGroup.String(), Group: pk})
}

// ConditionCalledByEntry matches calls made by (or equal to) the entry script.
type ConditionCalledByEntry struct{}

// Type implements WitnessCondition.
func (c ConditionCalledByEntry) Type() WitnessConditionType { return WitnessCalledByEntry }

// Match implements WitnessCondition.
func (c ConditionCalledByEntry) Match(ctx MatchContext) (bool, error) {
	entry := ctx.GetEntryScriptHash()
	return ctx.GetCallingScriptHash() == entry || ctx.GetCurrentScriptHash() == entry, nil
}

// EncodeBinary implements WitnessCondition.
func (c ConditionCalledByEntry) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessCalledByEntry))
}

// DecodeBinarySpecific implements WitnessCondition.
func (c ConditionCalledByEntry) DecodeBinarySpecific(r *io.BinReader, _ int) {}

// MarshalJSON implements json.Marshaler.
func (c ConditionCalledByEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(conditionAux{Type: WitnessCalledByEntry.String()})
}

// ConditionCalledByContract matches when the calling script's hash equals hash.
type ConditionCalledByContract util.Uint160

// Type implements WitnessCondition.
func (c *ConditionCalledByContract) Type() WitnessConditionType { return WitnessCalledByContract }

// Match implements WitnessCondition.
func (c *ConditionCalledByContract) Match(ctx MatchContext) (bool, error) {
	return ctx.GetCallingScriptHash() == util.Uint160(*c), nil
}

// EncodeBinary implements WitnessCondition.
func (c *ConditionCalledByContract) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessCalledByContract))
	w.WriteBytes(c[:])
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionCalledByContract) DecodeBinarySpecific(r *io.BinReader, _ int) {
	r.ReadBytes(c[:])
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionCalledByContract) MarshalJSON() ([]byte, error) {
	h := util.Uint160(*c)
	return json.Marshal(conditionAux{Type: WitnessCalledByContract.String(), Hash: &h})
}

// ConditionCalledByGroup matches when the calling script belongs to group.
type ConditionCalledByGroup keys.PublicKey

// Type implements WitnessCondition.
func (c *ConditionCalledByGroup) Type() WitnessConditionType { return WitnessCalledByGroup }

// Match implements WitnessCondition.
func (c *ConditionCalledByGroup) Match(ctx MatchContext) (bool, error) {
	return ctx.CallingScriptHasGroup((*keys.PublicKey)(c))
}

// EncodeBinary implements WitnessCondition.
func (c *ConditionCalledByGroup) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(WitnessCalledByGroup))
	(*keys.PublicKey)(c).EncodeBinary(w)
}

// DecodeBinarySpecific implements WitnessCondition.
func (c *ConditionCalledByGroup) DecodeBinarySpecific(r *io.BinReader, _ int) {
	(*keys.PublicKey)(c).DecodeBinary(r)
}

// MarshalJSON implements json.Marshaler.
func (c *ConditionCalledByGroup) MarshalJSON() ([]byte, error) {
	pk := (*keys.PublicKey)(c)
	return json.Marshal(conditionAux{Type: WitnessCalledByGroup.String(), Group: pk})
}

// DecodeBinaryCondition reads a WitnessCondition tree previously written
// by EncodeBinary, rejecting unknown types and excessive nesting.
func DecodeBinaryCondition(r *io.BinReader) WitnessCondition {
	return decodeBinaryCondition(r, maxConditionNestingDepth)
}

func decodeBinaryCondition(r *io.BinReader, maxDepth int) WitnessCondition {
	if r.Err != nil {
		return nil
	}
	typ := WitnessConditionType(r.ReadB())
	if r.Err != nil {
		return nil
	}
	cond := newCondition(typ)
	if cond == nil {
		r.Err = fmt.Errorf("transaction: unknown witness condition type 0x%x", byte(typ))
		return nil
	}
	cond.DecodeBinarySpecific(r, maxDepth)
	if r.Err != nil {
		return nil
	}
	return cond
}

func newCondition(typ WitnessConditionType) WitnessCondition {
	switch typ {
	case WitnessBoolean:
		var b ConditionBoolean
		return &b
	case WitnessNot:
		return &ConditionNot{}
	case WitnessAnd:
		return &ConditionAnd{}
	case WitnessOr:
		return &ConditionOr{}
	case WitnessScriptHash:
		return &ConditionScriptHash{}
	case WitnessGroup:
		return &ConditionGroup{}
	case WitnessCalledByEntry:
		return ConditionCalledByEntry{}
	case WitnessCalledByContract:
		return &ConditionCalledByContract{}
	case WitnessCalledByGroup:
		return &ConditionCalledByGroup{}
	default:
		return nil
	}
}

// UnmarshalConditionJSON decodes a WitnessCondition previously produced by
// its MarshalJSON method.
func UnmarshalConditionJSON(data []byte) (WitnessCondition, error) {
	var aux conditionAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	typ, err := witnessConditionTypeFromString(aux.Type)
	if err != nil {
		return nil, err
	}
	switch typ {
	case WitnessBoolean:
		if len(aux.Expression) == 0 {
			return nil, errors.New("transaction: missing boolean expression")
		}
		var b bool
		if err := json.Unmarshal(aux.Expression, &b); err != nil {
			return nil, err
		}
		res := ConditionBoolean(b)
		return &res, nil
	case WitnessNot:
		if len(aux.Expression) == 0 {
			return nil, errors.New("transaction: missing not expression")
		}
		inner, err := UnmarshalConditionJSON(aux.Expression)
		if err != nil {
			return nil, err
		}
		return &ConditionNot{Condition: inner}, nil
	case WitnessAnd, WitnessOr:
		if len(aux.Expressions) == 0 {
			return nil, errors.New("transaction: missing expressions list")
		}
		var rawList []json.RawMessage
		if err := json.Unmarshal(aux.Expressions, &rawList); err != nil {
			return nil, err
		}
		if len(rawList) == 0 || len(rawList) > maxSubitems {
			return nil, fmt.Errorf("transaction: invalid number of sub-conditions %d", len(rawList))
		}
		conds := make([]WitnessCondition, len(rawList))
		for i, raw := range rawList {
			cond, err := UnmarshalConditionJSON(raw)
			if err != nil {
				return nil, err
			}
			conds[i] = cond
		}
		if typ == WitnessAnd {
			res := ConditionAnd(conds)
			return &res, nil
		}
		res := ConditionOr(conds)
		return &res, nil
	case WitnessScriptHash:
		if aux.Hash == nil {
			return nil, errors.New("transaction: missing hash")
		}
		res := ConditionScriptHash(*aux.Hash)
		return &res, nil
	case WitnessGroup:
		if aux.Group == nil {
			return nil, errors.New("transaction: missing group")
		}
		res := ConditionGroup(*aux.Group)
		return &res, nil
	case WitnessCalledByEntry:
		return ConditionCalledByEntry{}, nil
	case WitnessCalledByContract:
		if aux.Hash == nil {
			return nil, errors.New("transaction: missing hash")
		}
		res := ConditionCalledByContract(*aux.Hash)
		return &res, nil
	case WitnessCalledByGroup:
		if aux.Group == nil {
			return nil, errors.New("transaction: missing group")
		}
		res := ConditionCalledByGroup(*aux.Group)
		return &res, nil
	default:
		return nil, fmt.Errorf("transaction: unknown witness condition type %q", aux.Type)
	}
}
