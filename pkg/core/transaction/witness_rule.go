package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// WitnessAction is the outcome a WitnessRule applies when its condition matches.
type WitnessAction byte

const (
	// WitnessDeny rejects the witness for matching contexts.
	WitnessDeny WitnessAction = 0
	// WitnessAllow accepts the witness for matching contexts.
	WitnessAllow WitnessAction = 1
)

// String returns the action's JSON name.
func (a WitnessAction) String() string {
	switch a {
	case WitnessDeny:
		return "Deny"
	case WitnessAllow:
		return "Allow"
	default:
		return fmt.Sprintf("Unknown(0x%x)", byte(a))
	}
}

func witnessActionFromString(s string) (WitnessAction, error) {
	switch s {
	case "Deny":
		return WitnessDeny, nil
	case "Allow":
		return WitnessAllow, nil
	default:
		return 0, fmt.Errorf("transaction: unknown witness action %q", s)
	}
}

// WitnessRule is a single entry of a rule-based (WitnessScope Rules)
// signer scope: Condition, when it matches, decides whether the witness
// is Allow-ed or Deny-ed for that call.
type WitnessRule struct {
	Action    WitnessAction
	Condition WitnessCondition
}

// EncodeBinary implements the io.Serializable interface.
func (r *WitnessRule) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(r.Action))
	r.Condition.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (r *WitnessRule) DecodeBinary(br *io.BinReader) {
	action := WitnessAction(br.ReadB())
	if br.Err != nil {
		return
	}
	if action != WitnessDeny && action != WitnessAllow {
		br.Err = fmt.Errorf("transaction: unknown witness action 0x%x", byte(action))
		return
	}
	r.Action = action
	cond := DecodeBinaryCondition(br)
	if br.Err != nil {
		return
	}
	r.Condition = cond
}

type witnessRuleAux struct {
	Action    string          `json:"action"`
	Condition json.RawMessage `json:"condition"`
}

// MarshalJSON implements the json.Marshaler interface.
func (r *WitnessRule) MarshalJSON() ([]byte, error) {
	cond, err := r.Condition.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(witnessRuleAux{Action: r.Action.String(), Condition: cond})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *WitnessRule) UnmarshalJSON(data []byte) error {
	var aux witnessRuleAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	action, err := witnessActionFromString(aux.Action)
	if err != nil {
		return err
	}
	if len(aux.Condition) == 0 {
		return fmt.Errorf("transaction: missing witness rule condition")
	}
	cond, err := UnmarshalConditionJSON(aux.Condition)
	if err != nil {
		return err
	}
	r.Action = action
	r.Condition = cond
	return nil
}

// ToStackItem converts r into its VM stack item representation: an array
// of [action, [conditionType, conditionPayload...]].
func (r *WitnessRule) ToStackItem() stackitem.Item {
	return stackitem.NewArray([]stackitem.Item{
		stackitem.Make(int64(r.Action)),
		conditionToStackItem(r.Condition),
	})
}

func conditionToStackItem(c WitnessCondition) stackitem.Item {
	items := []stackitem.Item{stackitem.Make(c.Type())}
	switch cond := c.(type) {
	case *ConditionBoolean:
		items = append(items, stackitem.Make(bool(*cond)))
	case *ConditionNot:
		items = append(items, conditionToStackItem(cond.Condition))
	case *ConditionAnd:
		sub := make([]stackitem.Item, len(*cond))
		for i, c := range *cond {
			sub[i] = conditionToStackItem(c)
		}
		items = append(items, stackitem.NewArray(sub))
	case *ConditionOr:
		sub := make([]stackitem.Item, len(*cond))
		for i, c := range *cond {
			sub[i] = conditionToStackItem(c)
		}
		items = append(items, stackitem.NewArray(sub))
	case *ConditionScriptHash:
		items = append(items, stackitem.Make(cond[:]))
	case *ConditionGroup:
		items = append(items, stackitem.Make((*keys.PublicKey)(cond).Bytes()))
	case ConditionCalledByEntry:
	case *ConditionCalledByContract:
		items = append(items, stackitem.Make(cond[:]))
	case *ConditionCalledByGroup:
		items = append(items, stackitem.Make((*keys.PublicKey)(cond).Bytes()))
	}
	return stackitem.Make(items)
}

// Copy returns a deep copy of r.
func (r *WitnessRule) Copy() *WitnessRule {
	return &WitnessRule{
		Action:    r.Action,
		Condition: copyCondition(r.Condition),
	}
}

func copyCondition(c WitnessCondition) WitnessCondition {
	switch cond := c.(type) {
	case *ConditionBoolean:
		b := *cond
		return &b
	case *ConditionNot:
		return &ConditionNot{Condition: copyCondition(cond.Condition)}
	case *ConditionAnd:
		sub := make(ConditionAnd, len(*cond))
		for i, c := range *cond {
			sub[i] = copyCondition(c)
		}
		return &sub
	case *ConditionOr:
		sub := make(ConditionOr, len(*cond))
		for i, c := range *cond {
			sub[i] = copyCondition(c)
		}
		return &sub
	case *ConditionScriptHash:
		h := *cond
		return &h
	case *ConditionGroup:
		g := *cond
		return &g
	case ConditionCalledByEntry:
		return cond
	case *ConditionCalledByContract:
		h := *cond
		return &h
	case *ConditionCalledByGroup:
		g := *cond
		return &g
	default:
		return c
	}
}
