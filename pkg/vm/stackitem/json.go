package stackitem

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// maxJSONDepth bounds how deeply nested a JSON-encoded stack item tree may be.
const maxJSONDepth = 10

func marshalHexString(b []byte) ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func marshalItemsJSON(items []Item) ([]byte, error) {
	parts := make([]json.RawMessage, len(items))
	for idx, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		parts[idx] = b
	}
	return json.Marshal(parts)
}

func marshalMapJSON(elements []MapElement) ([]byte, error) {
	type pair struct {
		Key   json.RawMessage `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	pairs := make([]pair, len(elements))
	for idx, e := range elements {
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		pairs[idx] = pair{Key: k, Value: v}
	}
	return json.Marshal(pairs)
}

// FromJSON decodes a Neo VM stack item from its JSON representation: numbers
// become Integer (only if they round-trip as whole numbers), strings are
// base64-decoded into ByteString, arrays/objects become Array/Map, object
// keys become ByteString items carrying the key's literal bytes.
func FromJSON(data []byte) (Item, error) {
	if len(data) > MaxSize {
		return nil, ErrTooBig
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	item, err := decodeJSONValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err == nil {
		return nil, errors.New("stackitem: unexpected trailing data")
	}
	return item, nil
}

func decodeJSONValue(dec *json.Decoder, depth int) (Item, error) {
	if depth >= maxJSONDepth {
		return nil, errors.New("stackitem: JSON nesting too deep")
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '[':
			items := []Item{}
			for dec.More() {
				it, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				items = append(items, it)
			}
			end, err := dec.Token()
			if err != nil {
				return nil, err
			}
			if d, ok := end.(json.Delim); !ok || d != ']' {
				return nil, errors.New("stackitem: malformed array")
			}
			return NewArray(items), nil
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.New("stackitem: map key must be a string")
				}
				val, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				m.Add(NewByteArray([]byte(key)), val)
			}
			end, err := dec.Token()
			if err != nil {
				return nil, err
			}
			if d, ok := end.(json.Delim); !ok || d != '}' {
				return nil, errors.New("stackitem: malformed map")
			}
			return m, nil
		default:
			return nil, fmt.Errorf("stackitem: unexpected delimiter %v", v)
		}
	case nil:
		return Null{}, nil
	case bool:
		return NewBool(v), nil
	case json.Number:
		return bigIntegerFromJSONNumber(v)
	case string:
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("stackitem: invalid base64 string: %w", err)
		}
		return NewByteArray(b), nil
	default:
		return nil, fmt.Errorf("stackitem: unexpected JSON token %v", tok)
	}
}

func bigIntegerFromJSONNumber(n json.Number) (Item, error) {
	s := string(n)
	intPart := s
	for idx := 0; idx < len(s); idx++ {
		if s[idx] == '.' {
			intPart = s[:idx]
			for _, c := range s[idx+1:] {
				if c != '0' {
					return nil, fmt.Errorf("stackitem: %s is not an integer", s)
				}
			}
			break
		}
	}
	v, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, fmt.Errorf("stackitem: invalid number %s", s)
	}
	return &BigInteger{value: v}, nil
}

// ToJSON encodes item as JSON per the Neo VM stack item JSON format:
// Integer as a bare decimal number (bounded by MaxAllowedInteger),
// Boolean as true/false, ByteString/Buffer as base64 strings, Array/Struct
// as JSON arrays, Map as a JSON object keyed by the literal bytes of its
// (byte-string) keys. Pointer and Interop items cannot be represented and
// return an error, as does exceeding MaxSize or a self-referential item.
func ToJSON(item Item) ([]byte, error) {
	buf := &bytes.Buffer{}
	visiting := make(map[Item]bool)
	if err := writeJSONValue(buf, item, visiting, 0); err != nil {
		return nil, err
	}
	if buf.Len() > MaxSize {
		return nil, ErrTooBig
	}
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, item Item, visiting map[Item]bool, depth int) error {
	if depth >= maxJSONDepth {
		return errors.New("stackitem: JSON nesting too deep")
	}
	if buf.Len() > MaxSize {
		return ErrTooBig
	}
	switch t := item.(type) {
	case *BigInteger:
		if t.value.CmpAbs(big.NewInt(MaxAllowedInteger)) > 0 {
			return fmt.Errorf("stackitem: integer out of JSON-safe range")
		}
		buf.WriteString(t.value.String())
		return nil
	case *Bool:
		if t.value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case *ByteArray:
		return writeJSONString(buf, base64.StdEncoding.EncodeToString(t.value))
	case *Buffer:
		return writeJSONString(buf, base64.StdEncoding.EncodeToString(t.value))
	case Null:
		buf.WriteString("null")
		return nil
	case *Array:
		return writeJSONItems(buf, item, t.value, visiting, depth)
	case *Struct:
		return writeJSONItems(buf, item, t.value, visiting, depth)
	case *Map:
		return writeJSONMap(buf, t, visiting, depth)
	default:
		return fmt.Errorf("stackitem: %s cannot be converted to JSON", item.Type())
	}
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeJSONItems(buf *bytes.Buffer, self Item, items []Item, visiting map[Item]bool, depth int) error {
	if visiting[self] {
		return errors.New("stackitem: recursive structure")
	}
	visiting[self] = true
	defer delete(visiting, self)

	buf.WriteByte('[')
	for idx, it := range items {
		if idx > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONValue(buf, it, visiting, depth+1); err != nil {
			return err
		}
		if buf.Len() > MaxSize {
			return ErrTooBig
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeJSONMap(buf *bytes.Buffer, m *Map, visiting map[Item]bool, depth int) error {
	if visiting[m] {
		return errors.New("stackitem: recursive structure")
	}
	visiting[m] = true
	defer delete(visiting, m)

	buf.WriteByte('{')
	for idx, e := range m.value {
		if idx > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := asBytes(e.Key)
		if err != nil {
			return fmt.Errorf("stackitem: map key must be a byte string: %w", err)
		}
		if err := writeJSONString(buf, string(keyBytes)); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSONValue(buf, e.Value, visiting, depth+1); err != nil {
			return err
		}
		if buf.Len() > MaxSize {
			return ErrTooBig
		}
	}
	buf.WriteByte('}')
	return nil
}
