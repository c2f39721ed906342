package util

import (
	"encoding/json"
	"strings"
)

// jsonUnquote unmarshals a JSON string value into s.
func jsonUnquote(data []byte, s *string) error {
	return json.Unmarshal(data, s)
}

// trim0x strips a leading "0x"/"0X" prefix if present.
func trim0x(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
