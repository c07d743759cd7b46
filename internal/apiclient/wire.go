package apiclient

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// FlexID is an identifier the backend may send as a JSON string or number.
// Absent or null decodes to "".
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = FlexID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string {
	return string(id)
}
