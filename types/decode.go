package types

import "encoding/json"

// Decode converts a bus payload into dst. Payloads arrive as raw JSON
// ([]byte or string) from the outside, or as decoded JSON values
// (map[string]any) from the config service, or already typed.
func Decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case *T:
		*dst = *v
		return nil
	case T:
		*dst = v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
