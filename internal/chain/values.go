package chain

import (
	"fmt"
)

// ExtractString converts the first unpacked ABI output into a string.
func ExtractString(out []any) (string, error) {
	if len(out) == 0 {
		return "", fmt.Errorf("empty output")
	}
	switch v := out[0].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case *string:
		if v == nil {
			return "", nil
		}
		return *v, nil
	default:
		return "", fmt.Errorf("unsupported string type %T", out[0])
	}
}

// ExtractBool converts the first unpacked ABI output into a bool.
func ExtractBool(out []any) (bool, error) {
	if len(out) == 0 {
		return false, fmt.Errorf("empty output")
	}
	switch v := out[0].(type) {
	case bool:
		return v, nil
	case *bool:
		if v == nil {
			return false, nil
		}
		return *v, nil
	default:
		return false, fmt.Errorf("unsupported bool type %T", out[0])
	}
}
