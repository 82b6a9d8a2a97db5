package cacheditem

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// codec matches encoding/json output so payloads written by other clients decode unchanged.
var codec = sonic.ConfigStd

func encode[T any](value T) (string, error) {
	data, err := codec.MarshalToString(value)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

func decode[T any](data string) (T, error) {
	var value T
	if err := codec.UnmarshalFromString(data, &value); err != nil {
		return value, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return value, nil
}

// IsEmptyJSON reports whether an encoded payload is null, "", {} or [].
func IsEmptyJSON(data string) bool {
	switch data {
	case "", "null", `""`, "{}", "[]":
		return true
	default:
		return false
	}
}

// IsEmpty reports whether value encodes to an empty payload (see IsEmptyJSON).
// Values that fail to encode are not considered empty.
func IsEmpty[T any](value T) bool {
	data, err := encode(value)
	if err != nil {
		return false
	}
	return IsEmptyJSON(data)
}
