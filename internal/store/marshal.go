package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalMetadata converts chat metadata to JSON TEXT for storage.
// Uses json.Encoder with HTML escaping disabled; map keys are sorted by
// encoding/json, so output is stable.
func marshalMetadata(meta map[string]any) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalMetadata parses JSON TEXT into chat metadata.
// Returns nil for an empty object.
func unmarshalMetadata(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}
