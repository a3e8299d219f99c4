package config

import (
	"errors"
	"strings"
)

var errReadBytesNotSupported = errors.New("config: map provider only supports Read")

// mapProvider feeds a flat, dot-delimited key map (defaults, flags) into
// koanf. Read nests the keys so Unmarshal sees the same shape the YAML
// file produces.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any)
	for key, v := range m {
		parts := strings.Split(key, ".")
		node := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = v
	}
	return out, nil
}
