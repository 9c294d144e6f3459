// Package endpoint turns command words into raw API paths.
package endpoint

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml
var commandsYAML []byte

// Table maps a command word to an API path prefix.
type Table map[string]string

// Default returns the built-in alias table.
func Default() (Table, error) {
	return Parse(commandsYAML)
}

// Parse decodes an alias table from YAML.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse command table: %w", err)
	}
	for word, prefix := range t {
		if strings.TrimSpace(prefix) == "" {
			return nil, fmt.Errorf("command %q has an empty prefix", word)
		}
	}
	return t, nil
}

// Resolve maps words to a request path. A known first word is replaced by
// its prefix and the remaining words become path segments; otherwise the
// words, joined by spaces, are used as the path.
func (t Table) Resolve(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("no endpoint given")
	}
	prefix, ok := t[words[0]]
	if !ok {
		return strings.Join(words, " "), nil
	}
	if len(words) == 1 {
		return prefix, nil
	}
	return prefix + "/" + strings.Join(words[1:], "/"), nil
}

// Words lists the known command words, sorted.
func (t Table) Words() []string {
	return slices.Sorted(maps.Keys(t))
}
