// Package tables resolves logical table names to physical ones. Queries never
// build table names from request input; they ask the registry.
package tables

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Logical table names.
const (
	Sets       = "sets"
	Items      = "items"
	Meta       = "meta"
	Logs       = "logs"
	Transients = "transients"
)

var identifier = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

var defaults = map[string]string{
	Sets:       "critic_sets",
	Items:      "critic_items",
	Meta:       "critic_meta",
	Logs:       "system_logs",
	Transients: "transients",
}

// File is the YAML layout accepted by LoadFromFile.
type File struct {
	Prefix string            `yaml:"prefix"`
	Tables map[string]string `yaml:"tables"`
}

type Registry struct {
	mu     sync.RWMutex
	prefix string
	tables map[string]string
}

// NewRegistry returns a registry holding the default tables under prefix.
func NewRegistry(prefix string) (*Registry, error) {
	if prefix != "" && !identifier.MatchString(prefix) {
		return nil, fmt.Errorf("invalid table prefix %q", prefix)
	}
	r := &Registry{prefix: prefix, tables: make(map[string]string, len(defaults))}
	for logical, physical := range defaults {
		r.tables[logical] = physical
	}
	return r, nil
}

// LoadFromFile builds a registry from defaults, then applies overrides from a
// YAML file. A non-empty prefix in the file wins over the given one.
func LoadFromFile(path, prefix string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables config: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tables config: %w", err)
	}

	if file.Prefix != "" {
		prefix = file.Prefix
	}
	registry, err := NewRegistry(prefix)
	if err != nil {
		return nil, err
	}
	for logical, physical := range file.Tables {
		if err := registry.Register(logical, physical); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register maps a logical name to a physical table (without prefix).
func (r *Registry) Register(logical, physical string) error {
	if !identifier.MatchString(logical) {
		return fmt.Errorf("invalid logical table name %q", logical)
	}
	if !identifier.MatchString(physical) {
		return fmt.Errorf("invalid table name %q for %q", physical, logical)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[logical] = physical
	return nil
}

// Name returns the prefixed physical name for a logical table.
func (r *Registry) Name(logical string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	physical, ok := r.tables[logical]
	if !ok {
		return "", fmt.Errorf("unknown table %q", logical)
	}
	return r.prefix + physical, nil
}

// MustName is Name for the fixed logical names the code base declares.
func (r *Registry) MustName(logical string) string {
	name, err := r.Name(logical)
	if err != nil {
		panic(err)
	}
	return name
}

func (r *Registry) Prefix() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefix
}

// All returns logical names in sorted order.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.tables))
	for logical := range r.tables {
		result = append(result, logical)
	}
	sort.Strings(result)
	return result
}
