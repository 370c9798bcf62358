// Package v1alpha1 holds the declarative configuration surface of the
// grouping engine: the group-key property list and the two independent sort
// configurations (groups relative to each other, members within a group),
// decodable from YAML or JSON.
package v1alpha1

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// SortConfig configures an independent sort: the properties to order by and
// the direction. Ascending defaults to true when unset.
type SortConfig struct {
	Properties []string `json:"properties,omitempty"`
	Ascending  *bool    `json:"ascending,omitempty"`
}

// IsAscending resolves the sort direction, defaulting to ascending.
func (s *SortConfig) IsAscending() bool {
	return s == nil || s.Ascending == nil || *s.Ascending
}

// Config is the versioned grouping configuration. An empty or absent GroupBy
// disables grouping.
type Config struct {
	GroupBy    []string    `json:"groupBy,omitempty"`
	GroupSort  *SortConfig `json:"groupSort,omitempty"`
	MemberSort *SortConfig `json:"memberSort,omitempty"`
}

// ParseConfig decodes and validates a YAML or JSON grouping configuration.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse grouping config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs the fail-fast configuration checks: no empty property
// names anywhere, no duplicate group-key properties.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.GroupBy))
	for i, p := range c.GroupBy {
		if p == "" {
			return fmt.Errorf("groupBy: empty property name at index %d", i)
		}
		if seen[p] {
			return fmt.Errorf("groupBy: duplicate property %q", p)
		}
		seen[p] = true
	}

	for name, sc := range map[string]*SortConfig{"groupSort": c.GroupSort, "memberSort": c.MemberSort} {
		if sc == nil {
			continue
		}
		for i, p := range sc.Properties {
			if p == "" {
				return fmt.Errorf("%s: empty property name at index %d", name, i)
			}
		}
	}

	return nil
}

// String returns the canonical YAML form of the config.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%#v", c)
	}
	return string(data)
}
