package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in portfolio.
func Default() (*Portfolio, error) {
	p, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in content: %w", err)
	}
	return p, nil
}

// DefaultYAML returns a copy of the built-in content file, as a starting
// point for a custom one.
func DefaultYAML() []byte { return bytes.Clone(defaultYAML) }

// Parse decodes and validates portfolio YAML. Unknown keys are rejected so
// typos in hand-edited files surface at load time.
func Parse(data []byte) (*Portfolio, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Portfolio
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating content: %w", err)
	}
	return &p, nil
}

// Load reads the portfolio from path, or the built-in content when path is
// empty.
func Load(path string) (*Portfolio, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
