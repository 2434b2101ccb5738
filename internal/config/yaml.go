package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the base name of the configuration file searched for in the
// working directory and in $HOME/.phoenix.
const FileName = "phoenix.yaml"

const yamlHeader = `# Phoenix configuration
# Every key can be overridden with a PHOENIX_* environment variable,
# e.g. PHOENIX_AUTH_JWT_SECRET or PHOENIX_DATABASE_DSN.
`

// DefaultYAML renders the default configuration as a commented YAML file.
func DefaultYAML() ([]byte, error) {
	return renderYAML(Default(), yamlHeader)
}

// RedactedYAML renders cfg with the signing secret masked, for display.
func RedactedYAML(cfg *Config) ([]byte, error) {
	c := *cfg
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = "********"
	}
	return renderYAML(&c, "")
}

func renderYAML(cfg *Config, header string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
