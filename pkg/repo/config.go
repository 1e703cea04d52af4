package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/flux/pkg/object"
)

const configHeader = `# Configuration file for flux
# Values can be set either by modifying the file or by using the set command.
#
# user_name  =
# user_email =
`

// Config stores the repository-local identity used for commits.
type Config struct {
	UserName  string `toml:"user_name,omitempty"`
	UserEmail string `toml:"user_email,omitempty"`

	path string
}

// DefaultConfig writes a config file with no values set.
func DefaultConfig(path string) (*Config, error) {
	cfg := &Config{path: path}
	if err := cfg.write(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads the TOML config at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{path: path}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Set updates a config key and rewrites the file.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if !object.ValidIdentityField(value) {
		return fmt.Errorf("set %q: %w", key, object.ErrInvalidIdentity)
	}
	switch strings.TrimSpace(key) {
	case "user_name":
		c.UserName = value
	case "user_email":
		c.UserEmail = value
	default:
		return fmt.Errorf("set %q: %w", key, ErrUnknownConfigKey)
	}
	return c.write()
}

// Identity returns the configured user name and email, failing with
// ErrConfigIncomplete unless both are set.
func (c *Config) Identity() (name, email string, err error) {
	var missing []string
	if strings.TrimSpace(c.UserName) == "" {
		missing = append(missing, "user_name")
	}
	if strings.TrimSpace(c.UserEmail) == "" {
		missing = append(missing, "user_email")
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("%w (missing %s)", ErrConfigIncomplete, strings.Join(missing, ", "))
	}
	return c.UserName, c.UserEmail, nil
}

func (c *Config) write() error {
	if c.path == "" {
		return errors.New("write config: no path")
	}
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	if c.UserName != "" || c.UserEmail != "" {
		buf.WriteByte('\n')
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("write config: encode: %w", err)
		}
	}
	if err := writeFileAtomic(c.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
