package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrOptionNotFound is returned when a (section, option) pair has no value.
var ErrOptionNotFound = errors.New("configuration option not found")

// Getter resolves global configuration values by (section, option) pair.
type Getter interface {
	Get(section, option string) (string, error)
}

// Config is a Getter backed by a viper instance plus an optional overlay.
// Keys are addressed as "section.option".
type Config struct {
	v       *viper.Viper
	overlay map[string]string
}

// New wraps an already populated viper instance.
func New(v *viper.Viper) *Config {
	return &Config{v: v, overlay: map[string]string{}}
}

// Load reads a configuration file (yaml, toml or json, detected by extension).
// An empty path falls back to the process-wide viper instance.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return New(viper.GetViper()), nil
	}
	v := viper.New()
	v.SetConfigFile(expandPath(path))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}
	return New(v), nil
}

// FromMap builds a Config from nested section → option → value data.
func FromMap(values map[string]map[string]interface{}) *Config {
	v := viper.New()
	for section, options := range values {
		for option, value := range options {
			v.Set(key(section, option), value)
		}
	}
	return New(v)
}

// Overlay sets values that take precedence over the underlying store.
// Keys are "section.option"; keys without a section separator are ignored.
func (c *Config) Overlay(values map[string]interface{}) int {
	n := 0
	for k, v := range values {
		section, option, ok := strings.Cut(k, ".")
		if !ok || section == "" || option == "" {
			continue
		}
		c.overlay[key(section, option)] = convertToString(v)
		n++
	}
	return n
}

// Get returns the value stored under section.option.
func (c *Config) Get(section, option string) (string, error) {
	k := key(section, option)
	if v, ok := c.overlay[k]; ok {
		return v, nil
	}
	if c.v == nil || !c.v.IsSet(k) {
		return "", fmt.Errorf("%s: %w", k, ErrOptionNotFound)
	}
	return c.v.GetString(k), nil
}

func key(section, option string) string {
	return strings.ToLower(section) + "." + strings.ToLower(option)
}

var _ Getter = &Config{}
