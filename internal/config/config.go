// Package config loads the server targets and tuning knobs from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/dm/starsearch/internal/client"
	"github.com/dm/starsearch/internal/lifecycle"
	"github.com/dm/starsearch/internal/savedobject"
)

// Validator is implemented by config types that check themselves after
// decoding.
type Validator interface {
	Validate() error
}

// Load reads a YAML file into target, expanding ${VAR} references first.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// DefaultPath is ~/.starsearch/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".starsearch", "config.yaml")
	}
	return filepath.Join(home, ".starsearch", "config.yaml")
}

// Config is the whole configuration file.
type Config struct {
	Servers      []Target           `yaml:"servers"`
	Lifecycle    LifecycleConfig    `yaml:"lifecycle"`
	Transport    TransportConfig    `yaml:"transport"`
	SavedObjects SavedObjectsConfig `yaml:"saved_objects"`
}

// Target is one configured cluster.
type Target struct {
	Name        string `yaml:"name"`
	Protocol    string `yaml:"protocol"`
	Host        string `yaml:"host"`
	ClusterPath string `yaml:"cluster_path"`
	BasePath    string `yaml:"base_path"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	// VerifySSL defaults to true when omitted.
	VerifySSL *bool `yaml:"verify_ssl"`
}

// LifecycleConfig overrides the phase parameters the mutator writes.
type LifecycleConfig struct {
	WarmPriority             *int  `yaml:"warm_priority"`
	ColdPriority             *int  `yaml:"cold_priority"`
	DeleteSearchableSnapshot *bool `yaml:"delete_searchable_snapshot"`
}

// TransportConfig tunes the cluster client.
type TransportConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// SavedObjectsConfig tunes saved-object reads and the exportable types.
type SavedObjectsConfig struct {
	Index      string   `yaml:"index"`
	PageSize   int      `yaml:"page_size"`
	MaxObjects int      `yaml:"max_objects"`
	Types      []string `yaml:"types"`
}

// Validate implements Validator.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Servers, validation.Required.Error("at least one server must be configured")),
		validation.Field(&c.Transport),
		validation.Field(&c.SavedObjects),
	); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Servers))
	for i, t := range c.Servers {
		if seen[t.Name] {
			return fmt.Errorf("servers[%d]: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Validate checks a single target.
func (t Target) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Protocol, validation.Required, validation.In("http", "https")),
		validation.Field(&t.Host, validation.Required),
	)
}

// Validate checks transport settings.
func (t TransportConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&t.MaxRetries, validation.Min(0)),
		validation.Field(&t.RetryBackoff, validation.Min(time.Duration(0))),
	)
}

// Validate checks saved-object settings.
func (s SavedObjectsConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.PageSize, validation.Min(0)),
		validation.Field(&s.MaxObjects, validation.Min(0)),
		validation.Field(&s.Types, validation.Each(validation.Required)),
	)
}

// Resolve returns the named target, or the first one when name is empty.
// defaulted reports whether the first target was picked implicitly.
func (c *Config) Resolve(name string) (t Target, defaulted bool, err error) {
	if len(c.Servers) == 0 {
		return Target{}, false, fmt.Errorf("no servers configured")
	}
	if name == "" {
		return c.Servers[0], true, nil
	}
	for _, s := range c.Servers {
		if s.Name == name {
			return s, false, nil
		}
	}
	return Target{}, false, fmt.Errorf("target %q not found; available: %s", name, strings.Join(c.Names(), ", "))
}

// Names lists the configured target names in file order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Servers))
	for i, s := range c.Servers {
		names[i] = s.Name
	}
	return names
}

// ClusterURL is protocol://host plus the normalized cluster path.
func (t Target) ClusterURL() string {
	return t.Protocol + "://" + t.Host + normalizePath(t.ClusterPath)
}

// DashboardsURL is protocol://host plus the normalized dashboards base path.
func (t Target) DashboardsURL() string {
	return t.Protocol + "://" + t.Host + normalizePath(t.BasePath)
}

// VerifiesTLS reports whether certificates are checked.
func (t Target) VerifiesTLS() bool {
	return t.VerifySSL == nil || *t.VerifySSL
}

// HasAuth reports whether basic auth will be sent.
func (t Target) HasAuth() bool {
	return t.Username != "" && t.Password != ""
}

// ClientConfig builds the transport settings for this target.
func (t Target) ClientConfig(tc TransportConfig) client.ClientConfig {
	cc := client.ClientConfig{
		BaseURL:            t.ClusterURL(),
		InsecureSkipVerify: !t.VerifiesTLS(),
		RequestTimeout:     tc.Timeout,
		MaxRetries:         tc.MaxRetries,
		RetryBackoff:       tc.RetryBackoff,
	}
	if t.HasAuth() {
		cc.Username, cc.Password = t.Username, t.Password
	}
	return cc
}

// MutatorConfig applies the overrides to the stock phase parameters.
func (l LifecycleConfig) MutatorConfig() lifecycle.MutatorConfig {
	mc := lifecycle.DefaultMutatorConfig()
	if l.WarmPriority != nil {
		mc.WarmPriority = *l.WarmPriority
	}
	if l.ColdPriority != nil {
		mc.ColdPriority = *l.ColdPriority
	}
	if l.DeleteSearchableSnapshot != nil {
		mc.DeleteSearchableSnapshot = *l.DeleteSearchableSnapshot
	}
	return mc
}

// ReaderConfig returns the saved-object read settings; zero values take the
// reader's defaults.
func (s SavedObjectsConfig) ReaderConfig() savedobject.ReaderConfig {
	return savedobject.ReaderConfig{Index: s.Index, PageSize: s.PageSize, MaxObjects: s.MaxObjects}
}

// normalizePath ensures a leading slash and drops trailing ones. Empty
// stays empty.
func normalizePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
