package sftpclient

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/kevinburke/ssh_config"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// ErrValidationFailed is returned when a configuration fails validation.
var ErrValidationFailed = errors.New("validation failed")

// Config describes how to reach an SFTP server.
type Config struct {
	// Address is a hostname, IP address or an alias from the ssh config.
	Address string `yaml:"address"`
	Port    int    `yaml:"port" default:"22"`
	User    string `yaml:"user" default:"root"`

	// KeyPath is a private key file, ~ is expanded.
	KeyPath  *string `yaml:"keyPath,omitempty"`
	Password string  `yaml:"password,omitempty"`

	// KnownHostsPath is the known_hosts file used to verify the server's key.
	KnownHostsPath string `yaml:"knownHosts" default:"~/.ssh/known_hosts"`
	// HostKey pins the server key, in "type base64" form. Takes precedence over KnownHostsPath.
	HostKey string `yaml:"hostKey,omitempty"`
	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool `yaml:"insecureIgnoreHostKey,omitempty"`

	// SSHConfigPath is an OpenSSH client config file to read host settings
	// from. The user's and system's files are used when empty.
	SSHConfigPath string `yaml:"sshConfigPath,omitempty"`

	ConnectTimeout time.Duration `yaml:"connectTimeout" default:"10s"`
	// Retries is the number of connection attempts.
	Retries     int           `yaml:"retries" default:"1"`
	RetryDelay  time.Duration `yaml:"retryDelay" default:"2s"`
	RetryFactor float64       `yaml:"retryFactor" default:"1"`

	alias string
}

// LoadConfig reads a YAML configuration file and applies the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return "sftp.Config{" + c.User + "@" + net.JoinHostPort(c.Address, strconv.Itoa(c.Port)) + "}"
}

// SetDefaults completes the configuration from the OpenSSH client config and
// the struct defaults, in that order. Explicitly set values are kept.
func (c *Config) SetDefaults() error {
	get, err := c.sshConfigGetter()
	if err != nil {
		return err
	}
	if err := c.applySSHConfig(get); err != nil {
		return err
	}
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("set defaults: %w", err)
	}

	if c.KeyPath != nil {
		expanded, err := homedir.Expand(*c.KeyPath)
		if err != nil {
			return fmt.Errorf("keyPath: %w", err)
		}
		c.KeyPath = &expanded
	}

	if c.KnownHostsPath != "" {
		expanded, err := homedir.Expand(c.KnownHostsPath)
		if err != nil {
			return fmt.Errorf("knownHosts: %w", err)
		}
		c.KnownHostsPath = expanded
	}

	return nil
}

type sshConfigGetFunc func(alias, key string) string

func (c *Config) sshConfigGetter() (sshConfigGetFunc, error) {
	if c.SSHConfigPath == "" {
		return ssh_config.Get, nil
	}
	path, err := homedir.Expand(c.SSHConfigPath)
	if err != nil {
		return nil, fmt.Errorf("sshConfigPath: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ssh config: %w", err)
	}
	defer f.Close()
	decoded, err := ssh_config.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode ssh config %s: %w", path, err)
	}
	return func(alias, key string) string {
		v, _ := decoded.Get(alias, key)
		return v
	}, nil
}

func (c *Config) applySSHConfig(get sshConfigGetFunc) error {
	if c.Address == "" {
		return nil
	}
	if c.alias == "" {
		c.alias = c.Address
	}

	if hostname := get(c.alias, "HostName"); hostname != "" {
		c.Address = strings.ReplaceAll(hostname, "%h", c.alias)
	}

	if c.Port == 0 {
		if port := get(c.alias, "Port"); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("%w: ssh config port %q: %w", ErrValidationFailed, port, err)
			}
			c.Port = p
		}
	}

	if c.User == "" {
		c.User = get(c.alias, "User")
	}

	if c.KeyPath == nil {
		if idf := get(c.alias, "IdentityFile"); idf != "" && idf != ssh_config.Default("IdentityFile") {
			c.KeyPath = &idf
		}
	}

	if c.HostKey == "" && !c.InsecureIgnoreHostKey {
		if strings.EqualFold(get(c.alias, "StrictHostKeyChecking"), "no") {
			c.InsecureIgnoreHostKey = true
		}
		if c.KnownHostsPath == "" {
			if khf := get(c.alias, "UserKnownHostsFile"); khf != "" && khf != ssh_config.Default("UserKnownHostsFile") {
				c.KnownHostsPath = strings.Fields(khf)[0]
			}
		}
	}

	return nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: address is required", ErrValidationFailed)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrValidationFailed)
	}
	if c.User == "" {
		return fmt.Errorf("%w: user is required", ErrValidationFailed)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: retries can not be negative", ErrValidationFailed)
	}
	if c.KeyPath != nil {
		if _, err := os.Stat(*c.KeyPath); err != nil {
			return fmt.Errorf("%w: keyPath: %w", ErrValidationFailed, err)
		}
	}
	return nil
}

// Alias returns the host alias the configuration was resolved from.
func (c *Config) Alias() string {
	if c.alias == "" {
		return c.Address
	}
	return c.alias
}
