package overdns

import (
	"fmt"
	"io/ioutil"
	"net"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// RedisConfig is settings of the optional Redis cache backend.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Database int    `yaml:"database,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Config is settings of the proxy process.
//
// Everything beyond upstream_dns has a working default.
type Config struct {
	LogLevel        string       `yaml:"log_level,omitempty"`
	OverrideDSN     string       `yaml:"override_dsn,omitempty"`
	StaticOverrides []string     `yaml:"static_overrides,omitempty"`
	UpstreamDNS     string       `yaml:"upstream_dns"`
	UpstreamTimeout uint         `yaml:"upstream_timeout,omitempty"`
	BindAddress     string       `yaml:"bind_address,omitempty"`
	Port            uint16       `yaml:"port,omitempty"`
	CacheFile       string       `yaml:"cache_file,omitempty"`
	Redis           *RedisConfig `yaml:"redis,omitempty"`
}

// LoadConfig is reader of the YAML configuration file.
func LoadConfig(path string) (Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var conf Config
	if err := yaml.Unmarshal(raw, &conf); err != nil {
		return Config{}, err
	}

	return conf.Normalized(), nil
}

// Normalized is getter of the Config with defaults filled in.
func (c Config) Normalized() Config {
	if c.LogLevel == "" {
		c.LogLevel = "warning"
	}
	if c.UpstreamTimeout == 0 {
		c.UpstreamTimeout = 2
	}
	if c.BindAddress == "" {
		c.BindAddress = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 53
	}
	if c.CacheFile == "" {
		c.CacheFile = "overdns-cache.json"
	}
	return c
}

// Validate rejects settings that could not possibly serve.
func (c Config) Validate() error {
	if c.UpstreamDNS == "" {
		return fmt.Errorf("upstream_dns is required")
	}
	if _, err := net.ResolveUDPAddr("udp", c.UpstreamDNS); err != nil {
		return fmt.Errorf("invalid upstream_dns \"%s\": %s", c.UpstreamDNS, err)
	}
	if net.ParseIP(c.BindAddress) == nil {
		return fmt.Errorf("invalid bind_address \"%s\"", c.BindAddress)
	}
	if driver, _ := c.OverrideDriver(); driver != "" {
		switch driver {
		case "sqlite3", "mysql", "etcd":
		default:
			return fmt.Errorf("unsupported override_dsn driver \"%s\"", driver)
		}
	}
	if c.Redis != nil && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is set")
	}
	return nil
}

// OverrideDriver splits the override DSN into driver and the driver's
// own connection string, e.g. "sqlite3:/var/lib/overdns.db".
func (c Config) OverrideDriver() (driver, dsn string) {
	if c.OverrideDSN == "" {
		return "", ""
	}
	xs := strings.SplitN(c.OverrideDSN, ":", 2)
	if len(xs) != 2 {
		return c.OverrideDSN, ""
	}
	return xs[0], xs[1]
}

// UpstreamAddr is getter of the upstream resolver address.
func (c Config) UpstreamAddr() (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", c.UpstreamDNS)
}

// BindAddr is getter of the listener address.
func (c Config) BindAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(c.BindAddress), Port: int(c.Port)}
}

// Timeout is getter of the upstream timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.UpstreamTimeout) * time.Second
}
