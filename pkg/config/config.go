package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/memex/config"
	ConfigFileName    = "memex.yml"
)

// MemexConfig holds all memex configuration settings
type MemexConfig struct {
	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// APIAnnotationListLimitMax is the maximum number of results for search requests
	APIAnnotationListLimitMax int `yaml:"api_annotation_list_limit_max" json:"api_annotation_list_limit_max"`

	// AuthTokenTTL is the TTL for API tokens in seconds
	AuthTokenTTL int `yaml:"auth_token_ttl" json:"auth_token_ttl"`

	// AuthnRequired requires a valid token on all annotation endpoints.
	// When false, read endpoints are open and only writes need a token.
	AuthnRequired bool `yaml:"authn_required" json:"authn_required"`

	// GroupIDDefault is the group annotations are published in when the
	// client names none
	GroupIDDefault string `yaml:"group_id_default" json:"group_id_default"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *MemexConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *MemexConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *MemexConfig {
	return &MemexConfig{
		TrustedProxies:            []string{},
		APIAnnotationListLimitMax: 200,
		AuthTokenTTL:              3600,
		AuthnRequired:             true,
		GroupIDDefault:            "__world__",
		sources:                   make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*MemexConfig, error) {
	config := newDefault()

	// Initialize all sources as "default"
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	// Determine config file path
	configPath := os.Getenv("MEMEX_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	// Try to load from config file
	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig MemexConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	// Override with environment variables
	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"trusted_proxies", "api_annotation_list_limit_max",
		"auth_token_ttl", "authn_required", "group_id_default",
	}
}

func (c *MemexConfig) applyFileConfig(file *MemexConfig) {
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.APIAnnotationListLimitMax != 0 {
		c.APIAnnotationListLimitMax = file.APIAnnotationListLimitMax
		c.sources["api_annotation_list_limit_max"] = "file"
	}
	if file.AuthTokenTTL != 0 {
		c.AuthTokenTTL = file.AuthTokenTTL
		c.sources["auth_token_ttl"] = "file"
	}
	if file.GroupIDDefault != "" {
		c.GroupIDDefault = file.GroupIDDefault
		c.sources["group_id_default"] = "file"
	}
}

func (c *MemexConfig) applyEnvConfig() {
	if val := os.Getenv("MEMEX_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("MEMEX_API_ANNOTATION_LIST_LIMIT_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.APIAnnotationListLimitMax = i
			c.sources["api_annotation_list_limit_max"] = "environment"
		}
	}
	if val := os.Getenv("MEMEX_AUTH_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.AuthTokenTTL = i
			c.sources["auth_token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("MEMEX_AUTHN_REQUIRED"); val != "" {
		c.AuthnRequired = val == "true" || val == "1"
		c.sources["authn_required"] = "environment"
	}
	if val := os.Getenv("MEMEX_GROUP_ID_DEFAULT"); val != "" {
		c.GroupIDDefault = val
		c.sources["group_id_default"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *MemexConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *MemexConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenTTL returns the auth token TTL as a duration
func (c *MemexConfig) TokenTTL() time.Duration {
	return time.Duration(c.AuthTokenTTL) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *MemexConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *MemexConfig) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	if c.APIAnnotationListLimitMax <= 0 {
		return fmt.Errorf("api_annotation_list_limit_max must be positive, got %d", c.APIAnnotationListLimitMax)
	}

	if c.AuthTokenTTL <= 0 {
		return fmt.Errorf("auth_token_ttl must be positive, got %d", c.AuthTokenTTL)
	}

	if c.GroupIDDefault == "" {
		return fmt.Errorf("group_id_default must not be empty")
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *MemexConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "api_annotation_list_limit_max", Value: strconv.Itoa(c.APIAnnotationListLimitMax), Source: c.Source("api_annotation_list_limit_max")},
		{Name: "auth_token_ttl", Value: strconv.Itoa(c.AuthTokenTTL), Source: c.Source("auth_token_ttl")},
		{Name: "authn_required", Value: strconv.FormatBool(c.AuthnRequired), Source: c.Source("authn_required")},
		{Name: "group_id_default", Value: c.GroupIDDefault, Source: c.Source("group_id_default")},
	}
}

// FormatText returns a text representation of the configuration
func (c *MemexConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *MemexConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
