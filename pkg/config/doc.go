// Package config manages memex server configuration.
//
// Configuration is read from /etc/memex/config/memex.yml (override the
// directory with MEMEX_CONFIG_PATH) and from MEMEX_* environment variables.
// Environment values take precedence over file values, which take
// precedence over defaults. Each attribute remembers where its value came
// from, which "memexctl configuration show" reports.
package config
