// Package config provides the environment lookups every service uses to
// build its runtime configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return fallback
}

func GetEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intValue
	}
	return fallback
}

// GetEnvDuration accepts Go duration strings ("90s", "10m") and, for
// plain integers, whole minutes.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	return fallback
}

func GetEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return fallback
}

// TrimURL removes a trailing slash from service base URLs.
func TrimURL(value string) string {
	return strings.TrimSuffix(value, "/")
}

// GetEnvList splits a comma separated value, dropping blank items.
func GetEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// GetTrustedProxies reads the IPs or CIDRs whose X-Forwarded-For header may
// be believed. "none" trusts no proxy.
func GetTrustedProxies(key string, fallback []string) ([]string, error) {
	if strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "none") {
		return nil, nil
	}
	proxies := GetEnvList(key, fallback)
	for _, p := range proxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return nil, fmt.Errorf("%s: %q is not an IP or CIDR", key, p)
		}
	}
	return proxies, nil
}
