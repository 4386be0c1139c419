package env

import (
	"os"
	"strings"
)

// Prefix namespaces process-level settings read outside envconfig.
const Prefix = "NOVATECH_"

// Get returns NOVATECH_<key>, then the bare key, then fallback.
func Get(key, fallback string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if val := strings.TrimSpace(os.Getenv(Prefix + key)); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// InstanceID identifies this process in logs when several replicas run.
func InstanceID() string {
	if id := Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
