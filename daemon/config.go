// Package daemon implements the ovey daemon's process-level orchestration:
// the glue between the genetlink control channel (ocp), the kernel request
// channel (kreq), and the coordinator's HTTP API. Grounded on
// original_source/ovey_daemon/src/config.rs (init config loading) and
// coordinator_service.rs (coordinator HTTP forwarding).
package daemon

import (
	"encoding/json"
	"fmt"
	"os"
)

// ConfigEnvVar is the environment variable the daemon reads its init
// configuration path from, the same convention as the original's
// OVEY_DAEMON_CFG.
const ConfigEnvVar = "OVEY_DAEMON_CFG"

// Config is the daemon's init configuration: which coordinator answers for
// which overlay network.
type Config struct {
	// Coordinators maps a network UUID to the coordinator's base URL
	// (scheme + host, no trailing slash), e.g.
	// "c1f2e3d4-...": "http://coordinator.example.org:8080".
	Coordinators map[string]string `json:"coordinators"`
}

// LoadConfig reads and parses the daemon's init configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("daemon: reading config %q: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("daemon: parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// CoordinatorURL returns the base URL of the coordinator responsible for
// networkUUID.
func (c Config) CoordinatorURL(networkUUID string) (string, error) {
	url, ok := c.Coordinators[networkUUID]
	if !ok {
		return "", fmt.Errorf("daemon: no coordinator configured for network %q", networkUUID)
	}
	return url, nil
}
