package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate reports configuration problems that would prevent the daemon from
// operating correctly. Backend credentials may legitimately be absent on a
// freshly provisioned device, so only structural problems fail validation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}

	if c.Backend.BaseURL != "" {
		parsed, err := url.Parse(c.Backend.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("backend.base_url %q is not a valid URL", c.Backend.BaseURL)
		}
	}

	if c.Network.ProbeURL != "" {
		parsed, err := url.Parse(c.Network.ProbeURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("network.probe_url %q is not a valid URL", c.Network.ProbeURL)
		}
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	return nil
}
