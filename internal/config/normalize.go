package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.Backend.APIKey = strings.TrimSpace(c.Backend.APIKey)
	c.Backend.SiteID = strings.TrimSpace(c.Backend.SiteID)
	c.Backend.DeviceID = strings.TrimSpace(c.Backend.DeviceID)
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultBackendRequestTimeout
	}

	if c.Sync.DrainInterval <= 0 {
		c.Sync.DrainInterval = defaultDrainInterval
	}
	if c.Sync.StatusInterval <= 0 {
		c.Sync.StatusInterval = defaultStatusInterval
	}
	if c.Sync.MaxRetries <= 0 {
		c.Sync.MaxRetries = defaultMaxRetries
	}
	if c.Sync.CommitTimeout <= 0 {
		c.Sync.CommitTimeout = defaultCommitTimeout
	}

	c.Network.ProbeURL = strings.TrimSpace(c.Network.ProbeURL)
	if c.Network.ProbeURL == "" && c.Backend.BaseURL != "" {
		c.Network.ProbeURL = c.Backend.BaseURL + "/api/health"
	}
	if c.Network.ProbeInterval <= 0 {
		c.Network.ProbeInterval = defaultProbeInterval
	}
	if c.Network.ProbeTimeout <= 0 {
		c.Network.ProbeTimeout = defaultProbeTimeout
	}

	c.Alerts.NtfyTopic = strings.TrimSpace(c.Alerts.NtfyTopic)
	if c.Alerts.RequestTimeout <= 0 {
		c.Alerts.RequestTimeout = defaultAlertRequestTimeout
	}
	if c.Alerts.CriticalBacklogThreshold <= 0 {
		c.Alerts.CriticalBacklogThreshold = defaultCriticalBacklogThreshold
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
