package config

const (
	defaultDataDir                  = "~/.local/share/fieldsync"
	defaultLogDir                   = "~/.local/share/fieldsync/logs"
	defaultBackendRequestTimeout    = 15
	defaultDrainInterval            = 30
	defaultStatusInterval           = 5
	defaultMaxRetries               = 3
	defaultCommitTimeout            = 20
	defaultProbeInterval            = 10
	defaultProbeTimeout             = 5
	defaultAlertRequestTimeout      = 10
	defaultCriticalBacklogThreshold = 5
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Backend: Backend{
			RequestTimeout: defaultBackendRequestTimeout,
		},
		Sync: Sync{
			DrainInterval:  defaultDrainInterval,
			StatusInterval: defaultStatusInterval,
			MaxRetries:     defaultMaxRetries,
			CommitTimeout:  defaultCommitTimeout,
		},
		Network: Network{
			ProbeInterval: defaultProbeInterval,
			ProbeTimeout:  defaultProbeTimeout,
		},
		Alerts: Alerts{
			RequestTimeout:           defaultAlertRequestTimeout,
			CriticalBacklogThreshold: defaultCriticalBacklogThreshold,
			RetriesExhausted:         true,
			Connectivity:             true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
