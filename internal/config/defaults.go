package config

const (
	defaultConfigPath             = "~/.config/ward/config.toml"
	defaultDataDir                = "~/.local/share/ward"
	defaultLogDir                 = "~/.local/share/ward/logs"
	defaultAPIBind                = "127.0.0.1:7489"
	defaultCatalogURL             = "https://raw.githubusercontent.com/xoundbyte/soul-over-ai/main/dist/artists.json"
	defaultCatalogRefreshInterval = 6 * 60 * 60
	defaultCatalogRequestTimeout  = 15
	defaultCatalogMinFetchGap     = 30
	defaultShortEntryThreshold    = 3
	defaultPollAttempts           = 20
	defaultPollIntervalMS         = 100
	defaultSettleDelayMS          = 2000
	defaultSeekDelayMS            = 500
	defaultNotifyRequestTimeout   = 10
	defaultEventsSubject          = "ward.interventions"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Catalog: Catalog{
			Enabled:         true,
			URL:             defaultCatalogURL,
			RefreshInterval: defaultCatalogRefreshInterval,
			RequestTimeout:  defaultCatalogRequestTimeout,
			MinFetchGap:     defaultCatalogMinFetchGap,
		},
		Matching: Matching{
			ShortEntryThreshold: defaultShortEntryThreshold,
		},
		Intervention: Intervention{
			PollAttempts:   defaultPollAttempts,
			PollIntervalMS: defaultPollIntervalMS,
			SettleDelayMS:  defaultSettleDelayMS,
			SeekDelayMS:    defaultSeekDelayMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Interventions:  true,
			CatalogErrors:  true,
		},
		Events: Events{
			Subject: defaultEventsSubject,
		},
		Metrics: Metrics{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
