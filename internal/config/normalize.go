package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeIntervention()
	c.normalizeNotifications()
	c.normalizeEvents()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("WARD_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	if value, ok := os.LookupEnv("WARD_CATALOG_URL"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.URL = value
	}
	c.Catalog.URL = strings.TrimSpace(c.Catalog.URL)
	if c.Catalog.URL == "" {
		c.Catalog.URL = defaultCatalogURL
	}
	if c.Catalog.RefreshInterval <= 0 {
		c.Catalog.RefreshInterval = defaultCatalogRefreshInterval
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = defaultCatalogRequestTimeout
	}
	if c.Catalog.MinFetchGap < 0 {
		c.Catalog.MinFetchGap = 0
	}
}

func (c *Config) normalizeIntervention() {
	if c.Intervention.PollAttempts <= 0 {
		c.Intervention.PollAttempts = defaultPollAttempts
	}
	if c.Intervention.PollIntervalMS <= 0 {
		c.Intervention.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Intervention.SettleDelayMS < 0 {
		c.Intervention.SettleDelayMS = 0
	}
	if c.Intervention.SeekDelayMS < 0 {
		c.Intervention.SeekDelayMS = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("WARD_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeEvents() {
	c.Events.NATSURL = strings.TrimSpace(c.Events.NATSURL)
	c.Events.Subject = strings.TrimSpace(c.Events.Subject)
	if c.Events.Subject == "" {
		c.Events.Subject = defaultEventsSubject
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
