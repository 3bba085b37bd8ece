package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ward/internal/blocklist"
	"ward/internal/config"
	"ward/internal/hostbridge"
	"ward/internal/logging"
	"ward/internal/store"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{configFlag: configFlag, verbose: verbose}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to stderr at the configured level with --verbose and
// discards everything otherwise.
func (c *commandContext) logger() *slog.Logger {
	if c.verbose == nil || !*c.verbose || c.config == nil {
		return logging.NewNop()
	}
	logger, err := logging.NewFromConfig(c.config)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withStore opens the blocklist database for the duration of fn. The daemon
// may hold the same file open; SQLite arbitrates.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DatabasePath(), c.logger())
	if err != nil {
		return fmt.Errorf("open blocklist store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func (c *commandContext) withLists(fn func(*blocklist.Lists) error) error {
	return c.withStore(func(st *store.Store) error {
		return fn(blocklist.NewLists(st, c.logger(), nil))
	})
}

func (c *commandContext) bridgeClient() (*hostbridge.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.APIBind) == "" {
		return nil, errors.New("host bridge disabled; set paths.api_bind to reach the daemon")
	}
	return hostbridge.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken), nil
}

func wrapBridgeError(err error) error {
	if errors.Is(err, hostbridge.ErrUnavailable) {
		return fmt.Errorf("connect to daemon: %w; start it with `ward daemon`", err)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
