package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"readlist/internal/config"
	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/ledger"
	"readlist/internal/logging"
	"readlist/internal/refresh"
	"readlist/internal/tracker"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	ledger *ledger.Ledger
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openLedger() (*ledger.Ledger, error) {
	if c.ledger != nil {
		return c.ledger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	l, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	c.ledger = l
	return l, nil
}

func (c *commandContext) newRunner() (*refresh.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	l, err := c.openLedger()
	if err != nil {
		return nil, err
	}
	return refresh.NewRunner(cfg, c.log(), refresh.WithLedger(l)), nil
}

func (c *commandContext) openIndex() *contentindex.Index {
	return contentindex.Open(c.config.IndexPath(), c.log())
}

func (c *commandContext) openCache() *contentcache.Store {
	return contentcache.New(c.config.RawCacheDir(), c.config.SummaryCacheDir(), c.log())
}

func (c *commandContext) openTracker() *tracker.Store {
	return tracker.Open(c.config.Paths.TrackerDir, c.log())
}

func (c *commandContext) close() {
	if c.ledger != nil {
		_ = c.ledger.Close()
		c.ledger = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
