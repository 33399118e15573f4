package evaluateloanbatch

import (
	"fmt"
	"time"

	"loan-risk-workers/internal/common/config"
)

type Config struct {
	Enabled    bool
	Timeout    time.Duration
	MaxRecords int
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:    true,
		Timeout:    2 * time.Minute,
		MaxRecords: 10000,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRecords <= 0 {
		return fmt.Errorf("max records must be positive")
	}
	return nil
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}
	wcfg := config.GetWorkerConfig(appCfg, TaskType)
	cfg.Enabled = wcfg.Enabled
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
