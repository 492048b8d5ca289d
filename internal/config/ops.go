package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// OpsConfig holds serving-side operational knobs that can change without a
// redeploy. Workflow-relevant settings never live here.
type OpsConfig struct {
	MetricsRateLimit RateLimitConfig `mapstructure:"metricsRateLimit"`
}

type RateLimitConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	RatePerSecond  float64 `mapstructure:"ratePerSecond"`
	Burst          int     `mapstructure:"burst"`
	ExemptLoopback bool    `mapstructure:"exemptLoopback"`
}

func DefaultOpsConfig() OpsConfig {
	return OpsConfig{
		MetricsRateLimit: RateLimitConfig{
			Enabled:        true,
			RatePerSecond:  5,
			Burst:          20,
			ExemptLoopback: false,
		},
	}
}

// OpsConfigHolder serves the current ops config and hot-reloads it from disk.
type OpsConfigHolder struct {
	current atomic.Value // holds OpsConfig
}

func NewOpsConfigHolder() (*OpsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("flowback")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/flowback/config")
	v.AddConfigPath("/etc/flowback")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLOWBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultOpsConfig()
	v.SetDefault("ops.metricsRateLimit", defaults.MetricsRateLimit)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg OpsConfig
	if err := v.UnmarshalKey("ops", &cfg); err != nil {
		return nil, err
	}
	if err := validateOpsConfig(cfg); err != nil {
		return nil, err
	}

	holder := &OpsConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated OpsConfig
		if err := v.UnmarshalKey("ops", &updated); err != nil {
			log.Printf("[ops-config] reload failed: %v", err)
			return
		}
		if err := validateOpsConfig(updated); err != nil {
			log.Printf("[ops-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[ops-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *OpsConfigHolder) Get() OpsConfig {
	return h.current.Load().(OpsConfig)
}

func validateOpsConfig(cfg OpsConfig) error {
	rl := cfg.MetricsRateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.RatePerSecond <= 0 {
		return errors.New("metricsRateLimit.ratePerSecond must be positive")
	}
	if rl.Burst < 1 {
		return errors.New("metricsRateLimit.burst must be at least 1")
	}
	return nil
}
