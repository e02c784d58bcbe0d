package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultPort            = 3000
	DefaultShell           = "bash"
	DefaultShutdownTimeout = 5 * time.Second

	envPrefix = "MCP_BRIDGE"
	appDir    = "mcp-bridge"
)

// Config holds runtime configuration for the bridge server.
type Config struct {
	Host            string
	Port            int
	Cwd             string
	ToolsPath       string
	Verbose         bool
	Shell           string
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type rawConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Cwd             string `mapstructure:"cwd"`
	Config          string `mapstructure:"config"`
	Verbose         bool   `mapstructure:"verbose"`
	Shell           string `mapstructure:"shell"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	wd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	v.SetDefault("host", "")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("cwd", wd)
	v.SetDefault("config", "")
	v.SetDefault("verbose", false)
	v.SetDefault("shell", DefaultShell)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout.String())

	if cmd != nil {
		for key, flag := range map[string]string{
			"host":             "host",
			"port":             "port",
			"cwd":              "cwd",
			"config":           "config",
			"verbose":          "verbose",
			"shell":            "shell",
			"shutdown_timeout": "shutdown-timeout",
		} {
			if f := cmd.Flags().Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &raw, WeaklyTypedInput: true})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	shutdown := DefaultShutdownTimeout
	if raw.ShutdownTimeout != "" {
		parsed, err := time.ParseDuration(raw.ShutdownTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid shutdown timeout: %w", err)
		}
		shutdown = parsed
	}

	cfg := Config{
		Host:            raw.Host,
		Port:            raw.Port,
		Cwd:             raw.Cwd,
		ToolsPath:       raw.Config,
		Verbose:         raw.Verbose,
		Shell:           raw.Shell,
		ShutdownTimeout: shutdown,
	}

	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Cwd == "" {
		cfg.Cwd = wd
	}
	if abs, err := filepath.Abs(cfg.Cwd); err == nil {
		cfg.Cwd = abs
	}
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	return cfg, nil
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, appDir)
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		path := filepath.Join(base, name)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}
