// Package config loads the demo bot's configuration from the user's
// Paginator directory, creating default files on first run. Environment
// variables override whatever the files say.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
)

// Re-assign os.UserHomeDir to a variable so it can be mocked in tests.
var osUserHomeDir = os.UserHomeDir

// MainConfig names the per-concern config files loaded from the config
// directory.
type MainConfig struct {
	DiscordConfig string `json:"discord_config"`
	RedisConfig   string `json:"redis_config"`
}

// DiscordConfig holds the bot credentials and the channels the demo bot
// uses.
type DiscordConfig struct {
	Token         string `json:"token" env:"PAGINATOR_DISCORD_TOKEN"`
	LogChannelID  string `json:"log_channel_id" env:"PAGINATOR_LOG_CHANNEL_ID"`
	DemoChannelID string `json:"demo_channel_id" env:"PAGINATOR_DEMO_CHANNEL_ID"`
}

// RedisConfig holds the connection settings for the session event cache.
// An empty Addr disables event publishing.
type RedisConfig struct {
	Addr     string `json:"addr" env:"PAGINATOR_REDIS_ADDR"`
	Password string `json:"password" env:"PAGINATOR_REDIS_PASSWORD"`
	DB       int    `json:"db" env:"PAGINATOR_REDIS_DB"`
}

// AllConfig is everything the demo bot needs to run.
type AllConfig struct {
	Discord DiscordConfig
	Redis   RedisConfig
}

func defaultMain() MainConfig {
	return MainConfig{DiscordConfig: "discord.json", RedisConfig: "redis.json"}
}

func defaultRedis() RedisConfig {
	return RedisConfig{Addr: "localhost:6379"}
}

// LoadAllConfigs reads the main config plus the files it references,
// creating any missing file with defaults, then applies environment
// overrides.
func LoadAllConfigs() (*AllConfig, error) {
	main := defaultMain()
	if err := loadOrCreate("config.json", &main); err != nil {
		return nil, err
	}

	all := &AllConfig{Redis: defaultRedis()}
	if err := loadOrCreate(main.DiscordConfig, &all.Discord); err != nil {
		return nil, err
	}
	if err := loadOrCreate(main.RedisConfig, &all.Redis); err != nil {
		return nil, err
	}

	for _, section := range []interface{}{&all.Discord, &all.Redis} {
		if err := envdecode.Decode(section); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
			return nil, fmt.Errorf("could not apply environment overrides: %w", err)
		}
	}
	return all, nil
}

// loadOrCreate fills v from the named config file. A missing file is
// written out with v's current (default) values instead of failing.
func loadOrCreate(filename string, v interface{}) error {
	path, err := getConfigPath(filename)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return writeDefault(path, v)
	}
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not decode config file %s: %w", filename, err)
	}
	return nil
}

func writeDefault(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write default config file %s: %w", path, err)
	}
	return nil
}
