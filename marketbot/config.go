package marketbot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"marketbot/marketbot/archive"
	"marketbot/marketbot/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig         `toml:"log"`
	Bot     BotConfig         `toml:"bot"`
	DB      database.DBConfig `toml:"db"`
	Admin   AdminConfig       `toml:"admin"`
	Archive archive.Config    `toml:"archive"`
}

type BotConfig struct {
	// BotIDs are the seller identities the engine lists and buys under.
	BotIDs []int64 `toml:"bot_ids"`
	// CycleIntervalMins is the cadence of the decision scheduler.
	CycleIntervalMins int `toml:"cycle_interval_mins"`
	// SweepIntervalMins is the cadence of the expired-listing settlement.
	SweepIntervalMins int `toml:"sweep_interval_mins"`
	// Seed fixes the random source for reproducible runs; 0 seeds from
	// the clock.
	Seed int64 `toml:"seed"`

	HistoryKeepDays  int `toml:"history_keep_days"`
	HistoryKeepCount int `toml:"history_keep_count"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

type AdminConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}
