package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the engine and server. Values left
// out of the YAML file keep their defaults.
type Config struct {
	ListenPort string `yaml:"listen_port"`

	WinningScoreThreshold int `yaml:"winning_score_threshold"`

	BotDecisionDelayMinMs int `yaml:"bot_decision_delay_min_ms"`
	BotDecisionDelayMaxMs int `yaml:"bot_decision_delay_max_ms"`

	TurnResultsDisplaySeconds float64 `yaml:"turn_results_display_seconds"`
	ScoringDisplaySeconds     float64 `yaml:"scoring_display_seconds"`

	// Safety deadline multiplier: the server auto-advances a display
	// after show_for_seconds * multiplier if no client asked first.
	DisplayServerSafetyMultiplier float64 `yaml:"display_server_safety_multiplier"`

	BroadcastGraceMsGame  int `yaml:"broadcast_grace_ms_game"`
	BroadcastGraceMsLobby int `yaml:"broadcast_grace_ms_lobby"`

	ActionQueueSoftCap int `yaml:"action_queue_soft_cap"`

	// ReplayLastNEvents enables resync on reconnect when > 0
	ReplayLastNEvents int `yaml:"replay_last_n_events"`
}

// Default returns the configuration used when no file is provided
func Default() Config {
	return Config{
		ListenPort:                    "7777",
		WinningScoreThreshold:         50,
		BotDecisionDelayMinMs:         300,
		BotDecisionDelayMaxMs:         900,
		TurnResultsDisplaySeconds:     4.0,
		ScoringDisplaySeconds:         6.0,
		DisplayServerSafetyMultiplier: 2.0,
		BroadcastGraceMsGame:          15000,
		BroadcastGraceMsLobby:         3000,
		ActionQueueSoftCap:            64,
		ReplayLastNEvents:             0,
	}
}

// Load reads a YAML config file over the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate rejects configurations the engine cannot run with
func (c Config) Validate() error {
	if c.WinningScoreThreshold <= 0 {
		return fmt.Errorf("winning_score_threshold must be positive, got %d", c.WinningScoreThreshold)
	}
	if c.BotDecisionDelayMinMs < 0 || c.BotDecisionDelayMaxMs < c.BotDecisionDelayMinMs {
		return fmt.Errorf("invalid bot decision delay range [%d, %d]", c.BotDecisionDelayMinMs, c.BotDecisionDelayMaxMs)
	}
	if c.DisplayServerSafetyMultiplier < 1 {
		return fmt.Errorf("display_server_safety_multiplier must be >= 1, got %v", c.DisplayServerSafetyMultiplier)
	}
	if c.ActionQueueSoftCap <= 0 {
		return fmt.Errorf("action_queue_soft_cap must be positive, got %d", c.ActionQueueSoftCap)
	}
	return nil
}
