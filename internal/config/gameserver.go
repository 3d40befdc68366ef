package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Matchmaking holds skill-based matchmaking parameters.
type Matchmaking struct {
	// RatingWindow is the maximum rating gap between paired players.
	RatingWindow int `yaml:"rating_window"`
	// HandshakeTimeout is how long a found pair may sit unconfirmed
	// before it is treated as declined by both sides.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	// PassPeriod is how often the queue is scanned for new pairs.
	PassPeriod time.Duration `yaml:"pass_period"`
}

// DefaultMatchmaking returns Matchmaking with a ±100 window.
func DefaultMatchmaking() Matchmaking {
	return Matchmaking{
		RatingWindow:     100,
		HandshakeTimeout: 30 * time.Second,
		PassPeriod:       time.Second,
	}
}

// Reaper holds idle-connection sweep parameters.
type Reaper struct {
	Period time.Duration `yaml:"period"` // how often the sweep runs
	Grace  time.Duration `yaml:"grace"`  // idle time before disconnect
}

// DefaultReaper returns Reaper with a 5s sweep and 60s grace.
func DefaultReaper() Reaper {
	return Reaper{
		Period: 5 * time.Second,
		Grace:  60 * time.Second,
	}
}

// GameServer holds all configuration for the game server.
type GameServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Capacity
	MaxClients int `yaml:"max_clients"` // concurrent connections
	MaxGames   int `yaml:"max_games"`   // concurrent matches

	// Matchmaking
	Matchmaking Matchmaking `yaml:"matchmaking"`

	// RatingDelta is how many rating points a game win/loss moves.
	RatingDelta int `yaml:"rating_delta"`

	// Idle connection reaper
	Reaper Reaper `yaml:"reaper"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Write queue / timeouts
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline (default: 5s)
	SendQueueSize int           `yaml:"send_queue_size"` // per-client outbox capacity (default: 256)

	// Logging
	LogLevel string `yaml:"log_level"`
}

// DefaultGameServer returns GameServer config with sensible defaults.
func DefaultGameServer() GameServer {
	return GameServer{
		BindAddress:   "0.0.0.0",
		Port:          8080,
		MaxClients:    100,
		MaxGames:      50,
		Matchmaking:   DefaultMatchmaking(),
		RatingDelta:   10,
		Reaper:        DefaultReaper(),
		WriteTimeout:  5 * time.Second,
		SendQueueSize: 256,
		LogLevel:      "info",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "seabattle",
			Password: "seabattle",
			DBName:   "seabattle",
			SSLMode:  "disable",
		},
	}
}

// LoadGameServer loads game server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadGameServer(path string) (GameServer, error) {
	cfg := DefaultGameServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
