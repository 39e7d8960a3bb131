package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, parsed from the environment.
type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// Session registry limits.
	MaxGames      int           `env:"MAX_GAMES" envDefault:"100"`
	GameTTL       time.Duration `env:"GAME_TTL" envDefault:"30m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	// Automated-turn time budgets.
	TurnTimeout     time.Duration `env:"AI_TURN_TIMEOUT" envDefault:"60s"`
	DecisionTimeout time.Duration `env:"AI_DECISION_TIMEOUT" envDefault:"15s"`

	// Remote strategy. With no API key the server runs on the
	// deterministic strategy alone.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	ModelTier    string `env:"AI_MODEL" envDefault:"fast"`

	// Result archive backend: memory, sqlite, or postgres.
	ArchiveMode string `env:"ARCHIVE_MODE" envDefault:"memory"`
	ArchiveDSN  string `env:"ARCHIVE_DSN"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	return env.ParseAs[Config]()
}
