package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Game      GameConfig      `yaml:"game"`
	Questions QuestionsConfig `yaml:"questions"`
}

// ServerConfig holds the listen ports for the API and metrics servers
type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	MetricsPath string `yaml:"metrics_path"`
}

// DatabaseConfig selects the gorm dialect and connection string
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or postgres
	DSN    string `yaml:"dsn"`
}

// AuthConfig controls how player identity tokens are verified
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Required  bool   `yaml:"required"`
}

// GameConfig holds every tunable of a kitchen session
type GameConfig struct {
	SessionDuration      time.Duration `yaml:"session_duration"`
	MaxActiveOrders      int           `yaml:"max_active_orders"`
	LastCall             time.Duration `yaml:"last_call"`
	InitialOrders        int           `yaml:"initial_orders"`
	TickInterval         time.Duration `yaml:"tick_interval"`
	FrameRate            int           `yaml:"frame_rate"`
	QuestionReward       int           `yaml:"question_reward"`
	CompletionBonus      int           `yaml:"completion_bonus"`
	QualityPenalty       int           `yaml:"quality_penalty"`
	QualityFailThreshold int           `yaml:"quality_fail_threshold"`
	MechanicsEnabled     bool          `yaml:"mechanics_enabled"`
	Pathfinding          string        `yaml:"pathfinding"` // grid or waypoint
	Diagonal             bool          `yaml:"diagonal"`
	DwellDelay           time.Duration `yaml:"dwell_delay"`
	InteractionRadius    float64       `yaml:"interaction_radius"`
	PlayerSpeed          float64       `yaml:"player_speed"`
	Seed                 int64         `yaml:"seed"`
}

// QuestionsConfig configures the optional LLM-backed question source
type QuestionsConfig struct {
	LLMEnabled bool          `yaml:"llm_enabled"`
	Provider   string        `yaml:"provider"` // openai, github or azure
	Model      string        `yaml:"model"`
	Endpoint   string        `yaml:"endpoint"`
	Deployment string        `yaml:"deployment"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Pathfinding strategies
const (
	PathfindingGrid     = "grid"
	PathfindingWaypoint = "waypoint"
)

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			MetricsPort: 9090,
			MetricsPath: "/metrics",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "kitchenrush.db",
		},
		Game: DefaultGame(),
		Questions: QuestionsConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   3 * time.Second,
		},
	}
}

// DefaultGame returns the standard session tuning
func DefaultGame() GameConfig {
	return GameConfig{
		SessionDuration:      10 * time.Minute,
		MaxActiveOrders:      3,
		LastCall:             60 * time.Second,
		InitialOrders:        1,
		TickInterval:         time.Second,
		FrameRate:            60,
		QuestionReward:       100,
		CompletionBonus:      250,
		QualityPenalty:       10,
		QualityFailThreshold: 70,
		MechanicsEnabled:     true,
		Pathfinding:          PathfindingGrid,
		DwellDelay:           400 * time.Millisecond,
		InteractionRadius:    100,
		PlayerSpeed:          150,
	}
}

// Load reads and parses the configuration file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the game cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth.required is set")
	}
	if c.Questions.LLMEnabled {
		switch c.Questions.Provider {
		case "openai", "github", "azure":
		default:
			return fmt.Errorf("unknown question provider: %s", c.Questions.Provider)
		}
		if c.Questions.Timeout <= 0 {
			return fmt.Errorf("questions.timeout must be positive when the llm source is enabled")
		}
	}
	return c.Game.Validate()
}

// Validate checks the session tuning
func (g *GameConfig) Validate() error {
	if g.SessionDuration <= 0 {
		return fmt.Errorf("session duration must be greater than 0")
	}
	if g.MaxActiveOrders <= 0 {
		return fmt.Errorf("max active orders must be greater than 0")
	}
	if g.InitialOrders > g.MaxActiveOrders {
		return fmt.Errorf("initial orders (%d) exceed max active orders (%d)", g.InitialOrders, g.MaxActiveOrders)
	}
	if g.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be greater than 0")
	}
	if g.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be greater than 0")
	}
	if g.QualityPenalty <= 0 {
		return fmt.Errorf("quality penalty must be greater than 0")
	}
	if g.QualityFailThreshold < 0 || g.QualityFailThreshold >= 100 {
		return fmt.Errorf("quality fail threshold must be in [0, 100)")
	}
	switch g.Pathfinding {
	case PathfindingGrid, PathfindingWaypoint:
	default:
		return fmt.Errorf("unknown pathfinding strategy: %s", g.Pathfinding)
	}
	if g.InteractionRadius <= 0 || g.PlayerSpeed <= 0 {
		return fmt.Errorf("interaction radius and player speed must be positive")
	}
	if g.DwellDelay < 0 {
		return fmt.Errorf("dwell delay must not be negative")
	}
	return nil
}

// FrameInterval returns the duration of one simulation frame
func (g *GameConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(g.FrameRate)
}
