package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// Environment variables consulted by the CLI.
const (
	EnvConfigPath = "KANFLOW_CONFIG"
	EnvSeed       = "KANFLOW_SEED"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Board    BoardConfig    `toml:"board"`
	Viewport ViewportConfig `toml:"viewport"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type BoardConfig struct {
	Seed string `toml:"seed"` // default | empty | path to a YAML seed
}

// ViewportConfig bounds free list dragging, in board coordinates.
type ViewportConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

func Default(logDir string) Config {
	return Config{
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: false,
				Dir:     logDir,
			},
		},
		Board: BoardConfig{
			Seed: "default",
		},
		Viewport: ViewportConfig{
			Width:  1280,
			Height: 800,
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overlays environment overrides. A nil getenv uses os.Getenv.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	if seed := strings.TrimSpace(getenv(EnvSeed)); seed != "" {
		c.Board.Seed = seed
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	api := strings.TrimSpace(c.Server.APIEndpoint)
	mcp := strings.TrimSpace(c.Server.MCPEndpoint)
	if !strings.HasPrefix(api, "/") {
		return fmt.Errorf("server.api_endpoint must start with /: %q", c.Server.APIEndpoint)
	}
	if !strings.HasPrefix(mcp, "/") {
		return fmt.Errorf("server.mcp_endpoint must start with /: %q", c.Server.MCPEndpoint)
	}
	if strings.TrimRight(api, "/") == strings.TrimRight(mcp, "/") {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint must differ: %q", api)
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Board.Seed) == "" {
		return errors.New("board.seed is required")
	}

	if !positiveFinite(c.Viewport.Width) || !positiveFinite(c.Viewport.Height) {
		return fmt.Errorf("viewport must be positive and finite, got %vx%v", c.Viewport.Width, c.Viewport.Height)
	}

	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
