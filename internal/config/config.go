package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable, e.g. CHESS_SERVER_ADDR.
const Prefix = "CHESS"

type Configuration struct {
	Server struct {
		Addr         string `envconfig:"ADDR" default:":8080"`
		AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"http://localhost:5173"`
		LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	}
	Game struct {
		TimeControl         time.Duration `envconfig:"TIME_CONTROL" default:"10m"`
		MatchmakingInterval time.Duration `envconfig:"MATCHMAKING_INTERVAL" default:"1s"`
	}
	WebSocket struct {
		ReadBufferSize  int `envconfig:"READ_BUFFER" default:"1024"`
		WriteBufferSize int `envconfig:"WRITE_BUFFER" default:"1024"`
	}
}

func InitConfig() (*Configuration, error) {
	cfg := &Configuration{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) validate() error {
	if c.Game.TimeControl <= 0 {
		return fmt.Errorf("time control must be positive, got %s", c.Game.TimeControl)
	}
	if c.Game.MatchmakingInterval <= 0 {
		return fmt.Errorf("matchmaking interval must be positive, got %s", c.Game.MatchmakingInterval)
	}
	if _, ok := logLevels[strings.ToLower(c.Server.LogLevel)]; !ok {
		return fmt.Errorf("unknown log level %q", c.Server.LogLevel)
	}
	return nil
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level maps the configured log level onto fiber's logger.
func (c *Configuration) Level() log.Level {
	return logLevels[strings.ToLower(c.Server.LogLevel)]
}
