package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Mode     string `yaml:"mode" env:"MINES_MODE" env-default:"development"`
	LogLevel string `yaml:"log_level" env:"MINES_LOG_LEVEL"`
	LogFile  string `yaml:"log_file" env:"MINES_LOG_FILE"`

	Port     int    `yaml:"port" env:"MINES_PORT" env-default:"4444"`
	HTTPAddr string `yaml:"http_addr" env:"MINES_HTTP_ADDR" env-default:":8080"`
	Debug    bool   `yaml:"debug" env:"MINES_DEBUG"`

	Board Board `yaml:"board"`

	Session Session `yaml:"session"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MINES_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// Board selects the board source: File wins over Rows/Columns.
type Board struct {
	File    string  `yaml:"file" env:"MINES_BOARD_FILE"`
	Rows    int     `yaml:"rows" env:"MINES_BOARD_ROWS" env-default:"10"`
	Columns int     `yaml:"columns" env:"MINES_BOARD_COLUMNS" env-default:"10"`
	Density float64 `yaml:"density" env:"MINES_BOARD_DENSITY" env-default:"0.25"`
}

type Session struct {
	// CommandRate is the number of commands per second a single session
	// may issue. Zero means unlimited.
	CommandRate  float64       `yaml:"command_rate" env:"MINES_COMMAND_RATE"`
	CommandBurst int           `yaml:"command_burst" env:"MINES_COMMAND_BURST" env-default:"10"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"MINES_IDLE_TIMEOUT"`
}

var (
	ErrInvalidPort  = errors.New("port must be between 0 and 65535")
	ErrInvalidBoard = errors.New("board rows and columns must be positive")
	ErrInvalidMode  = errors.New(`mode must be "development" or "production"`)
)

// Load reads the config file at path, if any, and applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Mode != "development" && c.Mode != "production" {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.Board.File == "" && (c.Board.Rows <= 0 || c.Board.Columns <= 0) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBoard, c.Board.Rows, c.Board.Columns)
	}
	return nil
}

func (c *Config) Production() bool {
	return c.Mode == "production"
}

func (c *Config) Development() bool {
	return c.Mode != "production"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Fields() logrus.Fields {
	return logrus.Fields{
		"mode":             c.Mode,
		"log_level":        c.LogLevel,
		"log_file":         c.LogFile,
		"port":             c.Port,
		"http_addr":        c.HTTPAddr,
		"debug":            c.Debug,
		"board_file":       c.Board.File,
		"board_rows":       c.Board.Rows,
		"board_columns":    c.Board.Columns,
		"board_density":    c.Board.Density,
		"command_rate":     c.Session.CommandRate,
		"command_burst":    c.Session.CommandBurst,
		"idle_timeout":     c.Session.IdleTimeout.String(),
		"shutdown_timeout": c.ShutdownTimeout.String(),
	}
}
