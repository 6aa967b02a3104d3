package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Client holds the console configuration.
type Client struct {
	APIURL string `toml:"api_url"`
	WSURL  string `toml:"ws_url"`
	// CAFile is an optional PEM bundle trusted for https/wss servers.
	CAFile         string        `toml:"ca_file"`
	RequestTimeout time.Duration `toml:"request_timeout"`

	ReconnectAttempts int           `toml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `toml:"reconnect_delay"`

	DashboardRefresh time.Duration `toml:"dashboard_refresh"`
	AlertDuration    time.Duration `toml:"alert_duration"`
	StatusDuration   time.Duration `toml:"status_duration"`
	WelcomeDuration  time.Duration `toml:"welcome_duration"`

	// ChartFile is where the analytics view writes its PNG chart.
	ChartFile string `toml:"chart_file"`

	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`

	Config      string `toml:"-"`
	ShowVersion bool   `toml:"-"`
}

// DefaultClient returns the built-in console configuration.
func DefaultClient() Client {
	return Client{
		APIURL:            "http://localhost:8000",
		WSURL:             "ws://localhost:8000",
		RequestTimeout:    15 * time.Second,
		ReconnectAttempts: 5,
		ReconnectDelay:    3 * time.Second,
		DashboardRefresh:  30 * time.Second,
		AlertDuration:     5 * time.Second,
		StatusDuration:    5 * time.Second,
		WelcomeDuration:   3 * time.Second,
		ChartFile:         "analytics.png",
		LogFile:           "console.log",
		LogLevel:          "info",
		Config:            "alphabase.toml",
	}
}

// ParseClient builds the console configuration from defaults, the TOML
// file, args and the environment, in increasing precedence.
func ParseClient(args []string) (*Client, error) {
	cfg := DefaultClient()

	// The config path has to be known before the file is read.
	pre := flag.NewFlagSet("console", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	pre.StringVar(&cfg.Config, "config", cfg.Config, "")
	_ = pre.Parse(filterFlags(args, "config"))
	if p := os.Getenv("ALPHABASE_CONFIG"); p != "" {
		cfg.Config = p
	}

	if cfg.Config != "" {
		if _, err := toml.DecodeFile(cfg.Config, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error while parsing config file: %w", err)
		}
	}

	flags := flag.NewFlagSet("console", flag.ContinueOnError)
	flags.StringVar(&cfg.Config, "config", cfg.Config, "path to TOML config file")
	flags.StringVar(&cfg.APIURL, "api", cfg.APIURL, "server API base URL")
	flags.StringVar(&cfg.WSURL, "ws", cfg.WSURL, "server websocket base URL")
	flags.StringVar(&cfg.CAFile, "ca", cfg.CAFile, "path to CA cert")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.StringVar(&cfg.ChartFile, "chart", cfg.ChartFile, "analytics chart output (empty disables)")
	flags.DurationVar(&cfg.DashboardRefresh, "refresh", cfg.DashboardRefresh, "dashboard refresh interval (0 disables)")
	flags.BoolVar(&cfg.ShowVersion, "version", false, "show build version and date")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if u := os.Getenv("ALPHABASE_API_URL"); u != "" {
		cfg.APIURL = u
	}
	if u := os.Getenv("ALPHABASE_WS_URL"); u != "" {
		cfg.WSURL = u
	}

	if cfg.APIURL == "" {
		return nil, errors.New("api url is required")
	}
	return &cfg, nil
}

// filterFlags keeps only -name/--name arguments and their values.
func filterFlags(args []string, name string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			continue
		}
		a := strings.TrimPrefix(args[i], "-")
		a = strings.TrimPrefix(a, "-")
		switch {
		case a == name:
			out = append(out, args[i])
			if i+1 < len(args) {
				out = append(out, args[i+1])
				i++
			}
		case strings.HasPrefix(a, name+"="):
			out = append(out, args[i])
		}
	}
	return out
}
