// Package config provides functionality for managing configuration options
// for the server and the console using command-line flags, configuration
// files and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the JSON config file.
	Config string `json:"-"`

	// JWTSecret signs access tokens.
	JWTSecret string `json:"jwt_secret"`

	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration `json:"-"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// RecipientRetention is how long removed recipients are kept before the
	// cleaner purges them.
	RecipientRetention time.Duration `json:"-"`

	// RulesFile is the TOML file with the data collection access rules.
	RulesFile string `json:"rules_file"`
}

// ParseServer parses args (without the program name), the JSON config file
// and environment variables. Flags given explicitly win over the file;
// environment variables win over both.
func ParseServer(args []string) (*Options, error) {
	opts := &Options{}

	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	flags.StringVar(&opts.Port, "a", "localhost:8000", "run on ip:port server")
	flags.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	flags.StringVar(&opts.Config, "config", "config.json", "path to config file")
	flags.StringVar(&opts.Config, "c", "config.json", "path to config file (shorthand)")
	flags.StringVar(&opts.JWTSecret, "jwt-secret", "", "secret used to sign access tokens")
	flags.DurationVar(&opts.TokenTTL, "token-ttl", 24*time.Hour, "access token lifetime")
	flags.StringVar(&opts.TLSCert, "tls-cert", "", "path to TLS certificate")
	flags.StringVar(&opts.TLSKey, "tls-key", "", "path to TLS key")
	flags.StringVar(&opts.LogLevel, "log-level", "info", "log level")
	flags.DurationVar(&opts.RecipientRetention, "recipient-retention", 30*24*time.Hour, "how long removed recipients are kept")
	flags.StringVar(&opts.RulesFile, "rules", "", "path to the collection access rules (TOML)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}

	if opts.Config != "" {
		explicit := *opts
		if err := readJSON(opts.Config, opts); err != nil {
			return nil, err
		}
		flags.Visit(func(f *flag.Flag) { reapply(f.Name, &explicit, opts) })
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		opts.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		opts.DatabaseDSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		opts.JWTSecret = secret
	}

	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required (-jwt-secret or JWT_SECRET)")
	}
	return opts, nil
}

func readJSON(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func reapply(name string, from, to *Options) {
	switch name {
	case "a":
		to.Port = from.Port
	case "d":
		to.DatabaseDSN = from.DatabaseDSN
	case "jwt-secret":
		to.JWTSecret = from.JWTSecret
	case "tls-cert":
		to.TLSCert = from.TLSCert
	case "tls-key":
		to.TLSKey = from.TLSKey
	case "log-level":
		to.LogLevel = from.LogLevel
	case "rules":
		to.RulesFile = from.RulesFile
	}
}
