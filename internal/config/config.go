// Package config loads datame's optional YAML configuration file and layers
// environment overrides on top. Command-line flags are applied last by the
// cli package.
package config

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/datame/internal/errs"
)

// DefaultFile is read when --config is not given and the file exists.
const DefaultFile = "datame.yaml"

// Environment variables consulted by ApplyEnv.
const (
	EnvS3Endpoint  = "DATAME_S3_ENDPOINT"
	EnvS3AccessKey = "DATAME_S3_ACCESS_KEY"
	EnvS3SecretKey = "DATAME_S3_SECRET_KEY"
	EnvDatabaseDSN = "DATAME_DATABASE_DSN"
)

// Config is the full set of run settings.
type Config struct {
	Records   int    `yaml:"records"`
	Format    string `yaml:"format"`
	Workers   int    `yaml:"workers"`
	BatchSize int    `yaml:"batch_size"`
	Compress  string `yaml:"compress"`
	Pretty    bool   `yaml:"pretty"`
	Header    bool   `yaml:"header"`

	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Store    Store    `yaml:"store"`
	Server   Server   `yaml:"server"`
}

// Log mirrors logger.Config.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Database holds the connection string and pool tuning for SQL and document
// outputs. DSN is used when the output argument is not itself a DSN.
type Database struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

// Store configures the object store used for s3:// outputs.
type Store struct {
	Endpoint     string        `yaml:"endpoint"`
	AccessKey    string        `yaml:"access_key"`
	SecretKey    string        `yaml:"secret_key"`
	UseSSL       bool          `yaml:"use_ssl"`
	Region       string        `yaml:"region"`
	CreateBucket bool          `yaml:"create_bucket"`
	Presign      time.Duration `yaml:"presign"`
}

// Server configures `datame serve`.
type Server struct {
	Addr       string `yaml:"addr"`
	MaxRecords int    `yaml:"max_records"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Records:   10,
		Workers:   1,
		BatchSize: 500,
		Header:    true,
		Log:       Log{Level: "warn", Format: "console"},
		Database: Database{
			MaxConns:        4,
			ConnectTimeout:  10 * time.Second,
			QueryTimeout:    30 * time.Second,
			MaxConnLifetime: 30 * time.Minute,
		},
		Server: Server{Addr: ":8080", MaxRecords: 10000},
	}
}

// Load reads path over Default. A missing DefaultFile is not an error; any
// other missing path is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errs.Wrap(errs.ErrKindIO, "read config "+path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config "+path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides credentials from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvS3Endpoint); v != "" {
		c.Store.Endpoint = v
	}
	if v := getenv(EnvS3AccessKey); v != "" {
		c.Store.AccessKey = v
	}
	if v := getenv(EnvS3SecretKey); v != "" {
		c.Store.SecretKey = v
	}
	if v := getenv(EnvDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	switch {
	case c.Records < 0:
		return errs.Newf(errs.ErrKindInvalidInput, "records must not be negative, got %d", c.Records)
	case c.Workers < 1:
		return errs.Newf(errs.ErrKindInvalidInput, "workers must be at least 1, got %d", c.Workers)
	case c.BatchSize < 1:
		return errs.Newf(errs.ErrKindInvalidInput, "batch_size must be at least 1, got %d", c.BatchSize)
	case c.Compress != "" && c.Compress != "none" && c.Compress != "lz4":
		return errs.Newf(errs.ErrKindInvalidInput, "unknown compression %q", c.Compress)
	case c.Server.MaxRecords < 1:
		return errs.Newf(errs.ErrKindInvalidInput, "server.max_records must be at least 1, got %d", c.Server.MaxRecords)
	case c.Database.MaxConns < 1:
		return errs.Newf(errs.ErrKindInvalidInput, "database.max_conns must be at least 1, got %d", c.Database.MaxConns)
	}
	return nil
}
