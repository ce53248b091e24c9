// Package config loads and validates process configuration from struct
// defaults, an optional YAML config file and STAFFLOW_-prefixed environment
// variables.
package config

import "fmt"

type Config struct {
	Server   ServerConfig   `koanf:"server"   yaml:"server"   validate:"required"`
	Database DatabaseConfig `koanf:"database" yaml:"database" validate:"required"`
	Log      LogConfig      `koanf:"log"      yaml:"log"      validate:"required"`
}

type ServerConfig struct {
	Host string `koanf:"host" yaml:"host"`
	Port int    `koanf:"port" yaml:"port" validate:"gt=0,lte=65535"`
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host        string `koanf:"host"     yaml:"host"     validate:"required"`
	Port        int    `koanf:"port"     yaml:"port"     validate:"gt=0,lte=65535"`
	User        string `koanf:"user"     yaml:"user"     validate:"required"`
	Password    string `koanf:"password" yaml:"password"`
	Name        string `koanf:"name"     yaml:"name"     validate:"required"`
	SSLMode     string `koanf:"sslmode"  yaml:"sslmode"  validate:"oneof=disable require verify-ca verify-full"`
	AutoMigrate bool   `koanf:"automigrate" yaml:"automigrate"`
}

// DSN renders the connection string understood by pgx and database/sql.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type LogConfig struct {
	Level  string `koanf:"level"  yaml:"level" validate:"oneof=debug info warn error"`
	JSON   bool   `koanf:"json"   yaml:"json"`
	Source bool   `koanf:"source" yaml:"source"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "stafflow",
			Name:    "stafflow",
			SSLMode: "disable",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
