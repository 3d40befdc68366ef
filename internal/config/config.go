package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ApplyEnv перекрывает параметры подключения переменными окружения
// SEABATTLE_DB_* (обычно загружаются из .env). Пустые значения игнорируются.
func (d *DatabaseConfig) ApplyEnv() {
	if v := os.Getenv("SEABATTLE_DB_HOST"); v != "" {
		d.Host = v
	}
	if v := os.Getenv("SEABATTLE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			d.Port = port
		}
	}
	if v := os.Getenv("SEABATTLE_DB_USER"); v != "" {
		d.User = v
	}
	if v := os.Getenv("SEABATTLE_DB_PASSWORD"); v != "" {
		d.Password = v
	}
	if v := os.Getenv("SEABATTLE_DB_NAME"); v != "" {
		d.DBName = v
	}
	if v := os.Getenv("SEABATTLE_DB_SSLMODE"); v != "" {
		d.SSLMode = v
	}
}
