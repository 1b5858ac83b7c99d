package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `env:"IDM_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"IDM_PG_PORT" env-default:"5432"`
	Database string `env:"IDM_PG_DATABASE" env-default:"idm_db"`
	User     string `env:"IDM_PG_USER" env-default:"idm"`
	Password string `env:"IDM_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"IDM_PG_SCHEMA" env-default:"public"`

	// MaxConns caps the pgx pool; zero keeps the pgx default
	MaxConns int32 `env:"IDM_PG_MAX_CONNS" env-default:"0"`
}

// ToDatabaseURL builds a connection URL understood by both pgx and lib/pq.
// Credentials are escaped.
func (d DatabaseConfig) ToDatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(int(d.Port))),
		Path:   "/" + d.Database,
	}
	// search_path is written by hand so the comma stays unescaped.
	u.RawQuery = "sslmode=disable&search_path=" + url.QueryEscape(d.Schema) + ",public"
	return u.String()
}

// PoolConfig returns the pgxpool configuration for d.
func (d DatabaseConfig) PoolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(d.ToDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if d.MaxConns > 0 {
		cfg.MaxConns = d.MaxConns
	}
	return cfg, nil
}
