package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/dbsmedya/dsplineage/internal/config"
	"github.com/dbsmedya/dsplineage/internal/logger"
)

const (
	connectAttempts = 3
	connectBackoff  = time.Second
	connMaxLifetime = 10 * time.Minute
)

// dial opens the replica and pings it, backing off between failed attempts.
func dial(ctx context.Context, cfg *config.DatabaseConfig, attempts int, backoff time.Duration, log *logger.Logger) (*sql.DB, error) {
	if attempts < 1 {
		attempts = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := openPool(cfg)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				return db, nil
			}
			db.Close()
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		log.Debugw("Catalog connection failed, retrying",
			"host", cfg.Host,
			"attempt", attempt,
			"backoff", backoff,
			"error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("catalog unreachable after %d attempts: %w", attempts, lastErr)
}

func openPool(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", BuildDSN(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

// BuildDSN renders the driver DSN for cfg. The catalog is read-only, so
// multi-statement mode is never enabled.
func BuildDSN(cfg *config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.TLSConfig = tlsMode(cfg.TLS)
	return mc.FormatDSN()
}

func tlsMode(setting string) string {
	switch setting {
	case "disable":
		return "false"
	case "required":
		return "true"
	default:
		return "preferred"
	}
}
