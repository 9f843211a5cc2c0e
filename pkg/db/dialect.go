package db

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/smallbiznis/chirp/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the gorm dialector for DATABASE_TYPE.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "postgres":
		return postgres.Open(postgresDSN(cfg)), nil
	case "mysql":
		return mysql.Open(mysqlDSN(cfg)), nil
	case "sqlite":
		return sqlite.Open(sqliteDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}

func postgresDSN(cfg config.Config) string {
	sslMode := strings.TrimSpace(cfg.DBSSLMode)
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode)
}

// mysqlDSN keeps timestamps in UTC and text in utf8mb4 so group names round trip.
func mysqlDSN(cfg config.Config) string {
	params := url.Values{}
	params.Set("charset", "utf8mb4")
	params.Set("parseTime", "true")
	params.Set("loc", "UTC")
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		cfg.DBUser, cfg.DBPassword, net.JoinHostPort(cfg.DBHost, cfg.DBPort), cfg.DBName, params.Encode())
}

func sqliteDSN(cfg config.Config) string {
	name := strings.TrimSpace(cfg.DBName)
	if name == "" {
		name = "chirp"
	}
	if !strings.HasSuffix(name, ".db") {
		name += ".db"
	}
	return name + "?_foreign_keys=1&_busy_timeout=5000"
}
