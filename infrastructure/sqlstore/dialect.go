package sqlstore

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Supported driver names
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

type dialect struct {
	driver string
	schema []string
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		size INTEGER NOT NULL CHECK (size >= 0),
		duration REAL NOT NULL CHECK (duration >= 0),
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assets_owner ON assets (owner_id)`,
	`CREATE TABLE IF NOT EXISTS share_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE,
		asset_id INTEGER NOT NULL REFERENCES assets (id),
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		owner_id VARCHAR(255) NOT NULL,
		file_path VARCHAR(1024) NOT NULL,
		size BIGINT NOT NULL,
		duration DOUBLE NOT NULL,
		created_at BIGINT NOT NULL,
		INDEX idx_assets_owner (owner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS share_links (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		token VARCHAR(64) NOT NULL,
		asset_id BIGINT NOT NULL,
		expires_at BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		UNIQUE KEY uq_share_links_token (token),
		CONSTRAINT fk_share_links_asset FOREIGN KEY (asset_id) REFERENCES assets (id)
	)`,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return dialect{driver: driver, schema: sqliteSchema}, nil
	case DriverMySQL:
		return dialect{driver: driver, schema: mysqlSchema}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// isUniqueViolation reports whether err is a unique constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
