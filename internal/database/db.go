package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DSN builds the driver connection string.
//
// parseTime=true scans DATE/TIMESTAMP into time.Time and loc=UTC keeps them
// consistent.  clientFoundRows=true makes RowsAffected count matched rows, so
// an UPDATE that rewrites identical values still reports the row as found.
func DSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
		reservation_id   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		first_name       VARCHAR(255) NOT NULL,
		last_name        VARCHAR(255) NOT NULL,
		mobile_number    VARCHAR(64)  NOT NULL,
		reservation_date DATE         NOT NULL,
		reservation_time TIME         NOT NULL,
		people           INT UNSIGNED NOT NULL,
		status           VARCHAR(16)  NOT NULL DEFAULT 'booked',
		created_at       TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_reservations_date (reservation_date),
		KEY idx_reservations_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tables (
		table_id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		table_name     VARCHAR(255) NOT NULL,
		capacity       INT UNSIGNED NOT NULL,
		reservation_id BIGINT UNSIGNED NULL,
		created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_tables_reservation FOREIGN KEY (reservation_id)
			REFERENCES reservations (reservation_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the reservations and tables tables if they do not exist.
// It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
