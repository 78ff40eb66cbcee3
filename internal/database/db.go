package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// TotalTickets is the fixed size of the raffle inventory.  All ticket
// numbers lie in [0, TotalTickets).  Rows are seeded once and never
// deleted; only the available flag changes afterwards.
const TotalTickets = 10000

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
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
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the application tables when they do not exist yet.
// The statements are idempotent so the server can run them on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tickets (
			number INT UNSIGNED NOT NULL PRIMARY KEY,
			available TINYINT(1) NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id CHAR(36) NOT NULL PRIMARY KEY,
			reservation_code VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			total_amount_cents INT UNSIGNED NOT NULL,
			buyer_name VARCHAR(255) NULL,
			buyer_phone VARCHAR(32) NULL,
			buyer_state VARCHAR(64) NULL,
			owner_id BIGINT UNSIGNED NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_reservation_code (reservation_code)
		)`,
		`CREATE TABLE IF NOT EXISTS reservation_tickets (
			reservation_id CHAR(36) NOT NULL,
			ticket_number INT UNSIGNED NOT NULL,
			PRIMARY KEY (reservation_id, ticket_number),
			KEY idx_ticket_number (ticket_number)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'CUSTOMER',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_email (email)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SeedTickets bulk-inserts the fixed inventory of ticket numbers.  INSERT
// IGNORE makes the seed idempotent: numbers already present keep their
// current availability so a restart never resets reserved tickets.  Rows
// are inserted in batches to stay well below the server's packet limit.
func SeedTickets(ctx context.Context, db *sql.DB) error {
	const batch = 1000
	for start := 0; start < TotalTickets; start += batch {
		var sb strings.Builder
		sb.WriteString("INSERT IGNORE INTO tickets (number, available) VALUES ")
		args := make([]interface{}, 0, batch)
		for n := start; n < start+batch; n++ {
			if n > start {
				sb.WriteString(",")
			}
			sb.WriteString("(?, 1)")
			args = append(args, n)
		}
		if _, err := db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("seed tickets %d-%d: %w", start, start+batch-1, err)
		}
	}
	return nil
}
