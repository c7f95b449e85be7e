package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresSink records connection-lifecycle events (connect, disconnect,
// peer rebind) for later audit.
type PostgresSink struct {
	db *sql.DB
}

// PostgresSinkConfig configures the connection to the audit database.
type PostgresSinkConfig struct {
	Host, User, Password, DBName, SSLMode string
	Port                                  int
}

// NewPostgresSink connects, verifies reachability, and ensures the audit
// table exists.
func NewPostgresSink(cfg PostgresSinkConfig) (*PostgresSink, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("telemetry: pinging postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	sink := &PostgresSink{db: db}
	if err := sink.initSchema(); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *PostgresSink) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS tunnel_events (
		id SERIAL PRIMARY KEY,
		role VARCHAR(16) NOT NULL,
		event VARCHAR(32) NOT NULL,
		peer_addr VARCHAR(64),
		occurred_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_tunnel_events_occurred_at ON tunnel_events(occurred_at);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("telemetry: initializing schema: %w", err)
	}
	return nil
}

// RecordEvent appends one audit row: "connected", "disconnected", or
// "peer_rebind".
func (s *PostgresSink) RecordEvent(role, event, peerAddr string) error {
	_, err := s.db.Exec(
		`INSERT INTO tunnel_events (role, event, peer_addr) VALUES ($1, $2, $3)`,
		role, event, peerAddr,
	)
	if err != nil {
		return fmt.Errorf("telemetry: recording event: %w", err)
	}
	return nil
}

// Close releases the underlying database connection pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
