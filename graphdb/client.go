// Package graphdb wraps the graph database that stores the regulation knowledge graph.
package graphdb

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotConnected  = errors.New("graph database not connected")
	ErrInvalidConfig = errors.New("invalid graph database config")
	ErrQueryFailed   = errors.New("graph query failed")
)

// Record is a single result row keyed by column name
type Record map[string]any

// WriteSummary reports the counters of a write transaction
type WriteSummary struct {
	NodesCreated         int
	RelationshipsCreated int
	PropertiesSet        int
	ExecutionTime        time.Duration
}

// Client is the graph store capability consumed by the knowledge layer.
// Implementations must be safe for concurrent use.
type Client interface {
	// Read runs cypher in a read-only transaction.
	Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error)

	// Write runs cypher in a write transaction. Only schema bootstrap and ingestion call it.
	Write(ctx context.Context, cypher string, params map[string]any) (WriteSummary, error)

	Close(ctx context.Context) error
}

// Config contains connection settings for the graph database
type Config struct {
	// URI is the bolt/neo4j connection URI, e.g. "bolt://localhost:7687"
	URI      string
	Username string
	Password string
	Database string

	// ReadUsername/ReadPassword, when set, are used for every read session.
	// Point them at a role without write privileges so synthesized queries cannot mutate data.
	ReadUsername string
	ReadPassword string

	MaxConnectionPoolSize   int
	ConnectionTimeout       time.Duration
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate checks if the configuration is usable
func (c Config) Validate() error {
	switch {
	case c.URI == "":
		return errors.Join(ErrInvalidConfig, errors.New("URI cannot be empty"))
	case c.Username == "":
		return errors.Join(ErrInvalidConfig, errors.New("username cannot be empty"))
	case c.ConnectionTimeout <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("connection timeout must be positive"))
	case (c.ReadUsername == "") != (c.ReadPassword == ""):
		return errors.Join(ErrInvalidConfig, errors.New("read username and password must be set together"))
	}
	return nil
}

// HasReadCredential reports whether a dedicated read-only login is configured
func (c Config) HasReadCredential() bool {
	return c.ReadUsername != ""
}
