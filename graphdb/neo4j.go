package graphdb

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jClient implements Client for Neo4j.
// Reads always run in READ access mode, on a separate driver when a read-only credential is configured.
type Neo4jClient struct {
	config Config
	writer neo4j.DriverWithContext
	reader neo4j.DriverWithContext
}

// NewNeo4jClient creates a client and connects both drivers
func NewNeo4jClient(ctx context.Context, config Config) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Neo4jClient{config: config}

	writer, err := c.connect(ctx, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, err
	}
	c.writer = writer
	c.reader = writer

	if config.HasReadCredential() {
		reader, err := c.connect(ctx, neo4j.BasicAuth(config.ReadUsername, config.ReadPassword, ""))
		if err != nil {
			_ = writer.Close(ctx)
			return nil, fmt.Errorf("failed to connect read-only session: %w", err)
		}
		c.reader = reader
	} else {
		log.Println("Warning: no read-only graph credential configured; synthesized queries rely on READ access mode only")
	}

	return c, nil
}

// connect creates a driver with exponential backoff
func (c *Neo4jClient) connect(ctx context.Context, auth neo4j.AuthToken) (neo4j.DriverWithContext, error) {
	driverConfig := func(cfg *neo4j.Config) {
		if c.config.MaxConnectionPoolSize > 0 {
			cfg.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		}
		cfg.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		if c.config.MaxTransactionRetryTime > 0 {
			cfg.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
		}
	}

	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, driverConfig)
		if err == nil {
			if err = driver.VerifyConnectivity(ctx); err == nil {
				return driver, nil
			}
			_ = driver.Close(ctx)
		}
		lastErr = err

		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.config.ConnectionTimeout {
			delay = c.config.ConnectionTimeout
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("connection attempt cancelled: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("failed to connect to neo4j after %d attempts: %w", maxRetries, lastErr)
}

// Read executes cypher in a managed read transaction
func (c *Neo4jClient) Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	if c.reader == nil {
		return nil, ErrNotConnected
	}

	session := c.reader.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return convertRecords(records), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return result.([]Record), nil
}

// Write executes cypher in a managed write transaction
func (c *Neo4jClient) Write(ctx context.Context, cypher string, params map[string]any) (WriteSummary, error) {
	if c.writer == nil {
		return WriteSummary{}, ErrNotConnected
	}

	start := time.Now()
	session := c.writer.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return convertSummary(summary), nil
	})
	if err != nil {
		return WriteSummary{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	summary := result.(WriteSummary)
	summary.ExecutionTime = time.Since(start)
	return summary, nil
}

// Close releases both drivers
func (c *Neo4jClient) Close(ctx context.Context) error {
	var err error
	if c.reader != nil && c.reader != c.writer {
		err = c.reader.Close(ctx)
	}
	if c.writer != nil {
		if werr := c.writer.Close(ctx); werr != nil && err == nil {
			err = werr
		}
	}
	c.reader, c.writer = nil, nil
	return err
}

func convertRecords(records []*neo4j.Record) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		row := make(Record, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = record.Values[i]
		}
		out = append(out, row)
	}
	return out
}

func convertSummary(summary neo4j.ResultSummary) WriteSummary {
	if summary == nil || summary.Counters() == nil {
		return WriteSummary{}
	}
	counters := summary.Counters()
	return WriteSummary{
		NodesCreated:         counters.NodesCreated(),
		RelationshipsCreated: counters.RelationshipsCreated(),
		PropertiesSet:        counters.PropertiesSet(),
	}
}
