package postgres

import (
	"fmt"
)

// LedgerConfig holds configuration for the PostgreSQL development ledger.
// Pool configuration is handled separately via PoolConfig.
type LedgerConfig struct {
	PoolConfig

	// AutoMigrate runs the embedded schema migrations when the ledger is opened.
	AutoMigrate bool

	// MaxTries bounds how often a transaction is attempted when PostgreSQL
	// reports a serialization failure or deadlock.
	// Default: 5
	MaxTries uint

	// QueryTimeoutSeconds is the maximum time a transaction can run before timing out.
	// Default: 10 seconds
	// Set to 0 to use context timeouts only (no additional timeout)
	QueryTimeoutSeconds int32
}

// Validate checks that the configuration is valid.
func (c *LedgerConfig) Validate() error {
	if err := c.PoolConfig.Validate(); err != nil {
		return err
	}
	if c.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *LedgerConfig) ApplyDefaults() {
	c.PoolConfig.ApplyDefaults()
	if c.MaxTries == 0 {
		c.MaxTries = 5
	}
	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = 10 // 10 seconds
	}
}
