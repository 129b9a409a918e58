package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for common error conditions
var (
	ErrBadQuery = errors.New("malformed rich query")
)

// TimestampLayout is the layout of every timestamp written to the ledger.
const TimestampLayout = "2006-01-02 15:04:05"

// Tx is the call scoped transaction context: the verified caller identity,
// the transaction id and timestamp assigned by the platform, and the transient
// map which is never persisted.
type Tx struct {
	ID        string
	Caller    string
	Timestamp time.Time
	Transient map[string][]byte
}

// Stamp returns the transaction timestamp in TimestampLayout, in UTC.
func (t Tx) Stamp() string {
	return t.Timestamp.UTC().Format(TimestampLayout)
}

// PublicStore is the world state readable by every organization.
//
// Reads observe the state as of the start of the transaction; writes made
// earlier in the same transaction are not visible until it commits.
type PublicStore interface {
	// GetPublic returns nil when the key has no value.
	GetPublic(ctx context.Context, key string) ([]byte, error)
	PutPublic(ctx context.Context, key string, value []byte) error
	History(ctx context.Context, key string) ([]Modification, error)
}

// PrivateStore is the set of organization scoped private partitions.
type PrivateStore interface {
	// GetPrivate returns nil when the key has no value.
	GetPrivate(ctx context.Context, partition, key string) ([]byte, error)
	PutPrivate(ctx context.Context, partition, key string, value []byte) error
	// QueryPrivate evaluates a CouchDB style {"selector": {...}} query over
	// the JSON documents of a partition.
	QueryPrivate(ctx context.Context, partition, query string) ([][]byte, error)
}

// EventEmitter publishes a named event when the transaction commits.
type EventEmitter interface {
	EmitEvent(ctx context.Context, name string, payload []byte) error
}

// Ledger is the full collaborator surface used by the PartChain components.
type Ledger interface {
	PublicStore
	PrivateStore
	EventEmitter
}

// Transactor runs operations against a ledger outside of a Fabric peer, one
// serializable transaction per call.
type Transactor interface {
	Transact(ctx context.Context, tx Tx, fn func(ctx context.Context, l Ledger) error) error
	TxEvents(ctx context.Context, txID string) ([]Event, error)
}

// Event is an event committed by a transaction.
type Event struct {
	TxID    string
	Name    string
	Payload []byte
}

// Modification is one historical value of a public key.
type Modification struct {
	TxID      string
	Timestamp time.Time
	Value     []byte
	IsDelete  bool
}

// Partition returns the implicit private partition owned by org.
func Partition(org string) string {
	return "_implicit_org_" + org
}
