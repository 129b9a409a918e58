// Package fabric adapts a Hyperledger Fabric chaincode stub to store.Ledger.
//
// Private partitions map onto the implicit per organization collections, so
// the peer enforces that only the owning organization can read them.
package fabric

import (
	"context"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/wolfeidau/partchain/internal/store"
)

// Ledger implements store.Ledger over a chaincode stub.
type Ledger struct {
	stub shim.ChaincodeStubInterface
}

var _ store.Ledger = (*Ledger)(nil)

// New wraps the stub of the current invocation.
func New(stub shim.ChaincodeStubInterface) *Ledger {
	return &Ledger{stub: stub}
}

// TxFromStub builds the transaction context for the current invocation. The
// caller identity is the verified MSP ID of the submitting client.
func TxFromStub(stub shim.ChaincodeStubInterface, mspID string) (store.Tx, error) {
	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return store.Tx{}, fmt.Errorf("failed to read tx timestamp: %w", err)
	}

	transient, err := stub.GetTransient()
	if err != nil {
		return store.Tx{}, fmt.Errorf("failed to read transient map: %w", err)
	}

	return store.Tx{
		ID:        stub.GetTxID(),
		Caller:    mspID,
		Timestamp: ts.AsTime(),
		Transient: transient,
	}, nil
}

func (l *Ledger) GetPublic(ctx context.Context, key string) ([]byte, error) {
	b, err := l.stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return b, nil
}

func (l *Ledger) PutPublic(ctx context.Context, key string, value []byte) error {
	return l.stub.PutState(key, value)
}

func (l *Ledger) History(ctx context.Context, key string) ([]store.Modification, error) {
	iter, err := l.stub.GetHistoryForKey(key)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer iter.Close()

	var mods []store.Modification
	for iter.HasNext() {
		m, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate history: %w", err)
		}
		mods = append(mods, store.Modification{
			TxID:      m.GetTxId(),
			Timestamp: m.GetTimestamp().AsTime(),
			Value:     m.GetValue(),
			IsDelete:  m.GetIsDelete(),
		})
	}

	return mods, nil
}

func (l *Ledger) GetPrivate(ctx context.Context, partition, key string) ([]byte, error) {
	b, err := l.stub.GetPrivateData(partition, key)
	if err != nil {
		return nil, fmt.Errorf("get private data: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return b, nil
}

func (l *Ledger) PutPrivate(ctx context.Context, partition, key string, value []byte) error {
	return l.stub.PutPrivateData(partition, key, value)
}

func (l *Ledger) QueryPrivate(ctx context.Context, partition, query string) ([][]byte, error) {
	if _, err := store.ParseSelector(query); err != nil {
		return nil, err
	}

	iter, err := l.stub.GetPrivateDataQueryResult(partition, query)
	if err != nil {
		return nil, fmt.Errorf("query private data: %w", err)
	}
	defer iter.Close()

	var results [][]byte
	for iter.HasNext() {
		kv, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate query result: %w", err)
		}
		results = append(results, kv.GetValue())
	}

	return results, nil
}

// EmitEvent sets the chaincode event. Fabric keeps only the last event set in
// a transaction, and every operation emits at most one.
func (l *Ledger) EmitEvent(ctx context.Context, name string, payload []byte) error {
	return l.stub.SetEvent(name, payload)
}
