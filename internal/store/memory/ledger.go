package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/store"
)

// Ledger implements a single peer view of the ledger using in-memory storage.
// This implementation is for testing and local development only - data is lost on restart.
type Ledger struct {
	mu sync.RWMutex

	public  map[string][]byte
	history map[string][]store.Modification
	private map[string]map[string][]byte // partition -> key -> value
	events  []store.Event
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		public:  make(map[string][]byte),
		history: make(map[string][]store.Modification),
		private: make(map[string]map[string][]byte),
	}
}

// Transact runs fn against a transaction view of the ledger. Transactions are
// serialized. Writes are buffered and applied only when fn returns nil, so a
// failing call leaves the ledger untouched.
func (l *Ledger) Transact(ctx context.Context, tx store.Tx, fn func(ctx context.Context, view store.Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := &view{
		l:       l,
		tx:      tx,
		public:  make(map[string][]byte),
		private: make(map[string]map[string][]byte),
	}

	if err := fn(ctx, v); err != nil {
		log.Debug().Str("tx_id", tx.ID).Err(err).Msg("Discarding transaction writes")
		return err
	}

	v.commit()

	return nil
}

var _ store.Transactor = (*Ledger)(nil)

// Events returns the events committed so far.
func (l *Ledger) Events() []store.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.events)
}

// TxEvents returns the events committed by one transaction.
func (l *Ledger) TxEvents(ctx context.Context, txID string) ([]store.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []store.Event
	for _, e := range l.events {
		if e.TxID == txID {
			out = append(out, e)
		}
	}
	return out, nil
}

type view struct {
	l  *Ledger
	tx store.Tx

	// staged writes, applied on commit
	order   []string
	public  map[string][]byte
	private map[string]map[string][]byte
	events  []store.Event
}

var _ store.Ledger = (*view)(nil)

func (v *view) GetPublic(ctx context.Context, key string) ([]byte, error) {
	return slices.Clone(v.l.public[key]), nil
}

func (v *view) PutPublic(ctx context.Context, key string, value []byte) error {
	if _, staged := v.public[key]; !staged {
		v.order = append(v.order, key)
	}
	v.public[key] = slices.Clone(value)
	return nil
}

func (v *view) History(ctx context.Context, key string) ([]store.Modification, error) {
	mods := v.l.history[key]
	out := make([]store.Modification, len(mods))
	for i, m := range mods {
		m.Value = slices.Clone(m.Value)
		out[i] = m
	}
	return out, nil
}

func (v *view) GetPrivate(ctx context.Context, partition, key string) ([]byte, error) {
	return slices.Clone(v.l.private[partition][key]), nil
}

func (v *view) PutPrivate(ctx context.Context, partition, key string, value []byte) error {
	p, ok := v.private[partition]
	if !ok {
		p = make(map[string][]byte)
		v.private[partition] = p
	}
	p[key] = slices.Clone(value)
	return nil
}

func (v *view) QueryPrivate(ctx context.Context, partition, query string) ([][]byte, error) {
	selector, err := store.ParseSelector(query)
	if err != nil {
		return nil, err
	}

	p := v.l.private[partition]
	keys := slices.Sorted(maps.Keys(p))

	var results [][]byte
	for _, k := range keys {
		if store.MatchSelector(selector, p[k]) {
			results = append(results, slices.Clone(p[k]))
		}
	}

	return results, nil
}

func (v *view) EmitEvent(ctx context.Context, name string, payload []byte) error {
	v.events = append(v.events, store.Event{TxID: v.tx.ID, Name: name, Payload: slices.Clone(payload)})
	return nil
}

func (v *view) commit() {
	for _, key := range v.order {
		value := v.public[key]
		v.l.public[key] = value
		v.l.history[key] = append(v.l.history[key], store.Modification{
			TxID:      v.tx.ID,
			Timestamp: v.tx.Timestamp,
			Value:     value,
		})
	}

	for partition, writes := range v.private {
		p, ok := v.l.private[partition]
		if !ok {
			p = make(map[string][]byte)
			v.l.private[partition] = p
		}
		maps.Copy(p, writes)
	}

	v.l.events = append(v.l.events, v.events...)
}
