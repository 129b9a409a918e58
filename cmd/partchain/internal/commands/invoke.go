package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/partchain/internal/contract"
	"github.com/wolfeidau/partchain/internal/logger"
	"github.com/wolfeidau/partchain/internal/store"
)

type InvokeCmd struct {
	Caller    string `help:"MSP ID of the calling organisation" required:"" env:"PARTCHAIN_CALLER"`
	Function  string `arg:"" help:"operation name, for example CreateAsset"`
	Args      string `arg:"" optional:"" help:"JSON arguments"`
	Transient string `help:"JSON private payload passed through the transient map" default:""`

	Ledger LedgerFlags `embed:""`
}

func (c *InvokeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ledger, closeLedger, err := c.Ledger.open(ctx, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	tx := store.Tx{
		ID:        uuid.NewString(),
		Caller:    c.Caller,
		Timestamp: time.Now().UTC(),
	}
	if c.Transient != "" {
		tx.Transient = map[string][]byte{contract.TransientKey: []byte(c.Transient)}
	}

	router := contract.NewRouter(log)

	resp, events := router.Invoke(ctx, ledger, tx, c.Function, []byte(c.Args))

	out := struct {
		TxID     string            `json:"txId"`
		Response contract.Response `json:"response"`
		Events   []eventView       `json:"events,omitempty"`
	}{TxID: tx.ID, Response: resp, Events: viewEvents(events)}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if !resp.OK() {
		return fmt.Errorf("%s failed: %d %s", c.Function, resp.Status, resp.Kind)
	}
	return nil
}

type eventView struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

func viewEvents(events []store.Event) []eventView {
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView{Name: e.Name, Payload: json.RawMessage(e.Payload)})
	}
	return views
}
